package expr

import (
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions is the fixed whitelist of callables available to expressions.
// Nothing outside this table can be invoked; Compile rejects unknown names
// before evaluation is ever attempted.
var functions = map[string]function.Function{
	"zscore": zscoreFunc,
	"clamp":  clampFunc,
	"abs":    stdlib.AbsoluteFunc,
	"round":  roundFunc,
	"min":    stdlib.MinFunc,
	"max":    stdlib.MaxFunc,
}

func numArg(name string) function.Parameter {
	return function.Parameter{
		Name:      name,
		Type:      cty.Number,
		AllowNull: true,
	}
}

func asFloat(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}

// zscoreFunc computes (value - mean) / stddev. A stddev of exactly zero
// means the population has no spread and the z-score is undefined, so the
// result is null rather than an infinity.
var zscoreFunc = function.New(&function.Spec{
	Params: []function.Parameter{numArg("value"), numArg("mean"), numArg("stddev")},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		for _, arg := range args {
			if arg.IsNull() {
				return cty.NullVal(cty.Number), nil
			}
		}
		stddev := asFloat(args[2])
		if stddev == 0 {
			return cty.NullVal(cty.Number), nil
		}
		return cty.NumberFloatVal((asFloat(args[0]) - asFloat(args[1])) / stddev), nil
	},
})

// clampFunc bounds value to the inclusive range [min, max].
var clampFunc = function.New(&function.Spec{
	Params: []function.Parameter{numArg("value"), numArg("min"), numArg("max")},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		for _, arg := range args {
			if arg.IsNull() {
				return cty.NullVal(cty.Number), nil
			}
		}
		v := asFloat(args[0])
		lo := asFloat(args[1])
		hi := asFloat(args[2])
		return cty.NumberFloatVal(math.Min(math.Max(v, lo), hi)), nil
	},
})

// roundFunc rounds to the nearest integer, halves away from zero.
var roundFunc = function.New(&function.Spec{
	Params: []function.Parameter{numArg("value")},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		if args[0].IsNull() {
			return cty.NullVal(cty.Number), nil
		}
		return cty.NumberFloatVal(math.Round(asFloat(args[0]))), nil
	},
})
