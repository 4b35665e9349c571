package aggregate

import "math"

// builtins returns the standard aggregator set.
//
//	sum    arithmetic sum of valid samples; 0 when none are valid
//	avg    arithmetic mean of valid samples; null when none are valid
//	count  size of the full input sequence, missing entries included
//	min    smallest valid sample; null when none are valid
//	max    largest valid sample; null when none are valid
//	stddev population standard deviation; null with fewer than two valid samples
func builtins() map[string]Func {
	return map[string]Func{
		"sum":    sum,
		"avg":    avg,
		"count":  count,
		"min":    minimum,
		"max":    maximum,
		"stddev": stddev,
	}
}

// valid filters out missing samples.
func valid(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func sum(values []*float64) *float64 {
	total := 0.0
	for _, v := range valid(values) {
		total += v
	}
	return ptr(total)
}

func avg(values []*float64) *float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return nil
	}
	total := 0.0
	for _, v := range vs {
		total += v
	}
	return ptr(total / float64(len(vs)))
}

func count(values []*float64) *float64 {
	return ptr(float64(len(values)))
}

func minimum(values []*float64) *float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return nil
	}
	lo := vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
	}
	return ptr(lo)
}

func maximum(values []*float64) *float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return nil
	}
	hi := vs[0]
	for _, v := range vs[1:] {
		hi = math.Max(hi, v)
	}
	return ptr(hi)
}

// stddev is the population standard deviation (divide by N). At least two
// valid samples are required to estimate spread; with fewer the result is
// null rather than a misleading zero.
func stddev(values []*float64) *float64 {
	vs := valid(values)
	if len(vs) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range vs {
		mean += v
	}
	mean /= float64(len(vs))

	variance := 0.0
	for _, v := range vs {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vs))
	return ptr(math.Sqrt(variance))
}
