// Package app wires the widget engine into a runnable application: it
// owns the logger, the parsed configuration, the optional health check
// server, and the top-level run loop that prints computed widgets.
package app
