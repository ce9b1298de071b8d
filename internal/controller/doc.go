// Package controller implements the hysteresis actuation controller.
//
// A Controller pulls kinded readings from a ReadingSource and produces
// Commands on demand. It keeps, per controlled parameter, the last action
// taken and when it was taken:
//
//   - within the rule cooldown (default 300s) nothing happens
//   - value < min and last action != ON: emit ON, reason below_min
//   - value > max and last action != OFF: emit OFF, reason above_max
//   - anything else: no command
//
// Output is lazy and one-shot. Each command is available as soon as the
// reading that caused it has been pulled, and once the source is drained
// the controller stays drained. To restart, build a new Controller.
//
// A Controller owns its state and must not be shared between goroutines.
package controller
