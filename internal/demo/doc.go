// Package demo contains the components served by "cellui serve" and
// rendered by "cellui render".
//
// The dashboard combines three components:
//
//   - Counter: cell writes, a text fast path, a reactive class and a watch
//     that only re-renders when the count crosses 10.
//   - Board: two Stepper children emitting Step messages to the board and
//     receiving Reset messages from it.
//   - Quote: an async loader that reads a quote off the loop and narrows
//     the result with guards.
package demo
