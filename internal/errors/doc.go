// Package errors provides structured, coded error values for cellui.
//
// Every contract violation and invariant breach detected by the reactive
// runtime is reported as a *CellError carrying a stable code:
//
//	err := errors.New(errors.CodeWriteInRender).
//	    WithComponent("counter").
//	    WithSuggestion("Move the write into an event handler")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R001: Cell written during render
//	//
//	//   component counter
//	//
//	//   Render, watch and attribute closures may only read state.
//	//
//	//   Hint: Move the write into an event handler
//
// # Error Categories
//
//   - contract: the caller broke a usage rule (write in render, stale view)
//   - structural: the runtime found itself in an unexpected state
//   - environment: the document host failed or is missing nodes
//   - config: the project file is invalid
//   - protocol: the live transport received a malformed frame
package errors
