package errors

// ErrorTemplate defines the static parts of a registered error.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// Runtime error codes.
const (
	CodeWriteInRender    = "R001"
	CodeStaleView        = "R002"
	CodeGuardOutOfScope  = "R003"
	CodeReentrantBorrow  = "R004"
	CodeInvalidToken     = "R005"
	CodeNodeMissing      = "R006"
	CodeDocument         = "R007"
	CodeForeignElement   = "R008"
	CodeSubMountedTwice  = "R009"
	CodeUnsettled        = "R010"
	CodeMountPoint       = "R011"
	CodeWrongMessageType = "R012"
	CodeConfigInvalid    = "C001"
	CodeConfigRead       = "C002"
	CodeBadFrame         = "P001"
	CodeUnknownNode      = "P002"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Contract violations (R001-R005, R008-R009, R012)
	// ============================================

	CodeWriteInRender: {
		Category:   CategoryContract,
		Message:    "Cell written during render",
		Detail:     "Render, watch and attribute closures may only read state.",
		Suggestion: "Move the write into an event handler or a deferred update",
	},
	CodeStaleView: {
		Category:   CategoryContract,
		Message:    "Context view used after its turn",
		Detail:     "A RenderCtx or EventCtx is only valid while the callback that received it is running.",
		Suggestion: "Obtain a Deferred handle for work that outlives the callback",
	},
	CodeGuardOutOfScope: {
		Category:   CategoryContract,
		Message:    "Guard dereferenced after its condition changed",
		Detail:     "A guard is only valid inside the render closure that produced it.",
	},
	CodeReentrantBorrow: {
		Category:   CategoryContract,
		Message:    "Component state borrowed re-entrantly",
		Detail:     "Exclusive access to a component was requested while it was already held.",
		Suggestion: "Do not call Deferred.Update or fire events synchronously from a handler of the same component",
	},
	CodeInvalidToken: {
		Category:   CategoryContract,
		Message:    "Invalid capability token",
		Detail:     "Messages must be sent with the token of the current turn of the receiving runtime.",
		Suggestion: "Use ctx.Token() from the callback that sends the message",
	},
	CodeForeignElement: {
		Category: CategoryContract,
		Message:  "Element built for a different component",
		Detail:   "Typed elements and handlers must be created for the state type of the component rendering them.",
	},
	CodeSubMountedTwice: {
		Category:   CategoryContract,
		Message:    "Sub-component mounted twice",
		Detail:     "A value returned by Child can only be placed in the tree once.",
		Suggestion: "Create the child inside the render closure",
	},
	CodeWrongMessageType: {
		Category: CategoryContract,
		Message:  "Message type not accepted",
		Detail:   "The receiving component does not handle messages.",
	},

	// ============================================
	// Structural and environment errors (R006-R007, R010-R011)
	// ============================================

	CodeNodeMissing: {
		Category: CategoryStructural,
		Message:  "Owned node is detached",
		Detail:   "A hook's nodes were no longer attached to the document when it re-ran.",
	},
	CodeDocument: {
		Category: CategoryEnvironment,
		Message:  "Document operation failed",
	},
	CodeUnsettled: {
		Category: CategoryStructural,
		Message:  "Turn did not settle",
		Detail:   "Message deliveries and change listeners kept producing work.",
	},
	CodeMountPoint: {
		Category: CategoryEnvironment,
		Message:  "Mount point not found",
	},

	// ============================================
	// Config errors (C001-C002)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	CodeConfigRead: {
		Category: CategoryConfig,
		Message:  "Configuration file could not be read",
	},

	// ============================================
	// Protocol errors (P001-P002)
	// ============================================

	CodeBadFrame: {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
	},
	CodeUnknownNode: {
		Category: CategoryProtocol,
		Message:  "Event targets an unknown node",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
