package orchestratornode

const (
	NodeValidateRequest = "validate_request"
	NodeReason          = "reason"
	NodeDispatchTools   = "dispatch_tools"
	NodeFinalizeTurn    = "finalize_turn"
)

// NextStep loops back through the tools while the model keeps asking for them
// and the iteration budget allows another reasoning call.
func NextStep(in *GraphState) string {
	if len(in.Pending) == 0 {
		return NodeFinalizeTurn
	}
	if in.Iterations >= in.MaxIterations {
		in.Exhausted = true
		return NodeFinalizeTurn
	}
	return NodeDispatchTools
}
