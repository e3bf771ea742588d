package graph

import "github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"

// Routing decisions are pure functions of the classified state, kept apart
// from the node bodies so they can be tested in isolation.

// afterClassification short-circuits conversational intents to their
// dedicated response nodes; everything else goes through the permission
// gate.
func afterClassification(intent model.IntentType) Node {
	switch intent {
	case model.IntentGreeting:
		return NodeGreeting
	case model.IntentOutOfScope:
		return NodeOutOfScope
	case model.IntentClarification:
		return NodeClarification
	default:
		return NodeCheckPermissions
	}
}

func afterPermissions(allowed bool) Node {
	if !allowed {
		return NodeErrorResponse
	}
	return NodeGenerateSQL
}

// afterGeneration assumes the statement already passed the guard. Drafted
// mutations skip execution and go straight to the response.
func afterGeneration(state *model.AgentState) Node {
	if state.PendingConfirmation {
		return NodeGenerateResponse
	}
	return NodeExecuteSQL
}

// afterExecution decides whether a failed execution earns another pass
// through SQL generation. Only retryable kinds loop, and only while the
// retry budget lasts.
func afterExecution(state *model.AgentState) Node {
	result := state.ExecutionResult
	if result == nil || result.Success {
		return NodeGenerateResponse
	}
	if result.ErrorKind.Retryable() && state.RetryCount < state.MaxRetries {
		return NodeGenerateSQL
	}
	return NodeErrorResponse
}
