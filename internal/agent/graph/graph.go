package graph

import (
	"context"
	"fmt"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/fuzzy"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

// Node identifies one step of the conversation pipeline. The set is closed:
// every transition goes through the typed switch in run, so an unreachable
// or misspelled node cannot exist at runtime.
type Node string

const (
	NodeClassifyIntent   Node = "classify_intent"
	NodeCheckPermissions Node = "check_permissions"
	NodeGenerateSQL      Node = "generate_sql"
	NodeExecuteSQL       Node = "execute_sql"
	NodeGenerateResponse Node = "generate_response"
	NodeGreeting         Node = "greeting_response"
	NodeOutOfScope       Node = "out_of_scope_response"
	NodeClarification    Node = "clarification_response"
	NodeErrorResponse    Node = "error_response"
	NodeEnd              Node = "end"
)

// Engine wires the pipeline collaborators together and owns the transition
// loop. All dependencies arrive through the constructor.
type Engine struct {
	classifier model.IntentClassifier
	perms      model.PermissionSource
	translator model.QueryTranslator
	executor   model.QueryExecutor
	formatter  model.ResponseFormatter
	catalog    *fuzzy.Catalog
	cfg        model.AgentConfig
}

func New(
	classifier model.IntentClassifier,
	perms model.PermissionSource,
	translator model.QueryTranslator,
	executor model.QueryExecutor,
	formatter model.ResponseFormatter,
	catalog *fuzzy.Catalog,
	cfg model.AgentConfig,
) *Engine {
	return &Engine{
		classifier: classifier,
		perms:      perms,
		translator: translator,
		executor:   executor,
		formatter:  formatter,
		catalog:    catalog,
		cfg:        cfg,
	}
}

// run executes the pipeline for one turn, mutating state in place. It always
// terminates: either a response node transitions to NodeEnd or the step
// bound trips.
func (e *Engine) run(ctx context.Context, state *model.AgentState) error {
	// Longest legal run: classify, permissions, MaxRetries+1 generate/execute
	// pairs, a response node, then the NodeEnd iteration. Anything past this
	// indicates a routing bug.
	retries := state.MaxRetries
	if retries < 0 {
		retries = 0
	}
	maxSteps := 4 + 2*(retries+1)

	current := NodeClassifyIntent
	for step := 0; step < maxSteps; step++ {
		if current == NodeEnd {
			return nil
		}
		state.VisitNode(string(current))

		switch current {
		case NodeClassifyIntent:
			current = e.classifyIntent(ctx, state)
		case NodeCheckPermissions:
			current = e.checkPermissions(state)
		case NodeGenerateSQL:
			current = e.generateSQL(ctx, state)
		case NodeExecuteSQL:
			current = e.executeSQL(ctx, state)
		case NodeGenerateResponse, NodeGreeting, NodeOutOfScope, NodeClarification, NodeErrorResponse:
			current = e.respond(ctx, state)
		default:
			return fmt.Errorf("unknown pipeline node %q", current)
		}
	}
	return fmt.Errorf("pipeline exceeded %d steps, last node %q", maxSteps, current)
}
