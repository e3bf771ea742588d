package graph

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

// Runner wraps the engine with the per-turn lifecycle: checkpoint restore,
// the turn timeout, panic containment, and checkpoint persistence. It is the
// only entry point transports call.
type Runner struct {
	engine      *Engine
	checkpoints model.CheckpointRepository
	timeout     time.Duration
	maxRetries  int
}

func NewRunner(engine *Engine, checkpoints model.CheckpointRepository, cfg model.AgentConfig) *Runner {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		engine:      engine,
		checkpoints: checkpoints,
		timeout:     timeout,
		maxRetries:  cfg.MaxRetries,
	}
}

// Run processes one user turn end to end. It never panics and never returns
// an error to the transport: every failure mode resolves to a QueryOutput
// with a friendly message, while full detail goes to the logs.
func (r *Runner) Run(ctx context.Context, input model.QueryInput) *model.QueryOutput {
	state := model.NewState(input.QueryText, input.UserID, input.Role, input.SessionID, input.ThreadID, input.Origin)
	if r.maxRetries >= 0 {
		state.MaxRetries = r.maxRetries
	}

	r.restore(ctx, state)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.runGuarded(runCtx, state)

	state.CompletedAt = time.Now().UTC()
	r.persist(ctx, state)

	return toOutput(state)
}

// runGuarded contains panics from any collaborator so a single bad turn
// cannot take the process down. The caller only ever sees the generic
// system error.
func (r *Runner) runGuarded(ctx context.Context, state *model.AgentState) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().
				Str("thread_id", state.ThreadID).
				Str("panic", fmt.Sprintf("%v", rec)).
				Str("stack", string(debug.Stack())).
				Msg("Pipeline panicked")
			state.SetError(model.ErrorInternal, fmt.Sprintf("panic: %v", rec))
			friendly := model.FormatFriendlyError(model.ErrorInternal, nil)
			state.ResponseText = friendly.Message
			state.ResponseData = map[string]any{"error_kind": string(model.ErrorInternal)}
		}
	}()

	if err := r.engine.run(ctx, state); err != nil {
		logx.Error().Err(err).Str("thread_id", state.ThreadID).Msg("Pipeline run failed")
		state.SetError(model.ErrorInternal, err.Error())
		friendly := model.FormatFriendlyError(model.ErrorInternal, nil)
		state.ResponseText = friendly.Message
		state.ResponseData = map[string]any{"error_kind": string(model.ErrorInternal)}
	}
}

// restore merges the prior checkpoint for this thread, if any. A load
// failure degrades to a fresh conversation rather than failing the turn.
func (r *Runner) restore(ctx context.Context, state *model.AgentState) {
	if r.checkpoints == nil {
		return
	}
	prev, err := r.checkpoints.Load(ctx, state.ThreadID)
	if err != nil {
		logx.Warn().Err(err).Str("thread_id", state.ThreadID).Msg("Checkpoint load failed, starting fresh")
		return
	}
	state.ResumeFrom(prev)
}

// persist saves the completed state. Persistence failures are logged and
// swallowed: the user already has their answer.
func (r *Runner) persist(ctx context.Context, state *model.AgentState) {
	if r.checkpoints == nil {
		return
	}
	if err := r.checkpoints.Save(ctx, state.ThreadID, state); err != nil {
		logx.Error().Err(err).Str("thread_id", state.ThreadID).Msg("Checkpoint save failed")
	}
}

func toOutput(state *model.AgentState) *model.QueryOutput {
	out := &model.QueryOutput{
		Success:      state.ErrorKind == model.ErrorNone,
		ResponseText: state.ResponseText,
		ResponseData: state.ResponseData,
		Intent:       string(state.IntentClassified),
		NodePath:     state.NodePath,
		SessionID:    state.SessionID,
		ThreadID:     state.ThreadID,
	}
	if state.ErrorKind != model.ErrorNone {
		out.ErrorKind = string(state.ErrorKind)
	}
	return out
}
