package pipeline

import (
	"context"
	"fmt"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// UpdateFunc observes the state after each stage's update has been merged.
// It is the only external observation point during a run.
type UpdateFunc func(State)

// Orchestrator drives one query through the stage graph. A run is strictly
// sequential: one stage at a time, each stage's partial update merged before
// the next stage is chosen. Independent runs share nothing.
type Orchestrator struct {
	policy   *Policy
	handlers map[Stage]Handler
}

// New validates the routing table against the given handlers and returns an
// orchestrator. All graph defects fail here, never at request time.
func New(policy *Policy, handlers ...Handler) (*Orchestrator, error) {
	byName := make(map[Stage]Handler, len(handlers))
	for _, h := range handlers {
		if _, dup := byName[h.Name()]; dup {
			return nil, fmt.Errorf("orchestrator: duplicate handler for stage %q", h.Name())
		}
		byName[h.Name()] = h
	}
	if err := policy.ValidateHandlers(byName); err != nil {
		return nil, err
	}
	return &Orchestrator{policy: policy, handlers: byName}, nil
}

// Run executes the pipeline for query and returns the final state. onUpdate,
// if non-nil, is invoked once per stage with the merged state.
//
// Run returns a non-nil error only for graph defects (an undeclared
// successor, a blown step bound). Ordinary stage failures are carried in
// State.Error and never escape as errors.
func (o *Orchestrator) Run(ctx context.Context, query string, onUpdate UpdateFunc) (State, error) {
	state := NewState(query, o.policy.Entry())
	current := o.policy.Entry()

	// A valid table cannot revisit a stage, so any walk longer than the
	// stage count plus the terminal step is a defect.
	maxSteps := len(o.handlers) + 1

	for step := 0; !current.Terminal(); step++ {
		if step >= maxSteps {
			return state, fmt.Errorf("orchestrator: exceeded %d steps at stage %q", maxSteps, current)
		}

		update := o.executeStage(ctx, current, state)
		if update.NextStage == "" {
			// A stage that forgets its successor must not silently keep
			// the previous value; that is how infinite loops start.
			update.NextStage = StageEnd
			if update.Error == "" {
				update.Error = fmt.Sprintf("stage %q did not set a next stage", current)
			}
		}

		state = Merge(state, update)
		if onUpdate != nil {
			onUpdate(state)
		}

		next, err := o.policy.Route(current, state)
		if err != nil {
			return state, err
		}
		if state.Error != "" {
			// The short-circuit is observable state, not just control
			// flow: a failed run must not report a live next stage.
			state.NextStage = StageEnd
		}
		current = next
	}

	return state, nil
}

// executeStage invokes one handler, converting a panic into a state error so
// nothing a stage does can take down the run.
func (o *Orchestrator) executeStage(ctx context.Context, stage Stage, s State) (update Update) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("pipeline.stage.panic", map[string]any{
				"stage": string(stage),
				"error": fmt.Sprint(r),
			})
			update = Update{
				NextStage: StageEnd,
				Error:     fmt.Sprintf("stage %q panicked: %v", stage, r),
			}
		}
	}()
	return o.handlers[stage].Execute(ctx, s)
}
