package pipeline

import "context"

// Stage names one step in the orchestration graph. The set is closed:
// routing only ever sees the constants below, and anything else fails
// validation before a request is served.
type Stage string

const (
	StageClassify  Stage = "classify"
	StageChat      Stage = "chat"
	StageRetrieve  Stage = "retrieve"
	StageSearch    Stage = "search"
	StageAnalyze   Stage = "analyze"
	StageVisualize Stage = "visualize"
	StageSummarize Stage = "summarize"

	// StageEnd is the terminal sentinel: no further stages run.
	StageEnd Stage = "end"
)

// stageOrder fixes the topological position of every stage. Routing edges
// must move strictly forward in this order (or to StageEnd), which is what
// guarantees every legal walk terminates.
var stageOrder = []Stage{
	StageClassify,
	StageChat,
	StageRetrieve,
	StageSearch,
	StageAnalyze,
	StageVisualize,
	StageSummarize,
}

// Known reports whether s is a declared stage or the terminal sentinel.
func (s Stage) Known() bool {
	if s == StageEnd {
		return true
	}
	return s.order() >= 0
}

// Terminal reports whether s is the terminal sentinel.
func (s Stage) Terminal() bool {
	return s == StageEnd
}

func (s Stage) order() int {
	for i, name := range stageOrder {
		if name == s {
			return i
		}
	}
	return -1
}

// Stages returns all non-terminal stages in topological order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Handler executes one stage against the current state and returns the
// partial update to merge. Handlers must set Update.NextStage on every
// return and must absorb collaborator failures themselves: a failure is
// either a degraded update or a state error, never a panic.
type Handler interface {
	Name() Stage
	// Successors declares every NextStage value Execute may set, StageEnd
	// included. The routing policy is validated against this at startup.
	Successors() []Stage
	Execute(ctx context.Context, s State) Update
}
