package pipeline

import "fmt"

// Policy is the routing table: for each stage, the set of stages it may
// hand control to next. It is the single source of truth for transitions.
type Policy struct {
	entry Stage
	table map[Stage][]Stage
}

// DefaultPolicy returns the copilot's routing table. The classifier is the
// entry stage; every edge moves forward in stage order so the graph cannot
// loop.
func DefaultPolicy() *Policy {
	return &Policy{
		entry: StageClassify,
		table: map[Stage][]Stage{
			StageClassify:  {StageChat, StageRetrieve, StageSearch, StageSummarize},
			StageChat:      {StageEnd},
			StageRetrieve:  {StageSearch, StageAnalyze, StageSummarize},
			StageSearch:    {StageAnalyze, StageSummarize},
			StageAnalyze:   {StageVisualize, StageSummarize},
			StageVisualize: {StageSummarize},
			StageSummarize: {StageEnd},
		},
	}
}

// NewPolicy builds a policy from an explicit table. The table is validated
// immediately: unknown names, missing entries, or edges that do not move
// strictly forward in stage order all fail construction.
func NewPolicy(entry Stage, table map[Stage][]Stage) (*Policy, error) {
	p := &Policy{entry: entry, table: table}
	if err := p.validateTable(); err != nil {
		return nil, err
	}
	return p, nil
}

// Entry returns the stage every run starts at.
func (p *Policy) Entry() Stage {
	return p.entry
}

// Allows reports whether next is a declared successor of current.
func (p *Policy) Allows(current, next Stage) bool {
	for _, s := range p.table[current] {
		if s == next {
			return true
		}
	}
	return false
}

// Route computes the stage to run after current, given the merged state.
// A non-empty state error always routes to the terminal sentinel, whatever
// the stage proposed. A proposed successor outside the declared set is a
// configuration defect and is returned as an error.
func (p *Policy) Route(current Stage, s State) (Stage, error) {
	if s.Error != "" {
		return StageEnd, nil
	}
	next := s.NextStage
	if !p.Allows(current, next) {
		return StageEnd, fmt.Errorf("routing: stage %q proposed undeclared successor %q", current, next)
	}
	return next, nil
}

// ValidateHandlers checks that every stage in the table has a handler and
// that each handler's declared successor set is covered by the table. Called
// once at orchestrator construction so routing defects surface before any
// request runs.
func (p *Policy) ValidateHandlers(handlers map[Stage]Handler) error {
	if err := p.validateTable(); err != nil {
		return err
	}
	for stage := range p.table {
		h, ok := handlers[stage]
		if !ok {
			return fmt.Errorf("routing: stage %q has no handler", stage)
		}
		for _, next := range h.Successors() {
			if !p.Allows(stage, next) {
				return fmt.Errorf("routing: handler for %q may set %q, which the table does not allow", stage, next)
			}
		}
	}
	for stage := range handlers {
		if _, ok := p.table[stage]; !ok {
			return fmt.Errorf("routing: handler %q is not in the table", stage)
		}
	}
	return nil
}

func (p *Policy) validateTable() error {
	if !p.entry.Known() || p.entry.Terminal() {
		return fmt.Errorf("routing: invalid entry stage %q", p.entry)
	}
	if _, ok := p.table[p.entry]; !ok {
		return fmt.Errorf("routing: entry stage %q is not in the table", p.entry)
	}
	for stage, successors := range p.table {
		if !stage.Known() || stage.Terminal() {
			return fmt.Errorf("routing: unknown stage %q in table", stage)
		}
		if len(successors) == 0 {
			return fmt.Errorf("routing: stage %q has no successors", stage)
		}
		for _, next := range successors {
			if !next.Known() {
				return fmt.Errorf("routing: stage %q lists unknown successor %q", stage, next)
			}
			if next.Terminal() {
				continue
			}
			if next.order() <= stage.order() {
				return fmt.Errorf("routing: edge %q -> %q does not move forward; the graph could loop", stage, next)
			}
		}
	}
	return nil
}
