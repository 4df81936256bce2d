package app

import "sync"

// Action is a kind of generation request started by the user
type Action int

const (
	ActionPlan Action = iota
	ActionSuggest
	ActionDraft
)

func (a Action) String() string {
	switch a {
	case ActionPlan:
		return "plan"
	case ActionSuggest:
		return "suggest"
	case ActionDraft:
		return "draft"
	default:
		return "unknown"
	}
}

// Pending tracks one in-flight request per action kind. Different kinds
// may run at the same time.
type Pending struct {
	mu   sync.Mutex
	busy map[Action]bool
}

// Begin marks a as running. It returns false if a is already running.
func (p *Pending) Begin(a Action) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy == nil {
		p.busy = make(map[Action]bool)
	}
	if p.busy[a] {
		return false
	}
	p.busy[a] = true
	return true
}

// End marks a as finished
func (p *Pending) End(a Action) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.busy, a)
}

// Busy reports whether a is running
func (p *Pending) Busy(a Action) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy[a]
}

// Any reports whether any request is running
func (p *Pending) Any() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.busy) > 0
}
