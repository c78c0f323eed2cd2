package reasoning

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ThoughtType categorizes a reasoning step.
type ThoughtType string

const (
	TypeAnalysis       ThoughtType = "analysis"       // understanding the request
	TypePlanning       ThoughtType = "planning"       // deciding what to do next
	TypeDecision       ThoughtType = "decision"       // making a specific choice
	TypeConcern        ThoughtType = "concern"        // identifying potential issues
	TypeValidation     ThoughtType = "validation"     // checking correctness
	TypePattern        ThoughtType = "pattern"        // recognizing patterns from history
	TypeSuggestion     ThoughtType = "suggestion"     // offering recommendations
	TypeWarning        ThoughtType = "warning"        // flagging important concerns
	TypeRecommendation ThoughtType = "recommendation" // final recommendations
)

// Thought is a single reasoning step in the trace.
type Thought struct {
	Content   string         `json:"content"`
	Type      ThoughtType    `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (t Thought) String() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(t.Type)), t.Content)
}

// Listener receives thoughts as they are recorded, for real-time streaming.
type Listener func(Thought)

// Engine is an observable trace of component reasoning. It is never required
// for correctness: every method is safe on a nil receiver, so components can
// carry an optional *Engine and emit unconditionally.
type Engine struct {
	mu        sync.Mutex
	enabled   bool
	thoughts  []Thought
	listeners []Listener
	now       func() time.Time
}

// NewEngine creates a reasoning engine. A disabled engine records nothing.
func NewEngine(enabled bool) *Engine {
	return &Engine{enabled: enabled, now: time.Now}
}

// Think records a reasoning step and notifies listeners.
func (e *Engine) Think(thoughtType ThoughtType, content string) {
	e.ThinkMeta(thoughtType, content, nil)
}

// Thinkf records a formatted reasoning step.
func (e *Engine) Thinkf(thoughtType ThoughtType, format string, args ...any) {
	e.ThinkMeta(thoughtType, fmt.Sprintf(format, args...), nil)
}

// ThinkMeta records a reasoning step with attached metadata.
func (e *Engine) ThinkMeta(thoughtType ThoughtType, content string, metadata map[string]any) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if !e.enabled {
		e.mu.Unlock()
		return
	}
	thought := Thought{
		Content:   content,
		Type:      thoughtType,
		Timestamp: e.now(),
		Metadata:  metadata,
	}
	e.thoughts = append(e.thoughts, thought)
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		emit(l, thought)
	}
}

// emit delivers a thought to one listener, containing panics so a broken
// listener never breaks the component doing the thinking.
func emit(l Listener, t Thought) {
	defer func() {
		_ = recover()
	}()
	l(t)
}

// OnThought registers a listener for real-time streaming.
func (e *Engine) OnThought(l Listener) {
	if e == nil || l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Chain returns a copy of the recorded thoughts, optionally filtered by type.
func (e *Engine) Chain(types ...ThoughtType) []Thought {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(types) == 0 {
		out := make([]Thought, len(e.thoughts))
		copy(out, e.thoughts)
		return out
	}
	var out []Thought
	for _, t := range e.thoughts {
		for _, want := range types {
			if t.Type == want {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Summary holds aggregate statistics over the recorded chain.
type Summary struct {
	TotalThoughts int                 `json:"total_thoughts"`
	ByType        map[ThoughtType]int `json:"thoughts_by_type"`
	First         time.Time           `json:"first_thought,omitzero"`
	Last          time.Time           `json:"last_thought,omitzero"`
}

// Summarize returns counts by type plus the first and last timestamps.
func (e *Engine) Summarize() Summary {
	if e == nil {
		return Summary{ByType: map[ThoughtType]int{}}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Summary{ByType: make(map[ThoughtType]int)}
	s.TotalThoughts = len(e.thoughts)
	for _, t := range e.thoughts {
		s.ByType[t.Type]++
	}
	if len(e.thoughts) > 0 {
		s.First = e.thoughts[0].Timestamp
		s.Last = e.thoughts[len(e.thoughts)-1].Timestamp
	}
	return s
}

// JSON exports the chain for debugging and demos.
func (e *Engine) JSON(pretty bool) (string, error) {
	chain := e.Chain()
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(chain, "", "  ")
	} else {
		data, err = json.Marshal(chain)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export reasoning chain: %w", err)
	}
	return string(data), nil
}

// Clear drops all recorded thoughts, useful when starting a new session.
func (e *Engine) Clear() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.thoughts = nil
}

// Len returns the number of recorded thoughts.
func (e *Engine) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.thoughts)
}

// SlogListener returns a listener that mirrors thoughts into structured logs
// at debug level.
func SlogListener(logger *slog.Logger) Listener {
	return func(t Thought) {
		logger.Debug("thought", slog.String("type", string(t.Type)), slog.String("content", t.Content))
	}
}
