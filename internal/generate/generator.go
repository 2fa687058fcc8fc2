// Package generate defines the character response generator contract and its
// implementations. The engine core treats generators as best-effort
// collaborators: every call is bounded by the caller's context, and any
// error or timeout is answered with a fallback value upstream, never a retry.
package generate

import "context"

// Action is the structured decision a generator may return in place of free
// text: a vote or night-action choice with optional reasoning.
type Action struct {
	ActionType string `json:"actionType"`
	TargetID   string `json:"targetId"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// Generator produces character responses. Implementations must honor ctx
// cancellation and return promptly on deadline.
type Generator interface {
	// Text returns a free-text completion.
	Text(ctx context.Context, system, prompt string) (string, error)

	// Stream returns a free-text completion, invoking onDelta for each
	// chunk as it arrives. The full text is returned at the end.
	Stream(ctx context.Context, system, prompt string, onDelta func(delta string)) (string, error)

	// Action returns a structured decision. Implementations parse the
	// model output through the tolerant coercion layer in this package;
	// output that cannot be coerced is an error, which callers turn into
	// a fallback.
	Action(ctx context.Context, system, prompt string) (Action, error)
}
