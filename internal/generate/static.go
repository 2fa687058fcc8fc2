package generate

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// Static is an offline Generator producing canned, deterministic output.
// It backs sessions running without a model API key and keeps tests hermetic.
type Static struct{}

var staticLines = []string{
	"I've said my piece. Someone here is lying and we all know it.",
	"Look at who keeps steering the conversation away from themselves.",
	"I trust my own eyes, and last night I didn't like what I saw.",
	"We should think carefully before pointing fingers.",
	"Something about that story doesn't add up to me.",
}

// Text returns a canned line chosen by a hash of the prompt
func (Static) Text(_ context.Context, _, prompt string) (string, error) {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	return staticLines[int(h.Sum32())%len(staticLines)], nil
}

// Stream emits the canned line word by word
func (s Static) Stream(ctx context.Context, system, prompt string, onDelta func(delta string)) (string, error) {
	text, _ := s.Text(ctx, system, prompt)
	if onDelta != nil {
		for i, word := range strings.Fields(text) {
			if i == 0 {
				onDelta(word)
			} else {
				onDelta(" " + word)
			}
		}
	}
	return text, nil
}

// Action picks the first candidate id it can find in the prompt. Prompts
// built by the agent package list candidates as "(id: xxx)".
func (Static) Action(_ context.Context, _, prompt string) (Action, error) {
	const marker = "(id: "
	idx := strings.Index(prompt, marker)
	if idx < 0 {
		return Action{}, fmt.Errorf("%w: no candidate ids in prompt", ErrUnparsable)
	}
	rest := prompt[idx+len(marker):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return Action{}, fmt.Errorf("%w: unterminated candidate id", ErrUnparsable)
	}

	kind := "vote"
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "investigate"):
		kind = "investigate"
	case strings.Contains(lower, "protect"):
		kind = "protect"
	case strings.Contains(lower, "kill"):
		kind = "kill"
	}
	return Action{ActionType: kind, TargetID: rest[:end]}, nil
}
