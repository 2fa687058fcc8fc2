package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparsable is returned when model output cannot be coerced to an Action
var ErrUnparsable = errors.New("unparsable generator output")

var validActionTypes = map[string]bool{
	"kill":        true,
	"investigate": true,
	"protect":     true,
	"vote":        true,
	"none":        true,
}

// ParseAction coerces raw model output into an Action. Models wrap JSON in
// code fences, prose, or alternate key spellings; this layer is the only
// place such tolerance lives. The internal data model stays strictly typed.
func ParseAction(raw string) (Action, error) {
	body := extractJSON(raw)
	if body == "" {
		return Action{}, fmt.Errorf("%w: no JSON object found", ErrUnparsable)
	}

	var loose map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &loose); err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	action := Action{
		ActionType: looseString(loose, "actionType", "action_type", "action"),
		TargetID:   looseString(loose, "targetId", "target_id", "target"),
		Reasoning:  looseString(loose, "reasoning", "reason"),
	}

	action.ActionType = strings.ToLower(strings.TrimSpace(action.ActionType))
	if action.ActionType == "" && action.TargetID != "" {
		// Bare {"target_id": ...} from a vote call.
		action.ActionType = "vote"
	}
	if !validActionTypes[action.ActionType] {
		return Action{}, fmt.Errorf("%w: unknown action type %q", ErrUnparsable, action.ActionType)
	}

	return action, nil
}

// looseString reads the first present key, accepting strings and numbers
func looseString(m map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := m[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// extractJSON strips code fences and surrounding prose, returning the first
// top-level JSON object in the text.
func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
