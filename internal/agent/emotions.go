package agent

import "strings"

// EmotionalState tracks a character's mood across rounds. Values are in
// [0,1] and decay toward their baselines at round boundaries.
type EmotionalState struct {
	Fear      float64 `json:"fear"`
	Anger     float64 `json:"anger"`
	Trust     float64 `json:"trust"`
	Happiness float64 `json:"happiness"`
	Suspicion float64 `json:"suspicion"`
}

// NewEmotionalState returns the neutral starting mood
func NewEmotionalState() EmotionalState {
	return EmotionalState{
		Fear:      0.1,
		Anger:     0.1,
		Trust:     0.5,
		Happiness: 0.5,
		Suspicion: 0.2,
	}
}

var accusationWords = []string{"suspect", "suspicious", "accuse", "liar", "lying", "traitor", "blame", "guilty", "vote"}
var supportWords = []string{"trust", "believe", "innocent", "defend", "agree with"}
var threatWords = []string{"kill", "eliminate", "dangerous", "hunt"}

// observe adjusts the mood in reaction to a message. Mentions of the
// character's own name amplify the effect.
func (e *EmotionalState) observe(message, characterName string) {
	lower := strings.ToLower(message)
	mentioned := characterName != "" && strings.Contains(lower, strings.ToLower(characterName))

	weight := 0.05
	if mentioned {
		weight = 0.15
	}

	if containsAny(lower, accusationWords) {
		e.Fear = clamp(e.Fear + weight)
		e.Anger = clamp(e.Anger + weight*0.8)
		e.Suspicion = clamp(e.Suspicion + 0.05)
		if mentioned {
			e.Trust = clamp(e.Trust - 0.1)
			e.Happiness = clamp(e.Happiness - 0.05)
		}
	}
	if containsAny(lower, supportWords) && mentioned {
		e.Trust = clamp(e.Trust + 0.1)
		e.Happiness = clamp(e.Happiness + 0.05)
		e.Fear = clamp(e.Fear - 0.05)
	}
	if containsAny(lower, threatWords) {
		e.Fear = clamp(e.Fear + weight*0.6)
		e.Suspicion = clamp(e.Suspicion + 0.05)
	}
}

// observeElimination reacts to a table-mate being removed. Losing a
// faction-mate hits harder.
func (e *EmotionalState) observeElimination(sameFaction bool) {
	if sameFaction {
		e.Fear = clamp(e.Fear + 0.25)
		e.Anger = clamp(e.Anger + 0.2)
		e.Happiness = clamp(e.Happiness - 0.15)
	} else {
		e.Fear = clamp(e.Fear + 0.1)
		e.Suspicion = clamp(e.Suspicion + 0.1)
	}
}

// decay relaxes the mood toward baseline at a round boundary
func (e *EmotionalState) decay() {
	e.Fear = decayToward(e.Fear, 0.1)
	e.Anger = decayToward(e.Anger, 0.1)
	e.Trust = decayToward(e.Trust, 0.5)
	e.Happiness = decayToward(e.Happiness, 0.5)
	e.Suspicion = decayToward(e.Suspicion, 0.2)
}

// dominant names the strongest emotion, or "neutral" when nothing stands out
func (e *EmotionalState) dominant() string {
	type pair struct {
		name  string
		value float64
	}
	pairs := []pair{
		{"fear", e.Fear},
		{"anger", e.Anger},
		{"suspicion", e.Suspicion},
		{"happiness", e.Happiness},
	}
	best := pair{"neutral", 0.45}
	for _, p := range pairs {
		if p.value > best.value {
			best = p
		}
	}
	return best.name
}

func decayToward(v, baseline float64) float64 {
	return v + (baseline-v)*0.3
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
