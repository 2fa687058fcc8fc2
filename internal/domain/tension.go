package domain

import (
	"math/rand"
	"strings"
)

// Complication is a scripted disruptive event injected to break a stall
type Complication struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Round       int    `json:"round"`
	AtMessage   int    `json:"atMessage"`
}

// complicationTemplates are the scripted disruptive events
var complicationTemplates = []Complication{
	{Type: "revelation", Description: "New information has come to light. Someone's story doesn't add up: a detail from earlier contradicts what was just said."},
	{Type: "time_pressure", Description: "Tensions are rising and patience is wearing thin. The council demands decisive action NOW."},
	{Type: "suspicion_shift", Description: "A quiet council member suddenly looks nervous. Eyes turn toward someone who has been suspiciously silent."},
	{Type: "alliance_crack", Description: "Two allies exchange a tense glance. Something unspoken hangs between them."},
	{Type: "evidence", Description: "A piece of evidence is discovered: a note, a reaction, a slip of the tongue that changes everything."},
}

// accusationKeywords mark a message as making a move against someone
var accusationKeywords = []string{
	"suspect", "suspicious", "accuse", "liar", "lying", "traitor",
	"blame", "guilty", "vote", "eliminate",
}

// UpdateTension recomputes the pacing signal, clamped to [0,1]. It rises
// with the elimination ratio and the round number, and spikes after a night
// kill.
func (s *Session) UpdateTension() {
	total := len(s.Participants)
	aliveCount := len(s.AliveParticipants())

	eliminationRatio := 1.0 - float64(aliveCount)/float64(max(total, 1))
	roundFactor := minFloat(float64(s.Round)/6.0, 1.0)

	level := 0.2 + eliminationRatio*0.4 + roundFactor*0.3

	for _, a := range s.NightActions {
		if a.Result == ResultKilled {
			level += 0.15
			break
		}
	}

	s.TensionLevel = clamp01(level)
}

// ShouldInjectComplication reports whether the current discussion has
// stalled enough to warrant a scripted disruption. Checked once per chat
// turn. Never fires before 6 messages exist in the round; always fires when
// the last 4 messages came from a single speaker; fires when more than 8
// messages exist without an accusation; otherwise a chance growing with the
// round number decides.
func (s *Session) ShouldInjectComplication(rng *rand.Rand) bool {
	roundMsgs := s.RoundMessages()
	if len(roundMsgs) < 6 {
		return false
	}

	recent := roundMsgs
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	speakers := make(map[string]bool)
	for _, m := range recent {
		speakers[m.SpeakerID] = true
	}
	if len(speakers) <= 1 {
		return true
	}

	if len(roundMsgs) > 8 && !anyAccusation(recent) {
		return true
	}

	return rng.Float64() < minFloat(0.1*float64(s.Round), 0.5)
}

// InjectComplication appends a scripted event and bumps tension by 0.1
func (s *Session) InjectComplication(rng *rand.Rand) Complication {
	comp := complicationTemplates[rng.Intn(len(complicationTemplates))]
	comp.Round = s.Round
	comp.AtMessage = len(s.Messages)
	s.Complications = append(s.Complications, comp)
	s.TensionLevel = clamp01(s.TensionLevel + 0.1)
	return comp
}

// ContainsAccusation reports whether the text uses an accusation-style keyword
func ContainsAccusation(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range accusationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func anyAccusation(msgs []Message) bool {
	for _, m := range msgs {
		if ContainsAccusation(m.Content) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
