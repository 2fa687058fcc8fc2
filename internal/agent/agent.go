// Package agent implements the AI-driven characters at the table. Each agent
// wraps the response generator with the character's persona, bounded
// conversational memory, and an emotional state, and degrades every failed
// or timed-out generator call to a safe fallback.
package agent

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"conclave/internal/domain"
	"conclave/internal/generate"
)

const (
	maxConversationHistory = 30
	maxRoundMemory         = 8
)

// Turn is one entry of an agent's bounded conversation history
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Memory is the serializable part of an agent's state, persisted in the
// session's aux blob and restored on recovery.
type Memory struct {
	History     []Turn         `json:"history"`
	RoundMemory []string       `json:"roundMemory"`
	Emotions    EmotionalState `json:"emotions"`
}

// Verdict reports whether a decision came from the generator or from a
// fallback path, and why. Fallbacks are expected, not errors.
type Verdict struct {
	Fallback bool
	Reason   string
}

func ok() Verdict { return Verdict{} }

func fellBack(reason string) Verdict { return Verdict{Fallback: true, Reason: reason} }

// Agent drives one AI character
type Agent struct {
	char   *domain.Participant
	world  domain.World
	evil   map[string]bool
	gen    generate.Generator
	logger *slog.Logger

	mu          sync.Mutex
	canonFacts  []string
	history     []Turn
	roundMemory []string
	emotions    EmotionalState
}

// New creates an agent for a participant
func New(char *domain.Participant, world domain.World, gen generate.Generator, canonFacts []string, logger *slog.Logger) *Agent {
	return &Agent{
		char:       char,
		world:      world,
		evil:       world.EvilFactions(),
		gen:        gen,
		logger:     logger.With("character", char.Name),
		canonFacts: append([]string(nil), canonFacts...),
		emotions:   NewEmotionalState(),
	}
}

// Character returns the participant this agent drives
func (a *Agent) Character() *domain.Participant {
	return a.char
}

// Snapshot extracts the agent's serializable memory
func (a *Agent) Snapshot() Memory {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Memory{
		History:     append([]Turn(nil), a.history...),
		RoundMemory: append([]string(nil), a.roundMemory...),
		Emotions:    a.emotions,
	}
}

// Restore replaces the agent's memory, used during session recovery
func (a *Agent) Restore(m Memory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = m.History
	a.roundMemory = m.RoundMemory
	a.emotions = m.Emotions
}

// UpdateCanonFacts replaces the agent's view of established truths
func (a *Agent) UpdateCanonFacts(facts []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.canonFacts = append([]string(nil), facts...)
}

// Respond produces the character's reply to a player message. Deltas are
// forwarded to onDelta as they stream in. On generator failure the reply
// falls back to a canned in-character line.
func (a *Agent) Respond(ctx context.Context, playerMessage string, recent []domain.Message, modifier string, onDelta func(string)) (string, Verdict) {
	a.mu.Lock()
	system := a.systemPrompt()
	prompt := a.respondPrompt(playerMessage, recent, modifier)
	a.mu.Unlock()

	verdict := ok()
	text, err := a.gen.Stream(ctx, system, prompt, onDelta)
	if err != nil || strings.TrimSpace(text) == "" {
		text = a.fallbackLine()
		verdict = fellBack(reasonFor(err))
		a.logger.Warn("response fell back", "reason", verdict.Reason)
	}
	text = strings.TrimSpace(text)

	a.mu.Lock()
	a.pushHistory(Turn{Role: "user", Content: playerMessage})
	a.pushHistory(Turn{Role: "assistant", Content: text})
	a.mu.Unlock()

	return text, verdict
}

// React returns a short unprompted interjection, or "" to stay silent
func (a *Agent) React(ctx context.Context, recent []domain.Message) string {
	a.mu.Lock()
	system := a.systemPrompt()
	prompt := a.reactPrompt(recent)
	a.mu.Unlock()

	text, err := a.gen.Text(ctx, system, prompt)
	if err != nil {
		return ""
	}
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "PASS") {
		return ""
	}
	a.mu.Lock()
	a.pushHistory(Turn{Role: "assistant", Content: text})
	a.mu.Unlock()
	return text
}

// Vote asks the character to choose an elimination target. The returned id
// is always one of the candidates; on failure the first non-self candidate
// is used.
func (a *Agent) Vote(ctx context.Context, candidates []domain.PublicActor) (string, Verdict) {
	a.mu.Lock()
	system := a.systemPrompt()
	prompt := a.votePrompt(candidates)
	a.mu.Unlock()

	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.ID != a.char.ID {
			valid[c.ID] = true
		}
	}

	action, err := a.gen.Action(ctx, system, prompt)
	if err == nil && valid[action.TargetID] {
		return action.TargetID, ok()
	}

	for _, c := range candidates {
		if c.ID != a.char.ID {
			a.logger.Warn("vote fell back", "reason", reasonFor(err))
			return c.ID, fellBack(reasonFor(err))
		}
	}
	return "", fellBack("no valid candidates")
}

// NightAction asks the character for its night action under the given
// role instruction. Failures degrade to a none action.
func (a *Agent) NightAction(ctx context.Context, candidates []domain.PublicActor, instruction string) (domain.NightActionRecord, Verdict) {
	a.mu.Lock()
	system := a.systemPrompt()
	prompt := a.nightPrompt(candidates, instruction)
	a.mu.Unlock()

	none := domain.NightActionRecord{ActorID: a.char.ID, Kind: domain.ActionNone}

	action, err := a.gen.Action(ctx, system, prompt)
	if err != nil {
		a.logger.Warn("night action fell back", "reason", reasonFor(err))
		return none, fellBack(reasonFor(err))
	}

	kind := domain.ActionKind(action.ActionType)
	switch kind {
	case domain.ActionKill, domain.ActionInvestigate, domain.ActionProtect:
	default:
		return none, ok()
	}

	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.ID != a.char.ID {
			valid[c.ID] = true
		}
	}
	target := action.TargetID
	if !valid[target] {
		// Invalid target from the model: aim at the first candidate
		// rather than wasting the role's power.
		target = ""
		for _, c := range candidates {
			if c.ID != a.char.ID {
				target = c.ID
				break
			}
		}
		if target == "" {
			return none, ok()
		}
	}

	return domain.NightActionRecord{ActorID: a.char.ID, Kind: kind, TargetID: target}, ok()
}

// SummarizeRound compresses a round's discussion into the agent's round
// memory for later prompts.
func (a *Agent) SummarizeRound(ctx context.Context, msgs []domain.Message) {
	if len(msgs) == 0 {
		return
	}
	summary, err := a.gen.Text(ctx, "You compress game discussions into terse factual notes.", summarizePrompt(msgs))
	if err != nil || strings.TrimSpace(summary) == "" {
		summary = "A round of discussion passed with accusations flying."
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.roundMemory = append(a.roundMemory, strings.TrimSpace(summary))
	if len(a.roundMemory) > maxRoundMemory {
		a.roundMemory = a.roundMemory[len(a.roundMemory)-maxRoundMemory:]
	}
}

// ObserveMessage updates the agent's mood in reaction to a message. Safe to
// call from detached background work.
func (a *Agent) ObserveMessage(content, speakerID string) {
	if speakerID == a.char.ID {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.emotions.observe(content, a.char.Name)
}

// ObserveElimination updates the agent's mood after an elimination
func (a *Agent) ObserveElimination(eliminatedFaction string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.emotions.observeElimination(eliminatedFaction == a.char.Faction)
}

// DecayEmotions relaxes the mood at a round boundary
func (a *Agent) DecayEmotions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.emotions.decay()
}

// DominantEmotion names the character's strongest current emotion
func (a *Agent) DominantEmotion() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.emotions.dominant()
}

// Anger exposes the current anger level, used to weight spontaneous reactions
func (a *Agent) Anger() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.emotions.Anger
}

func (a *Agent) pushHistory(t Turn) {
	a.history = append(a.history, t)
	if len(a.history) > maxConversationHistory {
		a.history = a.history[len(a.history)-maxConversationHistory:]
	}
}

var fallbackLines = []string{
	"I need a moment to think about that.",
	"Hm. I'm not ready to show my hand yet.",
	"Interesting. Let the others speak first.",
	"I've heard enough accusations for one day.",
}

func (a *Agent) fallbackLine() string {
	return fallbackLines[rand.Intn(len(fallbackLines))]
}

func reasonFor(err error) string {
	if err == nil {
		return "invalid output"
	}
	return err.Error()
}
