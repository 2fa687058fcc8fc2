// Package app coordinates game sessions: it owns the per-session runtime,
// drives phase advancement and round resolution, fans character work out
// concurrently with per-branch deadlines, streams ordered events, and
// persists snapshots best-effort after every mutation.
package app

import (
	"context"
	"fmt"
	"strings"

	"conclave/internal/agent"
	"conclave/internal/domain"
)

const narratorSystem = "You are the unseen narrator of a social-deduction game. " +
	"Write atmospheric second-person narration, two to three sentences, no dialogue, no stage directions."

// StartGame moves a lobby session into its first discussion round and streams
// the opening narration.
func (r *Runtime) StartGame(ctx context.Context) (<-chan domain.Event, error) {
	r.mu.Lock()
	if err := r.session.Advance(domain.PhaseDiscussion); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.touch()

	em := newEmitter(r.session.ID, r.logger)
	go func() {
		defer r.mu.Unlock()
		ctx := context.WithoutCancel(ctx)

		opening := r.narrate(ctx,
			fmt.Sprintf("Open the game. Setting: %s. %s Introduce the gathering and the unease among those present.",
				r.session.World.Setting, r.session.World.FlavorText),
			r.session.World.FlavorText)
		r.session.AppendMessage(narratorID, narratorName, opening)
		em.emit(domain.EventNarration, domain.NarrationPayload{
			Content: opening,
			Phase:   r.session.Phase,
			Round:   r.session.Round,
		})

		r.logger.Info("game started", "participants", len(r.session.Participants))
		r.snapshot(ctx)
		em.done(r.session)
	}()
	return em.events(), nil
}

const (
	narratorID   = "narrator"
	narratorName = "Narrator"
	playerName   = "You"
)

// SubmitChat records a player message during discussion and streams the
// responses it provokes. The stream carries responder selection, per-character
// streamed replies, any complication or pacing notice, and a terminal done.
func (r *Runtime) SubmitChat(ctx context.Context, content string) (<-chan domain.Event, error) {
	content = strings.TrimSpace(content)

	r.mu.Lock()
	if err := r.chatPrecondition(content); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.touch()

	em := newEmitter(r.session.ID, r.logger)
	go func() {
		defer r.mu.Unlock()
		r.runChatTurn(context.WithoutCancel(ctx), em, content)
	}()
	return em.events(), nil
}

func (r *Runtime) chatPrecondition(content string) error {
	if content == "" {
		return domain.ErrEmptyMessage
	}
	if r.session.Phase == domain.PhaseEnded {
		return domain.ErrSessionEnded
	}
	if r.session.Phase != domain.PhaseDiscussion {
		return fmt.Errorf("%w: chat requires discussion, session is in %s", domain.ErrInvalidPhase, r.session.Phase)
	}
	if !r.session.PlayerAlive() {
		return domain.ErrPlayerEliminated
	}
	return nil
}

// runChatTurn is the body of one discussion turn, run with the write lock held
func (r *Runtime) runChatTurn(ctx context.Context, em *emitter, content string) {
	s := r.session
	s.UpdateTension()

	s.AppendMessage(domain.PlayerID, playerName, content)
	r.observeMessage(content, domain.PlayerID)

	if s.ShouldInjectComplication(r.rng) {
		comp := s.InjectComplication(r.rng)
		s.AppendMessage(narratorID, narratorName, comp.Description)
		r.observeMessage(comp.Description, narratorID)
		em.emit(domain.EventComplication, domain.ComplicationPayload{
			Content: comp.Description,
			Tension: s.TensionLevel,
		})
		r.logger.Info("complication injected", "type", comp.Type, "round", s.Round)
	}

	responders := r.chooseResponders(content)
	ids := make([]string, len(responders))
	for i, a := range responders {
		ids[i] = a.Character().ID
	}
	em.emit(domain.EventResponders, domain.RespondersPayload{CharacterIDs: ids})

	for _, a := range responders {
		char := a.Character()
		em.emit(domain.EventThinking, domain.ThinkingPayload{CharacterID: char.ID, CharacterName: char.Name})
		em.emit(domain.EventStreamStart, domain.StreamDeltaPayload{CharacterID: char.ID})

		respCtx, cancel := context.WithTimeout(ctx, r.cfg.AgentTimeout)
		text, _ := a.Respond(respCtx, content, s.RoundMessages(), r.talkModifier(char), func(delta string) {
			em.emit(domain.EventStreamDelta, domain.StreamDeltaPayload{CharacterID: char.ID, Delta: delta})
		})
		cancel()

		s.AppendMessage(char.ID, char.Name, text)
		r.observeMessage(text, char.ID)
		em.emit(domain.EventStreamEnd, domain.StreamEndPayload{
			CharacterID:   char.ID,
			CharacterName: char.Name,
			Content:       text,
			Emotion:       a.DominantEmotion(),
		})
	}

	r.maybeReact(ctx, em, ids)
	r.checkDiscussionLimits(em)

	r.snapshot(ctx)
	em.done(s)
}

// chooseResponders picks 2-3 alive characters to answer the player. A
// character addressed by name always responds first.
func (r *Runtime) chooseResponders(content string) []*agent.Agent {
	alive := r.aliveAgents()
	if len(alive) == 0 {
		return nil
	}

	lower := strings.ToLower(content)
	var addressed *agent.Agent
	pool := make([]*agent.Agent, 0, len(alive))
	for _, a := range alive {
		name := strings.ToLower(a.Character().Name)
		first, _, _ := strings.Cut(name, " ")
		if addressed == nil && (strings.Contains(lower, name) || strings.Contains(lower, first)) {
			addressed = a
			continue
		}
		pool = append(pool, a)
	}

	count := 2 + r.rng.Intn(2)
	if count > len(alive) {
		count = len(alive)
	}

	r.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	var out []*agent.Agent
	if addressed != nil {
		out = append(out, addressed)
	}
	for _, a := range pool {
		if len(out) >= count {
			break
		}
		out = append(out, a)
	}
	return out
}

// talkModifier builds a game-state hint for a responder's prompt
func (r *Runtime) talkModifier(char *domain.Participant) string {
	msgs := r.session.RoundMessages()

	spoken := 0
	for _, m := range msgs {
		if m.SpeakerID == char.ID {
			spoken++
		}
	}

	recent := msgs
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	for _, m := range recent {
		if !domain.ContainsAccusation(m.Content) {
			continue
		}
		if strings.Contains(strings.ToLower(m.Content), strings.ToLower(char.Name)) {
			return "You have just been accused. Defend yourself without overplaying your hand."
		}
		for _, p := range r.session.AliveParticipants() {
			if p.Faction == char.Faction && p.ID != char.ID &&
				strings.Contains(strings.ToLower(m.Content), strings.ToLower(p.Name)) {
				return fmt.Sprintf("%s is under suspicion. Decide whether to defend them or keep your distance.", p.Name)
			}
		}
	}

	switch {
	case spoken == 0 && len(msgs) > 3:
		return "You have been quiet this round. Others may notice; weigh in."
	case spoken > 3:
		return "You have been dominating the discussion. Be brief."
	}
	return ""
}

// maybeReact gives one non-responder an anger-weighted chance to interject
func (r *Runtime) maybeReact(ctx context.Context, em *emitter, responderIDs []string) {
	s := r.session
	if len(s.RoundMessages()) < 4 {
		return
	}

	spoke := make(map[string]bool, len(responderIDs))
	for _, id := range responderIDs {
		spoke[id] = true
	}

	for _, a := range r.aliveAgents() {
		char := a.Character()
		if spoke[char.ID] {
			continue
		}
		chance := 0.25 + a.Anger()*0.3
		if r.rng.Float64() >= chance {
			continue
		}

		reactCtx, cancel := context.WithTimeout(ctx, r.cfg.AgentTimeout)
		text := a.React(reactCtx, s.RoundMessages())
		cancel()
		if text == "" {
			return
		}

		em.emit(domain.EventThinking, domain.ThinkingPayload{CharacterID: char.ID, CharacterName: char.Name})
		s.AppendMessage(char.ID, char.Name, text)
		r.observeMessage(text, char.ID)
		em.emit(domain.EventStreamEnd, domain.StreamEndPayload{
			CharacterID:   char.ID,
			CharacterName: char.Name,
			Content:       text,
			Emotion:       a.DominantEmotion(),
		})
		return
	}
}

// checkDiscussionLimits applies the soft warning and hard cutoff on round
// length. On the hard cutoff the session advances to voting; the caller's
// stream still closes normally and voting proceeds through SubmitVote.
func (r *Runtime) checkDiscussionLimits(em *emitter) {
	s := r.session

	aliveCount := len(s.AliveParticipants())
	if s.PlayerAlive() {
		aliveCount++
	}
	soft := int(r.cfg.SoftLimitPerPlayer * float64(aliveCount))
	hard := soft + r.cfg.HardLimitExtra

	n := len(s.RoundMessages())
	switch {
	case n >= hard:
		em.emit(domain.EventDiscussionEnding, domain.NoticePayload{
			Content: "The discussion has run its course. The council moves to a vote.",
		})
		if err := s.Advance(domain.PhaseVoting); err != nil {
			r.logger.Warn("auto-advance to voting failed", "error", err)
			return
		}
		em.emit(domain.EventVotingStarted, nil)
		r.logger.Info("discussion hard limit reached", "round", s.Round, "messages", n)
	case n >= soft && r.warnedRound != s.Round:
		r.warnedRound = s.Round
		em.emit(domain.EventDiscussionWarning, domain.NoticePayload{
			Content: "Patience at the table is wearing thin. A vote is coming soon.",
		})
	}
}

// narrate asks the generator for narration, falling back to canned text
func (r *Runtime) narrate(ctx context.Context, prompt, fallback string) string {
	nctx, cancel := context.WithTimeout(ctx, r.cfg.AgentTimeout)
	defer cancel()

	text, err := r.gen.Text(nctx, narratorSystem, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			r.logger.Warn("narration fell back", "error", err)
		}
		return fallback
	}
	return strings.TrimSpace(text)
}
