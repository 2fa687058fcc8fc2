package app

import (
	"context"
	"fmt"
	"strings"

	"conclave/internal/agent"
	"conclave/internal/domain"
)

// Role instructions handed to night actors.
const (
	killInstruction        = "Your faction strikes tonight. Choose a victim: actionType \"kill\"."
	investigateInstruction = "You may learn one character's true allegiance. Choose a target: actionType \"investigate\"."
	protectInstruction     = "You may shield one character from harm tonight. Choose a target: actionType \"protect\"."
)

// AdvanceNight moves a revealed session into the night phase, gathers the AI
// characters' actions concurrently, and either resolves the night or pauses
// for the player's own action. The stream carries night_started, any prompt
// to the player, resolved actions and results, and a terminal done.
func (r *Runtime) AdvanceNight(ctx context.Context) (<-chan domain.Event, error) {
	r.mu.Lock()
	if r.session.Phase == domain.PhaseEnded {
		r.mu.Unlock()
		return nil, domain.ErrSessionEnded
	}
	if err := r.session.Advance(domain.PhaseNight); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.touch()

	em := newEmitter(r.session.ID, r.logger)
	go func() {
		defer r.mu.Unlock()
		r.runNight(context.WithoutCancel(ctx), em)
	}()
	return em.events(), nil
}

func (r *Runtime) runNight(ctx context.Context, em *emitter) {
	s := r.session
	em.emit(domain.EventNightStarted, nil)

	// Round boundary: agents compress the day's discussion into memory and
	// relax their moods before acting.
	alive := r.aliveAgents()
	roundMsgs := s.RoundMessages()
	fanOut(ctx, alive, r.cfg.FanOutLimit, r.cfg.AgentTimeout,
		func(ctx context.Context, a *agent.Agent) (struct{}, error) {
			a.SummarizeRound(ctx, roundMsgs)
			a.DecayEmotions()
			return struct{}{}, nil
		})

	actions := r.collectNightActions(ctx)

	if kind := r.playerNightKind(); kind != domain.ActionNone {
		r.pendingNight = actions
		s.AwaitingPlayerNightAction = true
		em.emit(domain.EventNightActionPrompt, domain.NightActionPromptPayload{
			ActionType:      kind,
			EligibleTargets: r.eligibleNightTargets(kind),
		})
		r.logger.Info("night paused for player action", "round", s.Round, "action", kind)
		r.snapshot(ctx)
		em.done(s)
		return
	}

	r.resolveNightAndDawn(ctx, em, actions)
}

// SubmitNightAction supplies the player's pending night action and resolves
// the night. A none action skips the player's power for the round.
func (r *Runtime) SubmitNightAction(ctx context.Context, kind domain.ActionKind, targetID string) (<-chan domain.Event, error) {
	r.mu.Lock()
	if err := r.nightActionPrecondition(kind, targetID); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.touch()

	s := r.session
	s.AwaitingPlayerNightAction = false
	actions := r.pendingNight
	r.pendingNight = nil
	if kind != domain.ActionNone {
		actions = append(actions, domain.NightActionRecord{
			ActorID:  domain.PlayerID,
			Kind:     kind,
			TargetID: targetID,
		})
	}

	em := newEmitter(s.ID, r.logger)
	go func() {
		defer r.mu.Unlock()
		r.resolveNightAndDawn(context.WithoutCancel(ctx), em, actions)
	}()
	return em.events(), nil
}

func (r *Runtime) nightActionPrecondition(kind domain.ActionKind, targetID string) error {
	s := r.session
	if s.Phase == domain.PhaseEnded {
		return domain.ErrSessionEnded
	}
	if s.Phase != domain.PhaseNight {
		return fmt.Errorf("%w: night action requires night, session is in %s", domain.ErrInvalidPhase, s.Phase)
	}
	if !s.AwaitingPlayerNightAction {
		return domain.ErrNotAwaitingAction
	}
	if !s.PlayerAlive() {
		return domain.ErrPlayerEliminated
	}

	if kind == domain.ActionNone {
		return nil
	}
	if kind != r.playerNightKind() {
		return fmt.Errorf("%w: %s is not available to your role", domain.ErrInvalidTarget, kind)
	}
	for _, t := range r.eligibleNightTargets(kind) {
		if t.ID == targetID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidTarget, targetID)
}

// collectNightActions gathers role-gated actions from the AI characters
// concurrently. Actors without a night capability are skipped; failures
// degrade to none.
func (r *Runtime) collectNightActions(ctx context.Context) []domain.NightActionRecord {
	s := r.session
	evil := s.World.EvilFactions()

	type actor struct {
		a           *agent.Agent
		instruction string
	}
	var actors []actor
	for _, a := range r.aliveAgents() {
		char := a.Character()
		switch {
		case evil[char.Faction]:
			actors = append(actors, actor{a, killInstruction})
		case char.IsInvestigator():
			actors = append(actors, actor{a, investigateInstruction})
		case char.IsProtector():
			actors = append(actors, actor{a, protectInstruction})
		}
	}

	records, _ := fanOut(ctx, actors, r.cfg.FanOutLimit, r.cfg.AgentTimeout,
		func(ctx context.Context, in actor) (domain.NightActionRecord, error) {
			char := in.a.Character()
			exclude := map[string]bool{char.ID: true}
			if in.instruction == killInstruction && r.allyOfPlayer(char.ID) {
				exclude[domain.PlayerID] = true
			}
			record, verdict := in.a.NightAction(ctx, r.voteCandidates(exclude), in.instruction)
			if verdict.Fallback {
				r.logger.Warn("night action degraded to fallback", "character", char.ID, "reason", verdict.Reason)
			}
			return record, nil
		})
	return records
}

// resolveNightAndDawn applies the night's actions, publishes the results, and
// either ends the game or opens the next day.
func (r *Runtime) resolveNightAndDawn(ctx context.Context, em *emitter, actions []domain.NightActionRecord) {
	s := r.session

	early := s.Round <= r.cfg.EarlyRoundThreshold
	outcome := s.ResolveNight(actions, early)
	r.logger.Info("night resolved", "round", s.Round, "eliminated", len(outcome.Eliminated), "early", early)

	for _, a := range outcome.Actions {
		em.emit(domain.EventNightAction, domain.NightActionPayload{
			CharacterID:   a.ActorID,
			CharacterName: r.targetName(a.ActorID),
			ActionType:    a.Kind,
			Result:        a.Result,
		})
	}

	for _, id := range outcome.Eliminated {
		if id == domain.PlayerID {
			continue
		}
		if p := s.Participant(id); p != nil {
			s.AddCanonFact(fmt.Sprintf("%s was killed during the night of round %d. They were a %s of the %s.",
				p.Name, s.Round, p.HiddenRole, p.Faction))
			r.observeElimination(p.Faction)
		}
	}
	if outcome.PlayerKilled {
		s.AddCanonFact(fmt.Sprintf("The player was killed during the night of round %d.", s.Round))
	}
	if len(outcome.Eliminated) > 0 {
		r.pushCanonFacts()
	}

	s.UpdateTension()

	narration := r.dawnNarration(ctx, outcome)
	em.emit(domain.EventNightResults, domain.NightResultsPayload{
		Narration:     narration,
		EliminatedIDs: outcome.Eliminated,
	})
	s.AppendMessage(narratorID, narratorName, narration)

	if outcome.PlayerInvestigation != nil {
		em.emit(domain.EventInvestigationResult, outcome.PlayerInvestigation)
	}
	if outcome.PlayerKilled {
		r.playerEliminationReveal(em, "night_kill")
	}

	if winner := s.EvaluateWinner(r.winConfig()); winner != "" {
		r.endGame(ctx, em, winner)
		return
	}

	if err := s.Advance(domain.PhaseDiscussion); err != nil {
		em.fail("invalid_transition", err.Error())
		return
	}

	r.snapshot(ctx)
	em.done(s)
}

func (r *Runtime) dawnNarration(ctx context.Context, outcome domain.NightOutcome) string {
	s := r.session

	switch {
	case len(outcome.Eliminated) > 0:
		names := make([]string, 0, len(outcome.Eliminated))
		for _, id := range outcome.Eliminated {
			names = append(names, r.targetName(id))
		}
		victims := strings.Join(names, " and ")
		return r.narrate(ctx,
			fmt.Sprintf("Night has passed in %s. %s did not survive it. Narrate the grim dawn.", s.World.Title, victims),
			fmt.Sprintf("Dawn breaks cold and gray. %s did not survive the night.", victims))
	case outcome.AnyoneProtected:
		return r.narrate(ctx,
			"Night has passed. A strike came in the dark but was turned aside by an unseen protector. Narrate the morning.",
			"Morning comes, and everyone is still breathing. Somewhere in the dark, a blow was turned aside.")
	default:
		return r.narrate(ctx,
			"Night has passed without bloodshed. Narrate the uneasy quiet of the morning.",
			"The night passes quietly. Too quietly, some would say, as the table gathers again.")
	}
}

// playerNightKind returns the night capability of the player's hidden role
func (r *Runtime) playerNightKind() domain.ActionKind {
	s := r.session
	if !s.PlayerAlive() {
		return domain.ActionNone
	}
	pr := s.PlayerRole

	if s.World.EvilFactions()[pr.Faction] {
		return domain.ActionKill
	}
	probe := domain.Participant{HiddenRole: pr.HiddenRole}
	switch {
	case probe.IsInvestigator():
		return domain.ActionInvestigate
	case probe.IsProtector():
		return domain.ActionProtect
	}
	return domain.ActionNone
}

// eligibleNightTargets lists the player's legal targets for a night action.
// A kill never targets the player's own allies.
func (r *Runtime) eligibleNightTargets(kind domain.ActionKind) []domain.PublicActor {
	s := r.session
	var out []domain.PublicActor
	for _, p := range s.AliveParticipants() {
		if kind == domain.ActionKill && s.PlayerRole != nil && s.PlayerRole.IsAlly(p.ID) {
			continue
		}
		out = append(out, domain.PublicActorView(p))
	}
	return out
}

// playerNightPrompt rebuilds the pending prompt payload for reconnection
func (r *Runtime) playerNightPrompt() *domain.NightActionPromptPayload {
	kind := r.playerNightKind()
	if kind == domain.ActionNone {
		return nil
	}
	return &domain.NightActionPromptPayload{
		ActionType:      kind,
		EligibleTargets: r.eligibleNightTargets(kind),
	}
}
