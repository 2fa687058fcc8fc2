package app

import (
	"context"
	"fmt"

	"conclave/internal/agent"
	"conclave/internal/domain"
)

// SubmitVote runs one elimination vote. The player's target is validated
// strictly; AI votes are gathered concurrently and any unreachable or invalid
// voter is silently dropped from the tally. The stream carries each vote, the
// tally, any elimination with its reveal, and a terminal done. An eliminated
// player may pass an empty target to let the vote proceed without them.
func (r *Runtime) SubmitVote(ctx context.Context, targetID string) (<-chan domain.Event, error) {
	r.mu.Lock()
	if err := r.votePrecondition(targetID); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.touch()

	em := newEmitter(r.session.ID, r.logger)
	go func() {
		defer r.mu.Unlock()
		r.runVote(context.WithoutCancel(ctx), em, targetID)
	}()
	return em.events(), nil
}

func (r *Runtime) votePrecondition(targetID string) error {
	s := r.session
	if s.Phase == domain.PhaseEnded {
		return domain.ErrSessionEnded
	}
	if s.Phase != domain.PhaseDiscussion && s.Phase != domain.PhaseVoting {
		return fmt.Errorf("%w: voting requires discussion or voting, session is in %s", domain.ErrInvalidPhase, s.Phase)
	}

	if !s.PlayerAlive() {
		// Ghost mode: the player may trigger the vote but not cast one.
		if targetID != "" {
			return domain.ErrPlayerEliminated
		}
		return nil
	}

	if targetID == "" || targetID == domain.PlayerID {
		return domain.ErrInvalidTarget
	}
	if p := s.Participant(targetID); p == nil || !p.Alive() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTarget, targetID)
	}
	return nil
}

func (r *Runtime) runVote(ctx context.Context, em *emitter, playerTarget string) {
	s := r.session

	if s.Phase == domain.PhaseDiscussion {
		if err := s.Advance(domain.PhaseVoting); err != nil {
			em.fail("invalid_transition", err.Error())
			return
		}
		em.emit(domain.EventVotingStarted, nil)
	}

	votes := r.collectVotes(ctx, playerTarget)
	for _, v := range votes {
		em.emit(domain.EventVote, domain.VotePayload{VoterName: v.VoterName, TargetName: v.TargetName})
	}

	outcome := s.ResolveVotes(votes)
	em.emit(domain.EventTally, domain.TallyPayload{Tally: outcome.Tally, IsTie: outcome.IsTie})
	r.logger.Info("votes resolved", "round", s.Round, "accepted", len(outcome.Votes), "tie", outcome.IsTie)

	if err := s.Advance(domain.PhaseReveal); err != nil {
		em.fail("invalid_transition", err.Error())
		return
	}

	if outcome.IsTie {
		narration := r.narrate(ctx,
			"The elimination vote is deadlocked and nobody is cast out. Narrate the uneasy reprieve as a new day begins.",
			"The vote splinters into a deadlock. Nobody is cast out, and the table settles into an uneasy new day.")
		em.emit(domain.EventNarration, domain.NarrationPayload{Content: narration, Phase: s.Phase, Round: s.Round})
		s.AppendMessage(narratorID, narratorName, narration)

		// A tied reveal skips night and opens the next day directly.
		if err := s.Advance(domain.PhaseDiscussion); err != nil {
			em.fail("invalid_transition", err.Error())
			return
		}
		s.UpdateTension()
		r.snapshot(ctx)
		em.done(s)
		return
	}

	r.revealElimination(ctx, em, outcome)
	s.UpdateTension()

	if winner := s.EvaluateWinner(r.winConfig()); winner != "" {
		r.endGame(ctx, em, winner)
		return
	}

	r.snapshot(ctx)
	em.done(s)
}

// collectVotes gathers the player's vote plus every alive character's vote,
// the latter concurrently with per-branch deadlines.
func (r *Runtime) collectVotes(ctx context.Context, playerTarget string) []domain.VoteRecord {
	s := r.session

	var votes []domain.VoteRecord
	if s.PlayerAlive() && playerTarget != "" {
		votes = append(votes, domain.VoteRecord{
			VoterID:    domain.PlayerID,
			VoterName:  playerName,
			TargetID:   playerTarget,
			TargetName: r.targetName(playerTarget),
		})
	}

	voters := r.aliveAgents()
	targets, errs := fanOut(ctx, voters, r.cfg.FanOutLimit, r.cfg.AgentTimeout,
		func(ctx context.Context, a *agent.Agent) (string, error) {
			exclude := map[string]bool{a.Character().ID: true}
			if r.allyOfPlayer(a.Character().ID) {
				exclude[domain.PlayerID] = true
			}
			target, verdict := a.Vote(ctx, r.voteCandidates(exclude))
			if verdict.Fallback {
				r.logger.Warn("vote degraded to fallback", "character", a.Character().ID, "reason", verdict.Reason)
			}
			return target, nil
		})

	for i, a := range voters {
		if errs[i] != nil || targets[i] == "" {
			continue
		}
		votes = append(votes, domain.VoteRecord{
			VoterID:    a.Character().ID,
			VoterName:  a.Character().Name,
			TargetID:   targets[i],
			TargetName: r.targetName(targets[i]),
		})
	}
	return votes
}

func (r *Runtime) targetName(id string) string {
	if id == domain.PlayerID {
		return playerName
	}
	if p := r.session.Participant(id); p != nil {
		return p.Name
	}
	return "Unknown"
}

// revealElimination publishes a vote elimination: canon fact, reveal event,
// and the full disclosure payload when the player is the one cast out.
func (r *Runtime) revealElimination(ctx context.Context, em *emitter, outcome domain.VoteOutcome) {
	s := r.session

	if outcome.EliminatedID == domain.PlayerID {
		if s.PlayerRole != nil {
			s.PlayerRole.EliminatedBy = "vote"
		}
		s.AddCanonFact(fmt.Sprintf("The player was eliminated by vote in round %d.", s.Round))
		r.pushCanonFacts()
		r.playerEliminationReveal(em, "vote")
		return
	}

	p := s.Participant(outcome.EliminatedID)
	if p == nil {
		return
	}

	fact := fmt.Sprintf("%s was eliminated by vote in round %d. They were a %s of the %s.",
		p.Name, s.Round, p.HiddenRole, p.Faction)
	s.AddCanonFact(fact)
	r.pushCanonFacts()
	r.observeElimination(p.Faction)

	narration := r.narrate(ctx,
		fmt.Sprintf("The council has voted out %s, who is revealed as a %s of the %s. Narrate the reveal.",
			p.Name, p.HiddenRole, p.Faction),
		fmt.Sprintf("The table falls silent as %s is cast out and revealed: a %s of the %s.",
			p.Name, p.HiddenRole, p.Faction))

	em.emit(domain.EventElimination, domain.EliminationPayload{
		CharacterID:   p.ID,
		CharacterName: p.Name,
		HiddenRole:    p.HiddenRole,
		Faction:       p.Faction,
		Narration:     narration,
	})
	s.AppendMessage(narratorID, narratorName, narration)
}

// playerEliminationReveal sends the ghost-mode disclosure payload
func (r *Runtime) playerEliminationReveal(em *emitter, cause string) {
	s := r.session
	payload := domain.PlayerEliminatedPayload{
		EliminatedBy:  cause,
		AllCharacters: s.RevealView(),
	}
	if s.PlayerRole != nil {
		payload.HiddenRole = s.PlayerRole.HiddenRole
		payload.Faction = s.PlayerRole.Faction
	}
	em.emit(domain.EventPlayerEliminated, payload)
	r.logger.Info("player eliminated", "cause", cause, "round", s.Round)
}

func (r *Runtime) winConfig() domain.WinConfig {
	cfg := domain.WinConfig{RoundCap: r.cfg.RoundCap, WipePolicy: domain.WipeEvilWins}
	if r.cfg.WipePolicy == string(domain.WipeDraw) {
		cfg.WipePolicy = domain.WipeDraw
	}
	return cfg
}

// endGame closes the session with a winner and the final narration
func (r *Runtime) endGame(ctx context.Context, em *emitter, winner string) {
	s := r.session
	s.End(winner)
	s.AddCanonFact(fmt.Sprintf("The game ended in round %d. The %s prevailed.", s.Round, winnerLabel(winner)))

	narration := r.narrate(ctx,
		fmt.Sprintf("The game is over: %s has won. Narrate a short epilogue for the world of %s.",
			winnerLabel(winner), s.World.Title),
		fmt.Sprintf("It is finished. The %s carries the day, and the survivors are left to live with what was done.",
			winnerLabel(winner)))

	em.emit(domain.EventGameOver, domain.GameOverPayload{Winner: winner, Narration: narration})
	r.logger.Info("game over", "winner", winner, "round", s.Round)

	r.snapshot(ctx)
	em.done(s)
}

func winnerLabel(winner string) string {
	if winner == domain.WinnerDraw {
		return "nobody; it is a draw"
	}
	return winner
}
