package domain

import (
	"fmt"
	"time"
)

// Session is the authoritative state of one game. All mutation funnels
// through the orchestrator, which is the single writer for a session id.
type Session struct {
	ID            string              `json:"id"`
	Phase         Phase               `json:"phase"`
	Round         int                 `json:"round"`
	World         World               `json:"world"`
	Participants  []*Participant      `json:"participants"`
	PlayerRole    *PlayerRole         `json:"playerRole,omitempty"`
	Messages      []Message           `json:"messages"`
	Votes         []VoteRecord        `json:"votes"`
	VoteResults   []VoteOutcome       `json:"voteResults"`
	NightActions  []NightActionRecord `json:"nightActions"`
	TensionLevel  float64             `json:"tensionLevel"`
	CanonFacts    []string            `json:"canonFacts"`
	Complications []Complication      `json:"complications"`
	Eliminated    []string            `json:"eliminated"`
	Winner        string              `json:"winner,omitempty"`

	// AwaitingPlayerNightAction is set while the night phase is paused for
	// the human player's action.
	AwaitingPlayerNightAction bool `json:"awaitingPlayerNightAction"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewSession creates a session in the lobby phase
func NewSession(id string, world World, participants []*Participant) *Session {
	return &Session{
		ID:           id,
		Phase:        PhaseLobby,
		Round:        1,
		World:        world,
		Participants: participants,
		TensionLevel: 0.2,
		CreatedAt:    time.Now().UTC(),
	}
}

// Advance applies a phase transition. Invalid transitions leave the session
// untouched and return ErrInvalidTransition. Entering discussion from night
// or reveal increments the round and clears the vote list; entering night
// clears the night-action list and the awaiting flag.
func (s *Session) Advance(target Phase) error {
	if !s.Phase.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, target)
	}

	previous := s.Phase
	s.Phase = target

	switch target {
	case PhaseDiscussion:
		if previous == PhaseNight || previous == PhaseReveal {
			s.Round++
		}
		s.Votes = nil
	case PhaseNight:
		s.NightActions = nil
		s.AwaitingPlayerNightAction = false
	}

	return nil
}

// End moves the session to the terminal phase with the winning faction
func (s *Session) End(winner string) {
	s.Phase = PhaseEnded
	s.Winner = winner
}

// Participant returns the participant with the given id
func (s *Session) Participant(id string) *Participant {
	for _, p := range s.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AliveParticipants returns participants that have not been eliminated
func (s *Session) AliveParticipants() []*Participant {
	alive := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	return alive
}

// PlayerAlive reports whether the human player is in the game and not eliminated
func (s *Session) PlayerAlive() bool {
	return s.PlayerRole != nil && !s.PlayerRole.Eliminated
}

// Eliminate marks a participant (or the player) as eliminated. Idempotent:
// eliminating an already-eliminated id is a no-op.
func (s *Session) Eliminate(id string) {
	if id == PlayerID {
		if s.PlayerRole == nil || s.PlayerRole.Eliminated {
			return
		}
		s.PlayerRole.Eliminated = true
		s.Eliminated = append(s.Eliminated, id)
		return
	}

	p := s.Participant(id)
	if p == nil || p.Eliminated {
		return
	}
	p.Eliminated = true
	s.Eliminated = append(s.Eliminated, id)
}

// AppendMessage records a message in the ordered log
func (s *Session) AppendMessage(speakerID, speakerName, content string) Message {
	msg := NewMessage(speakerID, speakerName, content, s.Phase, s.Round)
	s.Messages = append(s.Messages, msg)
	return msg
}

// RoundMessages returns the messages recorded during the current round
func (s *Session) RoundMessages() []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.Round == s.Round {
			out = append(out, m)
		}
	}
	return out
}

// AddCanonFact appends an established truth. Canon facts are append-only and
// never mutated or removed.
func (s *Session) AddCanonFact(fact string) {
	s.CanonFacts = append(s.CanonFacts, fact)
}

// EstablishWorldFacts seeds the canon with the world setup
func (s *Session) EstablishWorldFacts() {
	s.AddCanonFact("World: " + s.World.Title)
	s.AddCanonFact("Setting: " + s.World.Setting)
	for _, f := range s.World.Factions {
		s.AddCanonFact(fmt.Sprintf("Faction %q is %s", f.Name, f.Alignment))
	}
	for _, p := range s.Participants {
		s.AddCanonFact(fmt.Sprintf("%s is publicly known as %s", p.Name, p.PublicRole))
	}
	if s.PlayerRole != nil {
		s.AddCanonFact("The player is publicly known as a Council Member")
	}
}
