package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseTransitionTable(t *testing.T) {
	tests := []struct {
		from    Phase
		to      Phase
		allowed bool
	}{
		{PhaseLobby, PhaseDiscussion, true},
		{PhaseLobby, PhaseVoting, false},
		{PhaseDiscussion, PhaseVoting, true},
		{PhaseDiscussion, PhaseNight, false},
		{PhaseVoting, PhaseReveal, true},
		{PhaseVoting, PhaseDiscussion, false},
		{PhaseReveal, PhaseNight, true},
		{PhaseReveal, PhaseDiscussion, true},
		{PhaseReveal, PhaseEnded, true},
		{PhaseReveal, PhaseVoting, false},
		{PhaseNight, PhaseDiscussion, true},
		{PhaseNight, PhaseEnded, false},
		{PhaseEnded, PhaseDiscussion, false},
		{PhaseEnded, PhaseLobby, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestAdvanceRejectsInvalidTransition(t *testing.T) {
	s := sessionWith(3, 1)

	err := s.Advance(PhaseNight)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PhaseLobby, s.Phase)
	assert.Equal(t, 1, s.Round)
}

func TestRoundIncrementsOncePerCycle(t *testing.T) {
	s := sessionWith(3, 1)

	require.NoError(t, s.Advance(PhaseDiscussion))
	assert.Equal(t, 1, s.Round, "lobby->discussion must not increment")

	// Three full cycles through night.
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Advance(PhaseVoting))
		require.NoError(t, s.Advance(PhaseReveal))
		require.NoError(t, s.Advance(PhaseNight))
		require.NoError(t, s.Advance(PhaseDiscussion))
	}
	assert.Equal(t, 4, s.Round)
}

func TestRoundIncrementsOnRevealToDiscussion(t *testing.T) {
	s := sessionWith(3, 1)

	require.NoError(t, s.Advance(PhaseDiscussion))
	require.NoError(t, s.Advance(PhaseVoting))
	require.NoError(t, s.Advance(PhaseReveal))
	require.NoError(t, s.Advance(PhaseDiscussion))
	assert.Equal(t, 2, s.Round)
}

func TestEnteringDiscussionClearsVotes(t *testing.T) {
	s := sessionWith(3, 1)
	require.NoError(t, s.Advance(PhaseDiscussion))
	require.NoError(t, s.Advance(PhaseVoting))

	s.Votes = []VoteRecord{{VoterID: "g0", TargetID: "g1"}}
	require.NoError(t, s.Advance(PhaseReveal))
	require.NoError(t, s.Advance(PhaseDiscussion))
	assert.Empty(t, s.Votes)
}

func TestEnteringNightClearsNightState(t *testing.T) {
	s := sessionWith(3, 1)
	require.NoError(t, s.Advance(PhaseDiscussion))
	require.NoError(t, s.Advance(PhaseVoting))
	require.NoError(t, s.Advance(PhaseReveal))

	s.NightActions = []NightActionRecord{{ActorID: "e0", Kind: ActionKill}}
	s.AwaitingPlayerNightAction = true

	require.NoError(t, s.Advance(PhaseNight))
	assert.Empty(t, s.NightActions)
	assert.False(t, s.AwaitingPlayerNightAction)
}

func TestEndedIsTerminal(t *testing.T) {
	s := sessionWith(3, 1)
	require.NoError(t, s.Advance(PhaseDiscussion))
	require.NoError(t, s.Advance(PhaseVoting))
	require.NoError(t, s.Advance(PhaseReveal))
	require.NoError(t, s.Advance(PhaseEnded))

	assert.Empty(t, PhaseEnded.AllowedTransitions())
	require.ErrorIs(t, s.Advance(PhaseDiscussion), ErrInvalidTransition)
}
