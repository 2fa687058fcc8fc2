package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensionStaysInRange(t *testing.T) {
	s := sessionWith(4, 2)

	for round := 1; round <= 10; round++ {
		s.Round = round
		s.UpdateTension()
		assert.GreaterOrEqual(t, s.TensionLevel, 0.0)
		assert.LessOrEqual(t, s.TensionLevel, 1.0)
	}
}

func TestTensionRisesWithEliminations(t *testing.T) {
	s := sessionWith(4, 2)
	s.UpdateTension()
	before := s.TensionLevel

	s.Eliminate("g0")
	s.UpdateTension()
	assert.Greater(t, s.TensionLevel, before)
}

func TestTensionRisesWithRounds(t *testing.T) {
	s := sessionWith(4, 2)
	s.Round = 1
	s.UpdateTension()
	early := s.TensionLevel

	s.Round = 4
	s.UpdateTension()
	assert.Greater(t, s.TensionLevel, early)
}

func TestTensionSpikesAfterNightKill(t *testing.T) {
	s := sessionWith(4, 2)
	s.UpdateTension()
	calm := s.TensionLevel

	s.ResolveNight([]NightActionRecord{
		{ActorID: "e0", Kind: ActionKill, TargetID: "g0"},
	}, false)
	s.TensionLevel = 0
	s.UpdateTension()

	// Elimination ratio alone accounts for 0.4/6 of the rise; the rest of
	// the gap over the calm value comes from the kill spike.
	assert.Greater(t, s.TensionLevel, calm+0.15)
}

func TestComplicationNeverBeforeSixMessages(t *testing.T) {
	s := sessionWith(4, 2)
	inDiscussion(t, s)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 5; i++ {
		s.AppendMessage("g0", "Good 0", "talk")
	}
	assert.False(t, s.ShouldInjectComplication(rng))
}

func TestComplicationOnSingleSpeakerStall(t *testing.T) {
	s := sessionWith(4, 2)
	inDiscussion(t, s)
	rng := rand.New(rand.NewSource(1))

	s.AppendMessage("g1", "Good 1", "I suspect someone")
	s.AppendMessage("g2", "Good 2", "so do I, I accuse g1")
	for i := 0; i < 4; i++ {
		s.AppendMessage("g0", "Good 0", "me me me")
	}
	assert.True(t, s.ShouldInjectComplication(rng))
}

func TestComplicationOnAccusationFreeDrift(t *testing.T) {
	s := sessionWith(4, 2)
	inDiscussion(t, s)
	rng := rand.New(rand.NewSource(1))

	speakers := []string{"g0", "g1", "g2", "g3", "e0", "e1"}
	for i := 0; i < 9; i++ {
		s.AppendMessage(speakers[i%len(speakers)], "Someone", "lovely weather lately")
	}
	assert.True(t, s.ShouldInjectComplication(rng))
}

func TestInjectComplicationBumpsTensionAndAppends(t *testing.T) {
	s := sessionWith(4, 2)
	inDiscussion(t, s)
	rng := rand.New(rand.NewSource(1))

	s.TensionLevel = 0.5
	comp := s.InjectComplication(rng)

	require.Len(t, s.Complications, 1)
	assert.NotEmpty(t, comp.Description)
	assert.Equal(t, 1, comp.Round)
	assert.InDelta(t, 0.6, s.TensionLevel, 1e-9)
}

func TestContainsAccusation(t *testing.T) {
	assert.True(t, ContainsAccusation("I think you're LYING"))
	assert.True(t, ContainsAccusation("we should vote out Oskar"))
	assert.False(t, ContainsAccusation("lovely weather lately"))
}
