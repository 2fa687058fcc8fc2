package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionWith builds a session with the given number of good and evil
// participants. Good ids are g0, g1, ...; evil ids are e0, e1, ....
func sessionWith(good, evil int) *Session {
	world := World{
		Title:   "Testhaven",
		Setting: "A town with a problem",
		Factions: []Faction{
			{Name: "Village", Alignment: AlignmentGood, WinCondition: "Eliminate the wolves"},
			{Name: "Wolves", Alignment: AlignmentEvil, WinCondition: "Outnumber the village"},
		},
		Roles: []RoleDef{
			{Name: "Villager", Faction: "Village", Alignment: AlignmentGood},
			{Name: "Wolf", Faction: "Wolves", Alignment: AlignmentEvil},
		},
	}

	var participants []*Participant
	for i := 0; i < good; i++ {
		participants = append(participants, &Participant{
			ID:         fmt.Sprintf("g%d", i),
			Name:       fmt.Sprintf("Good %d", i),
			PublicRole: "Citizen",
			HiddenRole: "Villager",
			Faction:    "Village",
		})
	}
	for i := 0; i < evil; i++ {
		participants = append(participants, &Participant{
			ID:         fmt.Sprintf("e%d", i),
			Name:       fmt.Sprintf("Evil %d", i),
			PublicRole: "Citizen",
			HiddenRole: "Wolf",
			Faction:    "Wolves",
		})
	}

	return NewSession("test-session", world, participants)
}

// inDiscussion advances a fresh session into its first discussion round
func inDiscussion(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Advance(PhaseDiscussion))
}

func TestEliminateIsIdempotent(t *testing.T) {
	s := sessionWith(3, 1)

	s.Eliminate("g0")
	require.False(t, s.Participant("g0").Alive())
	require.Equal(t, []string{"g0"}, s.Eliminated)

	s.Eliminate("g0")
	assert.Equal(t, []string{"g0"}, s.Eliminated)
	assert.Len(t, s.AliveParticipants(), 3)
}

func TestEliminatePlayer(t *testing.T) {
	s := sessionWith(2, 1)
	s.PlayerRole = &PlayerRole{HiddenRole: "Villager", Faction: "Village"}

	require.True(t, s.PlayerAlive())
	s.Eliminate(PlayerID)
	assert.False(t, s.PlayerAlive())
	assert.Equal(t, []string{PlayerID}, s.Eliminated)

	s.Eliminate(PlayerID)
	assert.Equal(t, []string{PlayerID}, s.Eliminated)
}

func TestEliminateUnknownIDIsNoOp(t *testing.T) {
	s := sessionWith(2, 1)
	s.Eliminate("nobody")
	assert.Empty(t, s.Eliminated)
}

func TestRoundMessagesFiltersByRound(t *testing.T) {
	s := sessionWith(2, 1)
	inDiscussion(t, s)

	s.AppendMessage("g0", "Good 0", "first round talk")
	require.NoError(t, s.Advance(PhaseVoting))
	require.NoError(t, s.Advance(PhaseReveal))
	require.NoError(t, s.Advance(PhaseNight))
	require.NoError(t, s.Advance(PhaseDiscussion))
	s.AppendMessage("g1", "Good 1", "second round talk")

	msgs := s.RoundMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "second round talk", msgs[0].Content)
	assert.Equal(t, 2, msgs[0].Round)
}

func TestPublicProjectionHidesHiddenInfo(t *testing.T) {
	s := sessionWith(2, 2)
	s.PlayerRole = &PlayerRole{
		HiddenRole:   "Wolf",
		Faction:      "Wolves",
		WinCondition: "Outnumber the village",
		Allies:       []string{"e0", "e1"},
	}

	state := s.PublicProjection(false)

	// Other participants' hidden data must not survive serialization.
	state.PlayerRole = nil
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"Wolf"`)
	assert.NotContains(t, string(raw), "Wolves")

	state = s.PublicProjection(false)
	require.NotNil(t, state.PlayerRole)
	assert.Equal(t, "Wolf", state.PlayerRole.HiddenRole)
	assert.Len(t, state.PlayerRole.Allies, 2)
}

func TestPublicProjectionDropsDeadAllies(t *testing.T) {
	s := sessionWith(2, 2)
	s.PlayerRole = &PlayerRole{HiddenRole: "Wolf", Faction: "Wolves", Allies: []string{"e0", "e1"}}

	s.Eliminate("e0")
	state := s.PublicProjection(false)

	require.NotNil(t, state.PlayerRole)
	require.Len(t, state.PlayerRole.Allies, 1)
	assert.Equal(t, "e1", state.PlayerRole.Allies[0].ID)
}

func TestPublicProjectionTruncatesMessages(t *testing.T) {
	s := sessionWith(2, 1)
	inDiscussion(t, s)
	for i := 0; i < MessageWindow+10; i++ {
		s.AppendMessage("g0", "Good 0", fmt.Sprintf("message %d", i))
	}

	assert.Len(t, s.PublicProjection(false).Messages, MessageWindow)
	assert.Len(t, s.PublicProjection(true).Messages, MessageWindow+10)
}

func TestRevealViewDisclosesEverything(t *testing.T) {
	s := sessionWith(1, 1)
	s.Eliminate("e0")

	reveal := s.RevealView()
	require.Len(t, reveal, 2)
	for _, r := range reveal {
		assert.NotEmpty(t, r.HiddenRole)
		assert.NotEmpty(t, r.Faction)
	}
	assert.True(t, reveal[1].Eliminated)
}

func TestCanonFactsAreAppendOnly(t *testing.T) {
	s := sessionWith(2, 1)
	s.AddCanonFact("first")
	s.AddCanonFact("second")
	assert.Equal(t, []string{"first", "second"}, s.CanonFacts)
}
