package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWinZeroEvilMeansGoodWins(t *testing.T) {
	s := sessionWith(3, 1)
	s.Eliminate("e0")

	assert.Equal(t, "Village", s.EvaluateWinner(DefaultWinConfig()))
}

func TestWinEvilMajority(t *testing.T) {
	s := sessionWith(1, 2)

	assert.Equal(t, "Wolves", s.EvaluateWinner(DefaultWinConfig()))
}

func TestWinParityIsNotAWin(t *testing.T) {
	s := sessionWith(2, 2)

	assert.Empty(t, s.EvaluateWinner(DefaultWinConfig()))
}

func TestWinRoundCapTieFavorsGood(t *testing.T) {
	s := sessionWith(2, 2)
	s.Round = 6

	assert.Equal(t, "Village", s.EvaluateWinner(DefaultWinConfig()))
}

func TestWinRoundCapEvilMajorityStillWins(t *testing.T) {
	s := sessionWith(1, 2)
	s.Round = 6

	assert.Equal(t, "Wolves", s.EvaluateWinner(DefaultWinConfig()))
}

func TestWinPlayerCountsForTheirSide(t *testing.T) {
	s := sessionWith(1, 2)
	s.PlayerRole = &PlayerRole{HiddenRole: "Villager", Faction: "Village"}

	// 2 good (g0 + player) vs 2 evil: parity, game continues.
	assert.Empty(t, s.EvaluateWinner(DefaultWinConfig()))

	s.Eliminate(PlayerID)
	assert.Equal(t, "Wolves", s.EvaluateWinner(DefaultWinConfig()))
}

func TestWinTotalWipePolicies(t *testing.T) {
	s := sessionWith(1, 1)
	s.Eliminate("g0")
	s.Eliminate("e0")

	assert.Equal(t, "Wolves", s.EvaluateWinner(WinConfig{RoundCap: 6, WipePolicy: WipeEvilWins}))
	assert.Equal(t, WinnerDraw, s.EvaluateWinner(WinConfig{RoundCap: 6, WipePolicy: WipeDraw}))
}

func TestWinTotalWipeWithoutEvilFactionIsDraw(t *testing.T) {
	s := sessionWith(1, 0)
	s.World.Factions = s.World.Factions[:1] // good faction only
	s.Eliminate("g0")

	assert.Equal(t, WinnerDraw, s.EvaluateWinner(WinConfig{RoundCap: 6, WipePolicy: WipeEvilWins}))
}

func TestWinBeforeCapEliminationDriven(t *testing.T) {
	s := sessionWith(3, 1)
	s.Round = 3

	assert.Empty(t, s.EvaluateWinner(DefaultWinConfig()))
}
