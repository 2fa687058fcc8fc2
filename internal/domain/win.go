package domain

import "sort"

// TotalWipePolicy decides the outcome when every participant, the player
// included, has been eliminated.
type TotalWipePolicy string

const (
	// WipeEvilWins awards the win to the first evil faction if one exists,
	// and declares a draw otherwise.
	WipeEvilWins TotalWipePolicy = "evil_wins"
	// WipeDraw always declares a draw.
	WipeDraw TotalWipePolicy = "draw"
)

// WinnerDraw is the winner value recorded when no faction prevails
const WinnerDraw = "draw"

// WinConfig configures the win-condition evaluator
type WinConfig struct {
	// RoundCap is the round from which win conditions resolve by numeric
	// majority rather than elimination alone. Ties at the cap favor good.
	RoundCap int
	// WipePolicy decides total-wipe outcomes.
	WipePolicy TotalWipePolicy
}

// DefaultWinConfig mirrors the standard six-round game
func DefaultWinConfig() WinConfig {
	return WinConfig{RoundCap: 6, WipePolicy: WipeEvilWins}
}

// EvaluateWinner computes whether a faction has won. It returns the winning
// faction name, or "" while the game continues. The human player, if alive,
// counts toward whichever side their faction belongs to.
//
// Rules in order: total wipe resolves by policy; zero evil alive means good
// wins; evil strictly outnumbering good means evil wins (majority, not
// parity); at or past the round cap, evil wins only with a strict majority
// and good takes ties (defender's advantage).
func (s *Session) EvaluateWinner(cfg WinConfig) string {
	evilFactions := s.World.EvilFactions()
	goodFactions := s.World.GoodFactions()

	alive := s.AliveParticipants()
	if len(alive) == 0 && !s.PlayerAlive() {
		switch cfg.WipePolicy {
		case WipeDraw:
			return WinnerDraw
		default:
			if name := firstFaction(evilFactions); name != "" {
				return name
			}
			return WinnerDraw
		}
	}

	evilAlive, goodAlive := 0, 0
	for _, p := range alive {
		if evilFactions[p.Faction] {
			evilAlive++
		} else {
			goodAlive++
		}
	}
	if s.PlayerAlive() {
		if evilFactions[s.PlayerRole.Faction] {
			evilAlive++
		} else {
			goodAlive++
		}
	}

	if evilAlive == 0 && len(goodFactions) > 0 {
		return firstFaction(goodFactions)
	}

	if len(evilFactions) > 0 && evilAlive > goodAlive {
		return firstFaction(evilFactions)
	}

	if cfg.RoundCap > 0 && s.Round >= cfg.RoundCap {
		if evilAlive > goodAlive {
			return firstFaction(evilFactions)
		}
		return firstFaction(goodFactions)
	}

	return ""
}

// firstFaction returns the lexicographically first name so the evaluator is
// deterministic when a side has several factions.
func firstFaction(set map[string]bool) string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
