package domain

import "strings"

// PlayerID is the reserved participant id for the human player
const PlayerID = "player"

// Participant is an AI-driven character at the table. Created once at session
// creation; Eliminated is the only field that changes afterwards, and only
// through Session.Eliminate.
type Participant struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Persona         string   `json:"persona"`
	SpeakingStyle   string   `json:"speakingStyle"`
	PublicRole      string   `json:"publicRole"`
	HiddenRole      string   `json:"hiddenRole"`
	Faction         string   `json:"faction"`
	WinCondition    string   `json:"winCondition"`
	HiddenKnowledge []string `json:"hiddenKnowledge,omitempty"`
	Eliminated      bool     `json:"eliminated"`
}

// Alive reports whether the participant is still in the game
func (p *Participant) Alive() bool {
	return !p.Eliminated
}

// IsInvestigator reports whether the hidden role can investigate at night
func (p *Participant) IsInvestigator() bool {
	return roleContains(p.HiddenRole, "seer", "investigat", "oracle")
}

// IsProtector reports whether the hidden role can protect at night
func (p *Participant) IsProtector() bool {
	return roleContains(p.HiddenRole, "doctor", "protect", "warden")
}

// PlayerRole is the human player's hidden role assignment
type PlayerRole struct {
	HiddenRole   string   `json:"hiddenRole"`
	Faction      string   `json:"faction"`
	WinCondition string   `json:"winCondition"`
	Allies       []string `json:"allies,omitempty"`
	Eliminated   bool     `json:"eliminated"`
	EliminatedBy string   `json:"eliminatedBy,omitempty"`
}

// IsAlly reports whether the given participant id is a known ally
func (r *PlayerRole) IsAlly(id string) bool {
	for _, aid := range r.Allies {
		if aid == id {
			return true
		}
	}
	return false
}

func roleContains(role string, fragments ...string) bool {
	lower := strings.ToLower(role)
	for _, frag := range fragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
