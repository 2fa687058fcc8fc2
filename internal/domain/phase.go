package domain

// Phase represents the current phase of a game session
type Phase string

const (
	PhaseLobby      Phase = "lobby"      // Waiting for the game to start
	PhaseDiscussion Phase = "discussion" // Open table talk
	PhaseVoting     Phase = "voting"     // Elimination vote in progress
	PhaseReveal     Phase = "reveal"     // Vote outcome revealed
	PhaseNight      Phase = "night"      // Night actions collected and resolved
	PhaseEnded      Phase = "ended"      // Terminal: a faction has won
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// phaseTransitions is the directed transition table. Reveal may skip night and
// return straight to discussion after a tie vote. Ended has no outgoing edges.
var phaseTransitions = map[Phase][]Phase{
	PhaseLobby:      {PhaseDiscussion},
	PhaseDiscussion: {PhaseVoting},
	PhaseVoting:     {PhaseReveal},
	PhaseReveal:     {PhaseNight, PhaseDiscussion, PhaseEnded},
	PhaseNight:      {PhaseDiscussion},
	PhaseEnded:      {},
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal targets from this phase
func (p Phase) AllowedTransitions() []Phase {
	return phaseTransitions[p]
}
