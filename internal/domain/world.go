package domain

// Alignment classifies a faction for win-condition purposes
type Alignment string

const (
	AlignmentGood    Alignment = "good"
	AlignmentEvil    Alignment = "evil"
	AlignmentNeutral Alignment = "neutral"
)

// Faction is a named team with an alignment and a win condition
type Faction struct {
	Name         string    `json:"name"`
	Alignment    Alignment `json:"alignment"`
	WinCondition string    `json:"winCondition"`
}

// RoleDef describes a role available in a world's role pool
type RoleDef struct {
	Name      string    `json:"name"`
	Faction   string    `json:"faction"`
	Alignment Alignment `json:"alignment"`
}

// World holds the static setting a session plays out in. It is supplied at
// session creation and read-only for the session's lifetime.
type World struct {
	Title      string    `json:"title"`
	Setting    string    `json:"setting"`
	FlavorText string    `json:"flavorText"`
	Factions   []Faction `json:"factions"`
	Roles      []RoleDef `json:"roles"`
}

// EvilFactions returns the set of evil-aligned faction names
func (w *World) EvilFactions() map[string]bool {
	out := make(map[string]bool)
	for _, f := range w.Factions {
		if f.Alignment == AlignmentEvil {
			out[f.Name] = true
		}
	}
	return out
}

// GoodFactions returns the set of good- and neutral-aligned faction names
func (w *World) GoodFactions() map[string]bool {
	out := make(map[string]bool)
	for _, f := range w.Factions {
		if f.Alignment == AlignmentGood || f.Alignment == AlignmentNeutral {
			out[f.Name] = true
		}
	}
	return out
}

// FactionWinCondition returns the win condition text for a faction name
func (w *World) FactionWinCondition(name string) string {
	for _, f := range w.Factions {
		if f.Name == name {
			return f.WinCondition
		}
	}
	return "Survive and help your faction win"
}
