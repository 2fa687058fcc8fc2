package domain

// MessageWindow bounds the message history in a non-full public projection
const MessageWindow = 50

// PublicActor is the safe view of a participant: no hidden role, faction,
// or win condition.
type PublicActor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Persona       string `json:"persona"`
	SpeakingStyle string `json:"speakingStyle,omitempty"`
	PublicRole    string `json:"publicRole"`
	Eliminated    bool   `json:"eliminated"`
}

// PublicAlly is an ally reference disclosed to the player only
type PublicAlly struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublicPlayerRole is the player's own hidden role, safe to return to the
// player's client.
type PublicPlayerRole struct {
	HiddenRole   string       `json:"hiddenRole"`
	Faction      string       `json:"faction"`
	WinCondition string       `json:"winCondition"`
	Allies       []PublicAlly `json:"allies"`
	Eliminated   bool         `json:"eliminated"`
	EliminatedBy string       `json:"eliminatedBy,omitempty"`
}

// PublicState is the read-only projection used for UI polling. It hides all
// faction and hidden-role data except the player's own role and truncates
// the message log unless full is requested.
type PublicState struct {
	SessionID    string            `json:"sessionId"`
	Phase        Phase             `json:"phase"`
	Round        int               `json:"round"`
	WorldTitle   string            `json:"worldTitle"`
	WorldSetting string            `json:"worldSetting"`
	FlavorText   string            `json:"flavorText"`
	Characters   []PublicActor     `json:"characters"`
	Eliminated   []string          `json:"eliminated"`
	Messages     []Message         `json:"messages"`
	VoteResults  []VoteOutcome     `json:"voteResults"`
	TensionLevel float64           `json:"tensionLevel"`
	Winner       string            `json:"winner,omitempty"`
	PlayerRole   *PublicPlayerRole `json:"playerRole,omitempty"`

	// NightActionPrompt is included only in full projections while the
	// session awaits the player's night action, for reconnection.
	NightActionPrompt *NightActionPromptPayload `json:"nightActionPrompt,omitempty"`
}

// PublicActorView converts a participant to its safe view
func PublicActorView(p *Participant) PublicActor {
	return PublicActor{
		ID:            p.ID,
		Name:          p.Name,
		Persona:       p.Persona,
		SpeakingStyle: p.SpeakingStyle,
		PublicRole:    p.PublicRole,
		Eliminated:    p.Eliminated,
	}
}

// PublicProjection builds the safe read-only view of the session
func (s *Session) PublicProjection(full bool) PublicState {
	chars := make([]PublicActor, 0, len(s.Participants))
	for _, p := range s.Participants {
		chars = append(chars, PublicActorView(p))
	}

	messages := s.Messages
	if !full && len(messages) > MessageWindow {
		messages = messages[len(messages)-MessageWindow:]
	}

	state := PublicState{
		SessionID:    s.ID,
		Phase:        s.Phase,
		Round:        s.Round,
		WorldTitle:   s.World.Title,
		WorldSetting: s.World.Setting,
		FlavorText:   s.World.FlavorText,
		Characters:   chars,
		Eliminated:   s.Eliminated,
		Messages:     messages,
		VoteResults:  s.VoteResults,
		TensionLevel: s.TensionLevel,
		Winner:       s.Winner,
	}

	if s.PlayerRole != nil {
		pr := s.PlayerRole
		allies := make([]PublicAlly, 0, len(pr.Allies))
		for _, aid := range pr.Allies {
			if a := s.Participant(aid); a != nil && a.Alive() {
				allies = append(allies, PublicAlly{ID: aid, Name: a.Name})
			}
		}
		state.PlayerRole = &PublicPlayerRole{
			HiddenRole:   pr.HiddenRole,
			Faction:      pr.Faction,
			WinCondition: pr.WinCondition,
			Allies:       allies,
			Eliminated:   pr.Eliminated,
			EliminatedBy: pr.EliminatedBy,
		}
	}

	return state
}

// RevealView builds the full-disclosure list used when the player is
// eliminated and enters ghost mode.
func (s *Session) RevealView() []CharacterReveal {
	out := make([]CharacterReveal, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, CharacterReveal{
			ID:         p.ID,
			Name:       p.Name,
			HiddenRole: p.HiddenRole,
			Faction:    p.Faction,
			PublicRole: p.PublicRole,
			Eliminated: p.Eliminated,
		})
	}
	return out
}
