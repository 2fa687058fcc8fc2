package domain

import "time"

// EventType identifies an entry in a session's event stream
type EventType string

const (
	EventResponders          EventType = "responders"
	EventThinking            EventType = "thinking"
	EventStreamStart         EventType = "stream_start"
	EventStreamDelta         EventType = "stream_delta"
	EventStreamEnd           EventType = "stream_end"
	EventNarration           EventType = "narration"
	EventVotingStarted       EventType = "voting_started"
	EventVote                EventType = "vote"
	EventTally               EventType = "tally"
	EventElimination         EventType = "elimination"
	EventPlayerEliminated    EventType = "player_eliminated"
	EventNightStarted        EventType = "night_started"
	EventNightActionPrompt   EventType = "night_action_prompt"
	EventNightAction         EventType = "night_action"
	EventNightResults        EventType = "night_results"
	EventInvestigationResult EventType = "investigation_result"
	EventComplication        EventType = "complication"
	EventDiscussionWarning   EventType = "discussion_warning"
	EventDiscussionEnding    EventType = "discussion_ending"
	EventGameOver            EventType = "game_over"
	EventError               EventType = "error"
	EventDone                EventType = "done"
)

// Event is one typed entry in the ordered per-session event stream. Every
// stream for an operation terminates in exactly one done, or an error
// followed by nothing.
type Event struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"sessionId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a stream event
func NewEvent(eventType EventType, sessionID string, payload interface{}) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Payload types for stream events

// RespondersPayload lists the characters chosen to answer a player message
type RespondersPayload struct {
	CharacterIDs []string `json:"characterIds"`
}

// ThinkingPayload announces a character composing a response
type ThinkingPayload struct {
	CharacterID   string `json:"characterId"`
	CharacterName string `json:"characterName"`
}

// StreamDeltaPayload carries one chunk of a streamed response
type StreamDeltaPayload struct {
	CharacterID string `json:"characterId"`
	Delta       string `json:"delta"`
}

// StreamEndPayload carries the complete response text
type StreamEndPayload struct {
	CharacterID   string `json:"characterId"`
	CharacterName string `json:"characterName"`
	Content       string `json:"content"`
	Emotion       string `json:"emotion,omitempty"`
}

// NarrationPayload carries narrator text plus the phase it belongs to
type NarrationPayload struct {
	Content string `json:"content"`
	Phase   Phase  `json:"phase,omitempty"`
	Round   int    `json:"round,omitempty"`
}

// VotePayload announces one cast vote
type VotePayload struct {
	VoterName  string `json:"voterName"`
	TargetName string `json:"targetName"`
}

// TallyPayload carries the vote tally
type TallyPayload struct {
	Tally map[string]int `json:"tally"`
	IsTie bool           `json:"isTie"`
}

// EliminationPayload reveals an eliminated participant
type EliminationPayload struct {
	CharacterID   string `json:"characterId"`
	CharacterName string `json:"characterName"`
	HiddenRole    string `json:"hiddenRole"`
	Faction       string `json:"faction"`
	Narration     string `json:"narration,omitempty"`
}

// PlayerEliminatedPayload carries the full reveal for ghost mode
type PlayerEliminatedPayload struct {
	HiddenRole    string            `json:"hiddenRole"`
	Faction       string            `json:"faction"`
	EliminatedBy  string            `json:"eliminatedBy"`
	AllCharacters []CharacterReveal `json:"allCharacters"`
}

// CharacterReveal is a participant with hidden info disclosed
type CharacterReveal struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HiddenRole string `json:"hiddenRole"`
	Faction    string `json:"faction"`
	PublicRole string `json:"publicRole"`
	Eliminated bool   `json:"eliminated"`
}

// NightActionPromptPayload asks the player for their night action
type NightActionPromptPayload struct {
	ActionType      ActionKind    `json:"actionType"`
	EligibleTargets []PublicActor `json:"eligibleTargets"`
}

// NightActionPayload announces one resolved night action
type NightActionPayload struct {
	CharacterID   string     `json:"characterId"`
	CharacterName string     `json:"characterName"`
	ActionType    ActionKind `json:"actionType"`
	Result        string     `json:"result,omitempty"`
}

// NightResultsPayload summarizes the night's outcome
type NightResultsPayload struct {
	Narration     string   `json:"narration"`
	EliminatedIDs []string `json:"eliminatedIds"`
}

// ComplicationPayload announces an injected complication
type ComplicationPayload struct {
	Content string  `json:"content"`
	Tension float64 `json:"tension"`
}

// GameOverPayload announces the winner
type GameOverPayload struct {
	Winner    string `json:"winner"`
	Narration string `json:"narration,omitempty"`
}

// NoticePayload carries discussion pacing notices
type NoticePayload struct {
	Content string `json:"content"`
}

// ErrorPayload is sent when an operation fails mid-stream
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DonePayload closes an operation's stream
type DonePayload struct {
	Phase   Phase   `json:"phase"`
	Round   int     `json:"round"`
	Tension float64 `json:"tension"`
}
