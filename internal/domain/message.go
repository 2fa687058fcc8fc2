package domain

import "time"

// Message is one entry in the session's ordered message log
type Message struct {
	SpeakerID   string    `json:"speakerId"`
	SpeakerName string    `json:"speakerName"`
	Content     string    `json:"content"`
	Phase       Phase     `json:"phase"`
	Round       int       `json:"round"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the session's current phase and round
func NewMessage(speakerID, speakerName, content string, phase Phase, round int) Message {
	return Message{
		SpeakerID:   speakerID,
		SpeakerName: speakerName,
		Content:     content,
		Phase:       phase,
		Round:       round,
		Timestamp:   time.Now().UTC(),
	}
}
