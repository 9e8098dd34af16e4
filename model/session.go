package model

import "time"

// ActiveSession is one live tutoring session: the device, the learner,
// the episode being played and the transcript collecting its turns.
type ActiveSession struct {
	DeviceID       string    `json:"device_id"`
	UserEmail      string    `json:"user_email"`
	ConversationID string    `json:"conversation_id"`
	Season         int       `json:"season"`
	Episode        int       `json:"episode"`
	SystemPrompt   string    `json:"system_prompt"`
	StartedAt      time.Time `json:"started_at"`
	LastTurnAt     time.Time `json:"last_turn_at"`
}
