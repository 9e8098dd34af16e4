package model

import (
	"fmt"
	"time"
)

type ConversationMessage struct {
	Speaker     string    `json:"speaker"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	Timestamp   time.Time `json:"timestamp"`
}

// ConversationTranscript is the ordered message log of one tutoring
// session. Message order is conversation order and must survive storage.
type ConversationTranscript struct {
	ConversationID string `json:"conversation_id"`
	UserEmail      string `json:"user_email"`
	Season         int    `json:"season"`
	Episode        int    `json:"episode"`

	Messages []ConversationMessage `json:"messages"`

	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds *float64   `json:"duration_seconds"`
	Status          string     `json:"status"`
}

// NewConversationID builds the transcript document id.
func NewConversationID(userEmail string, season, episode int, at time.Time) string {
	return fmt.Sprintf("%s_%d_%d_%d", userEmail, season, episode, at.Unix())
}

func NewConversationTranscript(userEmail string, season, episode int) *ConversationTranscript {
	now := time.Now().UTC()
	return &ConversationTranscript{
		ConversationID: NewConversationID(userEmail, season, episode, now),
		UserEmail:      userEmail,
		Season:         season,
		Episode:        episode,
		Messages:       []ConversationMessage{},
		StartTime:      now,
		Status:         "active",
	}
}

func (t *ConversationTranscript) AddMessage(speaker, content, messageType string) {
	t.Messages = append(t.Messages, ConversationMessage{
		Speaker:     speaker,
		Content:     content,
		MessageType: messageType,
		Timestamp:   time.Now().UTC(),
	})
}

func (t *ConversationTranscript) Finished() bool {
	return t.Status != "active"
}

// Finish stamps the end of the session and computes its duration. The
// service layer guards against finishing twice.
func (t *ConversationTranscript) Finish(completionStatus string) {
	now := time.Now().UTC()
	t.EndTime = &now
	duration := now.Sub(t.StartTime).Seconds()
	t.DurationSeconds = &duration
	t.Status = completionStatus
}

func (t *ConversationTranscript) ToDocument() (map[string]interface{}, error) {
	return toDocument(t)
}

func TranscriptFromDocument(doc map[string]interface{}) (*ConversationTranscript, error) {
	var t ConversationTranscript
	if err := fromDocument(doc, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ConversationSummary is the post-hoc learning report for a finished
// transcript, produced by an external summarization step and stored under
// the transcript's id.
type ConversationSummary struct {
	ConversationID string `json:"conversation_id"`
	UserEmail      string `json:"user_email"`
	Season         int    `json:"season"`
	Episode        int    `json:"episode"`

	SessionSummary      string   `json:"session_summary"`
	KeyLearnings        []string `json:"key_learnings"`
	WordsLearned        []string `json:"words_learned"`
	TopicsCovered       []string `json:"topics_covered"`
	PerformanceRating   int      `json:"performance_rating"`
	EngagementLevel     string   `json:"engagement_level"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	NextRecommendations []string `json:"next_recommendations"`

	CreatedAt time.Time `json:"created_at"`
}

func (s *ConversationSummary) ToDocument() (map[string]interface{}, error) {
	return toDocument(s)
}

func SummaryFromDocument(doc map[string]interface{}) (*ConversationSummary, error) {
	var s ConversationSummary
	if err := fromDocument(doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
