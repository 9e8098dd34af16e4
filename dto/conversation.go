package dto

type StartConversationRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	Season    int    `json:"season" validate:"required,min=1"`
	Episode   int    `json:"episode" validate:"required,min=1"`
}

type AddMessageRequest struct {
	Speaker     string `json:"speaker" validate:"required,oneof=user bot system"`
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"message_type"`
}

type FinishConversationRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=completed interrupted"`
}

type CreateSummaryRequest struct {
	ConversationID      string   `json:"conversation_id" validate:"required"`
	SessionSummary      string   `json:"session_summary" validate:"required"`
	KeyLearnings        []string `json:"key_learnings"`
	WordsLearned        []string `json:"words_learned"`
	TopicsCovered       []string `json:"topics_covered"`
	PerformanceRating   int      `json:"performance_rating" validate:"min=1,max=5"`
	EngagementLevel     string   `json:"engagement_level"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	NextRecommendations []string `json:"next_recommendations"`
}

type ConversationAnalyticsResponse struct {
	ConversationID string           `json:"conversation_id"`
	UserEmail      string           `json:"user_email"`
	Season         int              `json:"season"`
	Episode        int              `json:"episode"`
	Status         string           `json:"status"`
	MessageCount   int              `json:"message_count"`
	UserMessages   int              `json:"user_messages"`
	BotMessages    int              `json:"bot_messages"`
	SystemMessages int              `json:"system_messages"`
	Duration       float64          `json:"duration_seconds"`
	HasSummary     bool             `json:"has_summary"`
	Summary        *LearningSummary `json:"learning_summary,omitempty"`
}

// LearningSummary is the learning slice of a conversation's summary,
// embedded in the analytics report when a summary exists.
type LearningSummary struct {
	SessionSummary      string   `json:"session_summary"`
	KeyLearnings        []string `json:"key_learnings"`
	WordsLearned        []string `json:"words_learned"`
	TopicsCovered       []string `json:"topics_covered"`
	PerformanceRating   int      `json:"performance_rating"`
	EngagementLevel     string   `json:"engagement_level"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	NextRecommendations []string `json:"next_recommendations"`
}

// LearningProgressionResponse summarizes a learner's trajectory across
// all their sessions. Total counts transcripts; completed counts the
// sessions that produced a summary.
type LearningProgressionResponse struct {
	UserEmail           string   `json:"user_email"`
	TotalSessions       int      `json:"total_sessions"`
	CompletedSessions   int      `json:"completed_sessions"`
	RecentConversations []string `json:"recent_conversations"`
	UniqueWordsLearned  []string `json:"unique_words_learned"`
	UniqueTopicsCovered []string `json:"unique_topics_covered"`
	AverageRating       float64  `json:"average_rating"`
	AverageSessionTime  float64  `json:"average_session_time"`
}
