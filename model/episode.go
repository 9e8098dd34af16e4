package model

import (
	"fmt"
	"time"
)

// EpisodePrompt is one cell of the season/episode content grid: the system
// prompt driving the tutoring session plus the usage aggregates recorded
// across all sessions that played it.
type EpisodePrompt struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`

	Title        string `json:"title"`
	SystemPrompt string `json:"system_prompt"`

	WordsToTeach       []string `json:"words_to_teach"`
	TopicsToCover      []string `json:"topics_to_cover"`
	LearningObjectives []string `json:"learning_objectives"`

	DifficultyLevel string `json:"difficulty_level"`
	AgeGroup        string `json:"age_group"`

	TotalUses      int      `json:"total_uses"`
	UsersCompleted []string `json:"users_completed"`
	TotalTimeSpent float64  `json:"total_time_spent"`
	Ratings        []int    `json:"ratings"`

	// deduplicated union across all recorded usages
	WordsTaught  []string `json:"words_taught"`
	TopicsTaught []string `json:"topics_taught"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	LastUsed  *time.Time `json:"last_used"`
}

// EpisodeDocumentID builds the canonical document id for a grid cell.
func EpisodeDocumentID(season, episode int) string {
	return fmt.Sprintf("S%dE%d", season, episode)
}

func (p *EpisodePrompt) DocumentID() string {
	return EpisodeDocumentID(p.Season, p.Episode)
}

// RecordUsage folds one finished session into the aggregates. Every call
// contributes one rating sample; users, words and topics dedupe.
func (p *EpisodePrompt) RecordUsage(userEmail string, wordsLearned, topicsCovered []string, sessionTime float64, rating int) {
	now := time.Now().UTC()

	p.TotalUses++
	p.TotalTimeSpent += sessionTime
	p.LastUsed = &now
	p.UpdatedAt = &now

	p.UsersCompleted = appendUnique(p.UsersCompleted, userEmail)
	p.WordsTaught = appendUnique(p.WordsTaught, wordsLearned...)
	p.TopicsTaught = appendUnique(p.TopicsTaught, topicsCovered...)

	p.Ratings = append(p.Ratings, rating)
}

func (p *EpisodePrompt) AverageSessionTime() float64 {
	uses := p.TotalUses
	if uses < 1 {
		uses = 1
	}
	return p.TotalTimeSpent / float64(uses)
}

func (p *EpisodePrompt) AverageRating() float64 {
	if len(p.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Ratings {
		sum += r
	}
	return float64(sum) / float64(len(p.Ratings))
}

func (p *EpisodePrompt) ToDocument() (map[string]interface{}, error) {
	return toDocument(p)
}

func EpisodePromptFromDocument(doc map[string]interface{}) (*EpisodePrompt, error) {
	var p EpisodePrompt
	if err := fromDocument(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
