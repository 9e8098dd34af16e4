package dto

type CreateEpisodeRequest struct {
	Season             int      `json:"season" validate:"required,min=1"`
	Episode            int      `json:"episode" validate:"required,min=1"`
	Title              string   `json:"title" validate:"required,max=200"`
	SystemPrompt       string   `json:"system_prompt" validate:"required"`
	WordsToTeach       []string `json:"words_to_teach"`
	TopicsToCover      []string `json:"topics_to_cover"`
	LearningObjectives []string `json:"learning_objectives"`
	DifficultyLevel    string   `json:"difficulty_level"`
	AgeGroup           string   `json:"age_group"`
}

type RecordUsageRequest struct {
	UserEmail        string   `json:"user_email" validate:"required,email"`
	WordsLearned     []string `json:"words_learned"`
	TopicsCovered    []string `json:"topics_covered"`
	SessionTime      float64  `json:"session_time" validate:"min=0"`
	CompletionRating int      `json:"completion_rating" validate:"min=1,max=5"`
}

type EpisodeAnalyticsResponse struct {
	EpisodeInfo struct {
		Season          int    `json:"season"`
		Episode         int    `json:"episode"`
		Title           string `json:"title"`
		DifficultyLevel string `json:"difficulty_level"`
		AgeGroup        string `json:"age_group"`
	} `json:"episode_info"`

	UsageStats struct {
		TotalUses          int     `json:"total_uses"`
		UniqueUsers        int     `json:"unique_users"`
		AverageSessionTime float64 `json:"average_session_time"`
		AverageRating      float64 `json:"average_rating"`
		TotalTimeSpent     float64 `json:"total_time_spent"`
		LastUsed           *string `json:"last_used"`
	} `json:"usage_stats"`

	ContentCoverage struct {
		WordsPlanned  []string `json:"words_planned"`
		WordsTaught   []string `json:"words_taught"`
		TopicsPlanned []string `json:"topics_planned"`
		TopicsTaught  []string `json:"topics_taught"`
	} `json:"content_coverage"`
}

// EpisodesOverviewResponse aggregates the whole content grid.
type EpisodesOverviewResponse struct {
	TotalEpisodes       int            `json:"total_episodes"`
	TotalUses           int            `json:"total_uses"`
	UniqueUsers         int            `json:"unique_users"`
	AverageUsesPerEp    float64        `json:"average_uses_per_episode"`
	DifficultyBreakdown map[string]int `json:"difficulty_breakdown"`
	AgeGroupBreakdown   map[string]int `json:"age_group_breakdown"`
	SeasonBreakdown     map[string]int `json:"season_breakdown"`
}
