package dto

type ParentInfo struct {
	Name  string `json:"name" validate:"required"`
	Age   int    `json:"age" validate:"required,min=1,max=120"`
	Email string `json:"email" validate:"required,email"`
}

type CreateUserRequest struct {
	DeviceID string     `json:"device_id" validate:"required,device_id"`
	Name     string     `json:"name" validate:"required,max=100"`
	Age      int        `json:"age" validate:"required,min=1,max=120"`
	Email    string     `json:"email" validate:"required,email"`
	Parent   ParentInfo `json:"parent" validate:"required"`
}

type UpdateProgressRequest struct {
	Season           int  `json:"season" validate:"required,min=1"`
	Episode          int  `json:"episode" validate:"required,min=1"`
	EpisodeCompleted bool `json:"episode_completed"`
}

type AddLearningDataRequest struct {
	WordsLearnt  []string `json:"words_learnt"`
	TopicsLearnt []string `json:"topics_learnt"`
	SessionTime  float64  `json:"session_time" validate:"min=0"`
}

// UserAnalyticsResponse is the per-learner report card.
type UserAnalyticsResponse struct {
	UserInfo struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Age      int    `json:"age"`
		DeviceID string `json:"device_id"`
		Status   string `json:"status"`
	} `json:"user_info"`

	Progress struct {
		CurrentSeason        int     `json:"current_season"`
		CurrentEpisode       int     `json:"current_episode"`
		EpisodesCompleted    int     `json:"episodes_completed"`
		LastCompletedEpisode *string `json:"last_completed_episode"`
	} `json:"progress"`

	LearningStats struct {
		TotalWordsLearnt  int      `json:"total_words_learnt"`
		TotalTopicsLearnt int      `json:"total_topics_learnt"`
		WordsLearnt       []string `json:"words_learnt"`
		TopicsLearnt      []string `json:"topics_learnt"`
	} `json:"learning_stats"`

	TimeAnalytics struct {
		TotalTimeSeconds float64 `json:"total_time_seconds"`
		TotalTimeMinutes float64 `json:"total_time_minutes"`
		TotalTimeHours   float64 `json:"total_time_hours"`
		// total time spread across completed episodes
		AverageSessionTime float64 `json:"average_session_time"`
		MemberSince        string  `json:"member_since"`
		LastActive         string  `json:"last_active"`
	} `json:"time_analytics"`

	ParentInfo ParentInfo `json:"parent_info"`
}
