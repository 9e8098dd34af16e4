package model

import "time"

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusTrial     UserStatus = "trial"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended, UserStatusTrial:
		return true
	}
	return false
}

type Parent struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

type Progress struct {
	Season            int `json:"season"`
	Episode           int `json:"episode"`
	EpisodesCompleted int `json:"episodes_completed"`
}

// EnhancedUser is one learner. Email is the primary key; device_id is a
// secondary lookup key owned by at most one active user.
type EnhancedUser struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Email    string `json:"email"`

	Parent   Parent   `json:"parent"`
	Progress Progress `json:"progress"`

	WordsLearnt  []string `json:"words_learnt"`
	TopicsLearnt []string `json:"topics_learnt"`

	// cumulative seconds across all sessions
	TotalTime float64 `json:"total_time"`

	CreatedAt            time.Time  `json:"created_at"`
	LastActive           time.Time  `json:"last_active"`
	LastCompletedEpisode *time.Time `json:"last_completed_episode"`

	Status UserStatus `json:"status"`
}

func NewEnhancedUser(deviceID, name string, age int, email string, parent Parent) *EnhancedUser {
	now := time.Now().UTC()
	return &EnhancedUser{
		DeviceID:     deviceID,
		Name:         name,
		Age:          age,
		Email:        email,
		Parent:       parent,
		Progress:     Progress{Season: 1, Episode: 1},
		WordsLearnt:  []string{},
		TopicsLearnt: []string{},
		CreatedAt:    now,
		LastActive:   now,
		Status:       UserStatusActive,
	}
}

// UpdateProgress moves the learner to the given grid position. Positions
// may be set backward deliberately (replaying an episode); completion is
// what drives the monotonic counters.
func (u *EnhancedUser) UpdateProgress(season, episode int, completed bool) {
	u.Progress.Season = season
	u.Progress.Episode = episode
	now := time.Now().UTC()
	if completed {
		u.Progress.EpisodesCompleted++
		u.LastCompletedEpisode = &now
	}
	u.LastActive = now
}

// AddLearningData merges a session's outcome into the user: words and
// topics are union-appended (case-sensitive exact match), session time
// accumulates into the running total.
func (u *EnhancedUser) AddLearningData(words, topics []string, sessionTime float64) {
	u.WordsLearnt = appendUnique(u.WordsLearnt, words...)
	u.TopicsLearnt = appendUnique(u.TopicsLearnt, topics...)
	u.TotalTime += sessionTime
	u.LastActive = time.Now().UTC()
}

func (u *EnhancedUser) ToDocument() (map[string]interface{}, error) {
	return toDocument(u)
}

func UserFromDocument(doc map[string]interface{}) (*EnhancedUser, error) {
	var u EnhancedUser
	if err := fromDocument(doc, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
