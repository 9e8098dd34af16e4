package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/shared"
)

type journeyServices struct {
	users         *UserService
	episodes      *EpisodePromptService
	conversations *ConversationService
	sessions      *SessionService
}

func newJourneyServices() *journeyServices {
	store := NewMemoryStore()
	locks := shared.NewKeyedMutex()

	users := &UserService{store: store, locks: locks}
	episodes := &EpisodePromptService{store: store, locks: locks}
	conversations := &ConversationService{store: store, locks: locks}
	sessions := &SessionService{
		users:         users,
		episodes:      episodes,
		conversations: conversations,
		monitoring:    &MonitoringService{},
		sessions:      map[string]*model.ActiveSession{},
		idleTimeout:   5 * time.Minute,
		closed:        make(chan struct{}),
	}

	return &journeyServices{
		users:         users,
		episodes:      episodes,
		conversations: conversations,
		sessions:      sessions,
	}
}

// TestLearnerJourney walks one learner through a full episode: sign up,
// run a tutoring session turn by turn, finish it, and check that progress,
// episode aggregates and conversation history all line up afterwards.
func TestLearnerJourney(t *testing.T) {
	js := newJourneyServices()
	ctx := context.Background()

	_, err := js.users.CreateUser(ctx, &dto.CreateUserRequest{
		DeviceID: "ABCD1234",
		Name:     "Mia",
		Age:      5,
		Email:    "mia@example.com",
		Parent:   dto.ParentInfo{Name: "Ana", Age: 34, Email: "ana@example.com"},
	})
	require.NoError(t, err)

	_, err = js.episodes.CreateEpisodePrompt(ctx, &dto.CreateEpisodeRequest{
		Season:             1,
		Episode:            1,
		Title:              "Hello Friend!",
		SystemPrompt:       "You are a playful tutor greeting a young child for the first time.",
		WordsToTeach:       []string{"hello", "friend"},
		TopicsToCover:      []string{"greetings"},
		LearningObjectives: []string{"Greet someone by name"},
		DifficultyLevel:    "beginner",
		AgeGroup:           "4-6",
	})
	require.NoError(t, err)

	// season and episode default to the learner's current position
	session, err := js.sessions.StartSession(ctx, "ABCD1234", &dto.StartSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, session.Season)
	assert.Equal(t, 1, session.Episode)
	assert.NotEmpty(t, session.SystemPrompt)

	// a second session on the same device is refused
	_, err = js.sessions.StartSession(ctx, "ABCD1234", &dto.StartSessionRequest{})
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.StatusCode)

	turns := []dto.TurnRequest{
		{Speaker: shared.SpeakerBot, Content: "Hello! What is your name?"},
		{Speaker: shared.SpeakerUser, Content: "I am Mia!"},
		{Speaker: shared.SpeakerBot, Content: "Nice to meet you, friend!"},
	}
	for i := range turns {
		_, err = js.sessions.AppendTurn(ctx, "ABCD1234", &turns[i])
		require.NoError(t, err)
	}

	transcript, err := js.sessions.EndSession(ctx, "ABCD1234", &dto.EndSessionRequest{
		WordsLearned:     []string{"hello", "friend"},
		TopicsCovered:    []string{"greetings"},
		CompletionRating: 5,
		EpisodeCompleted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, shared.ConversationCompleted, transcript.Status)
	require.Len(t, transcript.Messages, 3)

	// the session is gone once ended
	_, err = js.sessions.GetSession("ABCD1234")
	assert.Error(t, err)
	assert.Empty(t, js.sessions.ActiveSessions())

	// learner advanced to the next episode and kept the learning data
	user, err := js.users.GetUserByEmail(ctx, "mia@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, user.Progress.Season)
	assert.Equal(t, 2, user.Progress.Episode)
	assert.Equal(t, 1, user.Progress.EpisodesCompleted)
	assert.ElementsMatch(t, []string{"hello", "friend"}, user.WordsLearnt)
	assert.Equal(t, []string{"greetings"}, user.TopicsLearnt)
	require.NotNil(t, user.LastCompletedEpisode)

	// episode aggregates saw the run
	ep, err := js.episodes.GetEpisodePrompt(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ep.TotalUses)
	assert.Equal(t, []string{"mia@example.com"}, ep.UsersCompleted)
	assert.Equal(t, []int{5}, ep.Ratings)

	// the transcript shows up in the learner's history
	history, err := js.conversations.GetUserConversations(ctx, "mia@example.com", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, transcript.ConversationID, history[0].ConversationID)
}

func TestSessionFallsBackToSeasonOpener(t *testing.T) {
	js := newJourneyServices()
	ctx := context.Background()

	_, err := js.users.CreateUser(ctx, &dto.CreateUserRequest{
		DeviceID: "ABCD1234",
		Name:     "Mia",
		Age:      5,
		Email:    "mia@example.com",
		Parent:   dto.ParentInfo{Name: "Ana", Age: 34, Email: "ana@example.com"},
	})
	require.NoError(t, err)

	_, err = js.episodes.CreateEpisodePrompt(ctx, &dto.CreateEpisodeRequest{
		Season:          1,
		Episode:         1,
		Title:           "Hello Friend!",
		SystemPrompt:    "You are a playful tutor greeting a young child for the first time.",
		DifficultyLevel: "beginner",
		AgeGroup:        "4-6",
	})
	require.NoError(t, err)

	// no prompt exists for S1E3, so the session opens on S1E1
	session, err := js.sessions.StartSession(ctx, "ABCD1234", &dto.StartSessionRequest{Season: 1, Episode: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, session.Season)
	assert.Equal(t, 1, session.Episode)
}

func TestSessionRequiresKnownDevice(t *testing.T) {
	js := newJourneyServices()

	_, err := js.sessions.StartSession(context.Background(), "WXYZ9999", &dto.StartSessionRequest{})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestEndSessionWithoutSession(t *testing.T) {
	js := newJourneyServices()

	_, err := js.sessions.EndSession(context.Background(), "ABCD1234", &dto.EndSessionRequest{})
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.StatusCode)
}

func TestIdleSessionsAreInterrupted(t *testing.T) {
	js := newJourneyServices()
	ctx := context.Background()

	_, err := js.users.CreateUser(ctx, &dto.CreateUserRequest{
		DeviceID: "ABCD1234",
		Name:     "Mia",
		Age:      5,
		Email:    "mia@example.com",
		Parent:   dto.ParentInfo{Name: "Ana", Age: 34, Email: "ana@example.com"},
	})
	require.NoError(t, err)

	_, err = js.episodes.CreateEpisodePrompt(ctx, &dto.CreateEpisodeRequest{
		Season:          1,
		Episode:         1,
		Title:           "Hello Friend!",
		SystemPrompt:    "You are a playful tutor greeting a young child for the first time.",
		DifficultyLevel: "beginner",
		AgeGroup:        "4-6",
	})
	require.NoError(t, err)

	session, err := js.sessions.StartSession(ctx, "ABCD1234", &dto.StartSessionRequest{})
	require.NoError(t, err)

	js.sessions.mu.Lock()
	session.LastTurnAt = time.Now().UTC().Add(-10 * time.Minute)
	js.sessions.mu.Unlock()

	js.sessions.reapIdle()

	assert.Empty(t, js.sessions.ActiveSessions())

	transcript, err := js.conversations.GetConversationTranscript(ctx, session.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, shared.ConversationInterrupted, transcript.Status)
}

func TestNextPosition(t *testing.T) {
	season, episode := nextPosition(1, 3)
	assert.Equal(t, 1, season)
	assert.Equal(t, 4, episode)

	season, episode = nextPosition(1, shared.MaxEpisode)
	assert.Equal(t, 2, season)
	assert.Equal(t, 1, episode)

	// the grid's last cell stays put
	season, episode = nextPosition(shared.MaxSeason, shared.MaxEpisode)
	assert.Equal(t, shared.MaxSeason, season)
	assert.Equal(t, shared.MaxEpisode, episode)
}
