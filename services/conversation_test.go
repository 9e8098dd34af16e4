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

func newTestConversationService() *ConversationService {
	return &ConversationService{
		store: NewMemoryStore(),
		locks: shared.NewKeyedMutex(),
	}
}

func startTestConversation(t *testing.T, svc *ConversationService) *model.ConversationTranscript {
	t.Helper()
	transcript, err := svc.StartConversation(context.Background(), &dto.StartConversationRequest{
		UserEmail: "mia@example.com",
		Season:    1,
		Episode:   2,
	})
	require.NoError(t, err)
	return transcript
}

func TestStartConversation(t *testing.T) {
	svc := newTestConversationService()

	transcript := startTestConversation(t, svc)
	assert.Equal(t, shared.ConversationActive, transcript.Status)
	assert.Contains(t, transcript.ConversationID, "mia@example.com_1_2_")

	fetched, err := svc.GetConversationTranscript(context.Background(), transcript.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, transcript.ConversationID, fetched.ConversationID)
}

func TestStartConversationValidation(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()

	_, err := svc.StartConversation(ctx, &dto.StartConversationRequest{
		UserEmail: "bad", Season: 1, Episode: 1,
	})
	assert.Error(t, err)

	_, err = svc.StartConversation(ctx, &dto.StartConversationRequest{
		UserEmail: "mia@example.com", Season: 0, Episode: 1,
	})
	assert.Error(t, err)
}

func TestAddMessageOrder(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()
	transcript := startTestConversation(t, svc)

	for _, content := range []string{"Hello!", "Hi!", "What color is grass?"} {
		_, err := svc.AddMessage(ctx, transcript.ConversationID, &dto.AddMessageRequest{
			Speaker: shared.SpeakerBot,
			Content: content,
		})
		require.NoError(t, err)
	}

	fetched, err := svc.GetConversationTranscript(ctx, transcript.ConversationID)
	require.NoError(t, err)
	require.Len(t, fetched.Messages, 3)
	assert.Equal(t, "Hello!", fetched.Messages[0].Content)
	assert.Equal(t, "What color is grass?", fetched.Messages[2].Content)
	assert.Equal(t, "text", fetched.Messages[0].MessageType)
}

func TestAddMessageToFinishedConversation(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()
	transcript := startTestConversation(t, svc)

	_, err := svc.FinishConversation(ctx, transcript.ConversationID, shared.ConversationCompleted)
	require.NoError(t, err)

	_, err = svc.AddMessage(ctx, transcript.ConversationID, &dto.AddMessageRequest{
		Speaker: shared.SpeakerUser,
		Content: "one more thing",
	})
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.StatusCode)
}

func TestFinishConversationTwice(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()
	transcript := startTestConversation(t, svc)

	finished, err := svc.FinishConversation(ctx, transcript.ConversationID, "")
	require.NoError(t, err)
	assert.Equal(t, shared.ConversationCompleted, finished.Status)
	require.NotNil(t, finished.DurationSeconds)

	_, err = svc.FinishConversation(ctx, transcript.ConversationID, shared.ConversationInterrupted)
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.StatusCode)
}

func TestFinishConversationBadStatus(t *testing.T) {
	svc := newTestConversationService()
	transcript := startTestConversation(t, svc)

	_, err := svc.FinishConversation(context.Background(), transcript.ConversationID, "abandoned")
	assert.Error(t, err)
}

func TestCreateSummaryRequiresTranscript(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()

	_, err := svc.CreateConversationSummary(ctx, &dto.CreateSummaryRequest{
		ConversationID:    "missing",
		SessionSummary:    "nothing happened",
		PerformanceRating: 3,
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestCreateAndGetSummary(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()
	transcript := startTestConversation(t, svc)

	summary, err := svc.CreateConversationSummary(ctx, &dto.CreateSummaryRequest{
		ConversationID:    transcript.ConversationID,
		SessionSummary:    "Learned colors",
		WordsLearned:      []string{"red"},
		TopicsCovered:     []string{"colors"},
		PerformanceRating: 4,
		EngagementLevel:   "high",
	})
	require.NoError(t, err)

	// season, episode and email are copied from the transcript
	assert.Equal(t, 1, summary.Season)
	assert.Equal(t, 2, summary.Episode)
	assert.Equal(t, "mia@example.com", summary.UserEmail)

	fetched, err := svc.GetConversationSummary(ctx, transcript.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Learned colors", fetched.SessionSummary)

	_, err = svc.GetConversationSummary(ctx, "missing")
	assert.True(t, shared.IsNotFound(err))
}

func TestGetUserConversationsNewestFirst(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()

	ids := []string{}
	for i := 0; i < 3; i++ {
		transcript := model.NewConversationTranscript("mia@example.com", 1, 1)
		transcript.ConversationID = model.NewConversationID("mia@example.com", 1, 1, time.Unix(int64(1700000000+i), 0))
		transcript.StartTime = time.Unix(int64(1700000000+i), 0).UTC()
		require.NoError(t, svc.save(ctx, transcript))
		ids = append(ids, transcript.ConversationID)
	}

	transcripts, err := svc.GetUserConversations(ctx, "mia@example.com", 0)
	require.NoError(t, err)
	require.Len(t, transcripts, 3)
	assert.Equal(t, ids[2], transcripts[0].ConversationID)
	assert.Equal(t, ids[0], transcripts[2].ConversationID)

	limited, err := svc.GetUserConversations(ctx, "mia@example.com", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetConversationAnalyticsCounts(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()
	transcript := startTestConversation(t, svc)

	_, err := svc.AddMessage(ctx, transcript.ConversationID, &dto.AddMessageRequest{Speaker: shared.SpeakerBot, Content: "Hi"})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, transcript.ConversationID, &dto.AddMessageRequest{Speaker: shared.SpeakerUser, Content: "Hello"})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, transcript.ConversationID, &dto.AddMessageRequest{Speaker: shared.SpeakerUser, Content: "Red!"})
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, transcript.ConversationID, &dto.AddMessageRequest{Speaker: shared.SpeakerSystem, Content: "episode prompt loaded"})
	require.NoError(t, err)

	analytics, err := svc.GetConversationAnalytics(ctx, transcript.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, 4, analytics.MessageCount)
	assert.Equal(t, 2, analytics.UserMessages)
	assert.Equal(t, 1, analytics.BotMessages)
	assert.Equal(t, 1, analytics.SystemMessages)
	assert.False(t, analytics.HasSummary)
	assert.Nil(t, analytics.Summary)

	_, err = svc.CreateConversationSummary(ctx, &dto.CreateSummaryRequest{
		ConversationID:    transcript.ConversationID,
		SessionSummary:    "Learned two colors",
		WordsLearned:      []string{"red"},
		TopicsCovered:     []string{"colors"},
		PerformanceRating: 3,
		EngagementLevel:   "high",
	})
	require.NoError(t, err)

	analytics, err = svc.GetConversationAnalytics(ctx, transcript.ConversationID)
	require.NoError(t, err)
	assert.True(t, analytics.HasSummary)
	require.NotNil(t, analytics.Summary)
	assert.Equal(t, "Learned two colors", analytics.Summary.SessionSummary)
	assert.Equal(t, []string{"red"}, analytics.Summary.WordsLearned)
	assert.Equal(t, []string{"colors"}, analytics.Summary.TopicsCovered)
	assert.Equal(t, 3, analytics.Summary.PerformanceRating)
	assert.Equal(t, "high", analytics.Summary.EngagementLevel)
}

func TestGetUserLearningProgression(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		transcript := startTestConversation(t, svc)
		_, err := svc.FinishConversation(ctx, transcript.ConversationID, shared.ConversationCompleted)
		require.NoError(t, err)

		_, err = svc.CreateConversationSummary(ctx, &dto.CreateSummaryRequest{
			ConversationID:    transcript.ConversationID,
			SessionSummary:    "session",
			WordsLearned:      []string{"red", "blue"},
			TopicsCovered:     []string{"colors"},
			PerformanceRating: 4,
		})
		require.NoError(t, err)

		// distinct creation timestamps keep recency ordering deterministic
		time.Sleep(2 * time.Millisecond)
	}

	// an interrupted session without a summary still counts as a session
	// and contributes its duration
	extra := startTestConversation(t, svc)
	_, err := svc.FinishConversation(ctx, extra.ConversationID, shared.ConversationInterrupted)
	require.NoError(t, err)

	progression, err := svc.GetUserLearningProgression(ctx, "mia@example.com")
	require.NoError(t, err)
	assert.Equal(t, 7, progression.TotalSessions)
	assert.Equal(t, 6, progression.CompletedSessions)
	require.Len(t, progression.RecentConversations, 5)
	assert.Equal(t, extra.ConversationID, progression.RecentConversations[0])
	assert.ElementsMatch(t, []string{"red", "blue"}, progression.UniqueWordsLearned)
	assert.Equal(t, []string{"colors"}, progression.UniqueTopicsCovered)
	assert.InDelta(t, 4.0, progression.AverageRating, 0.001)
	assert.GreaterOrEqual(t, progression.AverageSessionTime, 0.0)
}

func TestSearchConversations(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()

	first := startTestConversation(t, svc)
	_, err := svc.AddMessage(ctx, first.ConversationID, &dto.AddMessageRequest{
		Speaker: shared.SpeakerBot, Content: "Let's talk about dinosaurs",
	})
	require.NoError(t, err)

	second := startTestConversation(t, svc)
	_, err = svc.AddMessage(ctx, second.ConversationID, &dto.AddMessageRequest{
		Speaker: shared.SpeakerBot, Content: "Colors are fun",
	})
	require.NoError(t, err)

	matched, err := svc.SearchConversations(ctx, "mia@example.com", "DINOSAURS")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, first.ConversationID, matched[0].ConversationID)

	_, err = svc.SearchConversations(ctx, "mia@example.com", "")
	assert.Error(t, err)
}

func TestDeleteConversationRemovesBoth(t *testing.T) {
	svc := newTestConversationService()
	ctx := context.Background()
	transcript := startTestConversation(t, svc)

	_, err := svc.CreateConversationSummary(ctx, &dto.CreateSummaryRequest{
		ConversationID:    transcript.ConversationID,
		SessionSummary:    "ok",
		PerformanceRating: 3,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(ctx, transcript.ConversationID))

	_, err = svc.GetConversationTranscript(ctx, transcript.ConversationID)
	assert.True(t, shared.IsNotFound(err))
	_, err = svc.GetConversationSummary(ctx, transcript.ConversationID)
	assert.True(t, shared.IsNotFound(err))

	err = svc.DeleteConversation(ctx, transcript.ConversationID)
	assert.True(t, shared.IsNotFound(err))
}
