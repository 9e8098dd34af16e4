package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/shared"
)

func newTestEpisodeService() *EpisodePromptService {
	return &EpisodePromptService{
		store: NewMemoryStore(),
		locks: shared.NewKeyedMutex(),
	}
}

func validCreateEpisodeRequest(season, episode int) *dto.CreateEpisodeRequest {
	return &dto.CreateEpisodeRequest{
		Season:             season,
		Episode:            episode,
		Title:              "Colors All Around",
		SystemPrompt:       "You are a playful tutor teaching colors to young children.",
		WordsToTeach:       []string{"red", "blue"},
		TopicsToCover:      []string{"colors"},
		LearningObjectives: []string{"Name four basic colors"},
		DifficultyLevel:    "beginner",
		AgeGroup:           "4-6",
	}
}

func TestCreateEpisodePrompt(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	ep, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.NoError(t, err)
	assert.Equal(t, "S1E2", ep.DocumentID())
	assert.Equal(t, 0, ep.TotalUses)

	fetched, err := svc.GetEpisodePrompt(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, ep.Title, fetched.Title)
}

func TestCreateEpisodeRejectsDuplicate(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.NoError(t, err)

	_, err = svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.StatusCode)
}

func TestCreateEpisodeValidation(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	req := validCreateEpisodeRequest(0, 1)
	_, err := svc.CreateEpisodePrompt(ctx, req)
	assert.Error(t, err)

	req = validCreateEpisodeRequest(1, 8)
	_, err = svc.CreateEpisodePrompt(ctx, req)
	assert.Error(t, err)

	req = validCreateEpisodeRequest(1, 1)
	req.SystemPrompt = "short"
	_, err = svc.CreateEpisodePrompt(ctx, req)
	assert.Error(t, err)
}

func TestCreateEpisodeTrimsPrompt(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	req := validCreateEpisodeRequest(1, 1)
	req.SystemPrompt = "   You are a friendly tutor.   "
	ep, err := svc.CreateEpisodePrompt(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "You are a friendly tutor.", ep.SystemPrompt)
}

func TestGetEpisodeNotFound(t *testing.T) {
	svc := newTestEpisodeService()

	_, err := svc.GetEpisodePrompt(context.Background(), 2, 3)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestUpdateEpisodePrompt(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.NoError(t, err)

	ep, err := svc.UpdateEpisodePrompt(ctx, 1, 2, map[string]interface{}{
		"title": "New Title",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Title", ep.Title)
	assert.NotNil(t, ep.UpdatedAt)

	// aggregates are not updatable
	_, err = svc.UpdateEpisodePrompt(ctx, 1, 2, map[string]interface{}{"total_uses": 99})
	assert.Error(t, err)

	_, err = svc.UpdateEpisodePrompt(ctx, 1, 2, map[string]interface{}{})
	assert.Error(t, err)

	_, err = svc.UpdateEpisodePrompt(ctx, 1, 2, map[string]interface{}{"system_prompt": "short"})
	assert.Error(t, err)
}

func TestRecordUsageService(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.NoError(t, err)

	ep, err := svc.RecordUsage(ctx, 1, 2, &dto.RecordUsageRequest{
		UserEmail:        "mia@example.com",
		WordsLearned:     []string{"red"},
		TopicsCovered:    []string{"colors"},
		SessionTime:      300,
		CompletionRating: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ep.TotalUses)
	assert.Equal(t, []string{"mia@example.com"}, ep.UsersCompleted)

	_, err = svc.RecordUsage(ctx, 1, 2, &dto.RecordUsageRequest{
		UserEmail:        "mia@example.com",
		SessionTime:      100,
		CompletionRating: 6,
	})
	assert.Error(t, err)
}

func TestRecordUsageConcurrent(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.RecordUsage(ctx, 1, 2, &dto.RecordUsageRequest{
				UserEmail:        "mia@example.com",
				SessionTime:      10,
				CompletionRating: 4,
			})
		}()
	}
	wg.Wait()

	ep, err := svc.GetEpisodePrompt(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, ep.TotalUses)
	assert.Equal(t, 200.0, ep.TotalTimeSpent)
	assert.Len(t, ep.Ratings, 20)
	assert.Len(t, ep.UsersCompleted, 1)
}

func TestGetSeasonEpisodesSorted(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	for _, e := range []int{3, 1, 2} {
		_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, e))
		require.NoError(t, err)
	}
	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(2, 1))
	require.NoError(t, err)

	eps, err := svc.GetSeasonEpisodes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, eps, 3)
	assert.Equal(t, 1, eps[0].Episode)
	assert.Equal(t, 3, eps[2].Episode)
}

func TestGetEpisodesByDifficulty(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(2, 1))
	require.NoError(t, err)
	_, err = svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.NoError(t, err)

	advanced := validCreateEpisodeRequest(1, 1)
	advanced.DifficultyLevel = "intermediate"
	_, err = svc.CreateEpisodePrompt(ctx, advanced)
	require.NoError(t, err)

	eps, err := svc.GetEpisodesByDifficulty(ctx, "beginner")
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, "S1E2", eps[0].DocumentID())
	assert.Equal(t, "S2E1", eps[1].DocumentID())

	eps, err = svc.GetEpisodesByDifficulty(ctx, "advanced")
	require.NoError(t, err)
	assert.Empty(t, eps)

	_, err = svc.GetEpisodesByDifficulty(ctx, "  ")
	assert.Error(t, err)
}

func TestGetEpisodesByAgeGroup(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.NoError(t, err)

	older := validCreateEpisodeRequest(1, 1)
	older.AgeGroup = "7-9"
	_, err = svc.CreateEpisodePrompt(ctx, older)
	require.NoError(t, err)

	eps, err := svc.GetEpisodesByAgeGroup(ctx, "4-6")
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, "S1E2", eps[0].DocumentID())

	_, err = svc.GetEpisodesByAgeGroup(ctx, "")
	assert.Error(t, err)
}

func TestGetPopularEpisodes(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	for e := 1; e <= 3; e++ {
		_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, e))
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := svc.RecordUsage(ctx, 1, 2, &dto.RecordUsageRequest{
			UserEmail: "mia@example.com", SessionTime: 10, CompletionRating: 4,
		})
		require.NoError(t, err)
	}
	_, err := svc.RecordUsage(ctx, 1, 3, &dto.RecordUsageRequest{
		UserEmail: "mia@example.com", SessionTime: 10, CompletionRating: 4,
	})
	require.NoError(t, err)

	eps, err := svc.GetPopularEpisodes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, 2, eps[0].Episode)
	assert.Equal(t, 3, eps[1].Episode)
}

func TestSearchEpisodes(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 1))
	require.NoError(t, err)

	second := validCreateEpisodeRequest(1, 2)
	second.Title = "Counting Fun"
	second.WordsToTeach = []string{"one", "two"}
	second.TopicsToCover = []string{"numbers"}
	_, err = svc.CreateEpisodePrompt(ctx, second)
	require.NoError(t, err)

	eps, err := svc.SearchEpisodes(ctx, "COLORS")
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, 1, eps[0].Episode)

	eps, err = svc.SearchEpisodes(ctx, "numbers")
	require.NoError(t, err)
	assert.Len(t, eps, 1)

	eps, err = svc.SearchEpisodes(ctx, "dinosaurs")
	require.NoError(t, err)
	assert.Empty(t, eps)

	_, err = svc.SearchEpisodes(ctx, "   ")
	assert.Error(t, err)
}

func TestGetEpisodesOverview(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 1))
	require.NoError(t, err)
	_, err = svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 2))
	require.NoError(t, err)

	advanced := validCreateEpisodeRequest(2, 1)
	advanced.DifficultyLevel = "intermediate"
	_, err = svc.CreateEpisodePrompt(ctx, advanced)
	require.NoError(t, err)

	_, err = svc.RecordUsage(ctx, 1, 1, &dto.RecordUsageRequest{
		UserEmail: "mia@example.com", SessionTime: 10, CompletionRating: 5,
	})
	require.NoError(t, err)
	_, err = svc.RecordUsage(ctx, 1, 2, &dto.RecordUsageRequest{
		UserEmail: "mia@example.com", SessionTime: 10, CompletionRating: 5,
	})
	require.NoError(t, err)
	_, err = svc.RecordUsage(ctx, 2, 1, &dto.RecordUsageRequest{
		UserEmail: "leo@example.com", SessionTime: 10, CompletionRating: 4,
	})
	require.NoError(t, err)

	overview, err := svc.GetEpisodesOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, overview.TotalEpisodes)
	assert.Equal(t, 3, overview.TotalUses)
	assert.Equal(t, 2, overview.UniqueUsers)
	assert.InDelta(t, 1.0, overview.AverageUsesPerEp, 0.001)
	assert.Equal(t, 2, overview.DifficultyBreakdown["beginner"])
	assert.Equal(t, 1, overview.DifficultyBreakdown["intermediate"])
	assert.Equal(t, 2, overview.SeasonBreakdown["season_1"])
}

func TestDeleteEpisodePrompt(t *testing.T) {
	svc := newTestEpisodeService()
	ctx := context.Background()

	_, err := svc.CreateEpisodePrompt(ctx, validCreateEpisodeRequest(1, 1))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEpisodePrompt(ctx, 1, 1))

	_, err = svc.GetEpisodePrompt(ctx, 1, 1)
	assert.True(t, shared.IsNotFound(err))

	err = svc.DeleteEpisodePrompt(ctx, 1, 1)
	assert.True(t, shared.IsNotFound(err))
}
