package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/shared"
)

// EpisodePromptService owns the season/episode content grid and the usage
// aggregates recorded against each cell.
type EpisodePromptService struct {
	appContext.DefaultService

	store DocumentStore
	locks *shared.KeyedMutex
}

const EPISODE_SVC = "episode_svc"

func (svc EpisodePromptService) Id() string {
	return EPISODE_SVC
}

func (svc *EpisodePromptService) Start() error {
	storeSvc := svc.Service(STORE_SVC).(*StoreService)
	svc.store = storeSvc.Store()
	svc.locks = storeSvc.Locks()
	return nil
}

func (svc *EpisodePromptService) CreateEpisodePrompt(ctx context.Context, req *dto.CreateEpisodeRequest) (*model.EpisodePrompt, error) {
	if err := dto.ValidateSeasonEpisode(req.Season, req.Episode); err != nil {
		return nil, err
	}
	prompt, err := dto.ValidatePromptContent(req.SystemPrompt)
	if err != nil {
		return nil, err
	}

	docID := model.EpisodeDocumentID(req.Season, req.Episode)
	existing, getErr := svc.store.Get(ctx, shared.EpisodePromptsCollection, docID)
	if getErr != nil {
		return nil, shared.NewStoreError("get", shared.EpisodePromptsCollection, docID, getErr)
	}
	if existing != nil {
		return nil, shared.NewAlreadyExistsError("Episode", "id", docID)
	}

	ep := &model.EpisodePrompt{
		Season:             req.Season,
		Episode:            req.Episode,
		Title:              req.Title,
		SystemPrompt:       prompt,
		WordsToTeach:       orEmpty(req.WordsToTeach),
		TopicsToCover:      orEmpty(req.TopicsToCover),
		LearningObjectives: orEmpty(req.LearningObjectives),
		DifficultyLevel:    req.DifficultyLevel,
		AgeGroup:           req.AgeGroup,
		UsersCompleted:     []string{},
		Ratings:            []int{},
		WordsTaught:        []string{},
		TopicsTaught:       []string{},
		CreatedAt:          time.Now().UTC(),
	}

	if err := svc.save(ctx, ep); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"season": req.Season, "episode": req.Episode}).Info("Episode prompt created")
	return ep, nil
}

func (svc *EpisodePromptService) GetEpisodePrompt(ctx context.Context, season, episode int) (*model.EpisodePrompt, error) {
	if err := dto.ValidateSeasonEpisode(season, episode); err != nil {
		return nil, err
	}

	docID := model.EpisodeDocumentID(season, episode)
	doc, err := svc.store.Get(ctx, shared.EpisodePromptsCollection, docID)
	if err != nil {
		return nil, shared.NewStoreError("get", shared.EpisodePromptsCollection, docID, err)
	}
	if doc == nil {
		return nil, shared.NewEpisodeNotFoundError(season, episode)
	}
	return model.EpisodePromptFromDocument(doc)
}

// UpdateEpisodePrompt applies a partial update; only the allowlisted
// content fields can change and aggregates are untouched.
func (svc *EpisodePromptService) UpdateEpisodePrompt(ctx context.Context, season, episode int, updates map[string]interface{}) (*model.EpisodePrompt, error) {
	if len(updates) == 0 {
		return nil, shared.NewValidationError("updates", nil, "no updatable fields provided")
	}

	allowed := map[string]bool{
		"title":               true,
		"system_prompt":       true,
		"words_to_teach":      true,
		"topics_to_cover":     true,
		"learning_objectives": true,
		"difficulty_level":    true,
		"age_group":           true,
	}
	filtered := map[string]interface{}{}
	for k, v := range updates {
		if !allowed[k] {
			return nil, shared.NewValidationError(k, v, fmt.Sprintf("field '%s' cannot be updated", k))
		}
		filtered[k] = v
	}

	if raw, ok := filtered["system_prompt"]; ok {
		str, ok := raw.(string)
		if !ok {
			return nil, shared.NewValidationError("system_prompt", raw, "system_prompt must be a string")
		}
		trimmed, err := dto.ValidatePromptContent(str)
		if err != nil {
			return nil, err
		}
		filtered["system_prompt"] = trimmed
	}

	docID := model.EpisodeDocumentID(season, episode)
	defer svc.locks.Lock(shared.EpisodePromptsCollection + "/" + docID)()

	ep, err := svc.GetEpisodePrompt(ctx, season, episode)
	if err != nil {
		return nil, err
	}

	doc, err := ep.ToDocument()
	if err != nil {
		return nil, shared.NewStoreError("encode", shared.EpisodePromptsCollection, docID, err)
	}
	for k, v := range filtered {
		doc[k] = v
	}
	now := time.Now().UTC()
	doc["updated_at"] = now.Format(time.RFC3339Nano)

	if err := svc.store.Set(ctx, shared.EpisodePromptsCollection, docID, doc); err != nil {
		return nil, shared.NewStoreError("set", shared.EpisodePromptsCollection, docID, err)
	}
	return model.EpisodePromptFromDocument(doc)
}

// RecordUsage folds one finished session into the episode's aggregates
// under the episode's document lock.
func (svc *EpisodePromptService) RecordUsage(ctx context.Context, season, episode int, req *dto.RecordUsageRequest) (*model.EpisodePrompt, error) {
	if err := dto.ValidateEmail(req.UserEmail); err != nil {
		return nil, err
	}
	if req.CompletionRating < 1 || req.CompletionRating > 5 {
		return nil, shared.NewValidationError("completion_rating", req.CompletionRating, "completion_rating must be between 1 and 5")
	}
	if req.SessionTime < 0 {
		return nil, shared.NewValidationError("session_time", req.SessionTime, "session_time must not be negative")
	}

	docID := model.EpisodeDocumentID(season, episode)
	defer svc.locks.Lock(shared.EpisodePromptsCollection + "/" + docID)()

	ep, err := svc.GetEpisodePrompt(ctx, season, episode)
	if err != nil {
		return nil, err
	}

	ep.RecordUsage(req.UserEmail, req.WordsLearned, req.TopicsCovered, req.SessionTime, req.CompletionRating)
	if err := svc.save(ctx, ep); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"episode":    docID,
		"user":       req.UserEmail,
		"total_uses": ep.TotalUses,
	}).Info("Episode usage recorded")
	return ep, nil
}

func (svc *EpisodePromptService) GetSeasonEpisodes(ctx context.Context, season int) ([]*model.EpisodePrompt, error) {
	if season < 1 || season > shared.MaxSeason {
		return nil, shared.NewValidationError("season", season,
			fmt.Sprintf("season must be between 1 and %d", shared.MaxSeason))
	}

	docs, err := svc.store.Query(ctx, shared.EpisodePromptsCollection, []Filter{
		{Field: "season", Op: "==", Value: season},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.EpisodePromptsCollection, "", err)
	}

	eps, err := episodesFromDocs(docs)
	if err != nil {
		return nil, err
	}
	sort.Slice(eps, func(i, j int) bool { return eps[i].Episode < eps[j].Episode })
	return eps, nil
}

func (svc *EpisodePromptService) GetAllEpisodes(ctx context.Context) ([]*model.EpisodePrompt, error) {
	docs, err := svc.store.GetAll(ctx, shared.EpisodePromptsCollection)
	if err != nil {
		return nil, shared.NewStoreError("get_all", shared.EpisodePromptsCollection, "", err)
	}

	eps, err := episodesFromDocs(docs)
	if err != nil {
		return nil, err
	}
	sortByGridPosition(eps)
	return eps, nil
}

// GetEpisodesByDifficulty lists the cells tagged with the difficulty
// level, ordered by grid position.
func (svc *EpisodePromptService) GetEpisodesByDifficulty(ctx context.Context, level string) ([]*model.EpisodePrompt, error) {
	if strings.TrimSpace(level) == "" {
		return nil, shared.NewValidationError("difficulty_level", level, "difficulty_level must not be empty")
	}

	docs, err := svc.store.Query(ctx, shared.EpisodePromptsCollection, []Filter{
		{Field: "difficulty_level", Op: "==", Value: level},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.EpisodePromptsCollection, "", err)
	}

	eps, err := episodesFromDocs(docs)
	if err != nil {
		return nil, err
	}
	sortByGridPosition(eps)
	return eps, nil
}

// GetEpisodesByAgeGroup lists the cells tagged with the age group,
// ordered by grid position.
func (svc *EpisodePromptService) GetEpisodesByAgeGroup(ctx context.Context, ageGroup string) ([]*model.EpisodePrompt, error) {
	if strings.TrimSpace(ageGroup) == "" {
		return nil, shared.NewValidationError("age_group", ageGroup, "age_group must not be empty")
	}

	docs, err := svc.store.Query(ctx, shared.EpisodePromptsCollection, []Filter{
		{Field: "age_group", Op: "==", Value: ageGroup},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.EpisodePromptsCollection, "", err)
	}

	eps, err := episodesFromDocs(docs)
	if err != nil {
		return nil, err
	}
	sortByGridPosition(eps)
	return eps, nil
}

func (svc *EpisodePromptService) GetEpisodeAnalytics(ctx context.Context, season, episode int) (*dto.EpisodeAnalyticsResponse, error) {
	ep, err := svc.GetEpisodePrompt(ctx, season, episode)
	if err != nil {
		return nil, err
	}

	resp := &dto.EpisodeAnalyticsResponse{}

	resp.EpisodeInfo.Season = ep.Season
	resp.EpisodeInfo.Episode = ep.Episode
	resp.EpisodeInfo.Title = ep.Title
	resp.EpisodeInfo.DifficultyLevel = ep.DifficultyLevel
	resp.EpisodeInfo.AgeGroup = ep.AgeGroup

	resp.UsageStats.TotalUses = ep.TotalUses
	resp.UsageStats.UniqueUsers = len(ep.UsersCompleted)
	resp.UsageStats.AverageSessionTime = ep.AverageSessionTime()
	resp.UsageStats.AverageRating = ep.AverageRating()
	resp.UsageStats.TotalTimeSpent = ep.TotalTimeSpent
	if ep.LastUsed != nil {
		ts := ep.LastUsed.Format(time.RFC3339)
		resp.UsageStats.LastUsed = &ts
	}

	resp.ContentCoverage.WordsPlanned = ep.WordsToTeach
	resp.ContentCoverage.WordsTaught = ep.WordsTaught
	resp.ContentCoverage.TopicsPlanned = ep.TopicsToCover
	resp.ContentCoverage.TopicsTaught = ep.TopicsTaught

	return resp, nil
}

// GetPopularEpisodes ranks cells by total uses, most used first.
func (svc *EpisodePromptService) GetPopularEpisodes(ctx context.Context, limit int) ([]*model.EpisodePrompt, error) {
	eps, err := svc.GetAllEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(eps, func(i, j int) bool { return eps[i].TotalUses > eps[j].TotalUses })
	if limit > 0 && limit < len(eps) {
		eps = eps[:limit]
	}
	return eps, nil
}

// SearchEpisodes matches the query case-insensitively against titles,
// planned words, planned topics and learning objectives.
func (svc *EpisodePromptService) SearchEpisodes(ctx context.Context, query string) ([]*model.EpisodePrompt, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, shared.NewValidationError("query", query, "query must not be empty")
	}

	eps, err := svc.GetAllEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	matched := []*model.EpisodePrompt{}
	for _, ep := range eps {
		if episodeMatches(ep, needle) {
			matched = append(matched, ep)
		}
	}
	return matched, nil
}

func episodeMatches(ep *model.EpisodePrompt, needle string) bool {
	if strings.Contains(strings.ToLower(ep.Title), needle) {
		return true
	}
	for _, lists := range [][]string{ep.WordsToTeach, ep.TopicsToCover, ep.LearningObjectives} {
		for _, item := range lists {
			if strings.Contains(strings.ToLower(item), needle) {
				return true
			}
		}
	}
	return false
}

// GetEpisodesOverview aggregates across the whole grid. Unique users are
// counted as the union of per-episode completion lists.
func (svc *EpisodePromptService) GetEpisodesOverview(ctx context.Context) (*dto.EpisodesOverviewResponse, error) {
	eps, err := svc.GetAllEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.EpisodesOverviewResponse{
		TotalEpisodes:       len(eps),
		DifficultyBreakdown: map[string]int{},
		AgeGroupBreakdown:   map[string]int{},
		SeasonBreakdown:     map[string]int{},
	}

	allUsers := map[string]bool{}
	for _, ep := range eps {
		resp.TotalUses += ep.TotalUses
		if ep.DifficultyLevel != "" {
			resp.DifficultyBreakdown[ep.DifficultyLevel]++
		}
		if ep.AgeGroup != "" {
			resp.AgeGroupBreakdown[ep.AgeGroup]++
		}
		resp.SeasonBreakdown[fmt.Sprintf("season_%d", ep.Season)]++
		for _, email := range ep.UsersCompleted {
			allUsers[email] = true
		}
	}
	resp.UniqueUsers = len(allUsers)
	if len(eps) > 0 {
		resp.AverageUsesPerEp = float64(resp.TotalUses) / float64(len(eps))
	}

	return resp, nil
}

func (svc *EpisodePromptService) DeleteEpisodePrompt(ctx context.Context, season, episode int) error {
	if _, err := svc.GetEpisodePrompt(ctx, season, episode); err != nil {
		return err
	}

	docID := model.EpisodeDocumentID(season, episode)
	if err := svc.store.Delete(ctx, shared.EpisodePromptsCollection, docID); err != nil {
		return shared.NewStoreError("delete", shared.EpisodePromptsCollection, docID, err)
	}

	log.WithFields(log.Fields{"episode": docID}).Info("Episode prompt deleted")
	return nil
}

func (svc *EpisodePromptService) save(ctx context.Context, ep *model.EpisodePrompt) error {
	docID := ep.DocumentID()
	doc, err := ep.ToDocument()
	if err != nil {
		return shared.NewStoreError("encode", shared.EpisodePromptsCollection, docID, err)
	}
	if err := svc.store.Set(ctx, shared.EpisodePromptsCollection, docID, doc); err != nil {
		return shared.NewStoreError("set", shared.EpisodePromptsCollection, docID, err)
	}
	return nil
}

func sortByGridPosition(eps []*model.EpisodePrompt) {
	sort.Slice(eps, func(i, j int) bool {
		if eps[i].Season != eps[j].Season {
			return eps[i].Season < eps[j].Season
		}
		return eps[i].Episode < eps[j].Episode
	})
}

func episodesFromDocs(docs map[string]map[string]interface{}) ([]*model.EpisodePrompt, error) {
	eps := make([]*model.EpisodePrompt, 0, len(docs))
	for _, doc := range docs {
		ep, err := model.EpisodePromptFromDocument(doc)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
