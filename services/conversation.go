package services

import (
	"context"
	"sort"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/shared"
)

// ConversationService owns transcripts and their summaries. Transcripts
// and summaries share the conversation id as document key.
type ConversationService struct {
	appContext.DefaultService

	store   DocumentStore
	locks   *shared.KeyedMutex
	archive *ArchiveService
}

const CONVERSATION_SVC = "conversation_svc"

func (svc ConversationService) Id() string {
	return CONVERSATION_SVC
}

func (svc *ConversationService) Start() error {
	storeSvc := svc.Service(STORE_SVC).(*StoreService)
	svc.store = storeSvc.Store()
	svc.locks = storeSvc.Locks()
	svc.archive = svc.Service(ARCHIVE_SVC).(*ArchiveService)
	return nil
}

func (svc *ConversationService) StartConversation(ctx context.Context, req *dto.StartConversationRequest) (*model.ConversationTranscript, error) {
	if err := dto.ValidateEmail(req.UserEmail); err != nil {
		return nil, err
	}
	if err := dto.ValidateSeasonEpisode(req.Season, req.Episode); err != nil {
		return nil, err
	}

	transcript := model.NewConversationTranscript(req.UserEmail, req.Season, req.Episode)

	// the id carries a second-resolution timestamp; a same-second start for
	// the same learner and episode takes the next free second
	for {
		existing, err := svc.store.Get(ctx, shared.TranscriptsCollection, transcript.ConversationID)
		if err != nil {
			return nil, shared.NewStoreError("get", shared.TranscriptsCollection, transcript.ConversationID, err)
		}
		if existing == nil {
			break
		}
		transcript.StartTime = transcript.StartTime.Add(time.Second)
		transcript.ConversationID = model.NewConversationID(req.UserEmail, req.Season, req.Episode, transcript.StartTime)
	}

	if err := svc.save(ctx, transcript); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"conversation_id": transcript.ConversationID,
		"user":            req.UserEmail,
	}).Info("Conversation started")
	return transcript, nil
}

func (svc *ConversationService) GetConversationTranscript(ctx context.Context, conversationID string) (*model.ConversationTranscript, error) {
	doc, err := svc.store.Get(ctx, shared.TranscriptsCollection, conversationID)
	if err != nil {
		return nil, shared.NewStoreError("get", shared.TranscriptsCollection, conversationID, err)
	}
	if doc == nil {
		return nil, shared.NewConversationNotFoundError(conversationID)
	}
	return model.TranscriptFromDocument(doc)
}

// AddMessage appends to the transcript under its document lock so
// concurrent turns keep conversation order and none are lost. Finished
// conversations reject new messages.
func (svc *ConversationService) AddMessage(ctx context.Context, conversationID string, req *dto.AddMessageRequest) (*model.ConversationTranscript, error) {
	if req.Speaker != shared.SpeakerUser && req.Speaker != shared.SpeakerBot && req.Speaker != shared.SpeakerSystem {
		return nil, shared.NewValidationError("speaker", req.Speaker, "speaker must be one of user, bot, system")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, shared.NewValidationError("content", req.Content, "content must not be empty")
	}

	defer svc.locks.Lock(shared.TranscriptsCollection + "/" + conversationID)()

	transcript, err := svc.GetConversationTranscript(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if transcript.Finished() {
		return nil, shared.NewConflictError("Cannot add messages to a finished conversation", map[string]interface{}{
			"conversation_id": conversationID,
			"status":          transcript.Status,
		})
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = "text"
	}
	transcript.AddMessage(req.Speaker, req.Content, messageType)

	if err := svc.save(ctx, transcript); err != nil {
		return nil, err
	}
	return transcript, nil
}

// FinishConversation closes the transcript exactly once; finishing an
// already finished conversation is a conflict.
func (svc *ConversationService) FinishConversation(ctx context.Context, conversationID, status string) (*model.ConversationTranscript, error) {
	if status == "" {
		status = shared.ConversationCompleted
	}
	if status != shared.ConversationCompleted && status != shared.ConversationInterrupted {
		return nil, shared.NewValidationError("status", status, "status must be completed or interrupted")
	}

	defer svc.locks.Lock(shared.TranscriptsCollection + "/" + conversationID)()

	transcript, err := svc.GetConversationTranscript(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if transcript.Finished() {
		return nil, shared.NewConflictError("Conversation is already finished", map[string]interface{}{
			"conversation_id": conversationID,
			"status":          transcript.Status,
		})
	}

	transcript.Finish(status)
	if err := svc.save(ctx, transcript); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"conversation_id": conversationID,
		"status":          status,
		"messages":        len(transcript.Messages),
	}).Info("Conversation finished")
	return transcript, nil
}

// CreateConversationSummary stores the learning report for an existing
// transcript. Writing a summary twice overwrites the previous one.
func (svc *ConversationService) CreateConversationSummary(ctx context.Context, req *dto.CreateSummaryRequest) (*model.ConversationSummary, error) {
	if req.PerformanceRating < 1 || req.PerformanceRating > 5 {
		return nil, shared.NewValidationError("performance_rating", req.PerformanceRating, "performance_rating must be between 1 and 5")
	}

	transcript, err := svc.GetConversationTranscript(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	summary := &model.ConversationSummary{
		ConversationID:      req.ConversationID,
		UserEmail:           transcript.UserEmail,
		Season:              transcript.Season,
		Episode:             transcript.Episode,
		SessionSummary:      req.SessionSummary,
		KeyLearnings:        orEmpty(req.KeyLearnings),
		WordsLearned:        orEmpty(req.WordsLearned),
		TopicsCovered:       orEmpty(req.TopicsCovered),
		PerformanceRating:   req.PerformanceRating,
		EngagementLevel:     req.EngagementLevel,
		AreasForImprovement: orEmpty(req.AreasForImprovement),
		NextRecommendations: orEmpty(req.NextRecommendations),
		CreatedAt:           time.Now().UTC(),
	}

	doc, err := summary.ToDocument()
	if err != nil {
		return nil, shared.NewStoreError("encode", shared.SummariesCollection, req.ConversationID, err)
	}
	if err := svc.store.Set(ctx, shared.SummariesCollection, req.ConversationID, doc); err != nil {
		return nil, shared.NewStoreError("set", shared.SummariesCollection, req.ConversationID, err)
	}
	return summary, nil
}

func (svc *ConversationService) GetConversationSummary(ctx context.Context, conversationID string) (*model.ConversationSummary, error) {
	doc, err := svc.store.Get(ctx, shared.SummariesCollection, conversationID)
	if err != nil {
		return nil, shared.NewStoreError("get", shared.SummariesCollection, conversationID, err)
	}
	if doc == nil {
		return nil, shared.NewSummaryNotFoundError(conversationID)
	}
	return model.SummaryFromDocument(doc)
}

// GetUserConversations returns the learner's transcripts newest first,
// optionally capped.
func (svc *ConversationService) GetUserConversations(ctx context.Context, email string, limit int) ([]*model.ConversationTranscript, error) {
	docs, err := svc.store.Query(ctx, shared.TranscriptsCollection, []Filter{
		{Field: "user_email", Op: "==", Value: email},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.TranscriptsCollection, "", err)
	}

	transcripts, err := transcriptsFromDocs(docs)
	if err != nil {
		return nil, err
	}
	sort.Slice(transcripts, func(i, j int) bool {
		return transcripts[i].StartTime.After(transcripts[j].StartTime)
	})
	if limit > 0 && limit < len(transcripts) {
		transcripts = transcripts[:limit]
	}
	return transcripts, nil
}

func (svc *ConversationService) GetEpisodeConversations(ctx context.Context, season, episode int) ([]*model.ConversationTranscript, error) {
	if err := dto.ValidateSeasonEpisode(season, episode); err != nil {
		return nil, err
	}

	docs, err := svc.store.Query(ctx, shared.TranscriptsCollection, []Filter{
		{Field: "season", Op: "==", Value: season},
		{Field: "episode", Op: "==", Value: episode},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.TranscriptsCollection, "", err)
	}

	transcripts, err := transcriptsFromDocs(docs)
	if err != nil {
		return nil, err
	}
	sort.Slice(transcripts, func(i, j int) bool {
		return transcripts[i].StartTime.After(transcripts[j].StartTime)
	})
	return transcripts, nil
}

func (svc *ConversationService) GetConversationAnalytics(ctx context.Context, conversationID string) (*dto.ConversationAnalyticsResponse, error) {
	transcript, err := svc.GetConversationTranscript(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ConversationAnalyticsResponse{
		ConversationID: transcript.ConversationID,
		UserEmail:      transcript.UserEmail,
		Season:         transcript.Season,
		Episode:        transcript.Episode,
		Status:         transcript.Status,
		MessageCount:   len(transcript.Messages),
	}
	for _, msg := range transcript.Messages {
		switch msg.Speaker {
		case shared.SpeakerUser:
			resp.UserMessages++
		case shared.SpeakerBot:
			resp.BotMessages++
		case shared.SpeakerSystem:
			resp.SystemMessages++
		}
	}
	if transcript.DurationSeconds != nil {
		resp.Duration = *transcript.DurationSeconds
	}

	summaryDoc, err := svc.store.Get(ctx, shared.SummariesCollection, conversationID)
	if err != nil {
		return nil, shared.NewStoreError("get", shared.SummariesCollection, conversationID, err)
	}
	if summaryDoc != nil {
		summary, err := model.SummaryFromDocument(summaryDoc)
		if err != nil {
			return nil, err
		}
		resp.HasSummary = true
		resp.Summary = &dto.LearningSummary{
			SessionSummary:      summary.SessionSummary,
			KeyLearnings:        summary.KeyLearnings,
			WordsLearned:        summary.WordsLearned,
			TopicsCovered:       summary.TopicsCovered,
			PerformanceRating:   summary.PerformanceRating,
			EngagementLevel:     summary.EngagementLevel,
			AreasForImprovement: summary.AreasForImprovement,
			NextRecommendations: summary.NextRecommendations,
		}
	}

	return resp, nil
}

// GetUserLearningProgression scans all of the learner's transcripts and
// summaries: session counts, the last five conversation ids, the union
// of words and topics, mean rating across summaries and mean duration
// across every finished transcript, summarized or not.
func (svc *ConversationService) GetUserLearningProgression(ctx context.Context, email string) (*dto.LearningProgressionResponse, error) {
	if err := dto.ValidateEmail(email); err != nil {
		return nil, err
	}

	transcripts, err := svc.GetUserConversations(ctx, email, 0)
	if err != nil {
		return nil, err
	}

	docs, err := svc.store.Query(ctx, shared.SummariesCollection, []Filter{
		{Field: "user_email", Op: "==", Value: email},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.SummariesCollection, "", err)
	}

	summaries := make([]*model.ConversationSummary, 0, len(docs))
	for _, doc := range docs {
		s, err := model.SummaryFromDocument(doc)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	resp := &dto.LearningProgressionResponse{
		UserEmail:           email,
		TotalSessions:       len(transcripts),
		CompletedSessions:   len(summaries),
		RecentConversations: []string{},
		UniqueWordsLearned:  []string{},
		UniqueTopicsCovered: []string{},
	}

	durationSum := 0.0
	durations := 0
	for i, t := range transcripts {
		if i < 5 {
			resp.RecentConversations = append(resp.RecentConversations, t.ConversationID)
		}
		if t.DurationSeconds != nil {
			durationSum += *t.DurationSeconds
			durations++
		}
	}

	words := map[string]bool{}
	topics := map[string]bool{}
	ratingSum := 0
	for _, s := range summaries {
		for _, w := range s.WordsLearned {
			if !words[w] {
				words[w] = true
				resp.UniqueWordsLearned = append(resp.UniqueWordsLearned, w)
			}
		}
		for _, t := range s.TopicsCovered {
			if !topics[t] {
				topics[t] = true
				resp.UniqueTopicsCovered = append(resp.UniqueTopicsCovered, t)
			}
		}
		ratingSum += s.PerformanceRating
	}

	if len(summaries) > 0 {
		resp.AverageRating = float64(ratingSum) / float64(len(summaries))
	}
	if durations > 0 {
		resp.AverageSessionTime = durationSum / float64(durations)
	}

	return resp, nil
}

// SearchConversations matches the query case-insensitively against
// message contents of the learner's transcripts.
func (svc *ConversationService) SearchConversations(ctx context.Context, email, query string) ([]*model.ConversationTranscript, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, shared.NewValidationError("query", query, "query must not be empty")
	}

	transcripts, err := svc.GetUserConversations(ctx, email, 0)
	if err != nil {
		return nil, err
	}

	matched := []*model.ConversationTranscript{}
	for _, t := range transcripts {
		for _, msg := range t.Messages {
			if strings.Contains(strings.ToLower(msg.Content), needle) {
				matched = append(matched, t)
				break
			}
		}
	}
	return matched, nil
}

// DeleteConversation removes the transcript and its summary. When the
// archive is enabled the conversation is archived first; a failed archive
// aborts the deletion.
func (svc *ConversationService) DeleteConversation(ctx context.Context, conversationID string) error {
	defer svc.locks.Lock(shared.TranscriptsCollection + "/" + conversationID)()

	transcript, err := svc.GetConversationTranscript(ctx, conversationID)
	if err != nil {
		return err
	}

	if svc.archive != nil && svc.archive.Enabled() {
		var summary *model.ConversationSummary
		if doc, err := svc.store.Get(ctx, shared.SummariesCollection, conversationID); err == nil && doc != nil {
			summary, _ = model.SummaryFromDocument(doc)
		}
		if err := svc.archive.ArchiveConversation(ctx, transcript, summary); err != nil {
			return err
		}
	}

	if err := svc.store.Delete(ctx, shared.TranscriptsCollection, conversationID); err != nil {
		return shared.NewStoreError("delete", shared.TranscriptsCollection, conversationID, err)
	}
	if err := svc.store.Delete(ctx, shared.SummariesCollection, conversationID); err != nil {
		return shared.NewStoreError("delete", shared.SummariesCollection, conversationID, err)
	}

	log.WithFields(log.Fields{"conversation_id": conversationID}).Info("Conversation deleted")
	return nil
}

func (svc *ConversationService) save(ctx context.Context, transcript *model.ConversationTranscript) error {
	doc, err := transcript.ToDocument()
	if err != nil {
		return shared.NewStoreError("encode", shared.TranscriptsCollection, transcript.ConversationID, err)
	}
	if err := svc.store.Set(ctx, shared.TranscriptsCollection, transcript.ConversationID, doc); err != nil {
		return shared.NewStoreError("set", shared.TranscriptsCollection, transcript.ConversationID, err)
	}
	return nil
}

func transcriptsFromDocs(docs map[string]map[string]interface{}) ([]*model.ConversationTranscript, error) {
	out := make([]*model.ConversationTranscript, 0, len(docs))
	for _, doc := range docs {
		t, err := model.TranscriptFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
