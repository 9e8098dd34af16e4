package services

import (
	"context"
	"os"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/shared"
)

// SessionService glues the voice pipeline together: it resolves the
// learner from the device, fetches the episode prompt, opens a transcript
// and, on session end, fans the results out to the user and episode
// aggregates. One device runs at most one session at a time.
type SessionService struct {
	appContext.DefaultService

	users         *UserService
	episodes      *EpisodePromptService
	conversations *ConversationService
	monitoring    *MonitoringService

	mu       sync.Mutex
	sessions map[string]*model.ActiveSession

	idleTimeout time.Duration
	closed      chan struct{}
}

const SESSION_SVC = "session_svc"

func (svc SessionService) Id() string {
	return SESSION_SVC
}

func (svc *SessionService) Configure(ctx *appContext.Context) error {
	svc.sessions = map[string]*model.ActiveSession{}

	svc.idleTimeout = 5 * time.Minute
	if raw := os.Getenv("SESSION_IDLE_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			svc.idleTimeout = parsed
		}
	}
	svc.closed = make(chan struct{})

	return svc.DefaultService.Configure(ctx)
}

func (svc *SessionService) Start() error {
	svc.users = svc.Service(USER_SVC).(*UserService)
	svc.episodes = svc.Service(EPISODE_SVC).(*EpisodePromptService)
	svc.conversations = svc.Service(CONVERSATION_SVC).(*ConversationService)
	svc.monitoring = svc.Service(MONITORING_SVC).(*MonitoringService)

	go svc.idleJanitor()
	return nil
}

func (svc *SessionService) Shutdown() {
	close(svc.closed)
}

// StartSession opens a session for the device. The episode defaults to
// the learner's current grid position; a missing prompt for that cell
// falls back to the season's first episode.
func (svc *SessionService) StartSession(ctx context.Context, deviceID string, req *dto.StartSessionRequest) (*model.ActiveSession, error) {
	svc.mu.Lock()
	if existing, ok := svc.sessions[deviceID]; ok {
		svc.mu.Unlock()
		return nil, shared.NewConflictError("Device already has an active session", map[string]interface{}{
			"device_id":       deviceID,
			"conversation_id": existing.ConversationID,
		})
	}
	svc.mu.Unlock()

	user, err := svc.users.GetUserByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	season := req.Season
	episode := req.Episode
	if season == 0 {
		season = user.Progress.Season
	}
	if episode == 0 {
		episode = user.Progress.Episode
	}
	if err := dto.ValidateSeasonEpisode(season, episode); err != nil {
		return nil, err
	}

	prompt, err := svc.episodes.GetEpisodePrompt(ctx, season, episode)
	if shared.IsNotFound(err) {
		prompt, err = svc.episodes.GetEpisodePrompt(ctx, season, 1)
	}
	if err != nil {
		return nil, err
	}

	transcript, err := svc.conversations.StartConversation(ctx, &dto.StartConversationRequest{
		UserEmail: user.Email,
		Season:    prompt.Season,
		Episode:   prompt.Episode,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &model.ActiveSession{
		DeviceID:       deviceID,
		UserEmail:      user.Email,
		ConversationID: transcript.ConversationID,
		Season:         prompt.Season,
		Episode:        prompt.Episode,
		SystemPrompt:   prompt.SystemPrompt,
		StartedAt:      now,
		LastTurnAt:     now,
	}

	svc.mu.Lock()
	svc.sessions[deviceID] = session
	svc.mu.Unlock()

	svc.monitoring.SessionStarted()
	log.WithFields(log.Fields{
		"device_id":       deviceID,
		"user":            user.Email,
		"conversation_id": transcript.ConversationID,
	}).Info("Session started")
	return session, nil
}

// AppendTurn records one utterance on the session's transcript.
func (svc *SessionService) AppendTurn(ctx context.Context, deviceID string, req *dto.TurnRequest) (*model.ActiveSession, error) {
	session, err := svc.getSession(deviceID)
	if err != nil {
		return nil, err
	}

	if _, err := svc.conversations.AddMessage(ctx, session.ConversationID, &dto.AddMessageRequest{
		Speaker: req.Speaker,
		Content: req.Content,
	}); err != nil {
		return nil, err
	}

	svc.mu.Lock()
	session.LastTurnAt = time.Now().UTC()
	svc.mu.Unlock()

	return session, nil
}

// EndSession closes the transcript and fans the results out: episode
// usage aggregates, the learner's learning data and, when the episode was
// completed, their grid progress.
func (svc *SessionService) EndSession(ctx context.Context, deviceID string, req *dto.EndSessionRequest) (*model.ConversationTranscript, error) {
	session, err := svc.getSession(deviceID)
	if err != nil {
		return nil, err
	}

	transcript, err := svc.conversations.FinishConversation(ctx, session.ConversationID, shared.ConversationCompleted)
	if err != nil {
		return nil, err
	}

	svc.mu.Lock()
	delete(svc.sessions, deviceID)
	svc.mu.Unlock()
	svc.monitoring.SessionFinished(shared.ConversationCompleted)

	sessionTime := 0.0
	if transcript.DurationSeconds != nil {
		sessionTime = *transcript.DurationSeconds
	}

	rating := req.CompletionRating
	if rating == 0 {
		rating = 3
	}
	if _, err := svc.episodes.RecordUsage(ctx, session.Season, session.Episode, &dto.RecordUsageRequest{
		UserEmail:        session.UserEmail,
		WordsLearned:     req.WordsLearned,
		TopicsCovered:    req.TopicsCovered,
		SessionTime:      sessionTime,
		CompletionRating: rating,
	}); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"conversation_id": session.ConversationID,
		}).Warn("Failed to record episode usage")
	}

	if _, err := svc.users.AddLearningData(ctx, session.UserEmail, &dto.AddLearningDataRequest{
		WordsLearnt:  req.WordsLearned,
		TopicsLearnt: req.TopicsCovered,
		SessionTime:  sessionTime,
	}); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user": session.UserEmail,
		}).Warn("Failed to add learning data")
	}

	if req.EpisodeCompleted {
		nextSeason, nextEpisode := nextPosition(session.Season, session.Episode)
		if _, err := svc.users.UpdateProgress(ctx, session.UserEmail, &dto.UpdateProgressRequest{
			Season:           nextSeason,
			Episode:          nextEpisode,
			EpisodeCompleted: true,
		}); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user": session.UserEmail,
			}).Warn("Failed to advance user progress")
		}
	}

	log.WithFields(log.Fields{
		"device_id":       deviceID,
		"conversation_id": session.ConversationID,
		"duration":        sessionTime,
	}).Info("Session ended")
	return transcript, nil
}

func (svc *SessionService) ActiveSessions() []*model.ActiveSession {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	out := make([]*model.ActiveSession, 0, len(svc.sessions))
	for _, s := range svc.sessions {
		out = append(out, s)
	}
	return out
}

func (svc *SessionService) GetSession(deviceID string) (*model.ActiveSession, error) {
	return svc.getSession(deviceID)
}

func (svc *SessionService) getSession(deviceID string) (*model.ActiveSession, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	session, ok := svc.sessions[deviceID]
	if !ok {
		return nil, shared.NewConflictError("Device has no active session", map[string]interface{}{
			"device_id": deviceID,
		})
	}
	return session, nil
}

// idleJanitor finishes sessions whose device went quiet, marking their
// conversations interrupted.
func (svc *SessionService) idleJanitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			svc.reapIdle()
		case <-svc.closed:
			return
		}
	}
}

func (svc *SessionService) reapIdle() {
	cutoff := time.Now().UTC().Add(-svc.idleTimeout)

	svc.mu.Lock()
	stale := []*model.ActiveSession{}
	for deviceID, session := range svc.sessions {
		if session.LastTurnAt.Before(cutoff) {
			stale = append(stale, session)
			delete(svc.sessions, deviceID)
		}
	}
	svc.mu.Unlock()

	for _, session := range stale {
		if _, err := svc.conversations.FinishConversation(context.Background(), session.ConversationID, shared.ConversationInterrupted); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"conversation_id": session.ConversationID,
			}).Warn("Failed to interrupt idle session")
			continue
		}
		svc.monitoring.SessionFinished(shared.ConversationInterrupted)
		log.WithFields(log.Fields{
			"device_id":       session.DeviceID,
			"conversation_id": session.ConversationID,
		}).Info("Idle session interrupted")
	}
}

func nextPosition(season, episode int) (int, int) {
	if episode < shared.MaxEpisode {
		return season, episode + 1
	}
	if season < shared.MaxSeason {
		return season + 1, 1
	}
	return season, episode
}
