package services

import (
	"context"
	"sort"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/shared"
)

// UserService owns learner profiles: creation, progress, learning
// aggregates and analytics. Email is the document id.
type UserService struct {
	appContext.DefaultService

	store DocumentStore
	locks *shared.KeyedMutex
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Start() error {
	storeSvc := svc.Service(STORE_SVC).(*StoreService)
	svc.store = storeSvc.Store()
	svc.locks = storeSvc.Locks()
	return nil
}

// CreateUser validates the request and rejects duplicates on both unique
// keys, email and device_id.
func (svc *UserService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*model.EnhancedUser, error) {
	if err := dto.ValidateDeviceID(req.DeviceID); err != nil {
		return nil, err
	}
	if err := dto.ValidateName(req.Name); err != nil {
		return nil, err
	}
	if err := dto.ValidateAge(req.Age); err != nil {
		return nil, err
	}
	if err := dto.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := dto.ValidateEmail(req.Parent.Email); err != nil {
		return nil, err
	}

	existing, err := svc.store.Get(ctx, shared.UsersCollection, req.Email)
	if err != nil {
		return nil, shared.NewStoreError("get", shared.UsersCollection, req.Email, err)
	}
	if existing != nil {
		return nil, shared.NewAlreadyExistsError("User", "email", req.Email)
	}

	byDevice, err := svc.store.Query(ctx, shared.UsersCollection, []Filter{
		{Field: "device_id", Op: "==", Value: req.DeviceID},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.UsersCollection, req.DeviceID, err)
	}
	if len(byDevice) > 0 {
		return nil, shared.NewAlreadyExistsError("User", "device_id", req.DeviceID)
	}

	user := model.NewEnhancedUser(req.DeviceID, req.Name, req.Age, req.Email, model.Parent{
		Name:  req.Parent.Name,
		Age:   req.Parent.Age,
		Email: req.Parent.Email,
	})

	doc, err := user.ToDocument()
	if err != nil {
		return nil, shared.NewStoreError("encode", shared.UsersCollection, req.Email, err)
	}
	if err := svc.store.Set(ctx, shared.UsersCollection, req.Email, doc); err != nil {
		return nil, shared.NewStoreError("set", shared.UsersCollection, req.Email, err)
	}

	log.WithFields(log.Fields{"email": req.Email, "device_id": req.DeviceID}).Info("User created")
	return user, nil
}

func (svc *UserService) GetUserByEmail(ctx context.Context, email string) (*model.EnhancedUser, error) {
	doc, err := svc.store.Get(ctx, shared.UsersCollection, email)
	if err != nil {
		return nil, shared.NewStoreError("get", shared.UsersCollection, email, err)
	}
	if doc == nil {
		return nil, shared.NewUserNotFoundError(email)
	}
	return model.UserFromDocument(doc)
}

func (svc *UserService) GetUserByDeviceID(ctx context.Context, deviceID string) (*model.EnhancedUser, error) {
	if err := dto.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}

	docs, err := svc.store.Query(ctx, shared.UsersCollection, []Filter{
		{Field: "device_id", Op: "==", Value: deviceID},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.UsersCollection, deviceID, err)
	}

	for _, doc := range docs {
		return model.UserFromDocument(doc)
	}
	return nil, shared.NewDeviceNotFoundError(deviceID)
}

// UpdateProgress moves the learner to a grid position under the user's
// document lock so concurrent completions cannot lose counter increments.
func (svc *UserService) UpdateProgress(ctx context.Context, email string, req *dto.UpdateProgressRequest) (*model.EnhancedUser, error) {
	if err := dto.ValidateSeasonEpisode(req.Season, req.Episode); err != nil {
		return nil, err
	}

	defer svc.locks.Lock(shared.UsersCollection + "/" + email)()

	user, err := svc.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	user.UpdateProgress(req.Season, req.Episode, req.EpisodeCompleted)
	if err := svc.save(ctx, user); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"email":     email,
		"season":    req.Season,
		"episode":   req.Episode,
		"completed": req.EpisodeCompleted,
	}).Info("User progress updated")
	return user, nil
}

func (svc *UserService) AddLearningData(ctx context.Context, email string, req *dto.AddLearningDataRequest) (*model.EnhancedUser, error) {
	if req.SessionTime < 0 {
		return nil, shared.NewValidationError("session_time", req.SessionTime, "session_time must not be negative")
	}

	defer svc.locks.Lock(shared.UsersCollection + "/" + email)()

	user, err := svc.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	user.AddLearningData(req.WordsLearnt, req.TopicsLearnt, req.SessionTime)
	if err := svc.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (svc *UserService) UpdateLastActive(ctx context.Context, email string) error {
	defer svc.locks.Lock(shared.UsersCollection + "/" + email)()

	user, err := svc.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	user.LastActive = time.Now().UTC()
	return svc.save(ctx, user)
}

func (svc *UserService) GetAllUsers(ctx context.Context) ([]*model.EnhancedUser, error) {
	docs, err := svc.store.GetAll(ctx, shared.UsersCollection)
	if err != nil {
		return nil, shared.NewStoreError("get_all", shared.UsersCollection, "", err)
	}
	return usersFromDocs(docs)
}

func (svc *UserService) GetUsersByStatus(ctx context.Context, status model.UserStatus) ([]*model.EnhancedUser, error) {
	if !status.Valid() {
		return nil, shared.NewValidationError("status", string(status), "status must be one of active, inactive, suspended, trial")
	}

	docs, err := svc.store.Query(ctx, shared.UsersCollection, []Filter{
		{Field: "status", Op: "==", Value: string(status)},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.UsersCollection, "", err)
	}
	return usersFromDocs(docs)
}

// GetUserAnalytics assembles the learner's report card from their profile.
func (svc *UserService) GetUserAnalytics(ctx context.Context, email string) (*dto.UserAnalyticsResponse, error) {
	user, err := svc.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	resp := &dto.UserAnalyticsResponse{}

	resp.UserInfo.Name = user.Name
	resp.UserInfo.Email = user.Email
	resp.UserInfo.Age = user.Age
	resp.UserInfo.DeviceID = user.DeviceID
	resp.UserInfo.Status = string(user.Status)

	resp.Progress.CurrentSeason = user.Progress.Season
	resp.Progress.CurrentEpisode = user.Progress.Episode
	resp.Progress.EpisodesCompleted = user.Progress.EpisodesCompleted
	if user.LastCompletedEpisode != nil {
		ts := user.LastCompletedEpisode.Format("2006-01-02T15:04:05Z07:00")
		resp.Progress.LastCompletedEpisode = &ts
	}

	resp.LearningStats.TotalWordsLearnt = len(user.WordsLearnt)
	resp.LearningStats.TotalTopicsLearnt = len(user.TopicsLearnt)
	resp.LearningStats.WordsLearnt = user.WordsLearnt
	resp.LearningStats.TopicsLearnt = user.TopicsLearnt

	resp.TimeAnalytics.TotalTimeSeconds = user.TotalTime
	resp.TimeAnalytics.TotalTimeMinutes = user.TotalTime / 60
	resp.TimeAnalytics.TotalTimeHours = user.TotalTime / 3600
	completed := user.Progress.EpisodesCompleted
	if completed < 1 {
		completed = 1
	}
	resp.TimeAnalytics.AverageSessionTime = user.TotalTime / float64(completed)
	resp.TimeAnalytics.MemberSince = user.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	resp.TimeAnalytics.LastActive = user.LastActive.Format("2006-01-02T15:04:05Z07:00")

	resp.ParentInfo = dto.ParentInfo{
		Name:  user.Parent.Name,
		Age:   user.Parent.Age,
		Email: user.Parent.Email,
	}

	return resp, nil
}

// DeleteUser deactivates rather than removes: the profile and its
// learning history stay queryable.
func (svc *UserService) DeleteUser(ctx context.Context, email string) error {
	defer svc.locks.Lock(shared.UsersCollection + "/" + email)()

	user, err := svc.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	user.Status = model.UserStatusInactive
	if err := svc.save(ctx, user); err != nil {
		return err
	}

	log.WithFields(log.Fields{"email": email}).Info("User deactivated")
	return nil
}

func (svc *UserService) save(ctx context.Context, user *model.EnhancedUser) error {
	doc, err := user.ToDocument()
	if err != nil {
		return shared.NewStoreError("encode", shared.UsersCollection, user.Email, err)
	}
	if err := svc.store.Set(ctx, shared.UsersCollection, user.Email, doc); err != nil {
		return shared.NewStoreError("set", shared.UsersCollection, user.Email, err)
	}
	return nil
}

func usersFromDocs(docs map[string]map[string]interface{}) ([]*model.EnhancedUser, error) {
	users := make([]*model.EnhancedUser, 0, len(docs))
	for _, doc := range docs {
		user, err := model.UserFromDocument(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}
