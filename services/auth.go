package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/shared"
)

// DeviceAuthService runs the device lifecycle: factory registration,
// parent claiming via a short-lived token, and JWT authentication for the
// voice pipeline.
type DeviceAuthService struct {
	appContext.DefaultService

	store DocumentStore
	locks *shared.KeyedMutex
	jwt   *JWTService
	users *UserService
}

const DEVICE_AUTH_SVC = "device_auth_svc"

const claimTokenTTL = 5 * time.Minute

func (svc DeviceAuthService) Id() string {
	return DEVICE_AUTH_SVC
}

func (svc *DeviceAuthService) Start() error {
	storeSvc := svc.Service(STORE_SVC).(*StoreService)
	svc.store = storeSvc.Store()
	svc.locks = storeSvc.Locks()
	svc.jwt = svc.Service(JWT_SVC).(*JWTService)
	svc.users = svc.Service(USER_SVC).(*UserService)
	return nil
}

// RegisterDevice mints a fresh ABCD1234 style device id and records the
// unit as registered. Retries on the unlikely id collision.
func (svc *DeviceAuthService) RegisterDevice(ctx context.Context, req *dto.RegisterDeviceRequest) (*model.DeviceRegistration, error) {
	var deviceID string
	for attempt := 0; attempt < 5; attempt++ {
		candidate, err := generateDeviceID()
		if err != nil {
			return nil, shared.NewStoreError("generate_id", shared.DeviceRegistrationsCollection, "", err)
		}
		existing, err := svc.store.Get(ctx, shared.DeviceRegistrationsCollection, candidate)
		if err != nil {
			return nil, shared.NewStoreError("get", shared.DeviceRegistrationsCollection, candidate, err)
		}
		if existing == nil {
			deviceID = candidate
			break
		}
	}
	if deviceID == "" {
		return nil, shared.NewStoreError("generate_id", shared.DeviceRegistrationsCollection, "", fmt.Errorf("device id space exhausted"))
	}

	device := &model.DeviceRegistration{
		DeviceID:     deviceID,
		Status:       shared.DeviceStatusRegistered,
		RegisteredAt: time.Now().UTC(),
		Firmware:     req.Firmware,
	}
	if err := svc.saveDevice(ctx, device); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"device_id": deviceID}).Info("Device registered")
	return device, nil
}

// GenerateClaimToken issues a one-time "token_id.secret" credential for
// the given account. Only the secret's bcrypt hash is persisted.
func (svc *DeviceAuthService) GenerateClaimToken(ctx context.Context, email string) (string, *model.ClaimToken, error) {
	if err := dto.ValidateEmail(email); err != nil {
		return "", nil, err
	}
	if _, err := svc.users.GetUserByEmail(ctx, email); err != nil {
		return "", nil, err
	}

	tokenID := uuid.New().String()
	secret, err := randomHex(16)
	if err != nil {
		return "", nil, shared.NewStoreError("generate_secret", shared.ClaimTokensCollection, tokenID, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, shared.NewStoreError("hash_secret", shared.ClaimTokensCollection, tokenID, err)
	}

	now := time.Now().UTC()
	token := &model.ClaimToken{
		TokenID:    tokenID,
		SecretHash: string(hash),
		Email:      email,
		CreatedAt:  now,
		ExpiresAt:  now.Add(claimTokenTTL),
		Status:     shared.ClaimTokenActive,
	}

	doc, err := token.ToDocument()
	if err != nil {
		return "", nil, shared.NewStoreError("encode", shared.ClaimTokensCollection, tokenID, err)
	}
	if err := svc.store.Set(ctx, shared.ClaimTokensCollection, tokenID, doc); err != nil {
		return "", nil, shared.NewStoreError("set", shared.ClaimTokensCollection, tokenID, err)
	}

	return tokenID + "." + secret, token, nil
}

// ClaimDevice binds a registered device to the account that issued the
// claim token. The token is single use and expires after five minutes.
func (svc *DeviceAuthService) ClaimDevice(ctx context.Context, req *dto.ClaimDeviceRequest) (*model.DeviceRegistration, error) {
	if err := dto.ValidateDeviceID(req.DeviceID); err != nil {
		return nil, err
	}

	tokenID, secret, found := strings.Cut(req.ClaimToken, ".")
	if !found || tokenID == "" || secret == "" {
		return nil, shared.NewUnauthorizedError("Invalid claim token format")
	}

	defer svc.locks.Lock(shared.ClaimTokensCollection + "/" + tokenID)()

	doc, err := svc.store.Get(ctx, shared.ClaimTokensCollection, tokenID)
	if err != nil {
		return nil, shared.NewStoreError("get", shared.ClaimTokensCollection, tokenID, err)
	}
	if doc == nil {
		return nil, shared.NewUnauthorizedError("Invalid claim token")
	}
	token, err := model.ClaimTokenFromDocument(doc)
	if err != nil {
		return nil, err
	}

	if token.Status != shared.ClaimTokenActive {
		return nil, shared.NewSecurityError("claim_token_reuse", tokenID)
	}
	if token.IsExpired() {
		return nil, shared.NewUnauthorizedError("Claim token has expired")
	}
	if bcrypt.CompareHashAndPassword([]byte(token.SecretHash), []byte(secret)) != nil {
		return nil, shared.NewSecurityError("claim_token_mismatch", tokenID)
	}

	device, err := svc.getDevice(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.Status != shared.DeviceStatusRegistered {
		return nil, shared.NewConflictError("Device is already claimed", map[string]interface{}{
			"device_id": req.DeviceID,
			"status":    device.Status,
		})
	}

	now := time.Now().UTC()
	device.Status = shared.DeviceStatusClaimed
	device.OwnerEmail = token.Email
	device.ClaimedAt = &now
	if err := svc.saveDevice(ctx, device); err != nil {
		return nil, err
	}

	token.Status = shared.ClaimTokenUsed
	token.DeviceID = req.DeviceID
	token.UsedAt = &now
	tokenDoc, err := token.ToDocument()
	if err != nil {
		return nil, shared.NewStoreError("encode", shared.ClaimTokensCollection, tokenID, err)
	}
	if err := svc.store.Set(ctx, shared.ClaimTokensCollection, tokenID, tokenDoc); err != nil {
		return nil, shared.NewStoreError("set", shared.ClaimTokensCollection, tokenID, err)
	}

	log.WithFields(log.Fields{"device_id": req.DeviceID, "email": token.Email}).Info("Device claimed")
	return device, nil
}

// AuthenticateDevice exchanges a claimed device's id for a 24h JWT and
// opens a device session.
func (svc *DeviceAuthService) AuthenticateDevice(ctx context.Context, req *dto.DeviceAuthRequest) (*dto.DeviceAuthResponse, error) {
	if err := dto.ValidateDeviceID(req.DeviceID); err != nil {
		return nil, err
	}

	device, err := svc.getDevice(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.Status == shared.DeviceStatusRegistered {
		return nil, shared.NewUnauthorizedError("Device has not been claimed")
	}

	hashed := HashDeviceID(req.DeviceID)
	token, expiresAt, err := svc.jwt.GenerateDeviceToken(req.DeviceID, hashed, device.OwnerEmail)
	if err != nil {
		return nil, shared.NewStoreError("sign_token", shared.DeviceSessionsCollection, req.DeviceID, err)
	}

	now := time.Now().UTC()
	session := &model.DeviceSession{
		DeviceID:       req.DeviceID,
		HashedDeviceID: hashed,
		Email:          device.OwnerEmail,
		StartedAt:      now,
		LastHeartbeat:  now,
	}
	sessionDoc, err := session.ToDocument()
	if err != nil {
		return nil, shared.NewStoreError("encode", shared.DeviceSessionsCollection, req.DeviceID, err)
	}
	if err := svc.store.Set(ctx, shared.DeviceSessionsCollection, req.DeviceID, sessionDoc); err != nil {
		return nil, shared.NewStoreError("set", shared.DeviceSessionsCollection, req.DeviceID, err)
	}

	device.Status = shared.DeviceStatusActive
	device.LastSeen = &now
	if err := svc.saveDevice(ctx, device); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"device_id": req.DeviceID, "email": device.OwnerEmail}).Info("Device authenticated")
	return &dto.DeviceAuthResponse{
		Token:          token,
		HashedDeviceID: hashed,
		Email:          device.OwnerEmail,
		ExpiresAt:      expiresAt.Format(time.RFC3339),
	}, nil
}

func (svc *DeviceAuthService) Heartbeat(ctx context.Context, deviceID, firmware string) error {
	defer svc.locks.Lock(shared.DeviceRegistrationsCollection + "/" + deviceID)()

	device, err := svc.getDevice(ctx, deviceID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	device.LastSeen = &now
	if firmware != "" {
		device.Firmware = firmware
	}
	if err := svc.saveDevice(ctx, device); err != nil {
		return err
	}

	sessionDoc, err := svc.store.Get(ctx, shared.DeviceSessionsCollection, deviceID)
	if err != nil {
		return shared.NewStoreError("get", shared.DeviceSessionsCollection, deviceID, err)
	}
	if sessionDoc != nil {
		return svc.store.Update(ctx, shared.DeviceSessionsCollection, deviceID, map[string]interface{}{
			"last_heartbeat": now.Format(time.RFC3339Nano),
		})
	}
	return nil
}

func (svc *DeviceAuthService) GetActiveDevices(ctx context.Context) ([]*model.DeviceRegistration, error) {
	docs, err := svc.store.Query(ctx, shared.DeviceRegistrationsCollection, []Filter{
		{Field: "status", Op: "==", Value: shared.DeviceStatusActive},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.DeviceRegistrationsCollection, "", err)
	}
	return devicesFromDocs(docs)
}

func (svc *DeviceAuthService) GetUserDevices(ctx context.Context, email string) ([]*model.DeviceRegistration, error) {
	if err := dto.ValidateEmail(email); err != nil {
		return nil, err
	}

	docs, err := svc.store.Query(ctx, shared.DeviceRegistrationsCollection, []Filter{
		{Field: "owner_email", Op: "==", Value: email},
	})
	if err != nil {
		return nil, shared.NewStoreError("query", shared.DeviceRegistrationsCollection, "", err)
	}
	return devicesFromDocs(docs)
}

func (svc *DeviceAuthService) GetDevice(ctx context.Context, deviceID string) (*model.DeviceRegistration, error) {
	if err := dto.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	return svc.getDevice(ctx, deviceID)
}

// RequiredDeviceAuth is the fiber middleware guarding device-facing
// routes. On success it stores the device id and owner email in locals.
func (svc *DeviceAuthService) RequiredDeviceAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ExtractTokenFromHeader(c.Get("Authorization"))
		if token == "" {
			return shared.NewUnauthorizedError("Missing authorization token")
		}

		claims, err := svc.jwt.VerifyDeviceToken(token)
		if err != nil {
			return shared.NewUnauthorizedError("Invalid or expired token")
		}

		c.Locals(shared.DeviceID, claims.DeviceID)
		c.Locals(shared.UserEmail, claims.Email)
		return c.Next()
	}
}

// HashDeviceID derives the device's short public handle, 16 hex chars of
// its sha256.
func HashDeviceID(deviceID string) string {
	sum := sha256.Sum256([]byte(deviceID))
	return hex.EncodeToString(sum[:])[:16]
}

func (svc *DeviceAuthService) getDevice(ctx context.Context, deviceID string) (*model.DeviceRegistration, error) {
	doc, err := svc.store.Get(ctx, shared.DeviceRegistrationsCollection, deviceID)
	if err != nil {
		return nil, shared.NewStoreError("get", shared.DeviceRegistrationsCollection, deviceID, err)
	}
	if doc == nil {
		return nil, shared.NewDeviceNotFoundError(deviceID)
	}
	return model.DeviceFromDocument(doc)
}

func (svc *DeviceAuthService) saveDevice(ctx context.Context, device *model.DeviceRegistration) error {
	doc, err := device.ToDocument()
	if err != nil {
		return shared.NewStoreError("encode", shared.DeviceRegistrationsCollection, device.DeviceID, err)
	}
	if err := svc.store.Set(ctx, shared.DeviceRegistrationsCollection, device.DeviceID, doc); err != nil {
		return shared.NewStoreError("set", shared.DeviceRegistrationsCollection, device.DeviceID, err)
	}
	return nil
}

func devicesFromDocs(docs map[string]map[string]interface{}) ([]*model.DeviceRegistration, error) {
	devices := make([]*model.DeviceRegistration, 0, len(docs))
	for _, doc := range docs {
		d, err := model.DeviceFromDocument(doc)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID < devices[j].DeviceID })
	return devices, nil
}

func generateDeviceID() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const digits = "0123456789"

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	id := make([]byte, 8)
	for i := 0; i < 4; i++ {
		id[i] = letters[int(buf[i])%len(letters)]
	}
	for i := 4; i < 8; i++ {
		id[i] = digits[int(buf[i])%len(digits)]
	}
	return string(id), nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
