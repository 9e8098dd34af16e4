package dto

type RegisterDeviceRequest struct {
	Firmware string `json:"firmware"`
}

type RegisterDeviceResponse struct {
	DeviceID     string `json:"device_id"`
	Status       string `json:"status"`
	RegisteredAt string `json:"registered_at"`
}

type ClaimTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ClaimTokenResponse struct {
	ClaimToken string `json:"claim_token"`
	ExpiresAt  string `json:"expires_at"`
}

type ClaimDeviceRequest struct {
	DeviceID   string `json:"device_id" validate:"required,device_id"`
	ClaimToken string `json:"claim_token" validate:"required"`
}

type DeviceAuthRequest struct {
	DeviceID string `json:"device_id" validate:"required,device_id"`
}

type DeviceAuthResponse struct {
	Token          string `json:"token"`
	HashedDeviceID string `json:"hashed_device_id"`
	Email          string `json:"email"`
	ExpiresAt      string `json:"expires_at"`
}

type HeartbeatRequest struct {
	Firmware string `json:"firmware"`
}

type StartSessionRequest struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

type TurnRequest struct {
	Speaker string `json:"speaker" validate:"required,oneof=user bot system"`
	Content string `json:"content" validate:"required"`
}

type EndSessionRequest struct {
	WordsLearned     []string `json:"words_learned"`
	TopicsCovered    []string `json:"topics_covered"`
	CompletionRating int      `json:"completion_rating" validate:"omitempty,min=1,max=5"`
	EpisodeCompleted bool     `json:"episode_completed"`
}
