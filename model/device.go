package model

import "time"

// DeviceRegistration tracks a physical unit through its lifecycle:
// registered at the factory, claimed by a parent account, active once it
// has authenticated.
type DeviceRegistration struct {
	DeviceID     string     `json:"device_id"`
	Status       string     `json:"status"`
	OwnerEmail   string     `json:"owner_email"`
	RegisteredAt time.Time  `json:"registered_at"`
	ClaimedAt    *time.Time `json:"claimed_at"`
	LastSeen     *time.Time `json:"last_seen"`
	Firmware     string     `json:"firmware"`
}

// ClaimToken is a short-lived one-time credential a parent hands to a
// device so it can bind itself to their account. Only the secret's bcrypt
// hash is stored; the plaintext exists once, in the issuing response.
type ClaimToken struct {
	TokenID    string     `json:"token_id"`
	SecretHash string     `json:"secret_hash"`
	Email      string     `json:"email"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Status     string     `json:"status"`
	DeviceID   string     `json:"device_id"`
	UsedAt     *time.Time `json:"used_at"`
}

func (t *ClaimToken) IsExpired() bool {
	return time.Now().UTC().After(t.ExpiresAt)
}

// DeviceSession is one authenticated device connection, created when a
// device presents valid credentials and refreshed by heartbeats.
type DeviceSession struct {
	DeviceID       string    `json:"device_id"`
	HashedDeviceID string    `json:"hashed_device_id"`
	Email          string    `json:"email"`
	StartedAt      time.Time `json:"started_at"`
	LastHeartbeat  time.Time `json:"last_heartbeat"`
}

func (d *DeviceRegistration) ToDocument() (map[string]interface{}, error) {
	return toDocument(d)
}

func DeviceFromDocument(doc map[string]interface{}) (*DeviceRegistration, error) {
	var d DeviceRegistration
	if err := fromDocument(doc, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (t *ClaimToken) ToDocument() (map[string]interface{}, error) {
	return toDocument(t)
}

func ClaimTokenFromDocument(doc map[string]interface{}) (*ClaimToken, error) {
	var t ClaimToken
	if err := fromDocument(doc, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *DeviceSession) ToDocument() (map[string]interface{}, error) {
	return toDocument(s)
}

func DeviceSessionFromDocument(doc map[string]interface{}) (*DeviceSession, error) {
	var s DeviceSession
	if err := fromDocument(doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
