package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/golang-jwt/jwt/v5"
)

type JWTService struct {
	appContext.DefaultService

	secret []byte
	ttl    time.Duration
}

const JWT_SVC = "jwt_svc"

// DeviceClaims is the token payload a device carries after
// authenticating: its id, the short hash used as its public handle, and
// the owning account's email.
type DeviceClaims struct {
	DeviceID       string `json:"device_id"`
	HashedDeviceID string `json:"hashed_device_id"`
	Email          string `json:"email"`
	jwt.RegisteredClaims
}

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *appContext.Context) error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	svc.secret = []byte(secret)
	svc.ttl = 24 * time.Hour

	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	return nil
}

func (svc *JWTService) GenerateDeviceToken(deviceID, hashedDeviceID, email string) (string, time.Time, error) {
	expiresAt := time.Now().UTC().Add(svc.ttl)
	claims := DeviceClaims{
		DeviceID:       deviceID,
		HashedDeviceID: hashedDeviceID,
		Email:          email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   deviceID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(svc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (svc *JWTService) VerifyDeviceToken(tokenString string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return svc.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func ExtractTokenFromHeader(authHeader string) string {
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
