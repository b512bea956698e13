package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"voice-journal/backend/internal/models"
)

type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	DeviceID   string `json:"did"`
	DeviceName string `json:"name"`
	CSRF       string `json:"csrf"`
	jwt.RegisteredClaims
}

// Device is the authenticated caller.
type Device struct {
	ID   string
	Name string
	CSRF string
}

func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

func (s *Service) GenerateToken(device models.Device, csrf string) (string, error) {
	now := time.Now()
	claims := Claims{
		DeviceID:   device.ID,
		DeviceName: device.Name,
		CSRF:       csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   device.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) ParseToken(token string) (Device, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Device{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.DeviceID == "" {
		return Device{}, errors.New("invalid token")
	}
	return Device{ID: claims.DeviceID, Name: claims.DeviceName, CSRF: claims.CSRF}, nil
}

func GenerateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type ctxKey struct{}

func WithDevice(ctx context.Context, device Device) context.Context {
	return context.WithValue(ctx, ctxKey{}, device)
}

func DeviceFromContext(ctx context.Context) (Device, bool) {
	device, ok := ctx.Value(ctxKey{}).(Device)
	return device, ok
}
