// Package secrets выпускает и проверяет API-токены management API.
// Формат токена: wgt_<keyid>_<secret>, в хранилище лежит только argon2-хэш секрета.
package secrets

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"wgnst/internal/models"
	"wgnst/internal/repo"
)

const (
	TokenPrefix = "wgt"
	keyIDBytes  = 6  // 12 hex-символов
	secretBytes = 32 // 64 hex-символа
)

var ErrInvalidToken = errors.New("invalid api token")

type Service struct {
	Store repo.Tokens
	now   func() time.Time
}

func New(store repo.Tokens) *Service {
	return &Service{Store: store, now: func() time.Time { return time.Now().UTC() }}
}

func hash(keyID string, secret []byte) []byte {
	return argon2.IDKey(secret, []byte("wgnst-api:"+keyID), 1, 64*1024, 1, 32)
}

// Issue создаёт токен и возвращает его целиком. Повторно получить его нельзя.
func (s *Service) Issue(ctx context.Context, name, subject string) (string, *models.APIToken, error) {
	var raw [keyIDBytes + secretBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", nil, fmt.Errorf("read random: %w", err)
	}
	keyID := hex.EncodeToString(raw[:keyIDBytes])
	secret := raw[keyIDBytes:]

	t := &models.APIToken{
		Name:       name,
		Subject:    subject,
		KeyID:      keyID,
		SecretHash: hash(keyID, secret),
		CreatedAt:  s.now(),
	}
	if err := s.Store.CreateToken(ctx, t); err != nil {
		return "", nil, err
	}
	return TokenPrefix + "_" + keyID + "_" + hex.EncodeToString(secret), t, nil
}

// Parse разбирает строку токена на key id и секрет.
func Parse(token string) (keyID string, secret []byte, err error) {
	parts := strings.SplitN(token, "_", 3)
	if len(parts) != 3 || parts[0] != TokenPrefix || len(parts[1]) != keyIDBytes*2 {
		return "", nil, ErrInvalidToken
	}
	if _, err := hex.DecodeString(parts[1]); err != nil {
		return "", nil, ErrInvalidToken
	}
	secret, err = hex.DecodeString(parts[2])
	if err != nil || len(secret) != secretBytes {
		return "", nil, ErrInvalidToken
	}
	return parts[1], secret, nil
}

// IsToken: строка похожа на API-токен (а не на JWT).
func IsToken(s string) bool { return strings.HasPrefix(s, TokenPrefix+"_") }

func Verify(keyID string, secretHash, candidate []byte) bool {
	return subtle.ConstantTimeCompare(hash(keyID, candidate), secretHash) == 1
}

// Authenticate проверяет токен и возвращает его владельца.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.APIToken, error) {
	keyID, secret, err := Parse(token)
	if err != nil {
		return nil, err
	}
	t, err := s.Store.GetActiveToken(ctx, keyID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !Verify(keyID, t.SecretHash, secret) {
		return nil, ErrInvalidToken
	}
	_ = s.Store.TouchToken(ctx, t.ID, s.now())
	return t, nil
}

func (s *Service) Revoke(ctx context.Context, keyID string) error {
	return s.Store.RevokeToken(ctx, keyID)
}
