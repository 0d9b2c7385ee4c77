package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	apiKeyPrefix    = "apikey:"
	apiKeySecretLen = 32
)

// APIKeyStore stores and validates API keys.
type APIKeyStore interface {
	ValidateKey(ctx context.Context, key string) (*APIKeyInfo, error)
	CreateKey(ctx context.Context, info APIKeyInfo) (string, error)
	RevokeKey(ctx context.Context, keyID string) error
}

// APIKeyInfo contains metadata about an API key. Only the SHA-256 hash of
// the key itself is ever stored.
type APIKeyInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	KeyHash   string `json:"key_hash"`
	OwnerID   string `json:"owner_id"`
	Role      Role   `json:"role"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // 0 = never expires
}

// RedisAPIKeyStore is a Redis-backed API key store. It shares the queue's
// Redis connection.
type RedisAPIKeyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAPIKeyStore(client *redis.Client) *RedisAPIKeyStore {
	return &RedisAPIKeyStore{
		client: client,
		ttl:    24 * time.Hour,
	}
}

// ValidateKey checks if an API key is valid and returns its info.
func (s *RedisAPIKeyStore) ValidateKey(ctx context.Context, key string) (*APIKeyInfo, error) {
	keyHash := hashKey(key)

	data, err := s.client.Get(ctx, apiKeyPrefix+keyHash).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to lookup key: %w", err)
	}

	var info APIKeyInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key info: %w", err)
	}

	if info.ExpiresAt > 0 && info.ExpiresAt < time.Now().Unix() {
		return nil, ErrExpiredToken
	}
	return &info, nil
}

// CreateKey stores a new API key and returns the plaintext key, shown once.
func (s *RedisAPIKeyStore) CreateKey(ctx context.Context, info APIKeyInfo) (string, error) {
	secret := make([]byte, apiKeySecretLen)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	// Format: hk_<hex-encoded-secret>
	plainKey := "hk_" + hex.EncodeToString(secret)

	info.KeyHash = hashKey(plainKey)
	info.CreatedAt = time.Now().Unix()
	if info.ID == "" {
		idBytes := make([]byte, 8)
		_, _ = rand.Read(idBytes)
		info.ID = "key_" + hex.EncodeToString(idBytes)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to marshal key info: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, apiKeyPrefix+info.KeyHash, data, s.ttl)
	pipe.Set(ctx, apiKeyPrefix+"id:"+info.ID, info.KeyHash, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store key: %w", err)
	}

	return plainKey, nil
}

// RevokeKey removes an API key.
func (s *RedisAPIKeyStore) RevokeKey(ctx context.Context, keyID string) error {
	keyHash, err := s.client.Get(ctx, apiKeyPrefix+"id:"+keyID).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to lookup key: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, apiKeyPrefix+keyHash)
	pipe.Del(ctx, apiKeyPrefix+"id:"+keyID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}
	return nil
}

func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
