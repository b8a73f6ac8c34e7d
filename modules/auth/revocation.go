package auth

import (
	"errors"
	"fmt"
	"time"

	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
)

// RevokedTokensBucket is the KV bucket holding revoked token ids.
const RevokedTokensBucket = "revoked-tokens"

// tokenBucket is the subset of kvjetstream.KVStoragePort the revocation
// list needs.
type tokenBucket interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// RevocationList records token ids that must no longer be accepted.
type RevocationList interface {
	Revoke(tokenID string, ttl time.Duration) error
	IsRevoked(tokenID string) (bool, error)
}

// KVRevocationList stores revoked token ids in a JetStream KV bucket. Entries
// expire once the token itself would have expired.
type KVRevocationList struct {
	bucket tokenBucket
}

// NewKVRevocationList creates a revocation list over bucket.
func NewKVRevocationList(bucket tokenBucket) *KVRevocationList {
	return &KVRevocationList{bucket: bucket}
}

// Revoke marks tokenID as revoked for ttl.
func (l *KVRevocationList) Revoke(tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return ErrInvalidToken
	}
	if ttl <= 0 {
		return nil
	}
	if err := l.bucket.Set(tokenID, []byte(time.Now().UTC().Format(time.RFC3339)), ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked. A missing key comes back
// from the bucket as a nil value.
func (l *KVRevocationList) IsRevoked(tokenID string) (bool, error) {
	data, err := l.bucket.Get(tokenID)
	if err != nil {
		if errors.Is(err, kvjetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return data != nil, nil
}
