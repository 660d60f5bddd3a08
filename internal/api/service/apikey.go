package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
	"github.com/sneakdex/sneakdex-api/internal/api/metrics"
	"github.com/sneakdex/sneakdex-api/internal/api/store"
	"github.com/sneakdex/sneakdex-api/pkg/cryptox"
	"github.com/sneakdex/sneakdex-api/pkg/slogx"
)

var ErrKeyNotFound = errors.New("api key not found")

// DefaultKeyPrefix is the recognizable literal prepended to every issued
// key, so keys are self-identifying in logs and UIs without revealing
// structure.
const DefaultKeyPrefix = "sk_live_"

type KeyService struct {
	Store   store.Store
	Prefix  string           // optional; DefaultKeyPrefix when empty
	Metrics *metrics.Metrics // optional
}

func (s *KeyService) KeyPrefix() string {
	if s.Prefix != "" {
		return s.Prefix
	}
	return DefaultKeyPrefix
}

// Issue generates a new API key for a catalog entry and persists its
// fingerprint. The returned IssuedKey carries the plaintext secret; this is
// the only time it exists outside the caller's hands. It is never logged
// and never stored.
//
// Issuance is not idempotent, so store failures are surfaced as-is and
// never retried here: a blind retry would mint a second key.
func (s *KeyService) Issue(ctx context.Context, meta domain.KeyMetadata) (domain.IssuedKey, error) {
	log := slogx.FromContext(ctx)

	// Validation happens before any store mutation.
	if err := meta.Validate(); err != nil {
		return domain.IssuedKey{}, err
	}

	secret, err := cryptox.GenerateSecret(cryptox.SecretSize192)
	if err != nil {
		log.Error("failed to generate key secret", "error", err)
		return domain.IssuedKey{}, err
	}

	key := s.KeyPrefix() + secret
	last4 := key[len(key)-4:]
	id := uuid.NewString()

	apiKey := domain.APIKey{
		ID:        id,
		HashedKey: cryptox.Fingerprint(key),
		Last4:     last4,
		Metadata:  meta,
		Revoked:   false,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.APIKeys().CreateKey(ctx, apiKey); err != nil {
		log.Error("failed to persist api key", "error", err, "key_id", id)
		return domain.IssuedKey{}, err
	}

	s.Metrics.KeyIssued()
	log.Info("api key issued",
		"key_id", id,
		"masked", apiKey.Masked(s.KeyPrefix()),
		"brand", meta.Brand,
		"category", meta.Category,
	)

	return domain.IssuedKey{
		ID:       id,
		Key:      key,
		Last4:    last4,
		Metadata: meta,
	}, nil
}

// Verify checks a candidate key by fingerprinting it and looking the
// fingerprint up with exact equality. Revocation is monotonic: once a key
// verifies as revoked it stays revoked on every later call.
func (s *KeyService) Verify(ctx context.Context, candidate string) (domain.KeyVerification, error) {
	log := slogx.FromContext(ctx)

	k, err := s.Store.APIKeys().GetKeyByHash(ctx, cryptox.Fingerprint(candidate))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.KeyVerification("not_found")
			return domain.KeyVerification{Valid: false, Reason: domain.ReasonNotFound}, nil
		}
		s.Metrics.KeyVerification("error")
		log.Error("key verification lookup failed", "error", err)
		return domain.KeyVerification{}, err
	}

	if k.Revoked {
		s.Metrics.KeyVerification("revoked")
		return domain.KeyVerification{Valid: false, Reason: domain.ReasonRevoked}, nil
	}

	s.Metrics.KeyVerification("valid")
	return domain.KeyVerification{Valid: true, KeyID: k.ID}, nil
}

// Revoke marks a key as revoked. It reports whether a row actually changed:
// revoking an already-revoked key is safe but returns false. Unknown ids
// return ErrKeyNotFound. Key rows are never deleted, so the masked entry
// stays visible in listings.
func (s *KeyService) Revoke(ctx context.Context, id string) (bool, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.Store.APIKeys().GetKeyByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrKeyNotFound
		}
		return false, err
	}

	affected, err := s.Store.APIKeys().RevokeKey(ctx, id)
	if err != nil {
		log.Error("failed to revoke api key", "error", err, "key_id", id)
		return false, err
	}

	if affected {
		s.Metrics.KeyRevoked()
		log.Info("api key revoked", "key_id", id)
	}
	return affected, nil
}

// List returns every issued key, newest first, for masked display.
func (s *KeyService) List(ctx context.Context) ([]domain.APIKey, error) {
	return s.Store.APIKeys().ListKeys(ctx)
}

// Get returns a single key by id.
func (s *KeyService) Get(ctx context.Context, id string) (domain.APIKey, error) {
	k, err := s.Store.APIKeys().GetKeyByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.APIKey{}, ErrKeyNotFound
		}
		return domain.APIKey{}, err
	}
	return k, nil
}

// SearchByBrand returns catalog entries whose brand matches exactly.
func (s *KeyService) SearchByBrand(ctx context.Context, brand string) ([]domain.APIKey, error) {
	return s.Store.APIKeys().SearchKeysByBrand(ctx, brand)
}
