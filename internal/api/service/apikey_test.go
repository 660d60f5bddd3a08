package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
	"github.com/sneakdex/sneakdex-api/internal/api/store/drivers/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func sneakerMetadata() domain.KeyMetadata {
	return domain.KeyMetadata{
		Category: "Sneakers",
		Brand:    "Nike",
		Model:    "Air Max",
		Size:     "10",
		Price:    150,
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := &KeyService{Store: newTestStore(t)}

	issued, err := svc.Issue(ctx, sneakerMetadata())
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)
	require.True(t, strings.HasPrefix(issued.Key, DefaultKeyPrefix))
	require.Equal(t, issued.Key[len(issued.Key)-4:], issued.Last4)

	verification, err := svc.Verify(ctx, issued.Key)
	require.NoError(t, err)
	require.True(t, verification.Valid)
	require.Equal(t, issued.ID, verification.KeyID)
}

func TestVerifyUnknownKey(t *testing.T) {
	ctx := context.Background()
	svc := &KeyService{Store: newTestStore(t)}

	verification, err := svc.Verify(ctx, "sk_live_never-issued")
	require.NoError(t, err)
	require.False(t, verification.Valid)
	require.Equal(t, domain.ReasonNotFound, verification.Reason)
}

func TestRevokeIsMonotonic(t *testing.T) {
	ctx := context.Background()
	svc := &KeyService{Store: newTestStore(t)}

	issued, err := svc.Issue(ctx, sneakerMetadata())
	require.NoError(t, err)

	affected, err := svc.Revoke(ctx, issued.ID)
	require.NoError(t, err)
	require.True(t, affected)

	// A second revocation is safe but reports no row changed.
	affected, err = svc.Revoke(ctx, issued.ID)
	require.NoError(t, err)
	require.False(t, affected)

	// Every later verification sees the revocation.
	for range 3 {
		verification, err := svc.Verify(ctx, issued.Key)
		require.NoError(t, err)
		require.False(t, verification.Valid)
		require.Equal(t, domain.ReasonRevoked, verification.Reason)
	}
}

func TestRevokeUnknownKey(t *testing.T) {
	ctx := context.Background()
	svc := &KeyService{Store: newTestStore(t)}

	_, err := svc.Revoke(ctx, "no-such-id")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestIssueValidatesMetadataBeforeMutation(t *testing.T) {
	ctx := context.Background()
	svc := &KeyService{Store: newTestStore(t)}

	bad := sneakerMetadata()
	bad.Price = 0

	_, err := svc.Issue(ctx, bad)
	require.ErrorIs(t, err, domain.ErrInvalidMetadata)

	keys, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestListNewestFirstWithMaskedDisplay(t *testing.T) {
	ctx := context.Background()
	svc := &KeyService{Store: newTestStore(t)}

	first, err := svc.Issue(ctx, sneakerMetadata())
	require.NoError(t, err)

	second := sneakerMetadata()
	second.Brand = "Adidas"
	second.Model = "Samba"
	latest, err := svc.Issue(ctx, second)
	require.NoError(t, err)

	keys, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, latest.ID, keys[0].ID)
	require.Equal(t, first.ID, keys[1].ID)

	require.Equal(t, DefaultKeyPrefix+"..."+latest.Last4, keys[0].Masked(svc.KeyPrefix()))
	for _, key := range keys {
		// The stored form never contains the plaintext.
		require.NotContains(t, key.HashedKey, DefaultKeyPrefix)
	}
}

func TestSearchByBrand(t *testing.T) {
	ctx := context.Background()
	svc := &KeyService{Store: newTestStore(t)}

	meta := sneakerMetadata()
	_, err := svc.Issue(ctx, meta)
	require.NoError(t, err)

	phones := domain.KeyMetadata{
		Category: "Phones",
		Brand:    "Samsung",
		Model:    "Galaxy S24",
		Price:    899,
		Attrs:    map[string]string{"storage": "256GB"},
	}
	_, err = svc.Issue(ctx, phones)
	require.NoError(t, err)

	results, err := svc.SearchByBrand(ctx, "Nike")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Air Max", results[0].Metadata.Model)

	results, err = svc.SearchByBrand(ctx, "Puma")
	require.NoError(t, err)
	require.Empty(t, results)
}
