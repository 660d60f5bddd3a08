package sqlite

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/sneakdex/sneakdex-api/internal/api/domain"
)

type apiKeysRepo struct {
	q sqlx.ExtContext
}

const apiKeyColumns = `id, hashed_key, last4, metadata, revoked, created_at`

func (r *apiKeysRepo) CreateKey(ctx context.Context, k domain.APIKey) error {
	meta, err := json.Marshal(k.Metadata)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO api_keys (id, hashed_key, last4, metadata, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		k.ID, k.HashedKey, k.Last4, meta, k.Revoked, k.CreatedAt.UTC(),
	)
	return err
}

func (r *apiKeysRepo) GetKeyByID(ctx context.Context, id string) (domain.APIKey, error) {
	var row apiKeyRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return domain.APIKey{}, mapNotFound(err)
	}
	return mapAPIKey(row)
}

func (r *apiKeysRepo) GetKeyByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	var row apiKeyRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT `+apiKeyColumns+` FROM api_keys WHERE hashed_key = ?`, hash)
	if err != nil {
		return domain.APIKey{}, mapNotFound(err)
	}
	return mapAPIKey(row)
}

func (r *apiKeysRepo) ListKeys(ctx context.Context) ([]domain.APIKey, error) {
	var rows []apiKeyRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return mapAPIKeys(rows)
}

func (r *apiKeysRepo) RevokeKey(ctx context.Context, id string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE api_keys SET revoked = 1 WHERE id = ? AND revoked = 0`, id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *apiKeysRepo) SearchKeysByBrand(ctx context.Context, brand string) ([]domain.APIKey, error) {
	var rows []apiKeyRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT `+apiKeyColumns+` FROM api_keys
		WHERE json_extract(metadata, '$.brand') = ?
		ORDER BY created_at DESC, id DESC`, brand)
	if err != nil {
		return nil, err
	}
	return mapAPIKeys(rows)
}
