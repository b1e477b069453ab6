package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"storymagic-api/internal/domain/entity"
)

// SubscriptionTierRepository 订阅套餐仓储实现
type SubscriptionTierRepository struct {
	client *Client
}

// NewSubscriptionTierRepository 创建套餐仓储
func NewSubscriptionTierRepository(client *Client) *SubscriptionTierRepository {
	return &SubscriptionTierRepository{client: client}
}

// List 按价格升序返回全部套餐
func (r *SubscriptionTierRepository) List(ctx context.Context) ([]*entity.SubscriptionTier, error) {
	ctx, span := tracer.Start(ctx, "postgres.SubscriptionTierRepository.List")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, name, description, features, story_limit, continuation_limit, price_cents, created_at, updated_at
		FROM subscription_tiers
		ORDER BY price_cents ASC
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []*entity.SubscriptionTier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

// GetByID 根据 ID 获取套餐
func (r *SubscriptionTierRepository) GetByID(ctx context.Context, id string) (*entity.SubscriptionTier, error) {
	ctx, span := tracer.Start(ctx, "postgres.SubscriptionTierRepository.GetByID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, name, description, features, story_limit, continuation_limit, price_cents, created_at, updated_at
		FROM subscription_tiers
		WHERE id = $1
	`

	var tier entity.SubscriptionTier
	var storyLimit, contLimit sql.NullInt64
	var featuresJSON []byte

	err := q.QueryRowContext(ctx, query, id).Scan(
		&tier.ID, &tier.Name, &tier.Description, &featuresJSON, &storyLimit, &contLimit, &tier.PriceCents,
		&tier.CreatedAt, &tier.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}

	json.Unmarshal(featuresJSON, &tier.Features)
	applyLimits(&tier, storyLimit, contLimit)
	return &tier, nil
}

// Upsert 按 ID 写入套餐
func (r *SubscriptionTierRepository) Upsert(ctx context.Context, tier *entity.SubscriptionTier) error {
	ctx, span := tracer.Start(ctx, "postgres.SubscriptionTierRepository.Upsert")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		INSERT INTO subscription_tiers (id, name, description, features, story_limit, continuation_limit, price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			story_limit = EXCLUDED.story_limit,
			continuation_limit = EXCLUDED.continuation_limit,
			price_cents = EXCLUDED.price_cents,
			updated_at = NOW()
	`

	featuresJSON, _ := json.Marshal(tier.Features)
	_, err := q.ExecContext(ctx, query,
		tier.ID, tier.Name, tier.Description, featuresJSON,
		nullInt(tier.StoryLimit), nullInt(tier.ContinuationLimit), tier.PriceCents,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert tier: %w", err)
	}
	return nil
}

func scanTier(rows *sql.Rows) (*entity.SubscriptionTier, error) {
	var tier entity.SubscriptionTier
	var storyLimit, contLimit sql.NullInt64
	var featuresJSON []byte

	if err := rows.Scan(
		&tier.ID, &tier.Name, &tier.Description, &featuresJSON, &storyLimit, &contLimit, &tier.PriceCents,
		&tier.CreatedAt, &tier.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan tier: %w", err)
	}

	json.Unmarshal(featuresJSON, &tier.Features)
	applyLimits(&tier, storyLimit, contLimit)
	return &tier, nil
}

func applyLimits(tier *entity.SubscriptionTier, storyLimit, contLimit sql.NullInt64) {
	if storyLimit.Valid {
		n := int(storyLimit.Int64)
		tier.StoryLimit = &n
	}
	if contLimit.Valid {
		n := int(contLimit.Int64)
		tier.ContinuationLimit = &n
	}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
