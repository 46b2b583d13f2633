package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/glowcart/promotion-service/internal/domain"
	"github.com/glowcart/promotion-service/internal/repository"
	"github.com/glowcart/promotion-service/pkg/database"
	apperrors "github.com/glowcart/promotion-service/pkg/errors"
)

// PromotionRepository implements repository.PromotionRepository using PostgreSQL.
//
// Product membership is stored twice: denormalized in the promotions.products
// JSONB column for reads, and one row per product in promotion_products whose
// UNIQUE(product_id) constraint is the authoritative guard against a product
// being claimed by two promotions at once. Both are written in the same
// transaction.
type PromotionRepository struct {
	pool database.DBTX
}

// NewPromotionRepository creates a new PostgreSQL-backed promotion repository.
func NewPromotionRepository(pool database.DBTX) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

const promotionColumns = `id, kind, title, description, status, start_date, end_date, products, created_at, updated_at`

// Create inserts a new promotion and claims its products.
func (r *PromotionRepository) Create(ctx context.Context, p *domain.Promotion) error {
	productsJSON, err := json.Marshal(p.Products)
	if err != nil {
		return fmt.Errorf("marshal products: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create promotion: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO promotions (
			id, kind, title, description, status, start_date, end_date,
			products, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = tx.Exec(ctx, query,
		p.ID,
		p.Kind,
		p.Title,
		p.Description,
		p.Status,
		p.StartDate,
		p.EndDate,
		productsJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("promotion", "id", p.ID)
		}
		return fmt.Errorf("insert promotion: %w", err)
	}

	if err := r.claimProducts(ctx, tx, p.ID, p.ProductIDs()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create promotion: %w", err)
	}
	return nil
}

// GetByID retrieves a promotion by its ID.
func (r *PromotionRepository) GetByID(ctx context.Context, id string) (*domain.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`
	return r.scanPromotion(r.pool.QueryRow(ctx, query, id))
}

// List returns promotions matching the given filter with the total count.
func (r *PromotionRepository) List(ctx context.Context, filter repository.PromotionFilter) ([]domain.Promotion, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIndex))
		args = append(args, *filter.Kind)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.ActiveAt != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d AND end_date >= $%d", argIndex, argIndex))
		args = append(args, *filter.ActiveAt)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM promotions
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		promotionColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var (
		promotions []domain.Promotion
		totalCount int
	)

	for rows.Next() {
		var (
			p            domain.Promotion
			productsJSON []byte
		)

		if err := rows.Scan(
			&p.ID,
			&p.Kind,
			&p.Title,
			&p.Description,
			&p.Status,
			&p.StartDate,
			&p.EndDate,
			&productsJSON,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan promotion row: %w", err)
		}

		if err := unmarshalProducts(productsJSON, &p); err != nil {
			return nil, 0, err
		}

		promotions = append(promotions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate promotion rows: %w", err)
	}

	if promotions == nil {
		promotions = []domain.Promotion{}
	}

	return promotions, totalCount, nil
}

// ListActive returns all promotions whose inclusive date window covers the
// given instant.
func (r *PromotionRepository) ListActive(ctx context.Context, at time.Time) ([]domain.Promotion, error) {
	query := `
		SELECT ` + promotionColumns + `
		FROM promotions
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY start_date ASC`

	rows, err := r.pool.Query(ctx, query, at)
	if err != nil {
		return nil, fmt.Errorf("list active promotions: %w", err)
	}
	defer rows.Close()

	var promotions []domain.Promotion
	for rows.Next() {
		var (
			p            domain.Promotion
			productsJSON []byte
		)

		if err := rows.Scan(
			&p.ID,
			&p.Kind,
			&p.Title,
			&p.Description,
			&p.Status,
			&p.StartDate,
			&p.EndDate,
			&productsJSON,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan active promotion row: %w", err)
		}

		if err := unmarshalProducts(productsJSON, &p); err != nil {
			return nil, err
		}

		promotions = append(promotions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active promotion rows: %w", err)
	}

	if promotions == nil {
		promotions = []domain.Promotion{}
	}

	return promotions, nil
}

// Update persists the promotion and reconciles its product claims: claims no
// longer backed by an entry are released, new entries are claimed.
func (r *PromotionRepository) Update(ctx context.Context, p *domain.Promotion) error {
	productsJSON, err := json.Marshal(p.Products)
	if err != nil {
		return fmt.Errorf("marshal products: %w", err)
	}

	p.UpdatedAt = time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update promotion: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE promotions
		SET title = $1, description = $2, status = $3, start_date = $4,
		    end_date = $5, products = $6, updated_at = $7
		WHERE id = $8`

	ct, err := tx.Exec(ctx, query,
		p.Title,
		p.Description,
		p.Status,
		p.StartDate,
		p.EndDate,
		productsJSON,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update promotion: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promotion", p.ID)
	}

	productIDs := p.ProductIDs()

	releaseQuery := `
		DELETE FROM promotion_products
		WHERE promotion_id = $1 AND NOT (product_id = ANY($2))`
	if _, err := tx.Exec(ctx, releaseQuery, p.ID, productIDs); err != nil {
		return fmt.Errorf("release stale product claims: %w", err)
	}

	if err := r.claimProducts(ctx, tx, p.ID, productIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update promotion: %w", err)
	}
	return nil
}

// Delete removes a promotion and releases its product claims.
func (r *PromotionRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete promotion: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM promotion_products WHERE promotion_id = $1`, id); err != nil {
		return fmt.Errorf("release product claims: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("promotion", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete promotion: %w", err)
	}
	return nil
}

// claimProducts records ownership rows for every product in the promotion.
// Claims held by promotions whose window already ended are reaped first so an
// expired promotion never blocks a new one. A claim held by a different live
// promotion surfaces as a conflict.
func (r *PromotionRepository) claimProducts(ctx context.Context, tx pgx.Tx, promotionID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()

	reapQuery := `
		DELETE FROM promotion_products
		WHERE product_id = ANY($1)
		  AND promotion_id IN (SELECT id FROM promotions WHERE end_date < $2)`
	if _, err := tx.Exec(ctx, reapQuery, productIDs, now); err != nil {
		return fmt.Errorf("reap expired product claims: %w", err)
	}

	insertQuery := `
		INSERT INTO promotion_products (product_id, promotion_id, created_at)
		SELECT unnest($1::text[]), $2, $3
		ON CONFLICT (product_id) DO NOTHING`
	if _, err := tx.Exec(ctx, insertQuery, productIDs, promotionID, now); err != nil {
		return fmt.Errorf("claim products: %w", err)
	}

	// Any claim still held by another promotion means the insert lost the
	// race; the surrounding transaction rolls back. The owning promotion is
	// named so the caller gets the same conflict identity as the read-side
	// check.
	var (
		taken      string
		ownerID    string
		ownerKind  string
		ownerTitle string
	)
	err := tx.QueryRow(ctx, `
		SELECT pp.product_id, p.id, p.kind, p.title
		FROM promotion_products pp
		JOIN promotions p ON p.id = pp.promotion_id
		WHERE pp.product_id = ANY($1) AND pp.promotion_id <> $2
		LIMIT 1`, productIDs, promotionID).Scan(&taken, &ownerID, &ownerKind, &ownerTitle)
	if err == nil {
		return apperrors.PromotionConflict(taken, ownerID, ownerKind, ownerTitle)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("verify product claims: %w", err)
	}

	return nil
}

// scanPromotion scans a single promotion row.
func (r *PromotionRepository) scanPromotion(row pgx.Row) (*domain.Promotion, error) {
	var (
		p            domain.Promotion
		productsJSON []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Kind,
		&p.Title,
		&p.Description,
		&p.Status,
		&p.StartDate,
		&p.EndDate,
		&productsJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan promotion: %w", err)
	}

	if err := unmarshalProducts(productsJSON, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// unmarshalProducts decodes the JSONB products column, normalizing NULL to an
// empty slice.
func unmarshalProducts(data []byte, p *domain.Promotion) error {
	if data != nil {
		if err := json.Unmarshal(data, &p.Products); err != nil {
			return fmt.Errorf("unmarshal products: %w", err)
		}
	}
	if p.Products == nil {
		p.Products = []domain.ProductEntry{}
	}
	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
