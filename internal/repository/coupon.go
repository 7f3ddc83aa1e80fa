package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/zellijstore/commerce/internal/domain/coupon"
)

const (
	selectCouponColumns = `id, code, description, discount_percentage, minimum_order_amount,
		valid_from, valid_until, usage_limit, times_used, active, require_confirmed_email, created_at`

	findCouponByCodeSQL = `SELECT ` + selectCouponColumns + ` FROM coupons
		WHERE UPPER(code) = UPPER($1)`

	couponHasUsageSQL = `SELECT EXISTS (
		SELECT 1 FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2)`

	listActiveCouponsSQL = `SELECT ` + selectCouponColumns + ` FROM coupons
		WHERE active AND valid_from <= $1 AND valid_until >= $1
		AND (usage_limit IS NULL OR times_used < usage_limit)
		ORDER BY code`

	insertCouponSQL = `INSERT INTO coupons (code, description, discount_percentage,
		minimum_order_amount, valid_from, valid_until, usage_limit, active, require_confirmed_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ((UPPER(code))) DO NOTHING`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository reads coupons outside the checkout transaction, for the
// preview endpoint and the promotions list. Lookups never lock rows here;
// only the checkout path does.
type CouponRepository struct {
	db dbtx
}

// NewCouponRepository returns a CouponRepository using the given connection.
func NewCouponRepository(db dbtx) *CouponRepository {
	return &CouponRepository{db: db}
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, findCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon: %w", err)
	}
	return &c, nil
}

func (r *CouponRepository) HasUsage(ctx context.Context, couponID int64, userID string) (bool, error) {
	var used bool
	if err := r.db.QueryRow(ctx, couponHasUsageSQL, couponID, userID).Scan(&used); err != nil {
		return false, fmt.Errorf("checking coupon usage: %w", err)
	}
	return used, nil
}

func (r *CouponRepository) ListActive(ctx context.Context, now time.Time) ([]coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, listActiveCouponsSQL, now)
	if err != nil {
		return nil, fmt.Errorf("listing active coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Insert creates a coupon, skipping codes that already exist. It reports
// whether a row was written, so bulk loaders can count duplicates.
func (r *CouponRepository) Insert(ctx context.Context, c coupon.Coupon) (bool, error) {
	tag, err := r.db.Exec(ctx, insertCouponSQL,
		c.Code, c.Description, c.DiscountPercentage, c.MinimumOrderAmount,
		c.ValidFrom, c.ValidUntil, c.UsageLimit, c.Active, c.RequireConfirmedEmail)
	if err != nil {
		return false, fmt.Errorf("inserting coupon %s: %w", c.Code, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountPercentage, &c.MinimumOrderAmount,
		&c.ValidFrom, &c.ValidUntil, &c.UsageLimit, &c.TimesUsed, &c.Active,
		&c.RequireConfirmedEmail, &c.CreatedAt,
	)
	return c, err
}
