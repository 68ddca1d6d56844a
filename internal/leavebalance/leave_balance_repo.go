package leavebalance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindActivePolicies(ctx context.Context) ([]LeavePolicy, error)
	FindPolicyByID(ctx context.Context, id uuid.UUID) (*LeavePolicy, error)
	SeedDefaults(ctx context.Context, userID uuid.UUID, year int, policies []LeavePolicy) error
	FindByUserAndYear(ctx context.Context, userID uuid.UUID, year int) ([]LeaveBalance, error)
	FindForUpdate(ctx context.Context, userID, policyID uuid.UUID, year int) (*LeaveBalance, error)
	Adjust(ctx context.Context, userID, policyID uuid.UUID, year int, delta decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn runs statements on the service owned transaction when one is bound.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) FindActivePolicies(ctx context.Context) ([]LeavePolicy, error) {
	var policies []LeavePolicy
	err := r.conn(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&policies).Error
	return policies, err
}

func (r *repository) FindPolicyByID(ctx context.Context, id uuid.UUID) (*LeavePolicy, error) {
	var p LeavePolicy
	err := r.conn(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

// SeedDefaults inserts one row per policy at its annual limit. Rows that
// already exist are left untouched, so concurrent seeders converge.
func (r *repository) SeedDefaults(ctx context.Context, userID uuid.UUID, year int, policies []LeavePolicy) error {
	if len(policies) == 0 {
		return nil
	}

	rows := make([]LeaveBalance, len(policies))
	for i, p := range policies {
		rows[i] = LeaveBalance{
			ID:          uuid.New(),
			UserID:      userID,
			PolicyID:    p.ID,
			Year:        year,
			BalanceDays: p.AnnualLimit,
		}
	}

	return r.conn(ctx).
		Omit("Policy").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "policy_id"}, {Name: "year"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *repository) FindByUserAndYear(ctx context.Context, userID uuid.UUID, year int) ([]LeaveBalance, error) {
	var rows []LeaveBalance
	err := r.conn(ctx).
		Preload("Policy").
		Where("user_id = ? AND year = ?", userID, year).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindForUpdate(ctx context.Context, userID, policyID uuid.UUID, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND policy_id = ? AND year = ?", userID, policyID, year).
		First(&b).Error
	return &b, err
}

// Adjust adds delta to the balance. Debits pass a negative delta. No
// clamping is applied.
func (r *repository) Adjust(ctx context.Context, userID, policyID uuid.UUID, year int, delta decimal.Decimal) error {
	res := r.conn(ctx).
		Model(&LeaveBalance{}).
		Where("user_id = ? AND policy_id = ? AND year = ?", userID, policyID, year).
		Updates(map[string]any{
			"balance_days": gorm.Expr("balance_days + ?", delta),
			"updated_at":   gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
