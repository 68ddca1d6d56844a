package attendance

import (
	"context"
	"database/sql"
	"time"

	"go-leave/internal/shared/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListFilter struct {
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *AttendanceLog) error
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*AttendanceLog, error)
	FindOpenForUpdate(ctx context.Context, userID uuid.UUID) (*AttendanceLog, error)
	Close(ctx context.Context, id uuid.UUID, clockOut time.Time, durationMinutes int64) error
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]AttendanceLog, int64, error)
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

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, a *AttendanceLog) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*AttendanceLog, error) {
	var a AttendanceLog
	err := r.conn(ctx).
		Where("user_id = ? AND clock_out IS NULL", userID).
		First(&a).Error
	return &a, err
}

func (r *repository) FindOpenForUpdate(ctx context.Context, userID uuid.UUID) (*AttendanceLog, error) {
	var a AttendanceLog
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND clock_out IS NULL", userID).
		First(&a).Error
	return &a, err
}

// Close only matches a still open row, so a concurrent close loses with
// gorm.ErrRecordNotFound instead of overwriting.
func (r *repository) Close(ctx context.Context, id uuid.UUID, clockOut time.Time, durationMinutes int64) error {
	res := r.conn(ctx).
		Model(&AttendanceLog{}).
		Where("id = ? AND clock_out IS NULL", id).
		Updates(map[string]any{
			"clock_out":        clockOut,
			"duration_minutes": durationMinutes,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]AttendanceLog, int64, error) {
	db := r.conn(ctx).Model(&AttendanceLog{})
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		db = db.Where("clock_in >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("clock_in < ?", *filter.To)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AttendanceLog
	err := db.
		Order(page.OrderClause()).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&rows).Error
	return rows, total, err
}
