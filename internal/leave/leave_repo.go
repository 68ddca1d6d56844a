package leave

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
	UserID    *uuid.UUID
	Status    string
	StartFrom *time.Time
	EndUntil  *time.Time
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetExternalEventID(ctx context.Context, id uuid.UUID, eventID string) error
	HasOverlap(ctx context.Context, userID, policyID uuid.UUID, startDate, endDate time.Time, excludeID *uuid.UUID) (bool, error)
	CreateAudit(ctx context.Context, a *LeaveAudit) error
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]LeaveRequest, int64, error)
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

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Omit("Policy").Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Preload("Policy").
		First(&l, "id = ?", id).Error
	return &l, err
}

// FindByIDForUpdate holds a row lock on the request until the transaction
// ends, which serializes concurrent transitions.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetExternalEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	return r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"external_calendar_event_id": eventID,
			"updated_at":                 time.Now().UTC(),
		}).Error
}

// HasOverlap looks for PENDING or APPROVED requests of the same user and
// policy whose inclusive range intersects [startDate, endDate].
func (r *repository) HasOverlap(ctx context.Context, userID, policyID uuid.UUID, startDate, endDate time.Time, excludeID *uuid.UUID) (bool, error) {
	db := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("user_id = ?", userID).
		Where("policy_id = ?", policyID).
		Where("status IN ?", []string{StatusPending, StatusApproved}).
		Where("start_date <= ? AND end_date >= ?", endDate, startDate)

	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateAudit(ctx context.Context, a *LeaveAudit) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]LeaveRequest, int64, error) {
	db := r.conn(ctx).Model(&LeaveRequest{})
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.StartFrom != nil {
		db = db.Where("start_date >= ?", *filter.StartFrom)
	}
	if filter.EndUntil != nil {
		db = db.Where("end_date <= ?", *filter.EndUntil)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []LeaveRequest
	err := db.
		Preload("Policy").
		Order(page.OrderClause()).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&rows).Error
	return rows, total, err
}
