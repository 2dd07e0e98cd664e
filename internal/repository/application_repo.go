package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/pkg/apperror"
)

// ApplicationFilter narrows application listings for dashboards and exports.
type ApplicationFilter struct {
	Status      *model.ApplicationStatus
	ForwardedTo *model.Department
	From        *time.Time
	To          *time.Time
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	// Save rewrites the whole row. Used when a cancelled application is reused
	// in place on resubmission.
	Save(ctx context.Context, app *model.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindByStudentID(ctx context.Context, studentID uuid.UUID) (*model.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]model.Application, error)

	// Forward moves a pending application to forwarded with a target
	// department and HR triage notes.
	Forward(ctx context.Context, id uuid.UUID, dept model.Department, notes string) error
	// RejectPending and CancelPending are HR triage actions on a pending
	// application.
	RejectPending(ctx context.Context, id uuid.UUID, notes string) error
	CancelPending(ctx context.Context, id uuid.UUID) error
	// CancelOwn lets a student withdraw their own pending application.
	CancelOwn(ctx context.Context, studentID uuid.UUID) error

	// Accept flips a forwarded application to accepted and reserves one slot
	// for the reviewing department in a single transaction. Returns
	// apperror.ErrNoSlotsRemaining (and rolls back the status flip) when the
	// ledger is exhausted.
	Accept(ctx context.Context, id uuid.UUID, dept model.Department, notes string) error
	// Reject flips a forwarded application to rejected. No capacity check.
	Reject(ctx context.Context, id uuid.UUID, dept model.Department, notes string) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepository) Save(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.Profile").
		Where("id = ?", id).
		First(&app).Error; err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) FindByStudentID(ctx context.Context, studentID uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&app).Error; err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]model.Application, error) {
	query := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.Profile").
		Order("created_at desc")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ForwardedTo != nil {
		query = query.Where("forwarded_to = ?", *filter.ForwardedTo)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var apps []model.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *applicationRepository) Forward(ctx context.Context, id uuid.UUID, dept model.Department, notes string) error {
	updates := map[string]interface{}{
		"status":       model.StatusForwarded,
		"forwarded_to": dept,
	}
	if notes != "" {
		updates["hr_notes"] = notes
	}

	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}

	return nil
}

func (r *applicationRepository) RejectPending(ctx context.Context, id uuid.UUID, notes string) error {
	updates := map[string]interface{}{"status": model.StatusRejected}
	if notes != "" {
		updates["hr_notes"] = notes
	}

	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}

	return nil
}

func (r *applicationRepository) CancelPending(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Update("status", model.StatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}

	return nil
}

func (r *applicationRepository) CancelOwn(ctx context.Context, studentID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("student_id = ? AND status = ?", studentID, model.StatusPending).
		Update("status", model.StatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}

	return nil
}

func (r *applicationRepository) Accept(ctx context.Context, id uuid.UUID, dept model.Department, notes string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.decide(tx, id, dept, model.StatusAccepted, notes); err != nil {
			return err
		}

		// Decrement-if-positive; a zero-row update means the last slot was
		// taken and rolls back the status flip above.
		return reserveSlot(tx, dept)
	})
}

func (r *applicationRepository) Reject(ctx context.Context, id uuid.UUID, dept model.Department, notes string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.decide(tx, id, dept, model.StatusRejected, notes)
	})
}

func (r *applicationRepository) decide(tx *gorm.DB, id uuid.UUID, dept model.Department, status model.ApplicationStatus, notes string) error {
	notesColumn, ok := notesColumns[dept]
	if !ok {
		return apperror.ErrInvalidDepartment
	}

	updates := map[string]interface{}{"status": status}
	if notes != "" {
		updates[notesColumn] = notes
	}

	res := tx.Model(&model.Application{}).
		Where("id = ? AND status = ? AND forwarded_to = ?", id, model.StatusForwarded, dept).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}

	return nil
}
