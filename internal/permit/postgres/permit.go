package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	permitDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/permit"
	timeentryDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/timeentry"
	"github.com/frahmantamala/permit-to-work/internal/permit"
)

// PermitRepository implements permit.RepositoryAPI using GORM
type PermitRepository struct {
	db *gorm.DB
}

func NewPermitRepository(db *gorm.DB) *PermitRepository {
	return &PermitRepository{db: db}
}

var _ permit.RepositoryAPI = (*PermitRepository)(nil)

func approverRoleNames() []string {
	names := make([]string, 0, len(auth.ApproverRoles))
	for _, r := range auth.ApproverRoles {
		names = append(names, string(r))
	}
	return names
}

func workingStatuses() []string {
	return []string{string(permit.DayStatusWorking), string(permit.DayStatusPaused)}
}

// approvedTodayCount is a correlated subquery counting the approver slots of
// the outer permits row dated day.
func (r *PermitRepository) approvedTodayCount(db *gorm.DB, day string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&permitDatamodel.Approval{}).
		Select("COUNT(*)").
		Where("permit_approvals.permit_id = permits.id AND permit_approvals.approved_on = ? AND permit_approvals.role IN ?",
			day, approverRoleNames())
}

func (r *PermitRepository) Create(ctx context.Context, p *permit.Permit) error {
	row := permit.ToDataModel(p)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	p.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *PermitRepository) GetByID(ctx context.Context, id int64) (*permit.Permit, error) {
	var row permitDatamodel.Permit
	err := r.db.WithContext(ctx).
		Preload("Approvals").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("approved_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permit.ErrPermitNotFound
		}
		return nil, err
	}
	return permit.FromDataModel(&row), nil
}

func (r *PermitRepository) ListAll(ctx context.Context) ([]*permit.Permit, error) {
	var rows []*permitDatamodel.Permit
	err := r.db.WithContext(ctx).
		Preload("Approvals").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return permit.FromDataModelSlice(rows), nil
}

func (r *PermitRepository) ListByFirm(ctx context.Context, firm string) ([]*permit.Permit, error) {
	var rows []*permitDatamodel.Permit
	err := r.db.WithContext(ctx).
		Preload("Approvals").
		Where("entreprenor_firma = ?", firm).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return permit.FromDataModelSlice(rows), nil
}

// UpdateFields writes only the given columns.
func (r *PermitRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&permitDatamodel.Permit{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return permit.ErrPermitNotFound
	}
	return nil
}

// DeleteCascade removes the permit with its time entries, approvals and
// history.
func (r *PermitRepository) DeleteCascade(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permit_id = ?", id).Delete(&timeentryDatamodel.TimeEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("permit_id = ?", id).Delete(&permitDatamodel.ApprovalHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("permit_id = ?", id).Delete(&permitDatamodel.Approval{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&permitDatamodel.Permit{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return permit.ErrPermitNotFound
		}
		return nil
	})
}

// RecordApproval inserts the role's slot if it is missing, then moves it to
// req.Day only when it holds some other day. The history row is appended in
// the same transaction and only when the slot actually moved.
func (r *PermitRepository) RecordApproval(ctx context.Context, req permit.ApprovalRequest) (permit.ApprovalRecord, error) {
	var rec permit.ApprovalRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&permitDatamodel.Permit{}).Where("id = ?", req.PermitID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return permit.ErrPermitNotFound
		}

		slot := permitDatamodel.Approval{
			PermitID:   req.PermitID,
			Role:       string(req.Role),
			ApprovedOn: "",
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "permit_id"}, {Name: "role"}},
			DoNothing: true,
		}).Create(&slot).Error; err != nil {
			return err
		}

		res := tx.Model(&permitDatamodel.Approval{}).
			Where("permit_id = ? AND role = ? AND approved_on <> ?", req.PermitID, string(req.Role), req.Day).
			Updates(map[string]interface{}{
				"approved_on": req.Day,
				"approved_by": req.UserID,
				"version":     gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		history := permitDatamodel.ApprovalHistory{
			PermitID:   req.PermitID,
			UserID:     req.UserID,
			Role:       string(req.Role),
			ApprovedAt: req.At,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&permitDatamodel.Approval{}).
			Where("permit_id = ? AND approved_on = ? AND role IN ?", req.PermitID, req.Day, approverRoleNames()).
			Count(&count).Error; err != nil {
			return err
		}

		rec.Recorded = true
		rec.ApprovedCount = int(count)
		return nil
	})
	if err != nil {
		return permit.ApprovalRecord{}, err
	}
	return rec, nil
}

func (r *PermitRepository) ListStaleWorking(ctx context.Context, day string) ([]int64, error) {
	db := r.db.WithContext(ctx)
	var ids []int64
	err := db.Model(&permitDatamodel.Permit{}).
		Where("status = ? AND status_dag IN ?", string(permit.StatusActive), workingStatuses()).
		Where("(?) < ?", r.approvedTodayCount(db, day), len(auth.ApproverRoles)).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// ResetDayStatus applies the reset only if the permit is still stale.
func (r *PermitRepository) ResetDayStatus(ctx context.Context, id int64, day string) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&permitDatamodel.Permit{}).
		Where("id = ? AND status = ? AND status_dag IN ?", id, string(permit.StatusActive), workingStatuses()).
		Where("(?) < ?", r.approvedTodayCount(db, day), len(auth.ApproverRoles)).
		Updates(map[string]interface{}{
			"status_dag": string(permit.DayStatusAwaitingApproval),
			"ikon":       string(permit.IconDefault),
			"sluttid":    nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetDayStatus applies the change only while the permit is active and fully
// approved for change.Day.
func (r *PermitRepository) SetDayStatus(ctx context.Context, change permit.DayStatusChange) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&permitDatamodel.Permit{}).
		Where("id = ? AND status = ?", change.PermitID, string(permit.StatusActive)).
		Where("(?) = ?", r.approvedTodayCount(db, change.Day), len(auth.ApproverRoles)).
		Updates(map[string]interface{}{
			"status_dag": string(change.StatusDag),
			"ikon":       string(change.Ikon),
			"sluttid":    change.Sluttid,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
