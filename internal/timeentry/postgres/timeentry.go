package postgres

import (
	"context"

	"gorm.io/gorm"

	timeentryDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/timeentry"
	"github.com/frahmantamala/permit-to-work/internal/timeentry"
)

type TimeEntryRepository struct {
	db *gorm.DB
}

func NewTimeEntryRepository(db *gorm.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

var _ timeentry.RepositoryAPI = (*TimeEntryRepository)(nil)

func (r *TimeEntryRepository) Create(ctx context.Context, e *timeentry.TimeEntry) error {
	row := timeentry.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	return nil
}

// ListByPermit orders by work date, then insertion.
func (r *TimeEntryRepository) ListByPermit(ctx context.Context, permitID int64) ([]*timeentry.TimeEntry, error) {
	var rows []*timeentryDatamodel.TimeEntry
	err := r.db.WithContext(ctx).
		Where("permit_id = ?", permitID).
		Order("work_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return timeentry.FromDataModelSlice(rows), nil
}
