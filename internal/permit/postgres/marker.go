package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	permitDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/permit"
	"github.com/frahmantamala/permit-to-work/internal/permit"
)

// MarkerRepository stores one last-run day per job name.
type MarkerRepository struct {
	db *gorm.DB
}

func NewMarkerRepository(db *gorm.DB) *MarkerRepository {
	return &MarkerRepository{db: db}
}

var _ permit.MarkerRepositoryAPI = (*MarkerRepository)(nil)

// GetMarker returns "" when the job never recorded a run.
func (r *MarkerRepository) GetMarker(ctx context.Context, name string) (string, error) {
	var row permitDatamodel.DailyResetMarker
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return row.LastRunOn, nil
}

func (r *MarkerRepository) SaveMarker(ctx context.Context, name, day string) error {
	row := permitDatamodel.DailyResetMarker{Name: name, LastRunOn: day}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_run_on", "updated_at"}),
	}).Create(&row).Error
}
