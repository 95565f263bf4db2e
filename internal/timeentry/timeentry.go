package timeentry

import (
	"time"

	timeentryDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/timeentry"
)

// TimeEntry is hours worked on a permit on one day.
type TimeEntry struct {
	ID          int64     `json:"id"`
	PermitID    int64     `json:"permit_id"`
	UserID      int64     `json:"user_id"`
	WorkDate    string    `json:"work_date"`
	Hours       float64   `json:"hours"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToDataModel(e *TimeEntry) *timeentryDatamodel.TimeEntry {
	return &timeentryDatamodel.TimeEntry{
		ID:          e.ID,
		PermitID:    e.PermitID,
		UserID:      e.UserID,
		WorkDate:    e.WorkDate,
		Hours:       e.Hours,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func FromDataModel(m *timeentryDatamodel.TimeEntry) *TimeEntry {
	return &TimeEntry{
		ID:          m.ID,
		PermitID:    m.PermitID,
		UserID:      m.UserID,
		WorkDate:    m.WorkDate,
		Hours:       m.Hours,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func FromDataModelSlice(rows []*timeentryDatamodel.TimeEntry) []*TimeEntry {
	out := make([]*TimeEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out
}
