package timeentry

import (
	"github.com/frahmantamala/permit-to-work/internal/core/common/validation"
)

type LogTimeDTO struct {
	WorkDate    string  `json:"work_date"`
	Hours       float64 `json:"hours"`
	Description string  `json:"description"`
}

// Validate leaves an empty work_date alone; the service fills in today.
func (dto LogTimeDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("work_date", dto.WorkDate).Date()
	v.Field("hours", dto.Hours).Hours()
	v.Field("description", dto.Description).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type TimeSheet struct {
	PermitID   int64        `json:"permit_id"`
	Entries    []*TimeEntry `json:"entries"`
	TotalHours float64      `json:"total_hours"`
}
