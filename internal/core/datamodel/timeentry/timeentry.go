package timeentry

import "time"

type TimeEntry struct {
	ID          int64     `gorm:"primaryKey"`
	PermitID    int64     `gorm:"column:permit_id;not null;index"`
	UserID      int64     `gorm:"column:user_id;not null"`
	WorkDate    string    `gorm:"column:work_date;not null"`
	Hours       float64   `gorm:"column:hours;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TimeEntry) TableName() string { return "time_entries" }
