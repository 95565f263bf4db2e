package permit

import "time"

type Permit struct {
	ID               int64      `gorm:"primaryKey"`
	WorkOrderNo      string     `gorm:"column:work_order_no;not null"`
	Description      string     `gorm:"column:description"`
	Location         string     `gorm:"column:location"`
	EntreprenorFirma string     `gorm:"column:entreprenor_firma;not null;index"`
	Jobansvarlig     string     `gorm:"column:jobansvarlig"`
	Telefon          string     `gorm:"column:telefon"`
	Status           string     `gorm:"column:status;not null;index"`
	StatusDag        string     `gorm:"column:status_dag;not null"`
	Ikon             string     `gorm:"column:ikon;not null"`
	Sluttid          *time.Time `gorm:"column:sluttid"`
	StartDate        *string    `gorm:"column:start_date"`
	EndDate          *string    `gorm:"column:end_date"`
	OprettetAf       int64      `gorm:"column:oprettet_af;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Approvals []Approval        `gorm:"foreignKey:PermitID"`
	History   []ApprovalHistory `gorm:"foreignKey:PermitID"`
}

func (Permit) TableName() string { return "permits" }

// Approval is one role's sign-off slot. ApprovedOn is a YYYY-MM-DD string in
// the service timezone; Version increments on every overwrite.
type Approval struct {
	ID         int64     `gorm:"primaryKey"`
	PermitID   int64     `gorm:"column:permit_id;not null;uniqueIndex:idx_permit_role"`
	Role       string    `gorm:"column:role;not null;uniqueIndex:idx_permit_role"`
	ApprovedOn string    `gorm:"column:approved_on;not null"`
	ApprovedBy *int64    `gorm:"column:approved_by"`
	Version    int64     `gorm:"column:version;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Approval) TableName() string { return "permit_approvals" }

type ApprovalHistory struct {
	ID         int64     `gorm:"primaryKey"`
	PermitID   int64     `gorm:"column:permit_id;not null;index"`
	UserID     int64     `gorm:"column:user_id;not null"`
	Role       string    `gorm:"column:role;not null"`
	ApprovedAt time.Time `gorm:"column:approved_at;not null"`
}

func (ApprovalHistory) TableName() string { return "permit_approval_history" }

type DailyResetMarker struct {
	Name      string    `gorm:"primaryKey;column:name"`
	LastRunOn string    `gorm:"column:last_run_on;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DailyResetMarker) TableName() string { return "daily_reset_markers" }
