package permit

import (
	"sort"
	"time"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	permitDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/permit"
)

// Status is the permit lifecycle, set by editors.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPlanning:
		return StatusPlanning, true
	case StatusActive:
		return StatusActive, true
	case StatusCompleted:
		return StatusCompleted, true
	}
	return "", false
}

// DayStatus is the per-day work state of an active permit.
type DayStatus string

const (
	DayStatusAwaitingApproval DayStatus = "kraever_dagsgodkendelse"
	DayStatusWorking          DayStatus = "aktiv_dag"
	DayStatusPaused           DayStatus = "pause_dag"
)

// WorkStatus is what a contractor asks for; it maps onto a DayStatus.
type WorkStatus string

const (
	WorkStatusWorking WorkStatus = "working"
	WorkStatusPaused  WorkStatus = "paused"
)

func ParseWorkStatus(s string) (WorkStatus, bool) {
	switch WorkStatus(s) {
	case WorkStatusWorking:
		return WorkStatusWorking, true
	case WorkStatusPaused:
		return WorkStatusPaused, true
	}
	return "", false
}

func (w WorkStatus) DayStatus() DayStatus {
	switch w {
	case WorkStatusWorking:
		return DayStatusWorking
	case WorkStatusPaused:
		return DayStatusPaused
	}
	return DayStatusAwaitingApproval
}

func (w WorkStatus) Icon() Icon {
	switch w {
	case WorkStatusWorking:
		return IconWorking
	case WorkStatusPaused:
		return IconPaused
	}
	return IconDefault
}

// Icon is the map/list marker shown for a permit.
type Icon string

const (
	IconDefault Icon = "default"
	IconWorking Icon = "working"
	IconPaused  Icon = "paused"
)

type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Role      auth.Role `json:"role"`
}

type Permit struct {
	ID               int64      `json:"id"`
	WorkOrderNo      string     `json:"work_order_no"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	EntreprenorFirma string     `json:"entreprenor_firma"`
	Jobansvarlig     string     `json:"jobansvarlig"`
	Telefon          string     `json:"telefon"`
	Status           Status     `json:"status"`
	StatusDag        DayStatus  `json:"status_dag"`
	Ikon             Icon       `json:"ikon"`
	Sluttid          *time.Time `json:"sluttid"`
	StartDate        *string    `json:"start_date,omitempty"`
	EndDate          *string    `json:"end_date,omitempty"`
	OprettetAf       int64      `json:"oprettet_af"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Approvals maps each approver role to the date of its latest sign-off.
	Approvals map[auth.Role]string `json:"approvals"`
	History   []HistoryEntry       `json:"approval_history"`
}

// ApprovedOn reports whether role's latest sign-off is dated day.
func (p *Permit) ApprovedOn(role auth.Role, day string) bool {
	return day != "" && p.Approvals[role] == day
}

func (p *Permit) ApprovedCountOn(day string) int {
	n := 0
	for _, role := range auth.ApproverRoles {
		if p.ApprovedOn(role, day) {
			n++
		}
	}
	return n
}

// FullyApprovedOn is the gate for starting work on day.
func (p *Permit) FullyApprovedOn(day string) bool {
	return p.ApprovedCountOn(day) == len(auth.ApproverRoles)
}

// IsWorking reports whether the day status is one the reset must clear.
func (p *Permit) IsWorking() bool {
	return p.StatusDag == DayStatusWorking || p.StatusDag == DayStatusPaused
}

// NeedsReset mirrors the selection predicate of the daily reset.
func (p *Permit) NeedsReset(today string) bool {
	return p.Status == StatusActive && p.IsWorking() && !p.FullyApprovedOn(today)
}

func NewPermit(createdBy int64, dto CreatePermitDTO) *Permit {
	status := StatusPlanning
	if dto.Status != "" {
		status = Status(dto.Status)
	}
	return &Permit{
		WorkOrderNo:      dto.WorkOrderNo,
		Description:      dto.Description,
		Location:         dto.Location,
		EntreprenorFirma: dto.EntreprenorFirma,
		Jobansvarlig:     dto.Jobansvarlig,
		Telefon:          dto.Telefon,
		Status:           status,
		StatusDag:        DayStatusAwaitingApproval,
		Ikon:             IconDefault,
		StartDate:        dto.StartDate,
		EndDate:          dto.EndDate,
		OprettetAf:       createdBy,
		Approvals:        map[auth.Role]string{},
	}
}

func ToDataModel(p *Permit) *permitDatamodel.Permit {
	return &permitDatamodel.Permit{
		ID:               p.ID,
		WorkOrderNo:      p.WorkOrderNo,
		Description:      p.Description,
		Location:         p.Location,
		EntreprenorFirma: p.EntreprenorFirma,
		Jobansvarlig:     p.Jobansvarlig,
		Telefon:          p.Telefon,
		Status:           string(p.Status),
		StatusDag:        string(p.StatusDag),
		Ikon:             string(p.Ikon),
		Sluttid:          p.Sluttid,
		StartDate:        p.StartDate,
		EndDate:          p.EndDate,
		OprettetAf:       p.OprettetAf,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// FromDataModel converts a row plus whatever approvals and history were
// preloaded onto it.
func FromDataModel(m *permitDatamodel.Permit) *Permit {
	p := &Permit{
		ID:               m.ID,
		WorkOrderNo:      m.WorkOrderNo,
		Description:      m.Description,
		Location:         m.Location,
		EntreprenorFirma: m.EntreprenorFirma,
		Jobansvarlig:     m.Jobansvarlig,
		Telefon:          m.Telefon,
		Status:           Status(m.Status),
		StatusDag:        DayStatus(m.StatusDag),
		Ikon:             Icon(m.Ikon),
		Sluttid:          m.Sluttid,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		OprettetAf:       m.OprettetAf,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Approvals:        make(map[auth.Role]string, len(m.Approvals)),
		History:          make([]HistoryEntry, 0, len(m.History)),
	}
	for _, a := range m.Approvals {
		role, ok := auth.ParseApproverRole(a.Role)
		if !ok || a.ApprovedOn == "" {
			continue
		}
		p.Approvals[role] = a.ApprovedOn
	}
	for _, h := range m.History {
		p.History = append(p.History, HistoryEntry{
			Timestamp: h.ApprovedAt,
			UserID:    h.UserID,
			Role:      auth.Role(h.Role),
		})
	}
	sort.SliceStable(p.History, func(i, j int) bool {
		return p.History[i].Timestamp.Before(p.History[j].Timestamp)
	})
	return p
}

func FromDataModelSlice(rows []*permitDatamodel.Permit) []*Permit {
	result := make([]*Permit, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
