package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePermitApproved          = "permit.approved"
	EventTypePermitFullyApproved     = "permit.fully_approved"
	EventTypePermitWorkStatusChanged = "permit.work_status_changed"
	EventTypePermitDailyReset        = "permit.daily_reset"
)

// EventTypes lists every event the service publishes.
var EventTypes = []string{
	EventTypePermitApproved,
	EventTypePermitFullyApproved,
	EventTypePermitWorkStatusChanged,
	EventTypePermitDailyReset,
}

type PermitApprovedEvent struct {
	BaseEvent
	PermitID      int64  `json:"permit_id"`
	Role          string `json:"role"`
	UserID        int64  `json:"user_id"`
	ApprovedOn    string `json:"approved_on"`
	ApprovedCount int    `json:"approved_count"`
}

func NewPermitApprovedEvent(permitID int64, role string, userID int64, approvedOn string, count int, at time.Time) *PermitApprovedEvent {
	return &PermitApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitApproved,
			Timestamp: at,
			Data: map[string]interface{}{
				"permit_id":      permitID,
				"role":           role,
				"user_id":        userID,
				"approved_on":    approvedOn,
				"approved_count": count,
			},
		},
		PermitID:      permitID,
		Role:          role,
		UserID:        userID,
		ApprovedOn:    approvedOn,
		ApprovedCount: count,
	}
}

// PermitFullyApprovedEvent fires when the third role signs off for the day.
type PermitFullyApprovedEvent struct {
	BaseEvent
	PermitID         int64  `json:"permit_id"`
	EntreprenorFirma string `json:"entreprenor_firma"`
	ApprovedOn       string `json:"approved_on"`
}

func NewPermitFullyApprovedEvent(permitID int64, firma, approvedOn string, at time.Time) *PermitFullyApprovedEvent {
	return &PermitFullyApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitFullyApproved,
			Timestamp: at,
			Data: map[string]interface{}{
				"permit_id":         permitID,
				"entreprenor_firma": firma,
				"approved_on":       approvedOn,
			},
		},
		PermitID:         permitID,
		EntreprenorFirma: firma,
		ApprovedOn:       approvedOn,
	}
}

type WorkStatusChangedEvent struct {
	BaseEvent
	PermitID  int64  `json:"permit_id"`
	UserID    int64  `json:"user_id"`
	StatusDag string `json:"status_dag"`
}

func NewWorkStatusChangedEvent(permitID, userID int64, statusDag string, at time.Time) *WorkStatusChangedEvent {
	return &WorkStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitWorkStatusChanged,
			Timestamp: at,
			Data: map[string]interface{}{
				"permit_id":  permitID,
				"user_id":    userID,
				"status_dag": statusDag,
			},
		},
		PermitID:  permitID,
		UserID:    userID,
		StatusDag: statusDag,
	}
}

type DailyResetEvent struct {
	BaseEvent
	Date    string `json:"date"`
	Source  string `json:"source"`
	Checked int    `json:"checked"`
	Reset   int    `json:"reset"`
	Failed  int    `json:"failed"`
}

func NewDailyResetEvent(date, source string, checked, reset, failed int, at time.Time) *DailyResetEvent {
	return &DailyResetEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermitDailyReset,
			Timestamp: at,
			Data: map[string]interface{}{
				"date":    date,
				"source":  source,
				"checked": checked,
				"reset":   reset,
				"failed":  failed,
			},
		},
		Date:    date,
		Source:  source,
		Checked: checked,
		Reset:   reset,
		Failed:  failed,
	}
}
