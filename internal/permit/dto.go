package permit

import (
	"github.com/frahmantamala/permit-to-work/internal/core/common/validation"
)

type CreatePermitDTO struct {
	WorkOrderNo      string  `json:"work_order_no" validate:"required,max=64"`
	Description      string  `json:"description" validate:"max=2000"`
	Location         string  `json:"location" validate:"max=255"`
	EntreprenorFirma string  `json:"entreprenor_firma" validate:"required,max=255"`
	Jobansvarlig     string  `json:"jobansvarlig" validate:"max=255"`
	Telefon          string  `json:"telefon" validate:"max=32"`
	Status           string  `json:"status" validate:"omitempty,oneof=planning active"`
	StartDate        *string `json:"start_date,omitempty" validate:"omitempty,ymd"`
	EndDate          *string `json:"end_date,omitempty" validate:"omitempty,ymd"`
}

func (dto CreatePermitDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=planning active completed"`
}

func (dto UpdateStatusDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type WorkStatusDTO struct {
	Status string `json:"status" validate:"required"`
}

// ApproveResult is returned by a successful approval.
type ApproveResult struct {
	PermitID      int64  `json:"permit_id"`
	Role          string `json:"role"`
	ApprovedOn    string `json:"approved_on"`
	ApprovedCount int    `json:"approved_count"`
	FullyApproved bool   `json:"fully_approved"`
}

// PermitDetail is a permit together with today's approval view.
type PermitDetail struct {
	*Permit
	ApprovalView ApprovalView `json:"approval_view"`
}

type PermitSummary struct {
	*Permit
	ApprovedCount int  `json:"approved_count"`
	FullyApproved bool `json:"fully_approved"`
}

// ResetReport summarises one daily reset sweep.
type ResetReport struct {
	Date    string `json:"date"`
	Checked int    `json:"checked"`
	Reset   int    `json:"reset"`
	Failed  int    `json:"failed"`
}
