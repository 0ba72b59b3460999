package inbound

import (
	"time"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
)

type CreateRequest struct {
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Company        string     `json:"company"`
	Source         string     `json:"source"`
	Notes          string     `json:"notes"`
	NextFollowUpAt *time.Time `json:"next_follow_up_at"`
}

type CreateResponse struct {
	ID int64 `json:"id,string"`
}

type UpdateRequest struct {
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Company        string     `json:"company"`
	Source         string     `json:"source"`
	Notes          string     `json:"notes"`
	NextFollowUpAt *time.Time `json:"next_follow_up_at"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type LeadResponse struct {
	ID              int64      `json:"id,string"`
	OwnerID         int64      `json:"owner_id,string"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Company         string     `json:"company"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes"`
	NextFollowUpAt  *time.Time `json:"next_follow_up_at"`
	LastContactedAt *time.Time `json:"last_contacted_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toLeadResponse(lead entity.Lead) LeadResponse {
	return LeadResponse{
		ID:              lead.ID,
		OwnerID:         lead.OwnerID,
		FullName:        lead.FullName,
		Email:           lead.Email,
		Phone:           lead.Phone,
		Company:         lead.Company,
		Source:          lead.Source,
		Status:          lead.Status.String(),
		Notes:           lead.Notes,
		NextFollowUpAt:  lead.NextFollowUpAt,
		LastContactedAt: lead.LastContactedAt,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

type LeadsResponse struct {
	Leads []LeadResponse `json:"leads"`
	// meta
	total int64
	size  int32
	page  int32
}

func (r LeadsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type LeadDetailResponse struct {
	Lead LeadResponse `json:"lead"`
}

type ExportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	RowCount  int64     `json:"row_count"`
}

type DashboardResponse struct {
	StatusCounts map[string]int64 `json:"status_counts"`
	Total        int64            `json:"total"`
	DueFollowUps []LeadResponse   `json:"due_follow_ups"`
}
