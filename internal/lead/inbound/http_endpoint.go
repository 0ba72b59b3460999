package inbound

import (
	"strconv"
	"strings"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/lead/usecase"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/router"
	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

// HTTPEndpoint exposes HTTP handlers for the lead pipeline.
type HTTPEndpoint struct {
	uc uc
}

// Create registers a new lead.
func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	var req CreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Create(r.Context(), usecase.CreateInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Source:         req.Source,
		Notes:          req.Notes,
		NextFollowUpAt: req.NextFollowUpAt,
	})
	if err != nil {
		return nil, err
	}

	return CreateResponse{ID: resp.ID}, nil
}

// listInput parses the shared list/export query parameters.
func listInput(r *router.Request) (usecase.ListInput, error) {
	var in usecase.ListInput

	in.Search = r.GetQuery("search")
	in.Statuses = r.GetQueries("status")
	in.SortBy = r.GetQuery("sort_by")
	in.SortOrder = strings.ToLower(r.GetQuery("sort_order"))

	if owner := r.GetQuery("owner_id"); owner != "" {
		ownerID, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			return in, goerror.NewInvalidFormat("Invalid query owner_id")
		}
		in.OwnerID = ownerID
	}

	var err error
	if in.FollowUpFrom, err = r.GetQueryDate("follow_up_from", dateLayout); err != nil {
		return in, err
	}
	if in.FollowUpTo, err = r.GetQueryDate("follow_up_to", dateLayout); err != nil {
		return in, err
	}
	if in.Page, err = r.GetQueryInt32("page"); err != nil {
		return in, err
	}
	if in.Size, err = r.GetQueryInt32("size"); err != nil {
		return in, err
	}

	return in, nil
}

// List returns a filtered, paginated page of leads.
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	in, err := listInput(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.List(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return LeadsResponse{
		Leads: lo.Map(resp.Leads, func(lead entity.Lead, _ int) LeadResponse { return toLeadResponse(lead) }),
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
	}, nil
}

// Detail returns a single lead by id.
func (h *HTTPEndpoint) Detail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Detail(r.Context(), usecase.DetailInput{ID: id})
	if err != nil {
		return nil, err
	}

	return LeadDetailResponse{Lead: toLeadResponse(resp.Lead)}, nil
}

// Update replaces a lead's contact and follow-up fields.
func (h *HTTPEndpoint) Update(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req UpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Update(r.Context(), usecase.UpdateInput{
		ID:             id,
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Source:         req.Source,
		Notes:          req.Notes,
		NextFollowUpAt: req.NextFollowUpAt,
	})
}

// UpdateStatus moves a lead to a new pipeline status.
func (h *HTTPEndpoint) UpdateStatus(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req UpdateStatusRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.UpdateStatus(r.Context(), usecase.UpdateStatusInput{
		ID:     id,
		Status: strings.ToLower(strings.TrimSpace(req.Status)),
	})
}

// Delete soft-deletes a lead.
func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.Delete(r.Context(), usecase.DeleteInput{ID: id})
}

// Export uploads the filtered leads as CSV and returns a download URL.
func (h *HTTPEndpoint) Export(r *router.Request) (any, error) {
	in, err := listInput(r)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Export(r.Context(), usecase.ExportInput{
		Search:       in.Search,
		Statuses:     in.Statuses,
		OwnerID:      in.OwnerID,
		FollowUpFrom: in.FollowUpFrom,
		FollowUpTo:   in.FollowUpTo,
		SortBy:       in.SortBy,
		SortOrder:    in.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	return ExportResponse{
		URL:       resp.URL,
		ExpiresAt: resp.ExpiresAt,
		RowCount:  resp.RowCount,
	}, nil
}

// Dashboard summarizes the caller's pipeline and upcoming follow-ups.
func (h *HTTPEndpoint) Dashboard(r *router.Request) (any, error) {
	resp, err := h.uc.Dashboard(r.Context())
	if err != nil {
		return nil, err
	}

	return DashboardResponse{
		StatusCounts: resp.StatusCounts,
		Total:        resp.Total,
		DueFollowUps: lo.Map(resp.DueFollowUps, func(lead entity.Lead, _ int) LeadResponse { return toLeadResponse(lead) }),
	}, nil
}
