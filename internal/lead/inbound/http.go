package inbound

import (
	"context"

	"github.com/nursyahid/leadpipe/internal/lead/usecase"
	"github.com/nursyahid/leadpipe/internal/pkg/router"
)

type uc interface {
	Create(ctx context.Context, in usecase.CreateInput) (*usecase.CreateOutput, error)
	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	Detail(ctx context.Context, in usecase.DetailInput) (*usecase.DetailOutput, error)
	Update(ctx context.Context, in usecase.UpdateInput) error
	UpdateStatus(ctx context.Context, in usecase.UpdateStatusInput) error
	Delete(ctx context.Context, in usecase.DeleteInput) error
	Export(ctx context.Context, in usecase.ExportInput) (*usecase.ExportOutput, error)
	Dashboard(ctx context.Context) (*usecase.DashboardOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/leads", end.Create, r.Authorize(usecase.PermLeads, "create"))
	r.GET("/api/v1/leads", end.List, r.Authorize(usecase.PermLeads, "read"))
	r.GET("/api/v1/leads/:id", end.Detail, r.Authorize(usecase.PermLeads, "read"))
	r.PUT("/api/v1/leads/:id", end.Update, r.Authorize(usecase.PermLeads, "update"))
	r.PATCH("/api/v1/leads/:id/status", end.UpdateStatus, r.Authorize(usecase.PermLeads, "update"))
	r.DELETE("/api/v1/leads/:id", end.Delete, r.Authorize(usecase.PermLeads, "delete"))

	// kept off /leads/... so the static paths never collide with :id
	r.GET("/api/v1/leads-export", end.Export, r.Authorize(usecase.PermLeads, "export"))
	r.GET("/api/v1/leads-dashboard", end.Dashboard, r.Authorize(usecase.PermLeads, "read"))
}
