// Package entity defines the lead domain types.
package entity

import "time"

type Lead struct {
	ID              int64
	OwnerID         int64
	FullName        string
	Email           string
	Phone           string
	Company         string
	Source          string
	Status          LeadStatus
	Notes           string
	NextFollowUpAt  *time.Time
	LastContactedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// NewLead carries the fields needed to insert a lead.
type NewLead struct {
	ID             int64
	OwnerID        int64
	FullName       string
	Email          string
	Phone          string
	Company        string
	Source         string
	Status         LeadStatus
	Notes          string
	NextFollowUpAt *time.Time
}

// UpdateLead carries a full replacement of the mutable lead fields.
type UpdateLead struct {
	ID             int64
	OwnerID        int64 // zero means no owner scoping
	FullName       string
	Email          string
	Phone          string
	Company        string
	Source         string
	Notes          string
	NextFollowUpAt *time.Time
}

// LeadFilter drives the list and export queries. OwnerID zero means all
// owners; the flags tell the query which optional filters are active.
type LeadFilter struct {
	Search           string
	Statuses         []int16
	OwnerID          int64
	FollowUpFrom     time.Time
	FollowUpTo       time.Time
	OrderBy          string
	OrderDirection   string
	Size             int32
	Offset           int32
	IsFilterBySearch bool
	IsFilterByStatus bool
}

// StatusCount is one row of the dashboard aggregation.
type StatusCount struct {
	Status LeadStatus
	Count  int64
}
