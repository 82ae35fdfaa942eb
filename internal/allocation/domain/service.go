package domain

import (
	"context"
	"errors"
)

type DeriveRequest struct {
	PlantID  string  `json:"plantId"`
	UnitID   string  `json:"unitId"`
	Quantity float64 `json:"quantity"`
	Mode     string  `json:"mode"`
}

// Derivation is the computed view of a prospective allocation.
type Derivation struct {
	Distance    int  `json:"distance"`
	Cost        int  `json:"cost"`
	TransitTime int  `json:"transitTime"`
	Anomalous   bool `json:"anomalous"`
}

type AddRequest struct {
	PlantID  string  `json:"plantId"`
	UnitID   string  `json:"unitId"`
	Quantity float64 `json:"quantity"`
	Mode     string  `json:"mode"`
	Period   int     `json:"period"`
}

type ListRequest struct {
	PlantID string
	UnitID  string
	Mode    string
	Status  string
}

// SyncResult summarises one reconciliation against the remote result set.
type SyncResult struct {
	RunID     string `json:"runId"`
	Rows      int    `json:"rows"`
	Fallbacks int    `json:"fallbacks"`
	Degraded  bool   `json:"degraded"`
}

type Service interface {
	Derive(ctx context.Context, req DeriveRequest) (Derivation, error)
	Add(ctx context.Context, req AddRequest) (Allocation, error)
	Confirm(ctx context.Context, id int64) (Allocation, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req ListRequest) ([]Allocation, error)
	Sync(ctx context.Context) (SyncResult, error)
	RunSolver(ctx context.Context) (SyncResult, error)
	RemoteDegraded() bool
}

var (
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidSelection  = errors.New("invalid_selection")
	ErrInvalidMode       = errors.New("invalid_mode")
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrNotFound          = errors.New("not_found")
	ErrDuplicateID       = errors.New("duplicate_id")
	ErrNotPending        = errors.New("not_pending")
	ErrSolverBusy        = errors.New("solver_busy")
	ErrUnknownRemoteCode = errors.New("unknown_remote_code")
)
