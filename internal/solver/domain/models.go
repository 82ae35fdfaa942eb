package domain

import (
	"context"
	"fmt"
)

// ResultRow is one allocation line as stored by the optimization service.
type ResultRow struct {
	From     string  `json:"From"`
	To       string  `json:"To"`
	Mode     string  `json:"Mode"`
	Quantity float64 `json:"Quantity"`
	Period   int     `json:"Period"`
	Status   string  `json:"Status"`
	Trips    float64 `json:"Trips"`
}

// SaveRequest appends a manual allocation to the remote result set.
type SaveRequest struct {
	FromCode string  `json:"from_code"`
	ToCode   string  `json:"to_code"`
	Mode     string  `json:"mode"`
	Quantity float64 `json:"quantity"`
	Period   int     `json:"period"`
	Trips    float64 `json:"trips"`
}

// StatusUpdateRequest changes the status of a remote allocation row.
type StatusUpdateRequest struct {
	FromCode  string `json:"from_code"`
	ToCode    string `json:"to_code"`
	Mode      string `json:"mode"`
	Period    int    `json:"period"`
	NewStatus string `json:"new_status"`
}

// RemoteError is a non-2xx response from the optimization service.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("solver: remote returned %d", e.Status)
	}
	return fmt.Sprintf("solver: remote returned %d: %s", e.Status, e.Detail)
}

// Client talks to the remote optimization service.
type Client interface {
	FetchResults(ctx context.Context) ([]ResultRow, error)
	SaveAllocation(ctx context.Context, req SaveRequest) error
	UpdateStatus(ctx context.Context, req StatusUpdateRequest) error
	Optimize(ctx context.Context) error
}
