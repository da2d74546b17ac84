package timerecord

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, record Record) (Record, error)
	GetByID(ctx context.Context, id string) (Record, bool, error)
	GetOpenByUser(ctx context.Context, userID string) (Record, bool, error)
	Update(ctx context.Context, record Record) (Record, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) (ListResult, error)
	// ListInWindow returns the user's records whose interval could collide
	// with [from, to), excluding excludeID. A nil to leaves the window open.
	ListInWindow(ctx context.Context, userID, excludeID string, from time.Time, to *time.Time) ([]Record, error)
	// ApplyCorrection atomically re-reads the record, verifies it is still
	// pending review, and applies or declines the proposal.
	ApplyCorrection(ctx context.Context, id, reviewerID string, approve bool, comment string) (Record, error)
	Stats(ctx context.Context, filters ListFilters) (Stats, error)
}
