package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, request Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, bool, error)
	Update(ctx context.Context, request Request) (Request, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) (ListResult, error)
	// FindConflicting returns the user's PENDING and APPROVED requests whose
	// date range overlaps [start, end], excluding excludeID.
	FindConflicting(ctx context.Context, userID, excludeID string, start, end time.Time) ([]Request, error)
	// PendingVacationDays sums the business days of the user's pending
	// vacation requests, excluding excludeID.
	PendingVacationDays(ctx context.Context, userID, excludeID string) (float64, error)
	// Review settles a pending request. On approval of a vacation request
	// the locked row's business days are subtracted from the user's
	// available days in the same transaction, guarded so the balance never
	// goes negative.
	Review(ctx context.Context, id, reviewerID string, approve bool, comment string) (Request, error)
	Balance(ctx context.Context, userID string) (Balance, error)
}
