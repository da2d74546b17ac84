package timerecord

import "time"

// Record lifecycle. A record is VALID from check-in; an employee may flag it
// with a correction proposal (PENDING_CORRECTION), which HR either applies
// (CORRECTED) or declines (REJECTED, original timestamps kept).
const (
	StatusValid             = "VALID"
	StatusPendingCorrection = "PENDING_CORRECTION"
	StatusCorrected         = "CORRECTED"
	StatusRejected          = "REJECTED"
)

type Record struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"userId"`
	CheckIn               time.Time  `json:"checkIn"`
	CheckOut              *time.Time `json:"checkOut"`
	Status                string     `json:"status"`
	Notes                 string     `json:"notes"`
	CorrectionReason      string     `json:"correctionReason,omitempty"`
	CorrectionRequestedAt *time.Time `json:"correctionRequestedAt,omitempty"`
	ProposedCheckIn       *time.Time `json:"proposedCheckIn,omitempty"`
	ProposedCheckOut      *time.Time `json:"proposedCheckOut,omitempty"`
	ReviewedBy            *string    `json:"reviewedBy,omitempty"`
	ReviewedAt            *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`

	// Hours is derived from the check-in/check-out pair, nil while open.
	Hours *float64 `json:"hours"`

	// Owner and reviewer names, resolved from the users table when the
	// record is served; never persisted.
	UserEmail    string `json:"userEmail,omitempty"`
	UserName     string `json:"userName,omitempty"`
	ReviewerName string `json:"reviewerName,omitempty"`
}

func (r Record) IsOpen() bool {
	return r.CheckOut == nil
}

// CorrectionInput carries a proposed timestamp pair. ProposedCheckOut is
// optional so an open record's check-in can be corrected on its own.
type CorrectionInput struct {
	Reason           string
	ProposedCheckIn  time.Time
	ProposedCheckOut *time.Time
}

type ReviewInput struct {
	Approve bool
	Comment string
}

type ListFilters struct {
	UserID   string
	Status   string
	From     *time.Time
	To       *time.Time
	OpenOnly bool
}

type ListResult struct {
	Records []Record
	Total   int
	// TotalHours sums the completed records matching the filter, not just
	// the returned page.
	TotalHours float64
}

// Stats aggregates a user's (or the whole company's) records over a window.
type Stats struct {
	TotalRecords     int     `json:"totalRecords"`
	CompletedRecords int     `json:"completedRecords"`
	OpenRecords      int     `json:"openRecords"`
	PendingReview    int     `json:"pendingReview"`
	TotalHours       float64 `json:"totalHours"`
	AverageHours     float64 `json:"averageHours"`
}
