package leave

import "time"

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	TypeVacation  = "VACATION"
	TypeSickLeave = "SICK_LEAVE"
	TypePersonal  = "PERSONAL"
	TypeOther     = "OTHER"
)

func ValidType(t string) bool {
	switch t {
	case TypeVacation, TypeSickLeave, TypePersonal, TypeOther:
		return true
	}
	return false
}

// Request is a leave request over an inclusive calendar-date range. Only the
// business days inside the range count against the vacation balance.
type Request struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Type          string     `json:"type"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       time.Time  `json:"endDate"`
	Motive        string     `json:"motive"`
	Status        string     `json:"status"`
	BusinessDays  int        `json:"businessDays"`
	ReviewedBy    *string    `json:"reviewedBy,omitempty"`
	ReviewComment string     `json:"reviewComment,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	// Owner and reviewer names, resolved from the users table when the
	// request is served; never persisted.
	UserEmail    string `json:"userEmail,omitempty"`
	UserName     string `json:"userName,omitempty"`
	ReviewerName string `json:"reviewerName,omitempty"`
}

type CreateInput struct {
	Type      string
	StartDate time.Time
	EndDate   time.Time
	Motive    string
}

type UpdateInput struct {
	Type      *string
	StartDate *time.Time
	EndDate   *time.Time
	Motive    *string
}

type ReviewInput struct {
	Approve bool
	Comment string
}

// ListFilters narrows a request listing. From bounds start_date and To bounds
// end_date, both inclusive. ActiveOnly keeps approved requests whose range
// covers today.
type ListFilters struct {
	UserID      string
	Status      string
	Type        string
	From        *time.Time
	To          *time.Time
	ActiveOnly  bool
	OldestFirst bool
}

type ListResult struct {
	Requests []Request
	Total    int
}

// Balance summarizes a user's vacation accounting. Pending days are already
// committed against the balance when new requests are checked, but are only
// subtracted from the available figure at approval. UsedDays counts approved
// vacation starting in the current calendar year.
type Balance struct {
	UserID            string     `json:"userId"`
	AnnualDays        float64    `json:"annualDays"`
	AvailableDays     float64    `json:"availableDays"`
	PendingDays       float64    `json:"pendingDays"`
	UsedDays          float64    `json:"usedDays"`
	PendingCount      int        `json:"pendingCount"`
	ApprovedCount     int        `json:"approvedCount"`
	NextApprovedStart *time.Time `json:"nextApprovedStart,omitempty"`
}
