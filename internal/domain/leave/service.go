package leave

import (
	"context"
	"strings"
	"time"

	"hrtime/internal/domain/apperr"
	"hrtime/internal/domain/identity"
)

const minMotiveLength = 10

type Service struct {
	Store StoreAPI
	Users identity.StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI, users identity.StoreAPI) *Service {
	return &Service{Store: store, Users: users, Now: time.Now}
}

// Create files a new leave request for the caller. Vacation requests are
// checked against the available balance minus the days already committed to
// other pending vacation requests.
func (s *Service) Create(ctx context.Context, caller identity.Principal, input CreateInput) (Request, error) {
	user, found, err := s.Users.GetByID(ctx, caller.UserID)
	if err != nil {
		return Request{}, err
	}
	if !found {
		return Request{}, apperr.Unauthenticated("account no longer exists")
	}
	if !user.IsActive {
		return Request{}, apperr.Forbidden("account is deactivated")
	}

	request := Request{
		UserID:    caller.UserID,
		Type:      input.Type,
		StartDate: DateOnly(input.StartDate),
		EndDate:   DateOnly(input.EndDate),
		Motive:    strings.TrimSpace(input.Motive),
		Status:    StatusPending,
	}
	if err := s.validate(ctx, user, &request, "", true); err != nil {
		return Request{}, err
	}

	created, err := s.Store.Create(ctx, request)
	if err != nil {
		return Request{}, err
	}
	return s.decorateOne(ctx, created)
}

func (s *Service) Get(ctx context.Context, caller identity.Principal, id string) (Request, error) {
	request, found, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !found || (request.UserID != caller.UserID && !caller.IsHR()) {
		return Request{}, apperr.NotFound("leave request not found")
	}
	return s.decorateOne(ctx, request)
}

// List applies the caller's visibility: non-HR callers always see their own
// requests, whatever user filter they send.
func (s *Service) List(ctx context.Context, caller identity.Principal, filters ListFilters, limit, offset int) (ListResult, error) {
	if !caller.IsHR() {
		filters.UserID = caller.UserID
	}
	result, err := s.Store.List(ctx, filters, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	if result.Requests, err = s.decorate(ctx, result.Requests); err != nil {
		return ListResult{}, err
	}
	return result, nil
}

func (s *Service) ListMine(ctx context.Context, caller identity.Principal, filters ListFilters, limit, offset int) (ListResult, error) {
	filters.UserID = caller.UserID
	return s.List(ctx, caller, filters, limit, offset)
}

// ListPending returns the review queue for HR, oldest filings first.
func (s *Service) ListPending(ctx context.Context, filters ListFilters, limit, offset int) (ListResult, error) {
	filters.Status = StatusPending
	filters.OldestFirst = true
	result, err := s.Store.List(ctx, filters, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	if result.Requests, err = s.decorate(ctx, result.Requests); err != nil {
		return ListResult{}, err
	}
	return result, nil
}

// Update edits a request the caller owns. Only pending requests are mutable.
// Date rules (past start, conflicts, day count, balance) are re-checked only
// when the dates actually change, so a motive edit still works after the
// request's start date has arrived.
func (s *Service) Update(ctx context.Context, caller identity.Principal, id string, input UpdateInput) (Request, error) {
	request, err := s.Get(ctx, caller, id)
	if err != nil {
		return Request{}, err
	}
	if request.UserID != caller.UserID {
		return Request{}, apperr.Forbidden("only the request owner may edit it")
	}
	if request.Status != StatusPending {
		return Request{}, apperr.Newf(apperr.KindValidation, "leave request is %s and can no longer be edited", request.Status)
	}

	if input.Type != nil {
		request.Type = *input.Type
	}
	if input.StartDate != nil {
		request.StartDate = DateOnly(*input.StartDate)
	}
	if input.EndDate != nil {
		request.EndDate = DateOnly(*input.EndDate)
	}
	if input.Motive != nil {
		request.Motive = strings.TrimSpace(*input.Motive)
	}

	user, found, err := s.Users.GetByID(ctx, caller.UserID)
	if err != nil {
		return Request{}, err
	}
	if !found {
		return Request{}, apperr.Unauthenticated("account no longer exists")
	}
	datesChanged := input.StartDate != nil || input.EndDate != nil
	if err := s.validate(ctx, user, &request, request.ID, datesChanged); err != nil {
		return Request{}, err
	}

	updated, err := s.Store.Update(ctx, request)
	if err != nil {
		return Request{}, err
	}
	return s.decorateOne(ctx, updated)
}

// Cancel withdraws a pending request. Settled requests stay as reviewed.
func (s *Service) Cancel(ctx context.Context, caller identity.Principal, id string) (Request, error) {
	request, err := s.Get(ctx, caller, id)
	if err != nil {
		return Request{}, err
	}
	if request.UserID != caller.UserID {
		return Request{}, apperr.Forbidden("only the request owner may cancel it")
	}
	if request.Status != StatusPending {
		return Request{}, apperr.Newf(apperr.KindValidation, "leave request is %s and can no longer be cancelled", request.Status)
	}

	request.Status = StatusCancelled
	cancelled, err := s.Store.Update(ctx, request)
	if err != nil {
		return Request{}, err
	}
	return s.decorateOne(ctx, cancelled)
}

// Review settles a pending request. Approving a vacation request debits the
// owner's balance atomically; a depleted balance fails the approval instead
// of going negative.
func (s *Service) Review(ctx context.Context, caller identity.Principal, id string, input ReviewInput) (Request, error) {
	reviewed, err := s.Store.Review(ctx, id, caller.UserID, input.Approve, strings.TrimSpace(input.Comment))
	if err != nil {
		return Request{}, err
	}
	return s.decorateOne(ctx, reviewed)
}

// BalanceFor returns vacation accounting for a user. Non-HR callers may only
// ask about themselves.
func (s *Service) BalanceFor(ctx context.Context, caller identity.Principal, userID string) (Balance, error) {
	if userID != caller.UserID && !caller.IsHR() {
		return Balance{}, apperr.NotFound("user not found")
	}
	return s.Store.Balance(ctx, userID)
}

// decorate resolves owner and reviewer names onto the requests. Lookups are
// cached per call so a page of one user's requests costs one query.
func (s *Service) decorate(ctx context.Context, requests []Request) ([]Request, error) {
	cache := map[string]identity.User{}
	resolve := func(id string) (identity.User, error) {
		if user, ok := cache[id]; ok {
			return user, nil
		}
		user, _, err := s.Users.GetByID(ctx, id)
		if err != nil {
			return identity.User{}, err
		}
		cache[id] = user
		return user, nil
	}

	for i := range requests {
		owner, err := resolve(requests[i].UserID)
		if err != nil {
			return nil, err
		}
		requests[i].UserEmail = owner.Email
		requests[i].UserName = owner.FullName
		if requests[i].ReviewedBy != nil {
			reviewer, err := resolve(*requests[i].ReviewedBy)
			if err != nil {
				return nil, err
			}
			requests[i].ReviewerName = reviewer.FullName
		}
	}
	return requests, nil
}

func (s *Service) decorateOne(ctx context.Context, request Request) (Request, error) {
	decorated, err := s.decorate(ctx, []Request{request})
	if err != nil {
		return Request{}, err
	}
	return decorated[0], nil
}

// validate checks the request's fields and, when checkDates is set, the
// date-dependent rules: ordering, past start, business-day count, conflicts
// against other requests, and the vacation balance projection.
func (s *Service) validate(ctx context.Context, user identity.User, request *Request, excludeID string, checkDates bool) error {
	if !ValidType(request.Type) {
		return apperr.Newf(apperr.KindValidation, "unknown leave type %q", request.Type)
	}
	if len(request.Motive) < minMotiveLength {
		return apperr.Newf(apperr.KindValidation, "motive must be at least %d characters", minMotiveLength)
	}
	if !checkDates {
		return nil
	}
	if request.EndDate.Before(request.StartDate) {
		return apperr.Validation("start date must not be after end date")
	}
	today := DateOnly(s.Now())
	if request.StartDate.Before(today) {
		return apperr.Validation("start date must not be in the past")
	}

	request.BusinessDays = BusinessDays(request.StartDate, request.EndDate)
	if request.BusinessDays == 0 {
		return apperr.Validation("requested range contains no business days")
	}

	conflicts, err := s.Store.FindConflicting(ctx, request.UserID, excludeID, request.StartDate, request.EndDate)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperr.Conflict("dates overlap an existing leave request").
			WithDetails(map[string]any{"conflictingRequestId": conflicts[0].ID})
	}

	if request.Type == TypeVacation {
		pending, err := s.Store.PendingVacationDays(ctx, request.UserID, excludeID)
		if err != nil {
			return err
		}
		if float64(request.BusinessDays)+pending > user.AvailableDays {
			return apperr.Validation("insufficient vacation balance").
				WithDetails(map[string]any{
					"requestedDays": request.BusinessDays,
					"pendingDays":   pending,
					"availableDays": user.AvailableDays,
				})
		}
	}
	return nil
}
