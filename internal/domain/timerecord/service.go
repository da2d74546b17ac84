package timerecord

import (
	"context"
	"strings"
	"time"

	"hrtime/internal/domain/apperr"
	"hrtime/internal/domain/identity"
)

const minReasonLength = 10

type Service struct {
	Store StoreAPI
	Users identity.StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI, users identity.StoreAPI) *Service {
	return &Service{Store: store, Users: users, Now: time.Now}
}

// CheckIn opens a new record for the caller. At most one record per user may
// be open; the store's unique index backs this check under concurrency.
func (s *Service) CheckIn(ctx context.Context, caller identity.Principal, notes string) (Record, error) {
	user, found, err := s.Users.GetByID(ctx, caller.UserID)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, apperr.NotFound("user not found")
	}
	if !user.IsActive {
		return Record{}, apperr.Validation("account is deactivated")
	}

	if _, open, err := s.Store.GetOpenByUser(ctx, caller.UserID); err != nil {
		return Record{}, err
	} else if open {
		return Record{}, apperr.Validation("an open time record already exists")
	}

	record, err := s.Store.Create(ctx, Record{
		UserID:  caller.UserID,
		CheckIn: s.Now().UTC(),
		Status:  StatusValid,
		Notes:   strings.TrimSpace(notes),
	})
	if err != nil {
		return Record{}, err
	}
	return s.decorateOne(ctx, withHours(record))
}

// CheckOut closes the caller's open record. Additional notes are appended on
// their own line, preserving whatever was written at check-in.
func (s *Service) CheckOut(ctx context.Context, caller identity.Principal, notes string) (Record, error) {
	record, open, err := s.Store.GetOpenByUser(ctx, caller.UserID)
	if err != nil {
		return Record{}, err
	}
	if !open {
		return Record{}, apperr.Validation("no open time record to check out")
	}

	now := s.Now().UTC()
	if !now.After(record.CheckIn) {
		return Record{}, apperr.Validation("check-out must be after check-in")
	}
	record.CheckOut = &now
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		if record.Notes != "" {
			record.Notes += "\n"
		}
		record.Notes += trimmed
	}

	updated, err := s.Store.Update(ctx, record)
	if err != nil {
		return Record{}, err
	}
	return s.decorateOne(ctx, withHours(updated))
}

// Get returns a record visible to the caller. A record belonging to someone
// else is reported as missing to non-HR callers rather than as forbidden.
func (s *Service) Get(ctx context.Context, caller identity.Principal, id string) (Record, error) {
	record, found, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !found || (record.UserID != caller.UserID && !caller.IsHR()) {
		return Record{}, apperr.NotFound("time record not found")
	}
	return s.decorateOne(ctx, withHours(record))
}

// GetActive returns the caller's open record, if any.
func (s *Service) GetActive(ctx context.Context, caller identity.Principal) (Record, error) {
	record, open, err := s.Store.GetOpenByUser(ctx, caller.UserID)
	if err != nil {
		return Record{}, err
	}
	if !open {
		return Record{}, apperr.NotFound("no open time record")
	}
	return s.decorateOne(ctx, withHours(record))
}

// List applies the caller's visibility: non-HR callers always see their own
// records, whatever user filter they send.
func (s *Service) List(ctx context.Context, caller identity.Principal, filters ListFilters, limit, offset int) (ListResult, error) {
	if !caller.IsHR() {
		filters.UserID = caller.UserID
	}
	result, err := s.Store.List(ctx, filters, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	for i := range result.Records {
		result.Records[i] = withHours(result.Records[i])
	}
	if result.Records, err = s.decorate(ctx, result.Records); err != nil {
		return ListResult{}, err
	}

	stats, err := s.Store.Stats(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	result.TotalHours = RoundHours(stats.TotalHours)
	return result, nil
}

func (s *Service) ListMine(ctx context.Context, caller identity.Principal, filters ListFilters, limit, offset int) (ListResult, error) {
	filters.UserID = caller.UserID
	return s.List(ctx, caller, filters, limit, offset)
}

// RequestCorrection flags a record with a proposed timestamp pair for HR
// review. Only the record's owner may file one.
func (s *Service) RequestCorrection(ctx context.Context, caller identity.Principal, id string, input CorrectionInput) (Record, error) {
	record, found, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !found || (record.UserID != caller.UserID && !caller.IsHR()) {
		return Record{}, apperr.NotFound("time record not found")
	}
	if record.UserID != caller.UserID {
		return Record{}, apperr.Forbidden("only the record owner may request a correction")
	}
	if record.Status == StatusPendingCorrection {
		return Record{}, apperr.Validation("a correction is already pending review")
	}
	if len(strings.TrimSpace(input.Reason)) < minReasonLength {
		return Record{}, apperr.Newf(apperr.KindValidation, "correction reason must be at least %d characters", minReasonLength)
	}
	if input.ProposedCheckIn.IsZero() {
		return Record{}, apperr.Validation("proposed check-in is required")
	}
	if input.ProposedCheckOut != nil && !input.ProposedCheckIn.Before(*input.ProposedCheckOut) {
		return Record{}, apperr.Validation("proposed check-in must be before proposed check-out")
	}
	if err := s.checkWindow(ctx, record.UserID, record.ID, input.ProposedCheckIn, input.ProposedCheckOut); err != nil {
		return Record{}, err
	}

	in := input.ProposedCheckIn.UTC()
	requestedAt := s.Now().UTC()
	record.Status = StatusPendingCorrection
	record.CorrectionReason = strings.TrimSpace(input.Reason)
	record.CorrectionRequestedAt = &requestedAt
	record.ProposedCheckIn = &in
	record.ProposedCheckOut = nil
	if input.ProposedCheckOut != nil {
		out := input.ProposedCheckOut.UTC()
		record.ProposedCheckOut = &out
	}

	updated, err := s.Store.Update(ctx, record)
	if err != nil {
		return Record{}, err
	}
	return s.decorateOne(ctx, withHours(updated))
}

// ReviewCorrection settles a pending correction. Approval rewrites the
// record's timestamps with the proposed pair; rejection keeps the originals.
func (s *Service) ReviewCorrection(ctx context.Context, caller identity.Principal, id string, input ReviewInput) (Record, error) {
	record, found, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, apperr.NotFound("time record not found")
	}
	if record.Status != StatusPendingCorrection {
		return Record{}, apperr.Newf(apperr.KindValidation, "time record is %s, not pending review", record.Status)
	}

	if input.Approve && record.ProposedCheckIn != nil {
		if err := s.checkWindow(ctx, record.UserID, record.ID, *record.ProposedCheckIn, record.ProposedCheckOut); err != nil {
			return Record{}, err
		}
	}

	updated, err := s.Store.ApplyCorrection(ctx, id, caller.UserID, input.Approve, strings.TrimSpace(input.Comment))
	if err != nil {
		return Record{}, err
	}
	return s.decorateOne(ctx, withHours(updated))
}

func (s *Service) StatsMine(ctx context.Context, caller identity.Principal, from, to *time.Time) (Stats, error) {
	return s.stats(ctx, caller.UserID, from, to)
}

// StatsFor aggregates over one user, or company-wide when userID is empty.
func (s *Service) StatsFor(ctx context.Context, userID string, from, to *time.Time) (Stats, error) {
	return s.stats(ctx, userID, from, to)
}

func (s *Service) stats(ctx context.Context, userID string, from, to *time.Time) (Stats, error) {
	stats, err := s.Store.Stats(ctx, ListFilters{UserID: userID, From: from, To: to})
	if err != nil {
		return Stats{}, err
	}
	stats.TotalHours = RoundHours(stats.TotalHours)
	if stats.CompletedRecords > 0 {
		stats.AverageHours = RoundHours(stats.TotalHours / float64(stats.CompletedRecords))
	}
	return stats, nil
}

func (s *Service) checkWindow(ctx context.Context, userID, excludeID string, from time.Time, to *time.Time) error {
	neighbors, err := s.Store.ListInWindow(ctx, userID, excludeID, from, to)
	if err != nil {
		return err
	}
	for _, neighbor := range neighbors {
		if OverlapsProposal(neighbor.CheckIn, neighbor.CheckOut, from, to) {
			return apperr.Validation("proposed interval overlaps another time record").
				WithDetails(map[string]any{"conflictingRecordId": neighbor.ID})
		}
	}
	return nil
}

func withHours(record Record) Record {
	if record.CheckOut != nil {
		hours := HoursBetween(record.CheckIn, *record.CheckOut)
		record.Hours = &hours
	}
	return record
}

// decorate resolves owner and reviewer names onto the records. Lookups are
// cached per call so a page of one user's records costs one query.
func (s *Service) decorate(ctx context.Context, records []Record) ([]Record, error) {
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

	for i := range records {
		owner, err := resolve(records[i].UserID)
		if err != nil {
			return nil, err
		}
		records[i].UserEmail = owner.Email
		records[i].UserName = owner.FullName
		if records[i].ReviewedBy != nil {
			reviewer, err := resolve(*records[i].ReviewedBy)
			if err != nil {
				return nil, err
			}
			records[i].ReviewerName = reviewer.FullName
		}
	}
	return records, nil
}

func (s *Service) decorateOne(ctx context.Context, record Record) (Record, error) {
	decorated, err := s.decorate(ctx, []Record{record})
	if err != nil {
		return Record{}, err
	}
	return decorated[0], nil
}
