package timerecord

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrtime/internal/domain/apperr"
	"hrtime/internal/domain/identity"
)

type fakeStore struct {
	records map[string]Record
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]Record{}}
}

func (f *fakeStore) Create(_ context.Context, record Record) (Record, error) {
	for _, existing := range f.records {
		if existing.UserID == record.UserID && existing.CheckOut == nil {
			return Record{}, apperr.Validation("an open time record already exists")
		}
	}
	f.nextID++
	record.ID = fmt.Sprintf("rec-%d", f.nextID)
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (Record, bool, error) {
	record, ok := f.records[id]
	return record, ok, nil
}

func (f *fakeStore) GetOpenByUser(_ context.Context, userID string) (Record, bool, error) {
	for _, record := range f.records {
		if record.UserID == userID && record.CheckOut == nil {
			return record, true, nil
		}
	}
	return Record{}, false, nil
}

func (f *fakeStore) Update(_ context.Context, record Record) (Record, error) {
	record.UpdatedAt = time.Now()
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeStore) List(_ context.Context, filters ListFilters, limit, offset int) (ListResult, error) {
	var records []Record
	for _, record := range f.records {
		if filters.UserID != "" && record.UserID != filters.UserID {
			continue
		}
		if filters.Status != "" && record.Status != filters.Status {
			continue
		}
		records = append(records, record)
	}
	return ListResult{Records: records, Total: len(records)}, nil
}

func (f *fakeStore) ListInWindow(_ context.Context, userID, excludeID string, from time.Time, to *time.Time) ([]Record, error) {
	var records []Record
	for _, record := range f.records {
		if record.UserID != userID || record.ID == excludeID {
			continue
		}
		if OverlapsProposal(record.CheckIn, record.CheckOut, from, to) {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fakeStore) ApplyCorrection(_ context.Context, id, reviewerID string, approve bool, comment string) (Record, error) {
	record, ok := f.records[id]
	if !ok {
		return Record{}, apperr.NotFound("time record not found")
	}
	if record.Status != StatusPendingCorrection {
		return Record{}, apperr.Validation("not pending review")
	}
	if approve {
		record.CheckIn = *record.ProposedCheckIn
		record.CheckOut = record.ProposedCheckOut
		record.Status = StatusCorrected
	} else {
		record.Status = StatusRejected
	}
	if comment != "" {
		if record.Notes != "" {
			record.Notes += "\n"
		}
		record.Notes += comment
	}
	now := time.Now()
	record.ReviewedBy = &reviewerID
	record.ReviewedAt = &now
	f.records[id] = record
	return record, nil
}

func (f *fakeStore) Stats(_ context.Context, filters ListFilters) (Stats, error) {
	var stats Stats
	for _, record := range f.records {
		if filters.UserID != "" && record.UserID != filters.UserID {
			continue
		}
		stats.TotalRecords++
		if record.CheckOut == nil {
			stats.OpenRecords++
			continue
		}
		stats.CompletedRecords++
		stats.TotalHours += record.CheckOut.Sub(record.CheckIn).Hours()
	}
	return stats, nil
}

type fakeUsers struct {
	users map[string]identity.User
}

func (f *fakeUsers) Create(_ context.Context, user identity.User) (identity.User, error) {
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (identity.User, bool, error) {
	user, ok := f.users[id]
	return user, ok, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (identity.User, bool, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return identity.User{}, false, nil
}

func (f *fakeUsers) ExistsByEmail(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (f *fakeUsers) List(_ context.Context, _ identity.ListUsersFilters, _, _ int) (identity.UserListResult, error) {
	return identity.UserListResult{}, nil
}

func (f *fakeUsers) Update(_ context.Context, user identity.User) (identity.User, error) {
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	delete(f.users, id)
	return ok, nil
}

var (
	ana = identity.Principal{UserID: "user-ana", Role: identity.RoleEmployee}
	bob = identity.Principal{UserID: "user-bob", Role: identity.RoleEmployee}
	hr  = identity.Principal{UserID: "user-hr", Role: identity.RoleHR}
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func newTestService(store *fakeStore, at time.Time) *Service {
	users := &fakeUsers{users: map[string]identity.User{
		ana.UserID: {ID: ana.UserID, Role: identity.RoleEmployee, IsActive: true},
		bob.UserID: {ID: bob.UserID, Role: identity.RoleEmployee, IsActive: true},
		hr.UserID:  {ID: hr.UserID, Role: identity.RoleHR, IsActive: true},
	}}
	svc := NewService(store, users)
	svc.Now = func() time.Time { return at }
	return svc
}

func TestCheckInRejectsSecondOpenRecord(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, ana, "")
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, ana, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCheckInRejectsInactiveUser(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	users := svc.Users.(*fakeUsers)
	user := users.users[ana.UserID]
	user.IsActive = false
	users.users[ana.UserID] = user

	_, err := svc.CheckIn(context.Background(), ana, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCheckInUnknownUser(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	_, err := svc.CheckIn(context.Background(), identity.Principal{UserID: "ghost"}, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCheckOutWithoutOpenRecord(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	_, err := svc.CheckOut(context.Background(), ana, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCheckOutComputesHoursAndAppendsNotes(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := newTestService(store, start)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, ana, "morning shift")
	require.NoError(t, err)

	svc.Now = func() time.Time { return start.Add(8*time.Hour + 30*time.Minute) }
	record, err := svc.CheckOut(ctx, ana, "left early for appointment")
	require.NoError(t, err)

	require.NotNil(t, record.Hours)
	assert.Equal(t, 8.5, *record.Hours)
	assert.Equal(t, "morning shift\nleft early for appointment", record.Notes)
	assert.Equal(t, StatusValid, record.Status)

	result, err := svc.ListMine(ctx, ana, ListFilters{}, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 8.5, result.TotalHours)
}

func TestGetHidesForeignRecords(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	record, err := svc.CheckIn(ctx, ana, "")
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, record.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Get(ctx, hr, record.ID)
	assert.NoError(t, err)
}

func TestListScopesNonHRToOwnRecords(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, ana, "")
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, bob, "")
	require.NoError(t, err)

	result, err := svc.List(ctx, ana, ListFilters{UserID: bob.UserID}, 50, 0)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, ana.UserID, result.Records[0].UserID)

	result, err = svc.List(ctx, hr, ListFilters{UserID: bob.UserID}, 50, 0)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, bob.UserID, result.Records[0].UserID)
}

func closedRecord(t *testing.T, svc *Service, p identity.Principal, in, out time.Time) Record {
	t.Helper()
	ctx := context.Background()
	svc.Now = func() time.Time { return in }
	_, err := svc.CheckIn(ctx, p, "")
	require.NoError(t, err)
	svc.Now = func() time.Time { return out }
	record, err := svc.CheckOut(ctx, p, "")
	require.NoError(t, err)
	return record
}

func TestCorrectionFlow(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	newClosed := func(t *testing.T) (*Service, Record) {
		svc := newTestService(newFakeStore(), day(9))
		return svc, closedRecord(t, svc, ana, day(9), day(17))
	}

	t.Run("short reason rejected", func(t *testing.T) {
		svc, record := newClosed(t)
		_, err := svc.RequestCorrection(ctx, ana, record.ID, CorrectionInput{
			Reason: "typo", ProposedCheckIn: day(8), ProposedCheckOut: timePtr(day(16)),
		})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("inverted proposal rejected", func(t *testing.T) {
		svc, record := newClosed(t)
		_, err := svc.RequestCorrection(ctx, ana, record.ID, CorrectionInput{
			Reason: "forgot to clock in on time", ProposedCheckIn: day(16), ProposedCheckOut: timePtr(day(8)),
		})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("non-owner cannot request", func(t *testing.T) {
		svc, record := newClosed(t)
		_, err := svc.RequestCorrection(ctx, bob, record.ID, CorrectionInput{
			Reason: "forgot to clock in on time", ProposedCheckIn: day(8), ProposedCheckOut: timePtr(day(16)),
		})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("approve applies proposed timestamps", func(t *testing.T) {
		svc, record := newClosed(t)
		pending, err := svc.RequestCorrection(ctx, ana, record.ID, CorrectionInput{
			Reason: "forgot to clock in on time", ProposedCheckIn: day(8), ProposedCheckOut: timePtr(day(16)),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPendingCorrection, pending.Status)
		assert.NotNil(t, pending.CorrectionRequestedAt)

		reviewed, err := svc.ReviewCorrection(ctx, hr, record.ID, ReviewInput{Approve: true})
		require.NoError(t, err)
		assert.Equal(t, StatusCorrected, reviewed.Status)
		assert.Equal(t, day(8), reviewed.CheckIn)
		require.NotNil(t, reviewed.CheckOut)
		assert.Equal(t, day(16), *reviewed.CheckOut)
		require.NotNil(t, reviewed.Hours)
		assert.Equal(t, 8.0, *reviewed.Hours)
	})

	t.Run("reject keeps original timestamps", func(t *testing.T) {
		svc, record := newClosed(t)
		_, err := svc.RequestCorrection(ctx, ana, record.ID, CorrectionInput{
			Reason: "forgot to clock in on time", ProposedCheckIn: day(8), ProposedCheckOut: timePtr(day(16)),
		})
		require.NoError(t, err)

		reviewed, err := svc.ReviewCorrection(ctx, hr, record.ID, ReviewInput{Approve: false, Comment: "badge log disagrees"})
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, reviewed.Status)
		assert.Equal(t, day(9), reviewed.CheckIn)
		assert.Contains(t, reviewed.Notes, "badge log disagrees")
	})

	t.Run("second correction while pending rejected", func(t *testing.T) {
		svc, record := newClosed(t)
		input := CorrectionInput{
			Reason: "forgot to clock in on time", ProposedCheckIn: day(8), ProposedCheckOut: timePtr(day(16)),
		}
		_, err := svc.RequestCorrection(ctx, ana, record.ID, input)
		require.NoError(t, err)
		_, err = svc.RequestCorrection(ctx, ana, record.ID, input)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("review of settled record rejected", func(t *testing.T) {
		svc, record := newClosed(t)
		_, err := svc.ReviewCorrection(ctx, hr, record.ID, ReviewInput{Approve: true})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestCorrectionOverlapRejected(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }
	svc := newTestService(newFakeStore(), day(9))
	ctx := context.Background()

	morning := closedRecord(t, svc, ana, day(8), day(12))
	_ = closedRecord(t, svc, ana, day(14), day(18))

	_, err := svc.RequestCorrection(ctx, ana, morning.ID, CorrectionInput{
		Reason: "stayed through lunch that day", ProposedCheckIn: day(8), ProposedCheckOut: timePtr(day(15)),
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCorrectionWithoutCheckOut(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	t.Run("open record keeps only its check-in corrected", func(t *testing.T) {
		svc := newTestService(newFakeStore(), day(9))
		record, err := svc.CheckIn(ctx, ana, "")
		require.NoError(t, err)

		pending, err := svc.RequestCorrection(ctx, ana, record.ID, CorrectionInput{
			Reason: "badge reader was offline at arrival", ProposedCheckIn: day(8),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPendingCorrection, pending.Status)
		assert.Nil(t, pending.ProposedCheckOut)

		reviewed, err := svc.ReviewCorrection(ctx, hr, record.ID, ReviewInput{Approve: true})
		require.NoError(t, err)
		assert.Equal(t, StatusCorrected, reviewed.Status)
		assert.Equal(t, day(8), reviewed.CheckIn)
		assert.Nil(t, reviewed.CheckOut)
	})

	t.Run("open proposal blocked by another open record", func(t *testing.T) {
		svc := newTestService(newFakeStore(), day(9))
		morning := closedRecord(t, svc, ana, day(8), day(12))

		svc.Now = func() time.Time { return day(14) }
		_, err := svc.CheckIn(ctx, ana, "")
		require.NoError(t, err)

		_, err = svc.RequestCorrection(ctx, ana, morning.ID, CorrectionInput{
			Reason: "never actually clocked out that morning", ProposedCheckIn: day(8),
		})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestStatsAverages(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC) }
	svc := newTestService(newFakeStore(), day(2, 9))
	ctx := context.Background()

	closedRecord(t, svc, ana, day(2, 9), day(2, 17))
	closedRecord(t, svc, ana, day(3, 9), day(3, 16))

	svc.Now = func() time.Time { return day(4, 9) }
	_, err := svc.CheckIn(ctx, ana, "")
	require.NoError(t, err)

	stats, err := svc.StatsMine(ctx, ana, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalRecords)
	assert.Equal(t, 2, stats.CompletedRecords)
	assert.Equal(t, 1, stats.OpenRecords)
	assert.Equal(t, 15.0, stats.TotalHours)
	assert.Equal(t, 7.5, stats.AverageHours)
}

func TestStatsEmptyAverageIsZero(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	stats, err := svc.StatsMine(context.Background(), ana, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.AverageHours)
}
