package timerecordshandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrtime/internal/auth"
	"hrtime/internal/domain/apperr"
	"hrtime/internal/domain/identity"
	"hrtime/internal/domain/timerecord"
	"hrtime/internal/transport/http/middleware"
)

const testSecret = "journey-secret"

type fakeStore struct {
	records map[string]timerecord.Record
	nextID  int
}

func (f *fakeStore) Create(_ context.Context, record timerecord.Record) (timerecord.Record, error) {
	for _, existing := range f.records {
		if existing.UserID == record.UserID && existing.CheckOut == nil {
			return timerecord.Record{}, apperr.Validation("an open time record already exists")
		}
	}
	f.nextID++
	record.ID = fmt.Sprintf("rec-%d", f.nextID)
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (timerecord.Record, bool, error) {
	record, ok := f.records[id]
	return record, ok, nil
}

func (f *fakeStore) GetOpenByUser(_ context.Context, userID string) (timerecord.Record, bool, error) {
	for _, record := range f.records {
		if record.UserID == userID && record.CheckOut == nil {
			return record, true, nil
		}
	}
	return timerecord.Record{}, false, nil
}

func (f *fakeStore) Update(_ context.Context, record timerecord.Record) (timerecord.Record, error) {
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeStore) List(_ context.Context, filters timerecord.ListFilters, _, _ int) (timerecord.ListResult, error) {
	var records []timerecord.Record
	for _, record := range f.records {
		if filters.UserID != "" && record.UserID != filters.UserID {
			continue
		}
		records = append(records, record)
	}
	return timerecord.ListResult{Records: records, Total: len(records)}, nil
}

func (f *fakeStore) ListInWindow(_ context.Context, userID, excludeID string, from time.Time, to *time.Time) ([]timerecord.Record, error) {
	var records []timerecord.Record
	for _, record := range f.records {
		if record.UserID != userID || record.ID == excludeID {
			continue
		}
		if timerecord.OverlapsProposal(record.CheckIn, record.CheckOut, from, to) {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fakeStore) ApplyCorrection(_ context.Context, id, reviewerID string, approve bool, _ string) (timerecord.Record, error) {
	record, ok := f.records[id]
	if !ok {
		return timerecord.Record{}, apperr.NotFound("time record not found")
	}
	if record.Status != timerecord.StatusPendingCorrection {
		return timerecord.Record{}, apperr.Validation("not pending review")
	}
	if approve {
		record.CheckIn = *record.ProposedCheckIn
		record.CheckOut = record.ProposedCheckOut
		record.Status = timerecord.StatusCorrected
	} else {
		record.Status = timerecord.StatusRejected
	}
	record.ReviewedBy = &reviewerID
	f.records[id] = record
	return record, nil
}

func (f *fakeStore) Stats(_ context.Context, _ timerecord.ListFilters) (timerecord.Stats, error) {
	return timerecord.Stats{}, nil
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

func (f *fakeUsers) GetByEmail(_ context.Context, _ string) (identity.User, bool, error) {
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

type env struct {
	router  chi.Router
	service *timerecord.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	users := &fakeUsers{users: map[string]identity.User{
		"user-ana": {ID: "user-ana", Role: identity.RoleEmployee, IsActive: true},
		"user-bob": {ID: "user-bob", Role: identity.RoleEmployee, IsActive: true},
		"user-hr":  {ID: "user-hr", Role: identity.RoleHR, IsActive: true},
	}}
	service := timerecord.NewService(&fakeStore{records: map[string]timerecord.Record{}}, users)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret))
	NewHandler(service).RegisterRoutes(router)

	return &env{router: router, service: service}
}

func (e *env) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	signed, err := auth.GenerateToken(testSecret, auth.Claims{UserID: userID, Role: role}, time.Hour)
	require.NoError(t, err)
	return signed
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWorkdayJourney(t *testing.T) {
	e := newEnv(t)
	employee := token(t, "user-ana", identity.RoleEmployee)
	hr := token(t, "user-hr", identity.RoleHR)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e.service.Now = func() time.Time { return start }

	rec := e.do(t, http.MethodPost, "/fichajes/check-in", employee, map[string]string{"notes": "on site"})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.RequestID)

	var record timerecord.Record
	require.NoError(t, json.Unmarshal(body.Data, &record))
	recordID := record.ID

	rec = e.do(t, http.MethodPost, "/fichajes/check-in", employee, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode(t, rec).Error.Code)

	rec = e.do(t, http.MethodGet, "/fichajes/me/active", employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	e.service.Now = func() time.Time { return start.Add(8 * time.Hour) }
	rec = e.do(t, http.MethodPost, "/fichajes/check-out", employee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &record))
	require.NotNil(t, record.Hours)
	assert.Equal(t, 8.0, *record.Hours)

	correction := map[string]any{
		"reason":           "badge reader was offline at arrival",
		"proposedCheckIn":  start.Add(-time.Hour).Format(time.RFC3339),
		"proposedCheckOut": start.Add(8 * time.Hour).Format(time.RFC3339),
	}
	rec = e.do(t, http.MethodPost, "/fichajes/"+recordID+"/correction", employee, correction)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/fichajes/"+recordID+"/approve", employee, map[string]any{"approve": true})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/fichajes/"+recordID+"/approve", hr, map[string]any{"approve": true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &record))
	assert.Equal(t, timerecord.StatusCorrected, record.Status)
	assert.Equal(t, start.Add(-time.Hour), record.CheckIn)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/fichajes/check-in", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/fichajes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForeignRecordReadsAsMissing(t *testing.T) {
	e := newEnv(t)
	ana := token(t, "user-ana", identity.RoleEmployee)
	bob := token(t, "user-bob", identity.RoleEmployee)

	e.service.Now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	rec := e.do(t, http.MethodPost, "/fichajes/check-in", ana, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var record timerecord.Record
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &record))

	rec = e.do(t, http.MethodGet, "/fichajes/"+record.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
