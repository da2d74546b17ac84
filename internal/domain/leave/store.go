package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrtime/internal/domain/apperr"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const requestColumns = "id, user_id, type, start_date, end_date, motive, status, business_days, reviewed_by, review_comment, reviewed_at, created_at, updated_at"

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.UserID, &r.Type, &r.StartDate, &r.EndDate, &r.Motive,
		&r.Status, &r.BusinessDays, &r.ReviewedBy, &r.ReviewComment, &r.ReviewedAt,
		&r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) Create(ctx context.Context, request Request) (Request, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (user_id, type, start_date, end_date, motive, status, business_days)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+requestColumns+`
  `, request.UserID, request.Type, request.StartDate, request.EndDate,
		request.Motive, request.Status, request.BusinessDays)
	return scanRequest(row)
}

func (s *Store) GetByID(ctx context.Context, id string) (Request, bool, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+requestColumns+" FROM leave_requests WHERE id = $1", id)
	request, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, false, nil
	}
	if err != nil {
		return Request{}, false, err
	}
	return request, true, nil
}

func (s *Store) Update(ctx context.Context, request Request) (Request, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET type = $1, start_date = $2, end_date = $3, motive = $4, status = $5,
        business_days = $6, updated_at = now()
    WHERE id = $7
    RETURNING `+requestColumns+`
  `, request.Type, request.StartDate, request.EndDate, request.Motive,
		request.Status, request.BusinessDays, request.ID)
	return scanRequest(row)
}

func (s *Store) List(ctx context.Context, filters ListFilters, limit, offset int) (ListResult, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filters.UserID != "" {
		args = append(args, filters.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.Type != "" {
		args = append(args, filters.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		where += fmt.Sprintf(" AND start_date >= $%d", len(args))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		where += fmt.Sprintf(" AND end_date <= $%d", len(args))
	}
	if filters.ActiveOnly {
		args = append(args, StatusApproved)
		where += fmt.Sprintf(" AND status = $%d AND start_date <= CURRENT_DATE AND end_date >= CURRENT_DATE", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	order := " ORDER BY start_date DESC"
	if filters.OldestFirst {
		order = " ORDER BY created_at ASC"
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT "+requestColumns+" FROM leave_requests"+where+order+" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return ListResult{}, err
		}
		requests = append(requests, request)
	}
	return ListResult{Requests: requests, Total: total}, rows.Err()
}

func (s *Store) FindConflicting(ctx context.Context, userID, excludeID string, start, end time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+` FROM leave_requests
    WHERE user_id = $1 AND id <> $2
      AND status IN ($3, $4)
      AND start_date <= $6 AND end_date >= $5
  `, userID, excludeID, StatusPending, StatusApproved, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func (s *Store) PendingVacationDays(ctx context.Context, userID, excludeID string) (float64, error) {
	var days float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(business_days), 0) FROM leave_requests
    WHERE user_id = $1 AND id <> $2 AND type = $3 AND status = $4
  `, userID, excludeID, TypeVacation, StatusPending).Scan(&days)
	return days, err
}

func (s *Store) Review(ctx context.Context, id, reviewerID string, approve bool, comment string) (Request, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, "SELECT "+requestColumns+" FROM leave_requests WHERE id = $1 FOR UPDATE", id)
	request, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, apperr.NotFound("leave request not found")
	}
	if err != nil {
		return Request{}, err
	}
	if request.Status != StatusPending {
		return Request{}, apperr.Newf(apperr.KindValidation, "leave request is %s, not pending review", request.Status)
	}

	status := StatusRejected
	if approve {
		status = StatusApproved
		// The decrement comes from the locked row, so a concurrent edit of
		// the day count cannot debit a stale figure.
		if request.Type == TypeVacation {
			decrement := float64(request.BusinessDays)
			tag, err := tx.Exec(ctx, `
        UPDATE users SET available_days = available_days - $1, updated_at = now()
        WHERE id = $2 AND available_days >= $1
      `, decrement, request.UserID)
			if err != nil {
				return Request{}, err
			}
			if tag.RowsAffected() == 0 {
				return Request{}, apperr.Conflict("insufficient vacation balance").
					WithDetails(map[string]any{"requestedDays": decrement})
			}
		}
	}

	row = tx.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $1, reviewed_by = $2, review_comment = $3, reviewed_at = now(), updated_at = now()
    WHERE id = $4
    RETURNING `+requestColumns+`
  `, status, reviewerID, comment, id)
	updated, err := scanRequest(row)
	if err != nil {
		return Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return updated, nil
}

func (s *Store) Balance(ctx context.Context, userID string) (Balance, error) {
	balance := Balance{UserID: userID}
	err := s.DB.QueryRow(ctx, `
    SELECT u.annual_days,
           u.available_days,
           COALESCE(a.pending_days, 0),
           COALESCE(a.used_days, 0),
           COALESCE(a.pending_count, 0),
           COALESCE(a.approved_count, 0),
           a.next_approved_start
    FROM users u
    LEFT JOIN (
      SELECT r.user_id,
             SUM(r.business_days) FILTER (WHERE r.type = $2 AND r.status = $3) AS pending_days,
             SUM(r.business_days) FILTER (WHERE r.type = $2 AND r.status = $4
               AND date_part('year', r.start_date) = date_part('year', CURRENT_DATE)) AS used_days,
             COUNT(1) FILTER (WHERE r.status = $3) AS pending_count,
             COUNT(1) FILTER (WHERE r.status = $4) AS approved_count,
             MIN(r.start_date) FILTER (WHERE r.status = $4 AND r.start_date > CURRENT_DATE) AS next_approved_start
      FROM leave_requests r
      WHERE r.user_id = $1
      GROUP BY r.user_id
    ) a ON a.user_id = u.id
    WHERE u.id = $1
  `, userID, TypeVacation, StatusPending, StatusApproved).
		Scan(&balance.AnnualDays, &balance.AvailableDays, &balance.PendingDays,
			&balance.UsedDays, &balance.PendingCount, &balance.ApprovedCount,
			&balance.NextApprovedStart)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return Balance{}, err
	}
	return balance, nil
}
