package timerecord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrtime/internal/domain/apperr"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = "id, user_id, check_in, check_out, status, notes, correction_reason, correction_requested_at, proposed_check_in, proposed_check_out, reviewed_by, reviewed_at, created_at, updated_at"

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.CheckIn, &r.CheckOut, &r.Status, &r.Notes,
		&r.CorrectionReason, &r.CorrectionRequestedAt, &r.ProposedCheckIn, &r.ProposedCheckOut,
		&r.ReviewedBy, &r.ReviewedAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) Create(ctx context.Context, record Record) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO time_records (user_id, check_in, status, notes)
    VALUES ($1, $2, $3, $4)
    RETURNING `+recordColumns+`
  `, record.UserID, record.CheckIn, record.Status, record.Notes)

	created, err := scanRecord(row)
	if err != nil {
		// The partial unique index on open records turns the check-in race
		// into a constraint violation.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, apperr.Validation("an open time record already exists")
		}
		return Record{}, err
	}
	return created, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (Record, bool, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM time_records WHERE id = $1", id)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

func (s *Store) GetOpenByUser(ctx context.Context, userID string) (Record, bool, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM time_records WHERE user_id = $1 AND check_out IS NULL", userID)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

func (s *Store) Update(ctx context.Context, record Record) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE time_records
    SET check_out = $1, status = $2, notes = $3, correction_reason = $4,
        correction_requested_at = $5, proposed_check_in = $6,
        proposed_check_out = $7, updated_at = now()
    WHERE id = $8
    RETURNING `+recordColumns+`
  `, record.CheckOut, record.Status, record.Notes, record.CorrectionReason,
		record.CorrectionRequestedAt, record.ProposedCheckIn, record.ProposedCheckOut, record.ID)
	return scanRecord(row)
}

func filterWhere(filters ListFilters) (string, []any) {
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
	if filters.From != nil {
		args = append(args, *filters.From)
		where += fmt.Sprintf(" AND check_in >= $%d", len(args))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		where += fmt.Sprintf(" AND check_in < $%d", len(args))
	}
	if filters.OpenOnly {
		where += " AND check_out IS NULL"
	}
	return where, args
}

func (s *Store) List(ctx context.Context, filters ListFilters, limit, offset int) (ListResult, error) {
	where, args := filterWhere(filters)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM time_records"+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT "+recordColumns+" FROM time_records"+where+" ORDER BY check_in DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return ListResult{}, err
		}
		records = append(records, record)
	}
	return ListResult{Records: records, Total: total}, rows.Err()
}

func (s *Store) ListInWindow(ctx context.Context, userID, excludeID string, from time.Time, to *time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+` FROM time_records
    WHERE user_id = $1 AND id <> $2
      AND ($4::timestamptz IS NULL OR check_in < $4)
      AND (check_out IS NULL OR check_out > $3)
  `, userID, excludeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) ApplyCorrection(ctx context.Context, id, reviewerID string, approve bool, comment string) (Record, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, "SELECT "+recordColumns+" FROM time_records WHERE id = $1 FOR UPDATE", id)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, apperr.NotFound("time record not found")
	}
	if err != nil {
		return Record{}, err
	}
	if record.Status != StatusPendingCorrection {
		return Record{}, apperr.Newf(apperr.KindValidation, "time record is %s, not pending review", record.Status)
	}

	notes := record.Notes
	if comment != "" {
		if notes != "" {
			notes += "\n"
		}
		notes += comment
	}

	var updated Record
	if approve {
		row = tx.QueryRow(ctx, `
      UPDATE time_records
      SET check_in = proposed_check_in, check_out = proposed_check_out,
          status = $1, notes = $2, reviewed_by = $3, reviewed_at = now(), updated_at = now()
      WHERE id = $4
      RETURNING `+recordColumns+`
    `, StatusCorrected, notes, reviewerID, id)
	} else {
		row = tx.QueryRow(ctx, `
      UPDATE time_records
      SET status = $1, notes = $2, reviewed_by = $3, reviewed_at = now(), updated_at = now()
      WHERE id = $4
      RETURNING `+recordColumns+`
    `, StatusRejected, notes, reviewerID, id)
	}
	updated, err = scanRecord(row)
	if err != nil {
		return Record{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	return updated, nil
}

func (s *Store) Stats(ctx context.Context, filters ListFilters) (Stats, error) {
	where, args := filterWhere(filters)

	var stats Stats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COUNT(check_out),
           COUNT(1) FILTER (WHERE check_out IS NULL),
           COUNT(1) FILTER (WHERE status = '`+StatusPendingCorrection+`'),
           COALESCE(SUM(EXTRACT(EPOCH FROM (check_out - check_in)) / 3600), 0)
    FROM time_records`+where, args...).
		Scan(&stats.TotalRecords, &stats.CompletedRecords, &stats.OpenRecords, &stats.PendingReview, &stats.TotalHours)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}
