package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// AttendanceRepository implements domain.AttendanceRepository using
// PostgreSQL. Entries are stored as a JSONB array on the record row; the
// sheet is always read and written as a whole.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const createAttendanceQuery = `
INSERT INTO attendance_records (class_id, date, entries)
VALUES ($1, $2, $3)
RETURNING id, class_id, date, entries, created_at, updated_at`

const getAttendanceByIDQuery = `
SELECT id, class_id, date, entries, created_at, updated_at
FROM attendance_records
WHERE id = $1`

const getAttendanceByIDForUpdateQuery = `
SELECT id, class_id, date, entries, created_at, updated_at
FROM attendance_records
WHERE id = $1
FOR UPDATE`

const getAttendanceByClassAndDateQuery = `
SELECT id, class_id, date, entries, created_at, updated_at
FROM attendance_records
WHERE class_id = $1 AND date = $2`

const getAttendanceByClassAndRangeQuery = `
SELECT id, class_id, date, entries, created_at, updated_at
FROM attendance_records
WHERE class_id = $1 AND date >= $2 AND date <= $3
ORDER BY date`

const updateAttendanceQuery = `
UPDATE attendance_records
SET entries = $2, updated_at = now()
WHERE id = $1
RETURNING id, class_id, date, entries, created_at, updated_at`

// Create inserts a new attendance sheet. The (class_id, date) unique
// constraint maps to ErrAttendanceAlreadyExists so callers can fall back to a
// get on a concurrent create.
func (r *AttendanceRepository) Create(record *domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	entries, err := json.Marshal(record.Entries)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(context.Background(), createAttendanceQuery,
		record.ClassID, toPgDate(record.Date), entries)
	created, err := scanAttendance(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAttendanceAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an attendance record by ID
func (r *AttendanceRepository) GetByID(id uuid.UUID) (*domain.AttendanceRecord, error) {
	row := r.pool.QueryRow(context.Background(), getAttendanceByIDQuery, id)
	record, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttendanceNotFound
		}
		return nil, err
	}
	return record, nil
}

// GetByIDForUpdateTx retrieves an attendance record and locks its row for the
// transaction so concurrent edits to the same sheet serialize.
func (r *AttendanceRepository) GetByIDForUpdateTx(tx any, id uuid.UUID) (*domain.AttendanceRecord, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(context.Background(), getAttendanceByIDForUpdateQuery, id)
	record, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttendanceNotFound
		}
		return nil, err
	}
	return record, nil
}

// GetByClassAndDate retrieves the record for a class on a calendar day
func (r *AttendanceRepository) GetByClassAndDate(classID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error) {
	row := r.pool.QueryRow(context.Background(), getAttendanceByClassAndDateQuery, classID, toPgDate(date))
	record, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttendanceNotFound
		}
		return nil, err
	}
	return record, nil
}

// GetByClassAndDateRange retrieves all records for a class within [start, end]
func (r *AttendanceRepository) GetByClassAndDateRange(classID uuid.UUID, start, end time.Time) ([]*domain.AttendanceRecord, error) {
	return r.getRange(r.pool, classID, start, end)
}

// GetByClassAndDateRangeTx retrieves the same range within a transaction so a
// fee recompute sees attendance updates from the same transaction.
func (r *AttendanceRepository) GetByClassAndDateRangeTx(tx any, classID uuid.UUID, start, end time.Time) ([]*domain.AttendanceRecord, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getRange(pgxTx, classID, start, end)
}

func (r *AttendanceRepository) getRange(q querier, classID uuid.UUID, start, end time.Time) ([]*domain.AttendanceRecord, error) {
	rows, err := q.Query(context.Background(), getAttendanceByClassAndRangeQuery,
		classID, toPgDate(start), toPgDate(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpdateTx rewrites a record's entries within a transaction
func (r *AttendanceRepository) UpdateTx(tx any, record *domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	entries, err := json.Marshal(record.Entries)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(context.Background(), updateAttendanceQuery, record.ID, entries)
	updated, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttendanceNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Search retrieves a filtered page of attendance records, newest first
func (r *AttendanceRepository) Search(filters *domain.AttendanceFilters) (*domain.PaginatedAttendance, error) {
	ctx := context.Background()
	page, pageSize := domain.NormalizePage(filters.Page, filters.PageSize)

	where := "WHERE 1=1"
	args := []any{}
	idx := 1

	if filters.ClassID != nil {
		where += fmt.Sprintf(" AND class_id = $%d", idx)
		args = append(args, *filters.ClassID)
		idx++
	}
	if filters.Date != nil {
		where += fmt.Sprintf(" AND date = $%d", idx)
		args = append(args, toPgDate(*filters.Date))
		idx++
	}
	if filters.StudentID != nil {
		entryMatch, err := json.Marshal([]map[string]string{{"studentId": filters.StudentID.String()}})
		if err != nil {
			return nil, err
		}
		where += fmt.Sprintf(" AND entries @> $%d", idx)
		args = append(args, entryMatch)
		idx++
	}

	var total int64
	countQuery := "SELECT count(*) FROM attendance_records " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQuery := fmt.Sprintf(`
SELECT id, class_id, date, entries, created_at, updated_at
FROM attendance_records %s
ORDER BY date DESC
LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*domain.AttendanceRecord{}
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.PaginatedAttendance{
		Data:       records,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: domain.TotalPages(total, pageSize),
	}, nil
}

func scanAttendance(row pgx.Row) (*domain.AttendanceRecord, error) {
	var record domain.AttendanceRecord
	var entries []byte
	err := row.Scan(
		&record.ID,
		&record.ClassID,
		&record.Date,
		&entries,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(entries, &record.Entries); err != nil {
		return nil, err
	}
	return &record, nil
}
