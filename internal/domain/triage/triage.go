package triage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

type Entry struct {
	ApptNumber   string     `json:"apptNumber"`
	ResourceID   string     `json:"resourceId"`
	City         string     `json:"city"`
	CustomerName string     `json:"customerName"`
	ActivityDate *time.Time `json:"activityDate,omitempty"`
	Status       string     `json:"status"`
	Note         string     `json:"note"`
	UpdatedBy    string     `json:"updatedBy"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notdone_triage (appt_number, resource_id, city, customer_name, activity_date, status, note, updated_by, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
    ON CONFLICT (appt_number) DO UPDATE
    SET status = EXCLUDED.status,
        note = EXCLUDED.note,
        updated_by = EXCLUDED.updated_by,
        updated_at = now()
  `, entry.ApptNumber, entry.ResourceID, entry.City, entry.CustomerName, entry.ActivityDate, entry.Status, entry.Note, entry.UpdatedBy)
	return err
}

// EntriesByAppt loads the triage state for a set of appointment numbers,
// keyed for the merge with the live OFS listing.
func (s *Store) EntriesByAppt(ctx context.Context, apptNumbers []string) (map[string]Entry, error) {
	out := map[string]Entry{}
	if len(apptNumbers) == 0 {
		return out, nil
	}

	rows, err := s.DB.Query(ctx, `
    SELECT appt_number, resource_id, city, customer_name, activity_date, status, note, updated_by, updated_at
    FROM notdone_triage
    WHERE appt_number = ANY($1)
  `, apptNumbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ApptNumber, &entry.ResourceID, &entry.City, &entry.CustomerName, &entry.ActivityDate, &entry.Status, &entry.Note, &entry.UpdatedBy, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		out[entry.ApptNumber] = entry
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context, status string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `
    SELECT appt_number, resource_id, city, customer_name, activity_date, status, note, updated_by, updated_at
    FROM notdone_triage
  `
	args := []any{limit}
	if status != "" {
		query += " WHERE status = $2"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC LIMIT $1"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ApptNumber, &entry.ResourceID, &entry.City, &entry.CustomerName, &entry.ActivityDate, &entry.Status, &entry.Note, &entry.UpdatedBy, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
