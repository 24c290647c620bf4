package usertype

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserType is a selectable OFS user type kept in the local catalog.
type UserType struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) List(ctx context.Context) ([]UserType, error) {
	rows, err := s.DB.Query(ctx, "SELECT code, description FROM user_types ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserType
	for rows.Next() {
		var ut UserType
		if err := rows.Scan(&ut.Code, &ut.Description); err != nil {
			return nil, err
		}
		out = append(out, ut)
	}
	return out, rows.Err()
}

func (s *Store) Exists(ctx context.Context, code string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM user_types WHERE code = $1", code).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
