package registry

import (
	"context"
	"errors"

	"github.com/iwatkot/fatracingbot/internal/db"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a participant or race is not registered.
var ErrNotFound = errors.New("not found in registry")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// ResolveParticipant looks up the registration record for a rider of the
// given race. Identity, category and bib are owned by the registration
// subsystem and never change during a race.
func (s *Service) ResolveParticipant(ctx context.Context, raceCode string, telegramID int64) (Participant, error) {
	row := s.db.QueryRow(ctx, `
		SELECT telegram_id, full_name, category, race_number
		FROM participants
		WHERE race_code=$1 AND telegram_id=$2
	`, raceCode, telegramID)

	var p Participant
	if err := row.Scan(&p.TelegramID, &p.FullName, &p.Category, &p.Bib); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Participant{}, ErrNotFound
		}
		return Participant{}, err
	}
	return p, nil
}

// TodaysRace returns the race scheduled for the current date.
func (s *Service) TodaysRace(ctx context.Context) (Race, error) {
	row := s.db.QueryRow(ctx, `
		SELECT code, name, start_at
		FROM races
		WHERE start_at::date = CURRENT_DATE
		ORDER BY start_at
		LIMIT 1
	`)
	return scanRace(row)
}

// RaceByCode returns the race with the given code.
func (s *Service) RaceByCode(ctx context.Context, code string) (Race, error) {
	row := s.db.QueryRow(ctx, `
		SELECT code, name, start_at
		FROM races
		WHERE code=$1
	`, code)
	return scanRace(row)
}

func scanRace(row pgx.Row) (Race, error) {
	var r Race
	if err := row.Scan(&r.Code, &r.Name, &r.Start); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Race{}, ErrNotFound
		}
		return Race{}, err
	}
	return r, nil
}
