package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func TestResolveParticipant(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	bib := 17
	mock.ExpectQuery(`SELECT telegram_id, full_name, category, race_number`).
		WithArgs("gravel100", int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"telegram_id", "full_name", "category", "race_number"}).
			AddRow(int64(42), "Ivanov Ivan", "M-Pro", &bib))

	svc := NewService(mock)
	p, err := svc.ResolveParticipant(context.Background(), "gravel100", 42)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.FullName != "Ivanov Ivan" || p.Category != "M-Pro" {
		t.Fatalf("unexpected participant: %+v", p)
	}
	if p.Bib == nil || *p.Bib != 17 {
		t.Fatalf("expected bib 17, got %v", p.Bib)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolveParticipantWithoutBib(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT telegram_id, full_name, category, race_number`).
		WithArgs("gravel100", int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"telegram_id", "full_name", "category", "race_number"}).
			AddRow(int64(42), "Ivanov Ivan", "M-Pro", nil))

	svc := NewService(mock)
	p, err := svc.ResolveParticipant(context.Background(), "gravel100", 42)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Bib != nil {
		t.Fatalf("expected nil bib before numbers issued, got %v", *p.Bib)
	}
}

func TestResolveParticipantNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT telegram_id, full_name, category, race_number`).
		WithArgs("gravel100", int64(99)).
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock)
	_, err = svc.ResolveParticipant(context.Background(), "gravel100", 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveParticipantQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT telegram_id, full_name, category, race_number`).
		WithArgs("gravel100", int64(42)).
		WillReturnError(errRegistry)

	svc := NewService(mock)
	_, err = svc.ResolveParticipant(context.Background(), "gravel100", 42)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected raw query error, got %v", err)
	}
}

func TestTodaysRace(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Now()
	mock.ExpectQuery(`SELECT code, name, start_at`).
		WillReturnRows(pgxmock.NewRows([]string{"code", "name", "start_at"}).
			AddRow("gravel100", "Gravel 100", start))

	svc := NewService(mock)
	race, err := svc.TodaysRace(context.Background())
	if err != nil {
		t.Fatalf("todays race: %v", err)
	}
	if race.Code != "gravel100" || race.Name != "Gravel 100" {
		t.Fatalf("unexpected race: %+v", race)
	}
}

func TestTodaysRaceNone(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT code, name, start_at`).
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock)
	if _, err := svc.TodaysRace(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRaceByCode(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT code, name, start_at`).
		WithArgs("night50").
		WillReturnRows(pgxmock.NewRows([]string{"code", "name", "start_at"}).
			AddRow("night50", "Night Ride 50", time.Now()))

	svc := NewService(mock)
	race, err := svc.RaceByCode(context.Background(), "night50")
	if err != nil {
		t.Fatalf("race by code: %v", err)
	}
	if race.Code != "night50" {
		t.Fatalf("unexpected race: %+v", race)
	}
}

var errRegistry = errors.New("registry error")
