package race

import (
	"context"
	"errors"
	"sync"

	"github.com/iwatkot/fatracingbot/internal/registry"

	"github.com/sirupsen/logrus"
)

// ParticipantResolver supplies registration records for riders that
// appear in the location stream. Implemented by registry.Service.
type ParticipantResolver interface {
	ResolveParticipant(ctx context.Context, raceCode string, telegramID int64) (registry.Participant, error)
}

// FinishChecker reports whether a bib already crossed the finish line.
// Implemented by finish.Service.
type FinishChecker interface {
	IsFinished(ctx context.Context, raceCode string, bib int) (bool, error)
}

// Store is the concurrent map of rider -> tracking record for one
// session. Upsert, Remove and Snapshot share one mutex so readers never
// observe a partially updated set.
type Store struct {
	mu       sync.Mutex
	raceCode string
	tracks   map[int64]*Track

	resolver  ParticipantResolver
	finishers FinishChecker
}

func NewStore(raceCode string, resolver ParticipantResolver, finishers FinishChecker) *Store {
	return &Store{
		raceCode:  raceCode,
		tracks:    map[int64]*Track{},
		resolver:  resolver,
		finishers: finishers,
	}
}

// Upsert applies one location fix. The first fix for a rider resolves
// identity, category and bib from the registry; unresolvable riders are
// dropped with a warning and no mutation. Fixes for finished riders are
// ignored. Later fixes only overwrite the stored position.
//
// The registry and finishers round-trips run outside the mutex so one
// slow lookup never stalls concurrent ingest or a snapshot.
func (s *Store) Upsert(ctx context.Context, telegramID int64, fix Fix) {
	s.mu.Lock()
	track, ok := s.tracks[telegramID]
	var bib *int
	if ok {
		// Identity fields are immutable once stored, reading the bib
		// after unlocking is safe.
		bib = track.Bib
	}
	s.mu.Unlock()

	if ok {
		if s.finished(ctx, bib) {
			logrus.Debugf("rider %d already finished, dropping fix", telegramID)
			return
		}
		s.mu.Lock()
		if track, ok := s.tracks[telegramID]; ok {
			track.Fix = fix
		}
		s.mu.Unlock()
		return
	}

	participant, err := s.resolver.ResolveParticipant(ctx, s.raceCode, telegramID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			logrus.Warnf("rider %d is not registered for race %s, dropping fix", telegramID, s.raceCode)
		} else {
			logrus.Warnf("resolving rider %d for race %s: %v", telegramID, s.raceCode, err)
		}
		return
	}

	if s.finished(ctx, participant.Bib) {
		logrus.Debugf("rider %d already finished, dropping fix", telegramID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent fix may have created the record while the lock was
	// released; keep the existing identity and only update the position.
	if track, ok := s.tracks[telegramID]; ok {
		track.Fix = fix
		return
	}
	s.tracks[telegramID] = &Track{
		TelegramID: participant.TelegramID,
		FullName:   participant.FullName,
		Category:   participant.Category,
		Bib:        participant.Bib,
		Fix:        fix,
	}
}

// Remove deletes the record carrying the given bib. Called by the
// timekeeping flow once the bib is recorded as finished.
func (s *Store) Remove(bib int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, track := range s.tracks {
		if track.Bib != nil && *track.Bib == bib {
			delete(s.tracks, id)
			logrus.Infof("rider %d with bib %d removed from tracking", id, bib)
			return
		}
	}
}

// Snapshot returns a point-in-time copy of all tracking records, taken
// under the mutation lock.
func (s *Store) Snapshot() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Track, 0, len(s.tracks))
	for _, track := range s.tracks {
		copied := *track
		if track.Bib != nil {
			bib := *track.Bib
			copied.Bib = &bib
		}
		out = append(out, copied)
	}
	return out
}

// Len reports the number of tracked riders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// Clear drops every tracking record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = map[int64]*Track{}
}

func (s *Store) finished(ctx context.Context, bib *int) bool {
	if bib == nil {
		return false
	}
	finished, err := s.finishers.IsFinished(ctx, s.raceCode, *bib)
	if err != nil {
		logrus.Warnf("checking finish state for bib %d: %v", *bib, err)
		return false
	}
	return finished
}
