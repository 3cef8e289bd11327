package race

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iwatkot/fatracingbot/internal/registry"
	"github.com/iwatkot/fatracingbot/internal/route"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrRaceOngoing is returned when starting while a session is active.
	ErrRaceOngoing = errors.New("a race is already ongoing")
	// ErrNoActiveRace is returned by operations that need an active session.
	ErrNoActiveRace = errors.New("no active race")
)

// RaceRegistry supplies catalog entries for races. Implemented by
// registry.Service.
type RaceRegistry interface {
	TodaysRace(ctx context.Context) (registry.Race, error)
	RaceByCode(ctx context.Context, code string) (registry.Race, error)
}

// FinishRecorder records finished bibs. Implemented by finish.Service.
type FinishRecorder interface {
	RecordFinish(ctx context.Context, raceCode string, bib int) error
	Clear(ctx context.Context, raceCode string) error
}

// StatePublisher pushes race state transitions to the display surface.
// Implemented by publish.Publisher.
type StatePublisher interface {
	PublishState(state string)
}

// Controller owns the single active session and drives the
// Idle -> Ongoing -> Idle lifecycle. Ingest and the snapshot builder
// reach the session only through its methods.
type Controller struct {
	mu      sync.Mutex
	session *Session

	races     RaceRegistry
	resolver  ParticipantResolver
	finishers FinishChecker
	recorder  FinishRecorder
	publisher StatePublisher

	tracksDir string
	mapDir    string

	// AfterStop, when set, runs once a session has been torn down.
	// The server uses it to drop the last built leaderboard.
	AfterStop func()
}

func NewController(
	races RaceRegistry,
	resolver ParticipantResolver,
	finishers FinishChecker,
	recorder FinishRecorder,
	publisher StatePublisher,
	tracksDir, mapDir string,
) *Controller {
	return &Controller{
		races:     races,
		resolver:  resolver,
		finishers: finishers,
		recorder:  recorder,
		publisher: publisher,
		tracksDir: tracksDir,
		mapDir:    mapDir,
	}
}

// Start begins today's race from the registry.
func (c *Controller) Start(ctx context.Context) (Session, error) {
	info, err := c.races.TodaysRace(ctx)
	if err != nil {
		return Session{}, err
	}
	return c.start(info)
}

// StartByCode begins the race with the given code.
func (c *Controller) StartByCode(ctx context.Context, code string) (Session, error) {
	info, err := c.races.RaceByCode(ctx, code)
	if err != nil {
		return Session{}, err
	}
	return c.start(info)
}

func (c *Controller) start(info registry.Race) (Session, error) {
	// Route load happens before any state transition: a missing track
	// aborts the start and the controller stays idle.
	courseRoute, err := route.Load(c.tracksDir, info.Code)
	if err != nil {
		return Session{}, err
	}

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return Session{}, ErrRaceOngoing
	}

	session := &Session{
		ID:        uuid.NewString(),
		Code:      info.Code,
		Name:      info.Name,
		StartedAt: time.Now(),
		route:     courseRoute,
		store:     NewStore(info.Code, c.resolver, c.finishers),
	}
	c.session = session
	c.mu.Unlock()

	logrus.Infof("race %s (%s) started at %d", info.Name, info.Code, session.StartedAt.Unix())
	if c.publisher != nil {
		c.publisher.PublishState("start")
	}
	return *session, nil
}

// Stop ends the active session. New fixes are rejected as soon as Stop
// returns; a builder tick already in flight may still publish one final
// stale snapshot.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return ErrNoActiveRace
	}

	session.store.Clear()
	if err := c.recorder.Clear(ctx, session.Code); err != nil {
		logrus.Warnf("clearing finishers for race %s: %v", session.Code, err)
	}
	if c.publisher != nil {
		c.publisher.PublishState("stop")
	}
	c.removeStagedMap()
	if c.AfterStop != nil {
		c.AfterStop()
	}

	logrus.Infof("race %s (%s) stopped", session.Name, session.Code)
	return nil
}

// Ingest applies one incoming location fix. A fix arriving while no
// session is ongoing is dropped without error.
func (c *Controller) Ingest(ctx context.Context, telegramID int64, fix Fix) bool {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		logrus.Debugf("fix from rider %d dropped, no active race", telegramID)
		return false
	}

	session.store.Upsert(ctx, telegramID, fix)
	return true
}

// RecordFinish marks a bib as finished and removes its tracking record.
func (c *Controller) RecordFinish(ctx context.Context, bib int) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return ErrNoActiveRace
	}

	if err := c.recorder.RecordFinish(ctx, session.Code, bib); err != nil {
		return err
	}
	session.store.Remove(bib)
	return nil
}

// Current returns a copy of the active session's public fields.
func (c *Controller) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Tracking hands the snapshot builder everything a tick needs: the
// course, the race code and a consistent copy of the tracking records.
func (c *Controller) Tracking() (route.Route, string, []Track, bool) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return route.Route{}, "", nil, false
	}
	return session.route, session.Code, session.store.Snapshot(), true
}

func (c *Controller) removeStagedMap() {
	path := filepath.Join(c.mapDir, "map.html")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("removing staged map %s: %v", path, err)
	}
}
