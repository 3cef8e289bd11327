package leaderboard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/iwatkot/fatracingbot/internal/race"
	"github.com/iwatkot/fatracingbot/internal/route"

	"github.com/sirupsen/logrus"
)

// TrackingSource is the view of the active session a tick needs.
// Implemented by race.Controller.
type TrackingSource interface {
	Tracking() (route.Route, string, []race.Track, bool)
}

// Publisher receives the artifacts of a completed tick. Implemented by
// publish.Publisher.
type Publisher interface {
	PublishLeaderboard(entries any)
	PublishMap(doc string)
}

// Broadcaster fans a tick's leaderboard out to live viewers.
// Implemented by stream.Hub.
type Broadcaster interface {
	Broadcast(raceCode string, payload []byte)
}

// Builder recomputes the leaderboard and the race map on a fixed
// cadence. Ticks run sequentially on one goroutine so two passes never
// overlap.
type Builder struct {
	source    TrackingSource
	publisher Publisher
	hub       Broadcaster
	mapDir    string
	interval  time.Duration

	mu     sync.Mutex
	latest []Entry
}

func NewBuilder(source TrackingSource, publisher Publisher, hub Broadcaster, mapDir string, interval time.Duration) *Builder {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Builder{
		source:    source,
		publisher: publisher,
		hub:       hub,
		mapDir:    mapDir,
		interval:  interval,
	}
}

// Run ticks until the context is cancelled.
func (b *Builder) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.BuildOnce(ctx); err != nil {
				logrus.Errorf("leaderboard tick: %v", err)
			}
		}
	}
}

// BuildOnce performs a single tick: project every tracked rider onto
// the course, rank by distance, render the map and hand both artifacts
// to the publisher. A tick with no ongoing race or no tracked riders is
// a no-op.
func (b *Builder) BuildOnce(_ context.Context) ([]Entry, error) {
	courseRoute, raceCode, tracks, ongoing := b.source.Tracking()
	if !ongoing || len(tracks) == 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(tracks))
	for _, track := range tracks {
		distance, err := route.Project(courseRoute, track.Fix.Lat, track.Fix.Lon)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Distance: distance,
			Category: track.Category,
			Bib:      track.Bib,
			Name:     track.FullName,
		})
	}

	// Distance descending; equal distances order by bib so repeated
	// ticks produce the same board. Riders without a bib sort last
	// within their distance group.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Distance != entries[j].Distance {
			return entries[i].Distance > entries[j].Distance
		}
		return lessByBib(entries[i].Bib, entries[j].Bib)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	doc, err := renderMap(courseRoute, tracks)
	if err != nil {
		return nil, err
	}
	b.stageMap(doc)

	if b.publisher != nil {
		b.publisher.PublishLeaderboard(entries)
		b.publisher.PublishMap(doc)
	}
	if b.hub != nil {
		if payload, err := json.Marshal(entries); err == nil {
			b.hub.Broadcast(raceCode, payload)
		}
	}

	b.mu.Lock()
	b.latest = entries
	b.mu.Unlock()

	logrus.Debugf("leaderboard tick for race %s: %d entries", raceCode, len(entries))
	return entries, nil
}

// Latest returns the entries of the most recent completed tick.
func (b *Builder) Latest() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, len(b.latest))
	copy(out, b.latest)
	return out
}

// Reset drops the last built leaderboard, used when a race stops.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = nil
}

func (b *Builder) stageMap(doc string) {
	if b.mapDir == "" {
		return
	}
	path := filepath.Join(b.mapDir, "map.html")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		logrus.Warnf("staging map %s: %v", path, err)
	}
}

func lessByBib(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
