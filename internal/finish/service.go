package finish

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Service keeps the set of finished race numbers for the active race.
// The timekeeping flow appends to it; ingest consults it so a finished
// rider's late fixes are ignored.
type Service struct {
	redis *redis.Client
}

func NewService(redisClient *redis.Client) *Service {
	return &Service{redis: redisClient}
}

// IsFinished reports whether the given bib has crossed the finish line.
func (s *Service) IsFinished(ctx context.Context, raceCode string, bib int) (bool, error) {
	if s.redis == nil {
		return false, nil
	}
	return s.redis.SIsMember(ctx, finishersKey(raceCode), strconv.Itoa(bib)).Result()
}

// RecordFinish marks the given bib as finished.
func (s *Service) RecordFinish(ctx context.Context, raceCode string, bib int) error {
	if s.redis == nil {
		logrus.Warnf("no redis configured, finish for bib %d not recorded", bib)
		return nil
	}
	return s.redis.SAdd(ctx, finishersKey(raceCode), strconv.Itoa(bib)).Err()
}

// Clear drops the finishers set, called when a race session ends.
func (s *Service) Clear(ctx context.Context, raceCode string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, finishersKey(raceCode)).Err()
}

func finishersKey(raceCode string) string {
	return "race:" + raceCode + ":finishers"
}
