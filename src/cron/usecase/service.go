package usecase

import (
	"context"
	"time"

	"github.com/MMN3003/megaswap/src/cron/domain"
	"github.com/MMN3003/megaswap/src/logger"
	"github.com/google/uuid"
)

var _ domain.CronUseCase = (*Service)(nil)

// Service hands out job locks. A lock older than lockTTL belongs to a run
// that died without releasing it and is cleared before the next attempt.
type Service struct {
	cronRepo domain.CronRepository
	logger   *logger.Logger
	lockTTL  time.Duration
	now      func() time.Time
}

func NewService(cronRepo domain.CronRepository, logg *logger.Logger, lockTTL time.Duration) *Service {
	s := &Service{
		cronRepo: cronRepo,
		logger:   logg,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
	return s
}

func (s *Service) CreateCron(ctx context.Context, id uuid.UUID) error {
	if s.lockTTL > 0 {
		n, err := s.cronRepo.DeleteCronsOlderThan(ctx, s.now().Add(-s.lockTTL))
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Warnf("cleared %d expired cron lock(s)", n)
		}
	}
	_, err := s.cronRepo.SaveCron(ctx, &domain.Cron{ID: id, CreatedAt: s.now()})
	if err != nil {
		s.logger.Debugf("cron %s skipped: %v", id, err)
	}
	return err
}

func (s *Service) DeleteCron(ctx context.Context, id uuid.UUID) error {
	return s.cronRepo.DeleteCron(ctx, id)
}
