package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrLockHeld = errors.New("cron lock held by another run")

type CronRepository interface {
	SaveCron(ctx context.Context, c *Cron) (*Cron, error)
	DeleteCron(ctx context.Context, id uuid.UUID) error
	DeleteCronsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type CronUseCase interface {
	CreateCron(ctx context.Context, id uuid.UUID) error
	DeleteCron(ctx context.Context, id uuid.UUID) error
}
