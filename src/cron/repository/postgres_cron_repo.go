package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MMN3003/megaswap/src/cron/domain"
	"github.com/MMN3003/megaswap/src/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ domain.CronRepository = (*CronRepo)(nil)

// ---------- LOCKS ----------
// One row per running job; the primary key makes a second insert fail.
type Cron struct {
	ID        uuid.UUID `gorm:"type:uuid;primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (Cron) TableName() string { return "cron_locks" }

// ---------- REPO ----------

type CronRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCronRepo(db *gorm.DB, log *logger.Logger) *CronRepo {
	if err := db.AutoMigrate(&Cron{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	return &CronRepo{db: db, log: log}
}

func (r *CronRepo) SaveCron(ctx context.Context, c *domain.Cron) (*domain.Cron, error) {
	model := Cron{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrLockHeld
		}
		return nil, err
	}
	return r.GetCronByID(ctx, model.ID)
}

func (r *CronRepo) GetCronByID(ctx context.Context, id uuid.UUID) (*domain.Cron, error) {
	var c Cron
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomainCron(&c), nil
}

func (r *CronRepo) DeleteCron(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Cron{}, "id = ?", id).Error
}

func (r *CronRepo) DeleteCronsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Cron{})
	return res.RowsAffected, res.Error
}

// ---------- HELPERS ----------

func (r *CronRepo) toDomainCron(c *Cron) *domain.Cron {
	return &domain.Cron{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
	}
}
