package usecase

import (
	"context"
	"errors"
	"time"

	cronDomain "github.com/MMN3003/megaswap/src/cron/domain"
	"github.com/MMN3003/megaswap/src/logger"
	cron_adapter "github.com/MMN3003/megaswap/src/swap/adapter/cron"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

var (
	RecheckApprovalsCronID = uuid.MustParse("3f1c2a8e-7d51-4b9a-9c0e-5a1f6b2d8e01")
)

// ApprovalRechecker is the slice of Service the cron job drives.
type ApprovalRechecker interface {
	RecheckApprovals(ctx context.Context, staleAfter time.Duration) error
}

// NewCronService schedules the approval re-check every minute. The cron lock
// keeps concurrent replicas from probing the same records.
func NewCronService(c *cron.Cron, s ApprovalRechecker, ca cron_adapter.CronAdapter, staleAfter time.Duration, logg *logger.Logger) (cron.EntryID, error) {
	return c.AddFunc("0 * * * * *", func() {
		handleRecheckApprovals(context.Background(), s, ca, staleAfter, logg)
	})
}

func handleRecheckApprovals(ctx context.Context, s ApprovalRechecker, ca cron_adapter.CronAdapter, staleAfter time.Duration, logg *logger.Logger) {
	err := ca.CreateCron(ctx, RecheckApprovalsCronID)
	if errors.Is(err, cronDomain.ErrLockHeld) {
		return
	}
	if err != nil {
		logg.Errorf("acquire approval re-check lock: %v", err)
		return
	}
	defer ca.DeleteCron(ctx, RecheckApprovalsCronID)

	if err := s.RecheckApprovals(ctx, staleAfter); err != nil {
		logg.Errorf("recheck approvals: %v", err)
	}
}
