package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cron is a job lock row: present while a run of job ID is in progress.
type Cron struct {
	ID        uuid.UUID
	CreatedAt time.Time
}
