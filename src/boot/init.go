package boot

import (
	"context"
	"cowork/src/config"
	"cowork/src/lib"
	"cowork/src/models"
	"log"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

const SWEEPER_JOB_NAME = "pending-booking-sweeper"

func InitDb(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Room{},
		&models.Member{},
		&models.Booking{},
	)
}

type PendingSweeper interface {
	SweepPendingBookings(ctx context.Context) (int64, error)
}

func sweep(cfg *config.Config, sweeper PendingSweeper) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExternalCallTimeout)
	defer cancel()
	// The sweeper logs its own failures; the next tick retries.
	_, _ = sweeper.SweepPendingBookings(ctx)
}

// InitScheduler registers the recurring jobs and starts the scheduler.
func InitScheduler(cfg *config.Config, sweeper PendingSweeper) (gocron.Scheduler, error) {
	sched, err := lib.NewScheduler()
	if err != nil {
		return nil, err
	}
	if _, err := lib.CreateDurationJob(sched, SWEEPER_JOB_NAME, cfg.SweeperInterval, sweep, cfg, sweeper); err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return nil, err
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
	return sched, nil
}

func StopScheduler(sched gocron.Scheduler) {
	if sched == nil {
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("An error has occurred while stopping Scheduler: %s\n", err.Error())
	}
}
