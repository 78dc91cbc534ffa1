package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron       *cron.Cron
	db         *gorm.DB
	sessionTTL time.Duration
}

// NewCronManager creates a new cron manager. sessionTTL is the age after
// which an unconfirmed checkout session is considered abandoned.
func NewCronManager(db *gorm.DB, sessionTTL time.Duration) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:       c,
		db:         db,
		sessionTTL: sessionTTL,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 30 minutes: sweep abandoned checkout sessions
	_, err := m.cron.AddFunc("0 */30 * * * *", func() {
		log.Println("[CRON] Starting job: sweep_stale_payment_sessions")
		m.SweepStalePaymentSessions()
	})
	return err
}
