package cron

import (
	"log"
	"time"

	"github.com/edulaunch/marketplace-api/model"
)

// SweepStalePaymentSessions deletes pending checkout sessions older than the
// configured TTL. These are abandoned checkouts: the workflow never confirmed
// them and a newer session may already have replaced them at the provider.
func (m *CronManager) SweepStalePaymentSessions() {
	cutoff := time.Now().Add(-m.sessionTTL)

	result := m.db.
		Where("created_at < ?", cutoff).
		Delete(&model.PaymentSession{})
	if result.Error != nil {
		log.Printf("[CRON] sweep_stale_payment_sessions failed: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("[CRON] sweep_stale_payment_sessions removed %d sessions older than %s", result.RowsAffected, m.sessionTTL)
	}
}
