package services

import (
	"log"
	"time"

	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// pendingReminderAge is how long a booking may sit unclaimed before the
// customer gets a reassurance message.
const pendingReminderAge = 24 * time.Hour

// ReminderService periodically nudges customers whose bookings are still
// waiting for a technician.
type ReminderService struct {
	db       *gorm.DB
	notifier Notifier
	cron     *cron.Cron
}

// NewReminderService creates a reminder service over the given store and notifier
func NewReminderService(db *gorm.DB, notifier Notifier) *ReminderService {
	return &ReminderService{
		db:       db,
		notifier: notifier,
	}
}

// StartScheduler begins the daily reminder run at 9 AM server time
func (s *ReminderService) StartScheduler() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("0 9 * * *", s.SendPendingReminders); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("Reminder scheduler started")
	return nil
}

// Stop halts the scheduler
func (s *ReminderService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// SendPendingReminders notifies customers of bookings that have been pending
// with no technician for longer than pendingReminderAge.
func (s *ReminderService) SendPendingReminders() {
	log.Println("Starting pending booking reminder processing...")

	cutoff := time.Now().Add(-pendingReminderAge)

	var bookings []models.Booking
	err := s.db.Preload("Customer").
		Where("status = ? AND technician_id IS NULL AND created_at < ?", models.StatusPending, cutoff).
		Find(&bookings).Error
	if err != nil {
		log.Printf("Failed to fetch stale pending bookings: %v", err)
		return
	}

	for i := range bookings {
		b := &bookings[i]
		if err := s.notifier.PendingReminder(b, &b.Customer); err != nil {
			log.Printf("Booking %s: reminder delivery failed: %v", b.BookingID, err)
		}
	}

	log.Printf("Pending booking reminder processing completed, %d booking(s) checked", len(bookings))
}
