package models

import (
	"time"

	"github.com/rahulhiremath15/serva-mvp/utils"
	"gorm.io/gorm"
)

// Booking lifecycle statuses. Status only advances forward:
// pending -> in-progress -> completed. "confirmed" is declared for schema
// compatibility with older clients but no handler transitions into it.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// WarrantyDuration is the fixed coverage period granted at booking creation.
const WarrantyDuration = 365 * 24 * time.Hour

// Booking represents a customer's repair request and its lifecycle record.
// Bookings are hard-deleted on removal, so no soft-delete column here.
type Booking struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	BookingID              string    `gorm:"uniqueIndex;not null" json:"booking_id"` // human-readable code, BK-<digits>
	CustomerID             uint      `gorm:"not null;index" json:"customer_id"`
	Customer               User      `gorm:"foreignKey:CustomerID" json:"customer"`
	DeviceType             string    `gorm:"not null" json:"device_type"`
	Issue                  string    `gorm:"not null" json:"issue"`
	CustomIssueDescription string    `json:"custom_issue_description,omitempty"` // required when Issue == "other"
	PreferredTime          string    `gorm:"not null" json:"preferred_time"`
	Address                string    `gorm:"not null" json:"address"`
	DeviceModel            string    `json:"device_model,omitempty"`
	PhotoKey               *string   `json:"photo_key,omitempty"`          // storage key of the uploaded photo
	PhotoURL               *string   `gorm:"-" json:"photo_url,omitempty"` // computed, presigned URL
	Status                 string    `gorm:"not null;default:'pending'" json:"status"`
	TechnicianID           *uint     `gorm:"index" json:"technician_id"` // nil until claimed
	Technician             *User     `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	Cost                   float64   `gorm:"not null;default:0" json:"cost"`
	WarrantyToken          string    `gorm:"uniqueIndex;not null" json:"warranty_token"`
	WarrantyExpiry         time.Time `gorm:"not null" json:"warranty_expiry"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// BeforeCreate generates the booking code and warranty record exactly once.
// The warranty fields are immutable after creation.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.BookingID == "" {
		b.BookingID = utils.GenerateBookingCode()
	}
	if b.WarrantyToken == "" {
		b.WarrantyToken = utils.GenerateWarrantyToken()
	}
	if b.WarrantyExpiry.IsZero() {
		b.WarrantyExpiry = time.Now().Add(WarrantyDuration)
	}
	return nil
}

// WarrantyValid reports whether the warranty covers the given instant
func (b *Booking) WarrantyValid(now time.Time) bool {
	return now.Before(b.WarrantyExpiry)
}
