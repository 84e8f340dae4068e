package services

import (
	"fmt"
	"log"

	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier sends booking lifecycle notifications to customers. Delivery
// failures are logged by callers and never fail the booking flow.
type Notifier interface {
	BookingCreated(booking *models.Booking, customer *models.User) error
	BookingAccepted(booking *models.Booking, customer *models.User, technician *models.User) error
	PendingReminder(booking *models.Booking, customer *models.User) error
}

var notifierInstance Notifier

// GetNotifier returns the configured notifier instance
func GetNotifier() Notifier {
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(n Notifier) {
	notifierInstance = n
}

// InitNotifier picks the SMS notifier when Twilio credentials are configured,
// otherwise a logging no-op.
func InitNotifier(cfg *config.Config) Notifier {
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		notifierInstance = NewSMSNotifier(cfg)
	} else {
		log.Println("Twilio not configured, SMS notifications disabled")
		notifierInstance = &NoopNotifier{}
	}
	return notifierInstance
}

// SMSNotifier delivers notifications as SMS through Twilio
type SMSNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewSMSNotifier creates an SMS notifier from Twilio configuration
func NewSMSNotifier(cfg *config.Config) *SMSNotifier {
	return &SMSNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		}),
		from: cfg.TwilioFromNumber,
	}
}

func (n *SMSNotifier) send(to, message string) error {
	if to == "" {
		// Phone is optional on accounts; nothing to deliver to
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(message)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", to, err)
	}
	return nil
}

// BookingCreated confirms a new booking to its customer
func (n *SMSNotifier) BookingCreated(booking *models.Booking, customer *models.User) error {
	msg := fmt.Sprintf("Serva: booking %s received for your %s. Track it anytime with your booking code.",
		booking.BookingID, booking.DeviceType)
	return n.send(customer.Phone, msg)
}

// BookingAccepted tells the customer a technician has taken the job
func (n *SMSNotifier) BookingAccepted(booking *models.Booking, customer *models.User, technician *models.User) error {
	msg := fmt.Sprintf("Serva: %s has accepted booking %s and will arrive at your preferred time (%s).",
		technician.FullName(), booking.BookingID, booking.PreferredTime)
	return n.send(customer.Phone, msg)
}

// PendingReminder reassures the customer of a still-unclaimed booking
func (n *SMSNotifier) PendingReminder(booking *models.Booking, customer *models.User) error {
	msg := fmt.Sprintf("Serva: we are still finding the right technician for booking %s. Thanks for your patience.",
		booking.BookingID)
	return n.send(customer.Phone, msg)
}

// NoopNotifier is used when no SMS provider is configured
type NoopNotifier struct{}

func (NoopNotifier) BookingCreated(booking *models.Booking, customer *models.User) error {
	log.Printf("notification skipped: booking %s created", booking.BookingID)
	return nil
}

func (NoopNotifier) BookingAccepted(booking *models.Booking, customer *models.User, technician *models.User) error {
	log.Printf("notification skipped: booking %s accepted", booking.BookingID)
	return nil
}

func (NoopNotifier) PendingReminder(booking *models.Booking, customer *models.User) error {
	log.Printf("notification skipped: booking %s still pending", booking.BookingID)
	return nil
}
