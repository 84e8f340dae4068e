package controllers

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/models"
	"gorm.io/gorm"
)

// certificateData is the view model for the rendered warranty certificate
type certificateData struct {
	BookingID      string
	DeviceType     string
	Issue          string
	CustomerName   string
	TechnicianName string
	WarrantyToken  string
	ExpiryDate     string
	Valid          bool
}

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Digital Warranty Certificate - {{.BookingID}}</title>
  <style>
    body { font-family: Georgia, serif; background: #f4f4f4; margin: 0; padding: 40px; }
    .certificate { max-width: 640px; margin: 0 auto; background: #fff; border: 2px solid #1a3c6e; padding: 40px; }
    h1 { color: #1a3c6e; text-align: center; margin-top: 0; }
    .token { font-family: monospace; font-size: 1.2em; letter-spacing: 2px; }
    .row { margin: 12px 0; }
    .label { color: #666; font-size: 0.85em; text-transform: uppercase; }
    .value { font-size: 1.1em; }
    .status-valid { color: #1a7d3c; font-weight: bold; }
    .status-expired { color: #b01818; font-weight: bold; }
    .footer { margin-top: 32px; text-align: center; color: #888; font-size: 0.8em; }
  </style>
</head>
<body>
  <div class="certificate">
    <h1>Digital Warranty Certificate</h1>
    <div class="row"><div class="label">Certificate ID</div><div class="value token">{{.WarrantyToken}}</div></div>
    <div class="row"><div class="label">Booking Reference</div><div class="value">{{.BookingID}}</div></div>
    <div class="row"><div class="label">Device</div><div class="value">{{.DeviceType}}</div></div>
    <div class="row"><div class="label">Repaired Issue</div><div class="value">{{.Issue}}</div></div>
    <div class="row"><div class="label">Customer</div><div class="value">{{.CustomerName}}</div></div>
    <div class="row"><div class="label">Technician</div><div class="value">{{.TechnicianName}}</div></div>
    <div class="row"><div class="label">Valid Until</div><div class="value">{{.ExpiryDate}}</div></div>
    <div class="row">
      {{if .Valid}}<span class="status-valid">WARRANTY ACTIVE</span>{{else}}<span class="status-expired">WARRANTY EXPIRED</span>{{end}}
    </div>
    <p>This repair is covered by a one-year Serva warranty from the date of booking. Present this certificate for any follow-up service on the repaired issue.</p>
    <div class="footer">Serva Digital Warranty System</div>
  </div>
</body>
</html>
`))

func renderCertificateError(c *gin.Context, status int, message string) {
	c.Data(status, "text/html; charset=utf-8",
		[]byte("<!DOCTYPE html><html><body><h1>"+template.HTMLEscapeString(message)+"</h1></body></html>"))
}

func renderCertificate(c *gin.Context, booking *models.Booking) {
	technicianName := "Not yet assigned"
	if booking.Technician != nil {
		technicianName = booking.Technician.FullName()
	}

	issue := booking.Issue
	if issue == "other" && booking.CustomIssueDescription != "" {
		issue = booking.CustomIssueDescription
	}

	data := certificateData{
		BookingID:      booking.BookingID,
		DeviceType:     booking.DeviceType,
		Issue:          issue,
		CustomerName:   booking.Customer.FullName(),
		TechnicianName: technicianName,
		WarrantyToken:  booking.WarrantyToken,
		ExpiryDate:     booking.WarrantyExpiry.Format("January 2, 2006"),
		Valid:          booking.WarrantyValid(time.Now()),
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := certificateTemplate.Execute(c.Writer, data); err != nil {
		renderCertificateError(c, http.StatusInternalServerError, "Failed to render certificate")
	}
}

// GetCertificate handles GET /api/v1/bookings/:id/certificate. Public and
// idempotent: the certificate is a pure projection of the booking record,
// regenerated on every request.
func GetCertificate(c *gin.Context) {
	db := config.GetDB()
	booking, err := findBooking(db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderCertificateError(c, http.StatusNotFound, "Certificate not found")
		} else {
			renderCertificateError(c, http.StatusInternalServerError, "Failed to load certificate")
		}
		return
	}

	renderCertificate(c, booking)
}

// GetCertificateByToken handles GET /api/v1/warranty/:token, the deep link
// printed on the certificate itself.
func GetCertificateByToken(c *gin.Context) {
	db := config.GetDB()
	var booking models.Booking
	err := db.Preload("Customer").Preload("Technician").
		Where("warranty_token = ?", c.Param("token")).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderCertificateError(c, http.StatusNotFound, "Certificate not found")
		} else {
			renderCertificateError(c, http.StatusInternalServerError, "Failed to load certificate")
		}
		return
	}

	renderCertificate(c, &booking)
}
