package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rahulhiremath15/serva-mvp/config"
)

// Diagnosis is the structured result of classifying a device photo
type Diagnosis struct {
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
	Advice   string `json:"advice"`
}

// FallbackDiagnosis returns the fixed generic diagnosis used whenever the
// external classifier is unavailable. The booking flow is never blocked by
// the classifier; this is a business rule, not a failure mode.
func FallbackDiagnosis(deviceType string) *Diagnosis {
	return &Diagnosis{
		Issue:    "General hardware inspection required",
		Severity: "unknown",
		Advice:   fmt.Sprintf("A technician will inspect your %s on site and confirm the exact issue before any repair begins.", deviceType),
	}
}

// DiagnosisService classifies a device photo into a probable issue
type DiagnosisService interface {
	Classify(image []byte, filename, deviceType string) (*Diagnosis, error)
}

// HTTPDiagnosisService calls the external classification endpoint over HTTP
type HTTPDiagnosisService struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

var diagnosisServiceInstance DiagnosisService

// NewDiagnosisService creates a diagnosis service from configuration
func NewDiagnosisService(cfg *config.Config) *HTTPDiagnosisService {
	return &HTTPDiagnosisService{
		url:    cfg.DiagnosisAPIURL,
		apiKey: cfg.DiagnosisAPIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// InitDiagnosisService initializes the package-level diagnosis service
func InitDiagnosisService(cfg *config.Config) DiagnosisService {
	diagnosisServiceInstance = NewDiagnosisService(cfg)
	return diagnosisServiceInstance
}

// GetDiagnosisService returns the initialized diagnosis service instance
func GetDiagnosisService() DiagnosisService {
	return diagnosisServiceInstance
}

// SetDiagnosisService sets the diagnosis service instance (primarily for testing)
func SetDiagnosisService(service DiagnosisService) {
	diagnosisServiceInstance = service
}

// Classify posts the photo and device type to the classifier and parses the
// structured result. Callers are expected to fall back to FallbackDiagnosis
// on any returned error.
func (s *HTTPDiagnosisService) Classify(image []byte, filename, deviceType string) (*Diagnosis, error) {
	if s.url == "" {
		return nil, errors.New("diagnosis API is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}
	if err := writer.WriteField("device_type", deviceType); err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call diagnosis endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diagnosis endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var diagnosis Diagnosis
	if err := json.NewDecoder(resp.Body).Decode(&diagnosis); err != nil {
		return nil, fmt.Errorf("failed to decode diagnosis response: %w", err)
	}
	if diagnosis.Issue == "" {
		return nil, errors.New("diagnosis response missing issue")
	}

	return &diagnosis, nil
}
