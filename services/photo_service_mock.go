package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/rahulhiremath15/serva-mvp/utils"
)

// MockPhotoService is an in-memory PhotoService for testing
type MockPhotoService struct {
	photos map[string][]byte
	mu     sync.RWMutex
}

// NewMockPhotoService creates a new mock photo service
func NewMockPhotoService() *MockPhotoService {
	return &MockPhotoService{
		photos: make(map[string][]byte),
	}
}

// SetAsMockForTesting installs this mock as the global photo service
func (m *MockPhotoService) SetAsMockForTesting() {
	SetPhotoService(m)
}

// StorePhoto applies the same validation as the real service, then keeps the
// bytes in memory under a deterministic key.
func (m *MockPhotoService) StorePhoto(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("bookings/mock_%s", fileHeader.Filename)

	m.mu.Lock()
	m.photos[key] = content
	m.mu.Unlock()

	return key, nil
}

// PhotoURL returns a fake bucket URL for a stored photo
func (m *MockPhotoService) PhotoURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.photos[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("photo not found in mock storage: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// RemovePhoto drops a photo from mock storage
func (m *MockPhotoService) RemovePhoto(key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.photos, key)
	m.mu.Unlock()

	return nil
}

// HasPhoto reports whether a photo is present in mock storage
func (m *MockPhotoService) HasPhoto(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.photos[key]
	return exists
}

// Clear removes all photos from mock storage
func (m *MockPhotoService) Clear() {
	m.mu.Lock()
	m.photos = make(map[string][]byte)
	m.mu.Unlock()
}
