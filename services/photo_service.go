package services

import (
	"fmt"
	"mime/multipart"

	"github.com/rahulhiremath15/serva-mvp/utils"
)

// PhotoService manages the device photos customers attach to bookings.
// Keys returned by StorePhoto are opaque storage references persisted on the
// booking record; URLs are derived on demand and never stored.
type PhotoService interface {
	// StorePhoto validates and stores a device photo, returning its storage key
	StorePhoto(fileHeader *multipart.FileHeader) (string, error)

	// PhotoURL returns a time-limited URL for a stored photo
	PhotoURL(key string) (string, error)

	// RemovePhoto deletes a stored photo; removing a missing key is not an error
	RemovePhoto(key string) error
}

// s3PhotoService backs PhotoService with the S3 layer
type s3PhotoService struct {
	storage S3Interface
}

var photoServiceInstance PhotoService

// InitPhotoService wires the photo service on top of the given storage backend
func InitPhotoService(storage S3Interface) PhotoService {
	photoServiceInstance = &s3PhotoService{storage: storage}
	return photoServiceInstance
}

// GetPhotoService returns the configured photo service, nil when photo
// storage is not set up.
func GetPhotoService() PhotoService {
	return photoServiceInstance
}

// SetPhotoService sets the photo service instance (primarily for testing)
func SetPhotoService(service PhotoService) {
	photoServiceInstance = service
}

func (s *s3PhotoService) StorePhoto(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	key, err := s.storage.UploadFile(fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	return key, nil
}

func (s *s3PhotoService) PhotoURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.storage.GetPresignedURL(key)
	if err != nil {
		return "", fmt.Errorf("failed to generate photo URL: %w", err)
	}
	return url, nil
}

func (s *s3PhotoService) RemovePhoto(key string) error {
	if key == "" {
		return nil
	}

	if err := s.storage.DeleteFile(key); err != nil {
		return fmt.Errorf("failed to remove photo: %w", err)
	}
	return nil
}
