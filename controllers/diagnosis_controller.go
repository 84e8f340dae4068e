package controllers

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/services"
	"github.com/rahulhiremath15/serva-mvp/utils"
)

// DiagnoseDevice handles POST /api/v1/diagnose (multipart: image + device_type).
// The external classifier is an opaque collaborator: any failure, including a
// missing or invalid image, degrades to the fixed generic diagnosis so the
// booking flow is never blocked.
func DiagnoseDevice(c *gin.Context) {
	deviceType := strings.TrimSpace(c.PostForm("device_type"))
	if deviceType == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Device type is required")
		return
	}

	respond := func(diagnosis *services.Diagnosis, fallback bool) {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"fallback": fallback,
			"data":     diagnosis,
		})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respond(services.FallbackDiagnosis(deviceType), true)
		return
	}
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		respond(services.FallbackDiagnosis(deviceType), true)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond(services.FallbackDiagnosis(deviceType), true)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respond(services.FallbackDiagnosis(deviceType), true)
		return
	}

	svc := services.GetDiagnosisService()
	if svc == nil {
		respond(services.FallbackDiagnosis(deviceType), true)
		return
	}

	diagnosis, err := svc.Classify(image, fileHeader.Filename, deviceType)
	if err != nil {
		log.Printf("Diagnosis failed, using fallback: %v", err)
		respond(services.FallbackDiagnosis(deviceType), true)
		return
	}

	respond(diagnosis, false)
}
