package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkforge/internal/models"
	"linkforge/internal/repository"
	"linkforge/internal/service"
)

type QRCodeController struct {
	qrService service.QRService
}

func NewQRCodeController(qrService service.QRService) *QRCodeController {
	return &QRCodeController{qrService: qrService}
}

// GetQRCode handles GET /api/v1/qrcode/:shortCode - returns a cached or
// freshly generated base64 QR image for the short link.
func (qc *QRCodeController) GetQRCode(c *gin.Context) {
	shortCode := c.Param("shortCode")

	encoded, err := qc.qrService.GetQRCode(c.Request.Context(), shortCode)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found or expired"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.JSON(http.StatusOK, models.QRCodeResponse{
		ShortCode: shortCode,
		Base64PNG: encoded,
	})
}

// SaveQRCode handles PUT /api/v1/qrcode/:shortCode - stores a caller-supplied
// QR artifact, resetting its TTL.
func (qc *QRCodeController) SaveQRCode(c *gin.Context) {
	shortCode := c.Param("shortCode")

	var req struct {
		Base64PNG string `json:"base64_png" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := qc.qrService.SaveQRCode(c.Request.Context(), shortCode, req.Base64PNG); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save QR code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "QR code saved"})
}

// DeleteQRCode handles DELETE /api/v1/qrcode/:shortCode
func (qc *QRCodeController) DeleteQRCode(c *gin.Context) {
	shortCode := c.Param("shortCode")

	if err := qc.qrService.DeleteQRCode(c.Request.Context(), shortCode); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete QR code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "QR code deleted"})
}
