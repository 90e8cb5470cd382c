package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linkforge/internal/entities"
	"linkforge/internal/models"
	"linkforge/internal/repository"
	"linkforge/internal/service"
)

type ShortenerController struct {
	linkService service.LinkService
}

func NewShortenerController(linkService service.LinkService) *ShortenerController {
	return &ShortenerController{linkService: linkService}
}

// CreateShortURL handles POST /api/v1/shorten
func (sc *ShortenerController) CreateShortURL(c *gin.Context) {
	var req models.CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetString("user_id")
	userEmail := c.GetString("user_email")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in request context"})
		return
	}

	response, err := sc.linkService.CreateShortLink(c.Request.Context(), &req, userID, userEmail)
	switch {
	case errors.Is(err, service.ErrInvalidURL),
		errors.Is(err, service.ErrInvalidAlias),
		errors.Is(err, service.ErrReservedAlias):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAliasTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create short link"})
	default:
		c.JSON(http.StatusCreated, response)
	}
}

// RedirectToURL handles GET /:shortCode - redirects to the original URL
// and emits a click event.
func (sc *ShortenerController) RedirectToURL(c *gin.Context) {
	shortCode := c.Param("shortCode")

	click := entities.ClickEvent{
		OccurredAt: time.Now().UTC(),
		UserAgent:  c.Request.UserAgent(),
		IPAddress:  c.ClientIP(),
		Referrer:   c.Request.Referer(),
	}

	link, err := sc.linkService.Resolve(c.Request.Context(), shortCode, click)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Short URL not found or expired",
		})
		return
	}

	// 302 so clients re-resolve after expiry or deactivation.
	c.Redirect(http.StatusFound, link.OriginalURL)
}

// GetUserURLs handles GET /api/v1/urls - lists the caller's active links
func (sc *ShortenerController) GetUserURLs(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in request context"})
		return
	}

	links, err := sc.linkService.GetUserLinks(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list links"})
		return
	}

	c.JSON(http.StatusOK, links)
}

// DeleteURL handles DELETE /api/v1/url/:shortCode - soft-deletes a link
func (sc *ShortenerController) DeleteURL(c *gin.Context) {
	shortCode := c.Param("shortCode")

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in request context"})
		return
	}

	err := sc.linkService.DeleteLink(c.Request.Context(), shortCode, userID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "URL deleted successfully"})
}
