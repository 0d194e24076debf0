package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/KseniyaZaitseva1/bloggpt/internal/model"

	"github.com/gin-gonic/gin"
)

type UsageStore interface {
	GetUsage(ctx context.Context, since time.Time) ([]model.ApiUsage, error)
}

type UsageHandler struct {
	repository UsageStore
	now        func() time.Time
}

func NewUsageHandler(repository UsageStore) *UsageHandler {
	return &UsageHandler{repository: repository, now: time.Now}
}

func (h *UsageHandler) GetUsage(c *gin.Context) {
	days := getQueryInt("days", 7, c)
	if days < 1 {
		days = 1
	}
	if days > 90 {
		days = 90
	}

	today := h.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	usage, err := h.repository.GetUsage(c.Request.Context(), since)
	if err != nil {
		slog.Error("error fetching api usage", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := make([]UsageResponse, len(usage))
	for i, u := range usage {
		res[i] = UsageResponse{
			ApiName:      u.ApiName,
			UsageDate:    u.UsageDate.Format(time.DateOnly),
			RequestCount: u.RequestCount,
			TokenCount:   u.TokenCount,
		}
	}

	c.JSON(http.StatusOK, gin.H{"days": days, "usage": res})
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	paramValue := c.Query(name)

	if paramValue == "" {
		return defaultValue
	}

	parsedValue, err := strconv.Atoi(paramValue)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", paramValue, "error", err)
		return defaultValue
	}

	return parsedValue
}
