package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/pokerhall/internal/cache"
	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/repo"
)

type LeaderboardHandler struct {
	Repo  *repo.GormRepo
	Cache *cache.LeaderboardCache
}

func (h *LeaderboardHandler) Global(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), 50)
	if limit > 100 {
		limit = 100
	}
	offset := parseIntDefault(c.QueryParam("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	ctx := c.Request().Context()
	key := cache.Key(offset, limit)
	if data, ok := h.Cache.Get(ctx, key); ok {
		return c.JSONBlob(http.StatusOK, data)
	}

	entries, err := h.Repo.Leaderboard(ctx, offset, limit)
	if err != nil {
		return err
	}

	body := echo.Map{
		"leaderboard": entries,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	h.Cache.Set(ctx, key, payload)

	return c.JSONBlob(http.StatusOK, payload)
}

func (h *LeaderboardHandler) PlayerStats(c echo.Context) error {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return err
	}

	stats, err := h.Repo.PlayerStats(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return httperr.NotFound("Player not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
