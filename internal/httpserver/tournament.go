package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/openclaw/pokerhall/internal/cache"
	"github.com/openclaw/pokerhall/internal/events"
	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/logging"
	"github.com/openclaw/pokerhall/internal/middleware"
	"github.com/openclaw/pokerhall/internal/models"
	"github.com/openclaw/pokerhall/internal/repo"
	"github.com/openclaw/pokerhall/internal/search"
	"github.com/openclaw/pokerhall/internal/util"
	"github.com/openclaw/pokerhall/internal/validation"
)

type TournamentHandler struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
	ES       *elasticsearch.Client
	Cache    *cache.LeaderboardCache
}

func (h *TournamentHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicTournamentEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

func (h *TournamentHandler) index(c echo.Context, t *models.Tournament) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexTournament(ctx, h.ES, t); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index failed", "error", err)
	}
}

func (h *TournamentHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 20)
	offset, limit := util.Calculate(page, limit)

	ctx := c.Request().Context()
	items, total, err := h.Repo.ListTournaments(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return err
	}

	type tournamentWithSeats struct {
		models.Tournament
		PlayerCount    int64 `json:"player_count"`
		SeatsAvailable int64 `json:"seats_available"`
	}
	out := make([]tournamentWithSeats, len(items))
	for i, t := range items {
		count, err := h.Repo.PlayerCount(ctx, t.ID)
		if err != nil {
			return err
		}
		out[i] = tournamentWithSeats{
			Tournament:     t,
			PlayerCount:    count,
			SeatsAvailable: int64(t.MaxPlayers) - count,
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tournaments": out,
		"pagination": echo.Map{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *TournamentHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	t, err := h.Repo.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return httperr.NotFound("Tournament not found")
		}
		return err
	}

	players, err := h.Repo.TournamentPlayers(ctx, t.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tournament": t,
		"players":    players,
	})
}

func (h *TournamentHandler) Create(c echo.Context) error {
	var req struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		BuyInChips  int       `json:"buy_in_chips"`
		EntryFeeUSD float64   `json:"entry_fee_usd"`
		MaxPlayers  int       `json:"max_players"`
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("Invalid request body")
	}

	if !validation.TournamentName(req.Name) {
		return httperr.BadRequest("Tournament name: 3-128 chars")
	}
	if !validation.BuyInChips(req.BuyInChips) {
		return httperr.BadRequest("buy_in_chips must be a positive integer")
	}
	if !validation.EntryFee(req.EntryFeeUSD) {
		return httperr.BadRequest("entry_fee_usd must be non-negative")
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = 8
	}
	if !validation.MaxPlayers(req.MaxPlayers) {
		return httperr.BadRequest("max_players must be between 2 and 8")
	}
	if !validation.FutureDate(req.ScheduledAt) {
		return httperr.BadRequest("scheduled_at must be a future date")
	}

	claims := middleware.ClaimsFromContext(c)

	t := models.Tournament{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.TournamentScheduled,
		BuyInChips:  req.BuyInChips,
		EntryFeeUSD: req.EntryFeeUSD,
		MaxPlayers:  req.MaxPlayers,
		ScheduledAt: req.ScheduledAt,
		CreatedByID: claims.UserID,
	}
	if err := h.Repo.CreateTournament(c.Request().Context(), &t); err != nil {
		return err
	}

	h.index(c, &t)
	h.publish(c, strconv.FormatUint(uint64(t.ID), 10), map[string]any{
		"type":          "tournament_created",
		"tournament_id": t.ID,
		"name":          t.Name,
		"created_by":    claims.UserID,
	})

	return c.JSON(http.StatusCreated, t)
}

func (h *TournamentHandler) Register(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	claims := middleware.ClaimsFromContext(c)

	seated, err := h.Repo.RegisterPlayer(c.Request().Context(), id, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return httperr.NotFound("Tournament not found")
		case errors.Is(err, repo.ErrAlreadyRegistered):
			return httperr.Conflict("Already registered")
		case errors.Is(err, repo.ErrTournamentFull):
			return httperr.BadRequest("Tournament full")
		}
		return err
	}

	t, err := h.Repo.GetTournament(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"message":         "Registered for tournament",
		"tournament_id":   id,
		"user_id":         claims.UserID,
		"player_count":    seated,
		"seats_available": int64(t.MaxPlayers) - seated,
	})
}

func (h *TournamentHandler) Unregister(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	claims := middleware.ClaimsFromContext(c)

	if err := h.Repo.UnregisterPlayer(c.Request().Context(), id, claims.UserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return httperr.NotFound("Registration not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"message":       "Unregistered from tournament",
		"tournament_id": id,
		"user_id":       claims.UserID,
	})
}

func (h *TournamentHandler) Complete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Results []repo.TournamentResult `json:"results"`
	}
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("Invalid request body")
	}
	if len(req.Results) == 0 {
		return httperr.BadRequest("Missing results")
	}
	for _, res := range req.Results {
		if res.FinishPosition < 1 || res.PrizeUSD < 0 {
			return httperr.BadRequest("Invalid result entry")
		}
	}

	ctx := c.Request().Context()
	if err := h.Repo.CompleteTournament(ctx, id, req.Results); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return httperr.NotFound("Tournament or player not found")
		}
		return err
	}

	// Standings changed; drop stale leaderboard pages.
	h.Cache.Invalidate(ctx)

	if t, err := h.Repo.GetTournament(ctx, id); err == nil {
		h.index(c, t)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"message":       "Tournament completed",
		"tournament_id": id,
	})
}

func (h *TournamentHandler) Search(c echo.Context) error {
	if h.ES == nil {
		return httperr.NotFound("Search is not enabled")
	}
	q := c.QueryParam("q")
	if q == "" {
		return httperr.BadRequest("Missing query parameter q")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), 20)
	from, size := util.Calculate(page, size)

	total, items, err := search.Tournaments(c.Request().Context(), h.ES, q, from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total":       total,
		"tournaments": items,
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, httperr.BadRequest("Invalid id")
	}
	return uint(v), nil
}
