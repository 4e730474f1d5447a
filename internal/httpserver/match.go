package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/pokerhall/internal/events"
	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/logging"
	"github.com/openclaw/pokerhall/internal/models"
	"github.com/openclaw/pokerhall/internal/repo"
)

type MatchHandler struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
}

func (h *MatchHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicMatchEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

func (h *MatchHandler) ListByTournament(c echo.Context) error {
	tournamentID, err := parseID(c, "tournament_id")
	if err != nil {
		return err
	}

	matches, err := h.Repo.MatchesByTournament(c.Request().Context(), tournamentID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tournament_id": tournamentID,
		"matches":       matches,
	})
}

func (h *MatchHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	m, err := h.Repo.GetMatch(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return httperr.NotFound("Match not found")
		}
		return err
	}

	players, err := h.Repo.MatchPlayers(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"match":   m,
		"players": players,
	})
}

func (h *MatchHandler) Create(c echo.Context) error {
	var req struct {
		TournamentID uint       `json:"tournament_id"`
		TableNumber  int        `json:"table_number"`
		GameNumber   int        `json:"game_number"`
		ScheduledAt  *time.Time `json:"scheduled_at"`
		Players      []struct {
			UserID        uint `json:"user_id"`
			Position      int  `json:"position"`
			StartingStack int  `json:"starting_stack"`
		} `json:"players"`
	}
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("Invalid request body")
	}
	if req.TournamentID == 0 || req.TableNumber < 1 || req.GameNumber < 1 {
		return httperr.BadRequest("Missing tournament_id, table_number or game_number")
	}

	ctx := c.Request().Context()
	if _, err := h.Repo.GetTournament(ctx, req.TournamentID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return httperr.NotFound("Tournament not found")
		}
		return err
	}

	m := models.Match{
		TournamentID: req.TournamentID,
		TableNumber:  req.TableNumber,
		GameNumber:   req.GameNumber,
		Status:       models.MatchScheduled,
		ScheduledAt:  req.ScheduledAt,
	}
	if err := h.Repo.CreateMatch(ctx, &m); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return httperr.Conflict("Match already exists for this table and game")
		}
		return err
	}

	for _, p := range req.Players {
		mp := models.MatchPlayer{
			MatchID:       m.ID,
			UserID:        p.UserID,
			Position:      p.Position,
			StartingStack: p.StartingStack,
		}
		if err := h.Repo.AddMatchPlayer(ctx, &mp); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return httperr.Conflict("Player seated twice")
			}
			return err
		}
	}

	return c.JSON(http.StatusCreated, m)
}

func (h *MatchHandler) SubmitScore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		WinnerID uint               `json:"winner_id"`
		Results  []repo.ScoreResult `json:"results"`
	}
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("Invalid request body")
	}
	if req.WinnerID == 0 || len(req.Results) == 0 {
		return httperr.BadRequest("Missing winner_id or results")
	}

	if err := h.Repo.SubmitScore(c.Request().Context(), id, req.WinnerID, req.Results); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return httperr.NotFound("Match not found")
		}
		return err
	}

	h.publish(c, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":      "match_completed",
		"match_id":  id,
		"winner_id": req.WinnerID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"message":  "Match score submitted",
		"match_id": id,
	})
}
