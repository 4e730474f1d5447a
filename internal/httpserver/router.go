package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/openclaw/pokerhall/internal/middleware"
	"github.com/openclaw/pokerhall/internal/models"
)

type Deps struct {
	Auth        *middleware.AuthMiddleware
	AuthHandler *AuthHandler
	Tournaments *TournamentHandler
	Matches     *MatchHandler
	Leaderboard *LeaderboardHandler

	AllowedOrigins []string
}

func Register(e *echo.Echo, d *Deps) {
	if len(d.AllowedOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     d.AllowedOrigins,
			AllowCredentials: true,
		}))
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/api/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	tournaments := e.Group("/api/tournaments")
	tournaments.GET("", d.Tournaments.List)
	tournaments.GET("/search", d.Tournaments.Search)
	tournaments.GET("/:id", d.Tournaments.Get)
	tournaments.POST("", d.Tournaments.Create,
		d.Auth.RequireAuth, middleware.RequireRole(models.RoleAdmin))
	tournaments.POST("/:id/complete", d.Tournaments.Complete,
		d.Auth.RequireAuth, middleware.RequireRole(models.RoleAdmin))
	tournaments.POST("/:id/register", d.Tournaments.Register, d.Auth.RequireAuth)
	tournaments.DELETE("/:id/unregister", d.Tournaments.Unregister, d.Auth.RequireAuth)

	matches := e.Group("/api/matches")
	matches.GET("/tournament/:tournament_id", d.Matches.ListByTournament)
	matches.GET("/:id", d.Matches.Get)
	matches.POST("", d.Matches.Create,
		d.Auth.RequireAuth, middleware.RequireRole(models.RoleAdmin, models.RoleModerator))
	matches.POST("/:id/submit-score", d.Matches.SubmitScore, d.Auth.RequireAuth)

	leaderboard := e.Group("/api/leaderboard")
	leaderboard.GET("", d.Leaderboard.Global)
	leaderboard.GET("/:user_id", d.Leaderboard.PlayerStats)
}
