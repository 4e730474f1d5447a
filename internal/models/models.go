package models

import (
	"time"
)

// Role is the closed set of authorization roles. Public registration always
// produces RolePlayer; the other roles are assigned out of band.
type Role string

const (
	RolePlayer    Role = "player"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User carries the credential and the denormalized refresh session state.
// RefreshTokenHash and RefreshTokenExpiresAt are set and cleared together:
// both nil means no active session. One row per user means one live refresh
// token per user at a time.
type User struct {
	ID                    uint       `gorm:"primaryKey;autoIncrement"       json:"id"`
	Username              string     `gorm:"uniqueIndex;size:32;not null"   json:"username"`
	Email                 *string    `gorm:"uniqueIndex;size:255"           json:"email,omitempty"`
	PasswordHash          string     `gorm:"not null"                       json:"-"`
	Role                  Role       `gorm:"not null;default:player"        json:"role"`
	RefreshTokenHash      *string    `gorm:"size:64"                        json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type TournamentStatus string

const (
	TournamentDraft      TournamentStatus = "draft"
	TournamentScheduled  TournamentStatus = "scheduled"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
	TournamentCancelled  TournamentStatus = "cancelled"
)

type Tournament struct {
	ID          uint             `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name        string           `gorm:"size:128;not null"               json:"name"`
	Description string           `gorm:"type:text"                       json:"description"`
	Status      TournamentStatus `gorm:"not null;default:draft"          json:"status"`
	BuyInChips  int              `gorm:"not null"                        json:"buy_in_chips"`
	EntryFeeUSD float64          `gorm:"not null;default:0"              json:"entry_fee_usd"`
	MaxPlayers  int              `gorm:"not null;default:8"              json:"max_players"`
	ScheduledAt time.Time        `gorm:"not null"                        json:"scheduled_at"`
	CreatedByID uint             `gorm:"index;not null"                  json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type TournamentPlayer struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"                         json:"id"`
	TournamentID   uint      `gorm:"uniqueIndex:idx_tournament_user;not null"         json:"tournament_id"`
	UserID         uint      `gorm:"uniqueIndex:idx_tournament_user;index;not null"   json:"user_id"`
	Status         string    `gorm:"not null;default:registered"                      json:"status"`
	StartingStack  int       `gorm:"not null;default:10000"                           json:"starting_stack"`
	CurrentStack   *int      `json:"current_stack,omitempty"`
	FinishPosition *int      `json:"finish_position,omitempty"`
	PrizeUSD       *float64  `json:"prize_usd,omitempty"`
	JoinedAt       time.Time `gorm:"autoCreateTime"                                   json:"joined_at"`
}

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCancelled  MatchStatus = "cancelled"
)

type Match struct {
	ID           uint        `gorm:"primaryKey;autoIncrement"                    json:"id"`
	TournamentID uint        `gorm:"uniqueIndex:idx_match_table_game;not null"   json:"tournament_id"`
	TableNumber  int         `gorm:"uniqueIndex:idx_match_table_game;not null"   json:"table_number"`
	GameNumber   int         `gorm:"uniqueIndex:idx_match_table_game;not null"   json:"game_number"`
	Status       MatchStatus `gorm:"not null;default:scheduled"                  json:"status"`
	WinnerID     *uint       `json:"winner_id,omitempty"`
	PotTotal     *int        `json:"pot_total,omitempty"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	HandCount    int         `gorm:"not null;default:0"                          json:"hand_count"`
	CreatedAt    time.Time   `json:"created_at"`
}

type MatchPlayer struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"                    json:"id"`
	MatchID       uint   `gorm:"uniqueIndex:idx_match_user;not null"         json:"match_id"`
	UserID        uint   `gorm:"uniqueIndex:idx_match_user;index;not null"   json:"user_id"`
	Position      int    `gorm:"not null"                                    json:"position"`
	StartingStack int    `gorm:"not null"                                    json:"starting_stack"`
	EndingStack   *int   `json:"ending_stack,omitempty"`
	Status        string `gorm:"not null;default:active"                     json:"status"`
}
