package repo

import (
	"context"
	"fmt"

	"github.com/openclaw/pokerhall/internal/models"
)

type LeaderboardEntry struct {
	Rank              int      `json:"rank" gorm:"-"`
	UserID            uint     `json:"user_id"`
	Username          string   `json:"username"`
	TournamentsPlayed int      `json:"tournaments_played"`
	TournamentWins    int      `json:"tournament_wins"`
	AvgFinish         *float64 `json:"avg_finish"`
	TotalWinnings     float64  `json:"total_winnings"`
}

const leaderboardSelect = `users.id AS user_id,
users.username AS username,
COUNT(DISTINCT tournament_players.tournament_id) AS tournaments_played,
COALESCE(SUM(CASE WHEN tournament_players.finish_position = 1 THEN 1 ELSE 0 END), 0) AS tournament_wins,
AVG(tournament_players.finish_position) AS avg_finish,
COALESCE(SUM(tournament_players.prize_usd), 0) AS total_winnings`

// Leaderboard aggregates finishing results over tournament_players, ranked by
// total winnings. Rank is filled in relative to the requested offset.
func (r *GormRepo) Leaderboard(ctx context.Context, offset, limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Select(leaderboardSelect).
		Joins("LEFT JOIN tournament_players ON tournament_players.user_id = users.id").
		Group("users.id, users.username").
		Order("total_winnings DESC").
		Offset(offset).Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = offset + i + 1
	}
	return entries, nil
}

func (r *GormRepo) PlayerStats(ctx context.Context, userID uint) (*LeaderboardEntry, error) {
	var entry LeaderboardEntry
	result := r.DB.WithContext(ctx).Model(&models.User{}).
		Select(leaderboardSelect).
		Joins("LEFT JOIN tournament_players ON tournament_players.user_id = users.id").
		Where("users.id = ?", userID).
		Group("users.id, users.username").
		Scan(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("player stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &entry, nil
}
