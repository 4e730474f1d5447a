package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openclaw/pokerhall/internal/models"
)

func (r *GormRepo) CreateMatch(ctx context.Context, m *models.Match) error {
	if err := r.DB.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

type MatchSummary struct {
	models.Match
	Winner *string `json:"winner"`
}

func (r *GormRepo) MatchesByTournament(ctx context.Context, tournamentID uint) ([]MatchSummary, error) {
	var matches []MatchSummary
	err := r.DB.WithContext(ctx).Model(&models.Match{}).
		Select("matches.*, users.username AS winner").
		Joins("LEFT JOIN users ON users.id = matches.winner_id").
		Where("matches.tournament_id = ?", tournamentID).
		Order("matches.table_number ASC, matches.game_number ASC").
		Scan(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("matches by tournament: %w", err)
	}
	return matches, nil
}

func (r *GormRepo) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	var m models.Match
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &m, nil
}

type MatchSeat struct {
	models.MatchPlayer
	Username string `json:"username"`
}

func (r *GormRepo) MatchPlayers(ctx context.Context, matchID uint) ([]MatchSeat, error) {
	var seats []MatchSeat
	err := r.DB.WithContext(ctx).Model(&models.MatchPlayer{}).
		Select("match_players.*, users.username AS username").
		Joins("JOIN users ON users.id = match_players.user_id").
		Where("match_players.match_id = ?", matchID).
		Order("match_players.position ASC").
		Scan(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("match players: %w", err)
	}
	return seats, nil
}

func (r *GormRepo) AddMatchPlayer(ctx context.Context, mp *models.MatchPlayer) error {
	if err := r.DB.WithContext(ctx).Create(mp).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("add match player: %w", err)
	}
	return nil
}

type ScoreResult struct {
	UserID      uint   `json:"user_id"`
	EndingStack int    `json:"ending_stack"`
	Status      string `json:"status"`
}

// SubmitScore marks the match completed, sets the winner and applies each
// player's ending stack in one transaction.
func (r *GormRepo) SubmitScore(ctx context.Context, matchID, winnerID uint, results []ScoreResult) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Match
		if err := tx.First(&m, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		m.Status = models.MatchCompleted
		m.WinnerID = &winnerID
		m.CompletedAt = &now
		if err := tx.Save(&m).Error; err != nil {
			return err
		}

		for _, res := range results {
			if err := tx.Model(&models.MatchPlayer{}).
				Where("match_id = ? AND user_id = ?", matchID, res.UserID).
				Updates(map[string]any{
					"ending_stack": res.EndingStack,
					"status":       res.Status,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
