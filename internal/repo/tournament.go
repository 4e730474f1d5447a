package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openclaw/pokerhall/internal/models"
)

var (
	ErrTournamentFull    = errors.New("tournament full")
	ErrAlreadyRegistered = errors.New("already registered")
)

func (r *GormRepo) CreateTournament(ctx context.Context, t *models.Tournament) error {
	if err := r.DB.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}
	return nil
}

func (r *GormRepo) GetTournament(ctx context.Context, id uint) (*models.Tournament, error) {
	var t models.Tournament
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	return &t, nil
}

func (r *GormRepo) ListTournaments(ctx context.Context, status string, offset, limit int) ([]models.Tournament, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Tournament{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tournaments: %w", err)
	}

	var items []models.Tournament
	if err := q.Order("scheduled_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list tournaments: %w", err)
	}
	return items, total, nil
}

func (r *GormRepo) SaveTournament(ctx context.Context, t *models.Tournament) error {
	if err := r.DB.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("save tournament: %w", err)
	}
	return nil
}

func (r *GormRepo) PlayerCount(ctx context.Context, tournamentID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.TournamentPlayer{}).
		Where("tournament_id = ?", tournamentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}

type TournamentEntry struct {
	models.TournamentPlayer
	Username string `json:"username"`
}

func (r *GormRepo) TournamentPlayers(ctx context.Context, tournamentID uint) ([]TournamentEntry, error) {
	var entries []TournamentEntry
	err := r.DB.WithContext(ctx).Model(&models.TournamentPlayer{}).
		Select("tournament_players.*, users.username AS username").
		Joins("JOIN users ON users.id = tournament_players.user_id").
		Where("tournament_players.tournament_id = ?", tournamentID).
		Order("tournament_players.joined_at ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("tournament players: %w", err)
	}
	return entries, nil
}

// RegisterPlayer seats a user, enforcing the seat cap and uniqueness inside
// one transaction so two concurrent joins cannot both take the last seat.
func (r *GormRepo) RegisterPlayer(ctx context.Context, tournamentID, userID uint) (int64, error) {
	var seated int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, tournamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.TournamentPlayer{}).
			Where("tournament_id = ?", tournamentID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(t.MaxPlayers) {
			return ErrTournamentFull
		}

		tp := models.TournamentPlayer{
			TournamentID:  tournamentID,
			UserID:        userID,
			StartingStack: t.BuyInChips,
		}
		if err := tx.Create(&tp).Error; err != nil {
			if isDuplicate(err) {
				return ErrAlreadyRegistered
			}
			return err
		}
		seated = count + 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seated, nil
}

func (r *GormRepo) UnregisterPlayer(ctx context.Context, tournamentID, userID uint) error {
	result := r.DB.WithContext(ctx).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		Delete(&models.TournamentPlayer{})
	if result.Error != nil {
		return fmt.Errorf("unregister player: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type TournamentResult struct {
	UserID         uint    `json:"user_id"`
	FinishPosition int     `json:"finish_position"`
	PrizeUSD       float64 `json:"prize_usd"`
}

// CompleteTournament records final standings and flips the status, all or
// nothing.
func (r *GormRepo) CompleteTournament(ctx context.Context, tournamentID uint, results []TournamentResult) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tournament
		if err := tx.First(&t, tournamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		for _, res := range results {
			result := tx.Model(&models.TournamentPlayer{}).
				Where("tournament_id = ? AND user_id = ?", tournamentID, res.UserID).
				Updates(map[string]any{
					"finish_position": res.FinishPosition,
					"prize_usd":       res.PrizeUSD,
					"status":          "eliminated",
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrNotFound
			}
		}

		if err := tx.Model(&models.TournamentPlayer{}).
			Where("tournament_id = ? AND finish_position = 1", tournamentID).
			Update("status", "won").Error; err != nil {
			return err
		}

		return tx.Model(&t).Update("status", models.TournamentCompleted).Error
	})
}
