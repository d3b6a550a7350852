package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"findash/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the gorm-backed repository for users, portfolios, holdings and alerts.
type Store struct {
	db *gorm.DB
}

// New creates a Store on top of an opened and migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- users ---

// CreateUser inserts a new user. The caller checks email uniqueness first.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindUserByEmail returns the user with the given (already normalized) email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// FindUserByID returns the user with the given id.
func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// --- portfolios ---

// CreatePortfolio inserts a new portfolio.
func (s *Store) CreatePortfolio(ctx context.Context, p *models.Portfolio) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create portfolio: %w", err)
	}
	return nil
}

// ListPortfolios returns the user's portfolios with their holdings, oldest first.
func (s *Store) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	var out []models.Portfolio
	err := s.db.WithContext(ctx).
		Preload("Holdings").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	return out, nil
}

// GetPortfolio returns one portfolio with its holdings.
func (s *Store) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := s.db.WithContext(ctx).Preload("Holdings").First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// RenamePortfolio changes a portfolio's name.
func (s *Store) RenamePortfolio(ctx context.Context, id, name string) error {
	res := s.db.WithContext(ctx).Model(&models.Portfolio{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return fmt.Errorf("rename portfolio: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePortfolio removes a portfolio together with its holdings and their alerts.
func (s *Store) DeletePortfolio(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holdingIDs := tx.Model(&models.Holding{}).Select("id").Where("portfolio_id = ?", id)
		if err := tx.Where("holding_id IN (?)", holdingIDs).Delete(&models.Alert{}).Error; err != nil {
			return fmt.Errorf("delete portfolio alerts: %w", err)
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Holding{}).Error; err != nil {
			return fmt.Errorf("delete portfolio holdings: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Portfolio{})
		if res.Error != nil {
			return fmt.Errorf("delete portfolio: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// --- holdings ---

// ListHoldings returns the holdings of one portfolio.
func (s *Store) ListHoldings(ctx context.Context, portfolioID string) ([]models.Holding, error) {
	var out []models.Holding
	err := s.db.WithContext(ctx).Where("portfolio_id = ?", portfolioID).Order("created_at asc").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	return out, nil
}

// CreateHolding inserts a new holding.
func (s *Store) CreateHolding(ctx context.Context, h *models.Holding) error {
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("create holding: %w", err)
	}
	return nil
}

// FindHoldingByID returns ErrNotFound when the holding has been deleted.
func (s *Store) FindHoldingByID(ctx context.Context, id string) (*models.Holding, error) {
	var h models.Holding
	if err := s.db.WithContext(ctx).First(&h, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

// UpdateHolding writes symbol, asset type, quantity and average price. Alerts on the holding
// take the new symbol in the same transaction.
func (s *Store) UpdateHolding(ctx context.Context, h *models.Holding) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Holding{}).Where("id = ?", h.ID).Updates(map[string]any{
			"symbol":        h.Symbol,
			"asset_type":    h.AssetType,
			"quantity":      h.Quantity,
			"average_price": h.AveragePrice,
			"updated_at":    now,
		})
		if res.Error != nil {
			return fmt.Errorf("update holding: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		err := tx.Model(&models.Alert{}).
			Where("holding_id = ? AND symbol <> ?", h.ID, h.Symbol).
			Updates(map[string]any{"symbol": h.Symbol, "updated_at": now}).Error
		if err != nil {
			return fmt.Errorf("update holding alerts: %w", err)
		}
		return nil
	})
}

// DeleteHolding removes a holding and the alerts that watch it.
func (s *Store) DeleteHolding(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("holding_id = ?", id).Delete(&models.Alert{}).Error; err != nil {
			return fmt.Errorf("delete holding alerts: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Holding{})
		if res.Error != nil {
			return fmt.Errorf("delete holding: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// --- alerts ---

// CreateAlert inserts a new alert.
func (s *Store) CreateAlert(ctx context.Context, a *models.Alert) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// ListAlertsByUser returns all alerts of a user, newest first.
func (s *Store) ListAlertsByUser(ctx context.Context, userID string) ([]models.Alert, error) {
	var out []models.Alert
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}

// ListAlertsByHolding returns the alerts watching one holding, newest first.
func (s *Store) ListAlertsByHolding(ctx context.Context, holdingID string) ([]models.Alert, error) {
	var out []models.Alert
	if err := s.db.WithContext(ctx).Where("holding_id = ?", holdingID).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list holding alerts: %w", err)
	}
	return out, nil
}

// FindAlertByID returns one alert.
func (s *Store) FindAlertByID(ctx context.Context, id string) (*models.Alert, error) {
	var a models.Alert
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// DeleteAlert removes one alert.
func (s *Store) DeleteAlert(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Alert{})
	if res.Error != nil {
		return fmt.Errorf("delete alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleAlert flips is_active in a single statement and returns the updated alert.
// The triggered flag is left alone.
func (s *Store) ToggleAlert(ctx context.Context, id string) (*models.Alert, error) {
	res := s.db.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": gorm.Expr("NOT is_active"), "updated_at": time.Now()})
	if res.Error != nil {
		return nil, fmt.Errorf("toggle alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindAlertByID(ctx, id)
}

// FindActiveUntriggeredAlerts returns the scan working set. Triggered alerts never appear
// here again, whatever their isActive flag says.
func (s *Store) FindActiveUntriggeredAlerts(ctx context.Context) ([]models.Alert, error) {
	var out []models.Alert
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND triggered = ?", true, false).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find active alerts: %w", err)
	}
	return out, nil
}

// SetAlertTriggered marks an alert triggered only if it is not already. It reports whether
// this call performed the flip, so concurrent callers see exactly one true.
func (s *Store) SetAlertTriggered(ctx context.Context, id string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND triggered = ?", id, false).
		Updates(map[string]any{"triggered": true, "triggered_at": at, "updated_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("set alert triggered: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
