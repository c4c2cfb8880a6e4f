// Package ledger keeps user coin balances and the append-only transaction
// history behind them.
package ledger

import (
	"errors"
	"fmt"

	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDuplicateTag  = errors.New("ledger transaction with this tag already exists")
	ErrInvalidAmount = errors.New("credit amount must be positive")
)

type Ledger struct{}

func New() *Ledger {
	return &Ledger{}
}

// Credit appends a tagged transaction and bumps the wallet balance as one
// unit. When tx is already a transaction the work runs in a savepoint, so a
// failure here rolls back with the caller.
func (l *Ledger) Credit(tx *gorm.DB, userID string, amount int64, reason, tag, reference string) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var record models.CoinTransaction
	err := tx.Transaction(func(tx *gorm.DB) error {
		wallet := models.Wallet{UserID: userID, Balance: amount}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance":    gorm.Expr("wallets.balance + ?", amount),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(&wallet).Error; err != nil {
			return err
		}

		balance, err := l.Balance(tx, userID)
		if err != nil {
			return err
		}

		record = models.CoinTransaction{
			ID:           uuid.New().String(),
			UserID:       userID,
			Amount:       amount,
			BalanceAfter: balance,
			Reason:       reason,
			Tag:          tag,
			Reference:    reference,
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicateTag, tag)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (l *Ledger) Balance(db *gorm.DB, userID string) (int64, error) {
	var wallet models.Wallet
	err := db.Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// HasReference reports whether any transaction was recorded for reference.
func (l *Ledger) HasReference(db *gorm.DB, reference string) (bool, error) {
	var count int64
	if err := db.Model(&models.CoinTransaction{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (l *Ledger) History(db *gorm.DB, userID string) ([]models.CoinTransaction, error) {
	var txs []models.CoinTransaction
	if err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
