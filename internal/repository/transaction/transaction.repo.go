package transaction

import (
	"context"

	"gorm.io/gorm/clause"

	"voice-order/internal/common/models"
	database "voice-order/internal/pkg/db"
)

type IRepository interface {
	Create(ctx context.Context, trx *models.Transaction) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	FindBySessionID(ctx context.Context, sessionID string) ([]models.Transaction, error)
}

type Repository struct {
	db *database.Database
}

func NewRepo(db *database.Database) IRepository {
	return &Repository{db: db}
}

// Create inserts the record. A redelivered event for a known transaction id is a no-op.
func (r *Repository) Create(ctx context.Context, trx *models.Transaction) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transaction_id"}}, DoNothing: true}).
		Create(trx).Error
}

func (r *Repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var trx models.Transaction
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&trx).Error
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

func (r *Repository) FindBySessionID(ctx context.Context, sessionID string) ([]models.Transaction, error) {
	var trxs []models.Transaction
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("processed_at desc").Find(&trxs).Error
	if err != nil {
		return nil, err
	}
	return trxs, nil
}
