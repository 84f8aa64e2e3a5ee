package repository

import (
	sessionRepo "voice-order/internal/repository/session"
	transactionRepo "voice-order/internal/repository/transaction"
)

// IRepository is a container for all repository interfaces
type IRepository struct {
	Session     sessionRepo.IRepository
	Transaction transactionRepo.IRepository
}
