package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSONB maps a raw JSON document onto a jsonb (postgres) or json (mysql) column.
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(value any) error {
	if value == nil {
		*j = JSONB("null")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return errors.New("unsupported type for JSONB")
	}
	return nil
}

// GormDBDataType picks the native JSON column type of the connected dialect.
func (JSONB) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	}
	return ""
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("JSONB: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// Transaction is the audit record of one simulated payment attempt.
type Transaction struct {
	ID            uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	TransactionID string    `json:"transaction_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	SessionID     string    `json:"session_id" gorm:"type:varchar(36);index"`
	CustomerID    string    `json:"customer_id" gorm:"type:varchar(64)"`
	Amount        float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency      string    `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`
	Status        string    `json:"status" gorm:"type:varchar(16);not null;index"`
	CardType      string    `json:"card_type,omitempty" gorm:"type:varchar(32)"`
	Last4         string    `json:"last4,omitempty" gorm:"type:varchar(4)"`
	Items         JSONB     `json:"items" gorm:"not null"`
	ProcessedAt   time.Time `json:"processed_at" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}
