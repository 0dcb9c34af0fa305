package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Payment states. Both paid and failed are terminal for the attempt; a new
// attempt means a new Payment row.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Credit installment states.
const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusOverdue = "overdue"
)

// PaymentMethod describes an accepted payment channel and its fee rule.
type PaymentMethod struct {
	BaseModel
	Code            string         `gorm:"uniqueIndex" json:"code"`
	Name            string         `json:"name"`
	FeePercent      float64        `json:"fee_percent"`
	FeeFixed        float64        `json:"fee_fixed"`
	MinAmount       float64        `json:"min_amount"`
	MaxAmount       float64        `json:"max_amount"`
	Countries       pq.StringArray `gorm:"type:text[]" json:"countries"`
	Currencies      pq.StringArray `gorm:"type:text[]" json:"currencies"`
	RequiresGateway bool           `json:"requires_gateway"`
	IsActive        bool           `json:"is_active"`
}

type Payment struct {
	BaseModel
	OrderID           uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	Amount            float64    `json:"amount"`
	Commission        float64    `json:"commission"`
	Currency          string     `json:"currency"`
	Reference         string     `gorm:"uniqueIndex" json:"reference"`
	AuthorizationCode string     `json:"authorization_code"`
	TransactionUUID   string     `json:"transaction_uuid"`
	Status            string     `gorm:"index" json:"status"`
	InstallmentID     *uuid.UUID `gorm:"type:uuid" json:"installment_id"`
	PaidAt            *time.Time `json:"paid_at"`
	FailedAt          *time.Time `json:"failed_at"`
	FailureReason     string     `json:"failure_reason"`
}

// CreditInstallment is one scheduled partial payment of a credit order.
type CreditInstallment struct {
	BaseModel
	OrderID uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Number  int       `json:"number"`
	DueDate time.Time `json:"due_date"`
	Amount  float64   `json:"amount"`
	Status  string    `json:"status"`
}
