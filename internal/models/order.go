package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order lifecycle states.
const (
	OrderStatusPending   = "pending"
	OrderStatusApproved  = "approved"
	OrderStatusRejected  = "rejected"
	OrderStatusInProcess = "in_process"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
	OrderStatusReturned  = "returned"
)

// Payment types accepted at checkout.
const (
	PaymentTypeSingle = "single"
	PaymentTypeCredit = "credit"
)

type Order struct {
	BaseModel
	OrderNumber       string         `gorm:"uniqueIndex" json:"order_number"`
	Status            string         `gorm:"index" json:"status"`
	PlacedAt          time.Time      `json:"placed_at"`
	UserID            *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	User              *User          `json:"user,omitempty"`
	CustomerID        *uuid.UUID     `gorm:"type:uuid;index" json:"customer_id"`
	Customer          *Customer      `json:"customer,omitempty"`
	Subtotal          float64        `json:"subtotal"`
	Discount          float64        `json:"discount"`
	ManualDiscount    float64        `json:"manual_discount"`
	Tax               float64        `json:"tax"`
	ShippingCost      float64        `json:"shipping_cost"`
	Total             float64        `json:"total"`
	Currency          string         `json:"currency"`
	PaymentType       string         `json:"payment_type"`
	PaymentMethodID   *uuid.UUID     `gorm:"type:uuid" json:"payment_method_id"`
	PaymentMethod     *PaymentMethod `json:"payment_method,omitempty"`
	InterestTotal     float64        `json:"interest_total"`
	InstallmentCount  int            `json:"installment_count"`
	InstallmentAmount float64        `json:"installment_amount"`
	DeliveryType      string         `json:"delivery_type"`
	TrackingCode      string         `json:"tracking_code"`
	CourierName       string         `json:"courier_name"`
	DeliveredAt       *time.Time     `json:"delivered_at"`
	CustomerSnapshot  datatypes.JSON `gorm:"type:jsonb" json:"customer_snapshot"`
	ShippingSnapshot  datatypes.JSON `gorm:"type:jsonb" json:"shipping_snapshot"`
	CouponCode        string         `json:"coupon_code"`
	SalesChannel      string         `json:"sales_channel"`
	Notes             string         `json:"notes"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	Items             []OrderItem    `json:"items,omitempty"`
	Payments          []Payment      `json:"payments,omitempty"`
	Installments      []CreditInstallment  `json:"installments,omitempty"`
	StatusHistory     []OrderStatusHistory `json:"status_history,omitempty"`
}

// OrderItem references either a product or a variant, never both.
type OrderItem struct {
	BaseModel
	OrderID          uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID        *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductVariantID *uuid.UUID `gorm:"type:uuid" json:"product_variant_id"`
	ProductName      string     `json:"product_name"`
	VariantLabel     string     `json:"variant_label"`
	Quantity         int        `json:"quantity"`
	UnitPrice        float64    `json:"unit_price"`
	Subtotal         float64    `json:"subtotal"`
	Discount         float64    `json:"discount"`
	Tax              float64    `json:"tax"`
}

// OrderStatusHistory is an immutable record of a state transition.
type OrderStatusHistory struct {
	BaseModel
	OrderID        uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Actor          string    `json:"actor"`
	Note           string    `json:"note"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// DailySequence backs order-number generation with one atomically
// incremented counter row per calendar day.
type DailySequence struct {
	Day   string `gorm:"primaryKey" json:"day"`
	Value int    `json:"value"`
}
