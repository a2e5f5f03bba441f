package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerAccount links an application user, identified by the subject of
// their login provider, to a registry customer
type CustomerAccount struct {
	UserID     string    `json:"user_id" db:"user_id"`
	CustomerID uuid.UUID `json:"customer_id" db:"customer_id"`
	Email      string    `json:"email,omitempty" db:"email"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the CustomerAccount model
func (CustomerAccount) TableName() string {
	return "customer_accounts"
}

// NewCustomerAccount creates a new CustomerAccount instance
func NewCustomerAccount(userID string, customerID uuid.UUID, email string) *CustomerAccount {
	now := time.Now().UTC()
	return &CustomerAccount{
		UserID:     userID,
		CustomerID: customerID,
		Email:      email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
