package models

import (
	"time"
)

// Expense statuses. New expenses always start as pending; only admins move
// them out of (or back into) that state.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ExpenseCategories is the closed set of accepted expense categories.
var ExpenseCategories = []string{
	"travel",
	"food",
	"accommodation",
	"office",
	"entertainment",
	"utilities",
	"other",
}

// ValidCategory reports whether category is one of the accepted values.
func ValidCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ValidStatus reports whether status is one of the accepted values.
func ValidStatus(status string) bool {
	return status == StatusPending || status == StatusApproved || status == StatusRejected
}

// Receipt describes an uploaded receipt file attached to an expense.
// Upload mechanics live in services.ReceiptService; the expense only keeps
// the resolved descriptor.
type Receipt struct {
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Expense is a single expense claim owned by the submitting user.
type Expense struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UUID   string `json:"uuid" gorm:"uniqueIndex"`
	UserID uint   `json:"user_id" gorm:"index:idx_expenses_user_date"`
	User   *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`

	Amount   float64   `json:"amount"`
	Category string    `json:"category"`
	Date     time.Time `json:"date" gorm:"index:idx_expenses_user_date;index:idx_expenses_status_date"`
	Notes    string    `json:"notes,omitempty" gorm:"size:500"`

	Status          string     `json:"status" gorm:"default:'pending';index:idx_expenses_status_date"`
	ReviewedByID    *uint      `json:"reviewed_by_id,omitempty"`
	ReviewedBy      *User      `json:"reviewed_by,omitempty" gorm:"foreignKey:ReviewedByID"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty" gorm:"size:500"`

	Receipt Receipt `json:"receipt" gorm:"embedded;embeddedPrefix:receipt_"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasReceipt reports whether a receipt descriptor is attached.
func (e *Expense) HasReceipt() bool {
	return e.Receipt.Filename != ""
}

// IsOwnedBy reports whether userID owns this expense.
func (e *Expense) IsOwnedBy(userID uint) bool {
	return e.UserID == userID
}
