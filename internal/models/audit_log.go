package models

import (
	"time"
)

// AuditAction tags every audit log entry with the operation that produced it.
type AuditAction string

// Closed set of audit actions. Every state-changing operation maps to exactly
// one of these; the recorder rejects anything else.
const (
	ActionUserRegister        AuditAction = "user:register"
	ActionUserLogin           AuditAction = "user:login"
	ActionUserUpdate          AuditAction = "user:update"
	ActionExpenseCreate       AuditAction = "expense:create"
	ActionExpenseUpdate       AuditAction = "expense:update"
	ActionExpenseDelete       AuditAction = "expense:delete"
	ActionExpenseStatusChange AuditAction = "expense:status_change"
	ActionAdminListUsers      AuditAction = "admin:list_users"
	ActionAdminViewUser       AuditAction = "admin:view_user"
	ActionAdminUpdateUser     AuditAction = "admin:update_user"
	ActionAdminDeleteUser     AuditAction = "admin:delete_user"
	ActionAdminListExpenses   AuditAction = "admin:list_expenses"
	ActionAdminViewAnalytics  AuditAction = "admin:view_analytics"
)

var auditActions = map[AuditAction]struct{}{
	ActionUserRegister:        {},
	ActionUserLogin:           {},
	ActionUserUpdate:          {},
	ActionExpenseCreate:       {},
	ActionExpenseUpdate:       {},
	ActionExpenseDelete:       {},
	ActionExpenseStatusChange: {},
	ActionAdminListUsers:      {},
	ActionAdminViewUser:       {},
	ActionAdminUpdateUser:     {},
	ActionAdminDeleteUser:     {},
	ActionAdminListExpenses:   {},
	ActionAdminViewAnalytics:  {},
}

// Valid reports whether a is a known audit action.
func (a AuditAction) Valid() bool {
	_, ok := auditActions[a]
	return ok
}

// AuditLog is an immutable record of a state-changing action. Entries are
// only ever inserted; there is no update or delete path.
type AuditLog struct {
	ID     uint        `json:"id" gorm:"primaryKey"`
	Action AuditAction `json:"action" gorm:"index:idx_audit_action_created"`
	UserID uint        `json:"user_id" gorm:"index:idx_audit_user_created"`
	User   *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`

	TargetUserID    *uint    `json:"target_user_id,omitempty"`
	TargetUser      *User    `json:"target_user,omitempty" gorm:"foreignKey:TargetUserID"`
	TargetExpenseID *uint    `json:"target_expense_id,omitempty"`
	TargetExpense   *Expense `json:"target_expense,omitempty" gorm:"foreignKey:TargetExpenseID"`

	Details   string `json:"details,omitempty" gorm:"type:text"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_audit_action_created;index:idx_audit_user_created"`
}
