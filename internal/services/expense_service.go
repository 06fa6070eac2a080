package services

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/metrics"
	"github.com/reimbly/backend/internal/models"
	"github.com/reimbly/backend/internal/query"
	"github.com/reimbly/backend/internal/util"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrNotAuthorized   = errors.New("not authorized for this expense")
	ErrInvalidAmount   = errors.New("amount must be greater than 0")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidStatus   = errors.New("unknown status")
	ErrNotesTooLong    = errors.New("notes cannot be more than 500 characters")
	ErrExpenseLocked   = errors.New("expense already reviewed")
	ErrStatusForbidden = errors.New("only admins change expense status")
)

// Identity is the resolved {id, role} pair for the requesting user. Session
// token handling lives in AuthService; everything below only consumes this.
type Identity struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// expenseAllowed is the filter allow-list for expense listings.
var expenseAllowed = query.Allowed{
	Fields: map[string]string{
		"amount":     "amount",
		"category":   "category",
		"status":     "status",
		"date":       "date",
		"created_at": "created_at",
		"userId":     "user_id",
	},
	DateColumn: "date",
}

// ExpenseInput is the payload for creating an expense.
type ExpenseInput struct {
	Amount   float64
	Category string
	Date     time.Time
	Notes    string
	Receipt  *models.Receipt
}

// ExpenseUpdate is a partial update; nil fields are left untouched.
type ExpenseUpdate struct {
	Amount          *float64
	Category        *string
	Date            *time.Time
	Notes           *string
	Status          *string
	RejectionReason *string
	Receipt         *models.Receipt
	RemoveReceipt   bool
}

// ExpenseService owns expense CRUD, the owner-or-admin access rule and
// status transitions. Concurrent updates to the same expense are
// last-write-wins; there is no optimistic concurrency token.
type ExpenseService struct {
	db       *gorm.DB
	recorder *AuditRecorder
	notifier *NotificationService
}

func NewExpenseService(db *gorm.DB, recorder *AuditRecorder, notifier *NotificationService) *ExpenseService {
	return &ExpenseService{db: db, recorder: recorder, notifier: notifier}
}

func validateInput(amount float64, category, notes string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !models.ValidCategory(category) {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}
	if len(notes) > 500 {
		return ErrNotesTooLong
	}
	return nil
}

// Create stores a new pending expense owned by the actor.
func (s *ExpenseService) Create(actor Identity, in ExpenseInput, meta RequestMeta) (*models.Expense, error) {
	if err := validateInput(in.Amount, in.Category, in.Notes); err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	expense := models.Expense{
		UUID:     uuid.New().String(),
		UserID:   actor.ID,
		Amount:   in.Amount,
		Category: in.Category,
		Date:     date,
		Notes:    util.SanitizeForLog(in.Notes),
		Status:   models.StatusPending,
	}
	if in.Receipt != nil {
		expense.Receipt = *in.Receipt
	}

	if err := s.db.Create(&expense).Error; err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	if err := s.recorder.Record(AuditEntry{
		Action:          models.ActionExpenseCreate,
		ActorID:         actor.ID,
		TargetExpenseID: &expense.ID,
		Details: map[string]interface{}{
			"amount":   expense.Amount,
			"category": expense.Category,
			"status":   expense.Status,
		},
		Meta: meta,
	}); err != nil {
		return nil, err
	}

	metrics.IncExpenseCreated()
	if s.notifier != nil {
		s.notifier.ExpenseSubmitted(&expense)
	}

	return s.load(expense.ID)
}

// Get loads one expense; readable only by its owner or an admin. A
// disallowed detail view fails closed with ErrNotAuthorized, never an empty
// result.
func (s *ExpenseService) Get(actor Identity, id uint) (*models.Expense, error) {
	expense, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !expense.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: user %d cannot view expense %d", ErrNotAuthorized, actor.ID, id)
	}
	return expense, nil
}

// List returns the actor's expenses (all expenses for admins) filtered by
// the request's query string.
func (s *ExpenseService) List(actor Identity, values url.Values) ([]models.Expense, query.Pagination, error) {
	opts, err := query.Parse(values, expenseAllowed)
	if err != nil {
		return nil, query.Pagination{}, err
	}

	scoped := func() *gorm.DB {
		db := s.db.Model(&models.Expense{}).
			Scopes(opts.Scope(), opts.DateScope(expenseAllowed.DateColumn))
		if !actor.IsAdmin() {
			db = db.Where("user_id = ?", actor.ID)
		}
		return db
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, query.Pagination{}, fmt.Errorf("count expenses: %w", err)
	}

	var expenses []models.Expense
	err = opts.ApplyWindow(scoped(), "created_at desc").
		Preload("User").
		Find(&expenses).Error
	if err != nil {
		return nil, query.Pagination{}, fmt.Errorf("list expenses: %w", err)
	}

	return expenses, query.Paginate(opts.Page, opts.Limit, total), nil
}

// Update applies a partial update under the access rules: owners may edit
// non-status fields while the expense is still pending, admins may edit
// anything including status. A status change is audited as its own action
// with the transition pair; everything else gets a full field diff.
func (s *ExpenseService) Update(actor Identity, id uint, upd ExpenseUpdate, meta RequestMeta) (*models.Expense, error) {
	expense, err := s.load(id)
	if err != nil {
		return nil, err
	}

	owner := expense.IsOwnedBy(actor.ID)
	if !owner && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: user %d cannot update expense %d", ErrNotAuthorized, actor.ID, id)
	}
	if upd.Status != nil && !actor.IsAdmin() {
		return nil, ErrStatusForbidden
	}
	if !actor.IsAdmin() && expense.Status != models.StatusPending {
		return nil, ErrExpenseLocked
	}

	before := snapshot(expense)
	previousStatus := expense.Status
	statusChange := false

	if upd.Amount != nil {
		if *upd.Amount <= 0 {
			return nil, ErrInvalidAmount
		}
		expense.Amount = *upd.Amount
	}
	if upd.Category != nil {
		if !models.ValidCategory(*upd.Category) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, *upd.Category)
		}
		expense.Category = *upd.Category
	}
	if upd.Date != nil {
		expense.Date = *upd.Date
	}
	if upd.Notes != nil {
		if len(*upd.Notes) > 500 {
			return nil, ErrNotesTooLong
		}
		expense.Notes = util.SanitizeForLog(*upd.Notes)
	}
	if upd.Receipt != nil {
		expense.Receipt = *upd.Receipt
	} else if upd.RemoveReceipt {
		expense.Receipt = models.Receipt{}
	}

	if upd.Status != nil && *upd.Status != previousStatus {
		if err := s.applyStatus(expense, actor, *upd.Status, upd.RejectionReason); err != nil {
			return nil, err
		}
		statusChange = true
	}

	if err := s.db.Save(expense).Error; err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}

	entry := AuditEntry{
		ActorID:         actor.ID,
		TargetExpenseID: &expense.ID,
		Meta:            meta,
	}
	if !owner {
		entry.TargetUserID = &expense.UserID
	}
	if statusChange {
		entry.Action = models.ActionExpenseStatusChange
		details := map[string]interface{}{
			"previousStatus": previousStatus,
			"newStatus":      expense.Status,
		}
		if expense.Status == models.StatusRejected && expense.RejectionReason != "" {
			details["rejectionReason"] = expense.RejectionReason
		}
		if diff := diffFields(before, snapshot(expense)); len(diff) > 0 {
			details["updatedFields"] = diff
		}
		entry.Details = details
	} else {
		entry.Action = models.ActionExpenseUpdate
		entry.Details = map[string]interface{}{
			"updatedFields": diffFields(before, snapshot(expense)),
		}
	}

	if err := s.recorder.Record(entry); err != nil {
		return nil, err
	}

	if statusChange {
		metrics.IncStatusChange(expense.Status)
		if s.notifier != nil {
			s.notifier.StatusChanged(expense, previousStatus)
		}
	}

	return s.load(expense.ID)
}

// applyStatus transitions an expense to a new review status. Moving out of
// pending stamps the reviewer and time; moving back to pending clears both
// along with any rejection reason.
func (s *ExpenseService) applyStatus(expense *models.Expense, actor Identity, status string, reason *string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	switch status {
	case models.StatusApproved, models.StatusRejected:
		now := time.Now().UTC()
		reviewer := actor.ID
		expense.ReviewedByID = &reviewer
		expense.ReviewedAt = &now
		if status == models.StatusRejected && reason != nil {
			if len(*reason) > 500 {
				return ErrNotesTooLong
			}
			expense.RejectionReason = util.SanitizeForLog(*reason)
		}
		if status == models.StatusApproved {
			expense.RejectionReason = ""
		}
	case models.StatusPending:
		expense.ReviewedByID = nil
		expense.ReviewedAt = nil
		expense.RejectionReason = ""
	}

	expense.Status = status
	return nil
}

// Delete removes an expense under the owner-or-admin rule and records a
// snapshot of its key fields.
func (s *ExpenseService) Delete(actor Identity, id uint, meta RequestMeta) error {
	expense, err := s.load(id)
	if err != nil {
		return err
	}

	owner := expense.IsOwnedBy(actor.ID)
	if !owner && !actor.IsAdmin() {
		return fmt.Errorf("%w: user %d cannot delete expense %d", ErrNotAuthorized, actor.ID, id)
	}

	if err := s.db.Delete(&models.Expense{}, expense.ID).Error; err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	entry := AuditEntry{
		Action:          models.ActionExpenseDelete,
		ActorID:         actor.ID,
		TargetExpenseID: &expense.ID,
		Details: map[string]interface{}{
			"amount":   expense.Amount,
			"category": expense.Category,
			"status":   expense.Status,
			"notes":    expense.Notes,
			"date":     expense.Date,
		},
		Meta: meta,
	}
	if !owner {
		entry.TargetUserID = &expense.UserID
	}
	return s.recorder.Record(entry)
}

func (s *ExpenseService) load(id uint) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.Preload("User").Preload("ReviewedBy").First(&expense, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrExpenseNotFound, id)
		}
		return nil, fmt.Errorf("load expense: %w", err)
	}
	return &expense, nil
}

func snapshot(e *models.Expense) map[string]interface{} {
	return map[string]interface{}{
		"amount":   e.Amount,
		"category": e.Category,
		"date":     e.Date.UTC().Format(time.RFC3339),
		"notes":    e.Notes,
		"status":   e.Status,
		"receipt":  e.Receipt.Filename,
	}
}

// diffFields builds the {field: {from, to}} payload for update audits.
func diffFields(before, after map[string]interface{}) map[string]interface{} {
	diff := map[string]interface{}{}
	for key, prev := range before {
		if next := after[key]; next != prev {
			diff[key] = map[string]interface{}{"from": prev, "to": next}
		}
	}
	return diff
}
