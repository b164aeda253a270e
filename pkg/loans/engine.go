// Package loans owns the loan lifecycle: it is the only place loans are
// created, extended, or closed, and it enforces the borrowing rules.
package loans

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"library-backend/pkg/inventory"
	"library-backend/pkg/models"
)

const (
	DefaultLoanPeriodDays = 14
	ExtensionDays         = 21
)

// EventPublisher receives domain events after a successful lifecycle
// transition. Publishing is best-effort: a failure never fails the operation.
type EventPublisher interface {
	PublishJSON(routingKey string, v any) error
}

type Engine struct {
	db     *gorm.DB
	ledger *inventory.Ledger
	pub    EventPublisher

	// Serializes the check-then-insert in CreateLoan (and the terminal-state
	// checks in ReturnLoan/ExtendLoan) so two borrowers cannot both observe
	// the last copy as available. The sqlite test driver has no row locking,
	// and this service is single-process, so a process-wide critical section
	// is sufficient.
	mu sync.Mutex
}

func NewEngine(db *gorm.DB, ledger *inventory.Ledger, pub EventPublisher) *Engine {
	return &Engine{db: db, ledger: ledger, pub: pub}
}

// CreateLoan lends a copy of the book to the user for loanPeriodDays days.
// The user must exist and be active, the book must exist, and at least one
// copy must be available at the instant the loan row is inserted.
func (e *Engine) CreateLoan(userID, bookID uint, loanPeriodDays int) (*models.Loan, error) {
	if loanPeriodDays <= 0 {
		loanPeriodDays = DefaultLoanPeriodDays
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var loan models.Loan
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidUser
			}
			return err
		}
		if !user.IsActive {
			return ErrInvalidUser
		}

		ledger := e.ledger.WithTx(tx)
		available, err := ledger.AvailableCount(bookID)
		if err != nil {
			if errors.Is(err, inventory.ErrBookNotFound) {
				return ErrNotFound
			}
			return err
		}
		if available < 1 {
			return ErrBookUnavailable
		}

		now := time.Now()
		loan = models.Loan{
			LoanUid: uuid.New().String(),
			UserID:  userID,
			BookID:  bookID,
			DueDate: now.AddDate(0, 0, loanPeriodDays),
		}
		return tx.Create(&loan).Error
	})
	if err != nil {
		return nil, err
	}

	e.publish("loan.created", &loan)
	return &loan, nil
}

// ReturnLoan closes an active loan, making its copy available again.
// A closed loan is terminal: returning it twice is an error, not a no-op,
// since silently accepting the second call would mask a caller bug.
func (e *Engine) ReturnLoan(loanID uint) (*models.Loan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var loan models.Loan
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if loan.ReturnDate != nil {
			return ErrAlreadyReturned
		}

		now := time.Now()
		loan.ReturnDate = &now
		return tx.Save(&loan).Error
	})
	if err != nil {
		return nil, err
	}

	e.publish("loan.returned", &loan)
	return &loan, nil
}

// ExtendLoan pushes the due date out by ExtensionDays days, once per loan.
// Overdue loans may still be extended; closed loans may not.
func (e *Engine) ExtendLoan(loanID uint) (*models.Loan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var loan models.Loan
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if loan.ReturnDate != nil {
			return ErrLoanClosed
		}
		if loan.Extended {
			return ErrAlreadyExtended
		}

		loan.DueDate = loan.DueDate.AddDate(0, 0, ExtensionDays)
		loan.Extended = true
		return tx.Save(&loan).Error
	})
	if err != nil {
		return nil, err
	}

	e.publish("loan.extended", &loan)
	return &loan, nil
}

type loanEvent struct {
	LoanUid    string     `json:"loanUid"`
	UserID     uint       `json:"userId"`
	BookID     uint       `json:"bookId"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
}

func (e *Engine) publish(routingKey string, loan *models.Loan) {
	if e.pub == nil {
		return
	}
	event := loanEvent{
		LoanUid:    loan.LoanUid,
		UserID:     loan.UserID,
		BookID:     loan.BookID,
		DueDate:    loan.DueDate,
		ReturnDate: loan.ReturnDate,
	}
	if err := e.pub.PublishJSON(routingKey, event); err != nil {
		log.Warn().Err(err).Str("event", routingKey).Str("loanUid", loan.LoanUid).
			Msg("failed to publish loan event")
	}
}
