// Package inventory answers availability questions about the book stock.
//
// Available copies are never stored: they are always derived from the book's
// total quantity minus the number of open loans referencing it, so stock and
// loan state cannot drift apart.
package inventory

import (
	"errors"

	"gorm.io/gorm"

	"library-backend/pkg/models"
)

var ErrBookNotFound = errors.New("book not found")

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the given transaction handle, so
// availability can be evaluated inside a caller's transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

func (l *Ledger) GetBook(bookID uint) (*models.Book, error) {
	var book models.Book
	if err := l.db.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// AvailableCount reports how many copies of a book can be borrowed right now.
// The result is clamped at zero: catalog management may reduce a book's
// quantity below its open-loan count, which reads as "nothing available"
// rather than a negative number.
func (l *Ledger) AvailableCount(bookID uint) (int, error) {
	book, err := l.GetBook(bookID)
	if err != nil {
		return 0, err
	}

	active, err := l.ActiveLoanCount(bookID)
	if err != nil {
		return 0, err
	}

	available := book.Quantity - int(active)
	if available < 0 {
		available = 0
	}
	return available, nil
}

func (l *Ledger) ActiveLoanCount(bookID uint) (int64, error) {
	var count int64
	err := l.db.Model(&models.Loan{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
