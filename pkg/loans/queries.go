package loans

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"library-backend/pkg/models"
)

// Read-only views over the loan records. Results are point-in-time snapshots;
// no ordering is promised.

func (e *Engine) GetLoan(loanID uint) (*models.Loan, error) {
	var loan models.Loan
	if err := e.db.First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (e *Engine) ActiveLoans() ([]models.Loan, error) {
	var result []models.Loan
	err := e.db.Where("return_date IS NULL").Find(&result).Error
	return result, err
}

func (e *Engine) OverdueLoans() ([]models.Loan, error) {
	var result []models.Loan
	err := e.db.Where("return_date IS NULL AND due_date < ?", time.Now()).Find(&result).Error
	return result, err
}

func (e *Engine) LoansByUser(userID uint) ([]models.Loan, error) {
	var result []models.Loan
	err := e.db.Where("user_id = ?", userID).Find(&result).Error
	return result, err
}

func (e *Engine) LoansByBook(bookID uint) ([]models.Loan, error) {
	var result []models.Loan
	err := e.db.Where("book_id = ?", bookID).Find(&result).Error
	return result, err
}
