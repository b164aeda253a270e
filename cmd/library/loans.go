package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/pkg/loans"
	"library-backend/pkg/models"
)

func loanJSON(loan *models.Loan) gin.H {
	item := gin.H{
		"id":        loan.ID,
		"loanUid":   loan.LoanUid,
		"userId":    loan.UserID,
		"bookId":    loan.BookID,
		"startDate": loan.CreatedAt.Format("2006-01-02"),
		"dueDate":   loan.DueDate.Format("2006-01-02"),
		"extended":  loan.Extended,
	}
	if loan.ReturnDate != nil {
		item["returnDate"] = loan.ReturnDate.Format("2006-01-02")
	} else {
		item["returnDate"] = nil
	}
	return item
}

func loansJSON(items []models.Loan) []gin.H {
	result := make([]gin.H, len(items))
	for i := range items {
		result[i] = loanJSON(&items[i])
	}
	return result
}

func loanErrorStatus(err error) int {
	switch {
	case errors.Is(err, loans.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loans.ErrInvalidUser),
		errors.Is(err, loans.ErrBookUnavailable),
		errors.Is(err, loans.ErrAlreadyReturned),
		errors.Is(err, loans.ErrAlreadyExtended),
		errors.Is(err, loans.ErrLoanClosed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func createLoan(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	var request struct {
		UserID         uint `json:"user_id" binding:"required"`
		BookID         uint `json:"book_id" binding:"required"`
		LoanPeriodDays int  `json:"loan_period_days"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	loan, err := engine.CreateLoan(request.UserID, request.BookID, request.LoanPeriodDays)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, loanJSON(loan))
}

// borrowBook lets the calling user borrow a copy for themselves. Same engine
// entry point as the admin create, so the full precondition set always runs.
func borrowBook(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	bookID, ok := paramID(c, "bookId")
	if !ok {
		return
	}

	loan, err := engine.CreateLoan(user.ID, bookID, loans.DefaultLoanPeriodDays)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loanJSON(loan))
}

func returnLoan(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	loanID, ok := paramID(c, "loanId")
	if !ok {
		return
	}

	loan, err := engine.ReturnLoan(loanID)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loanJSON(loan))
}

func extendLoan(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	loanID, ok := paramID(c, "loanId")
	if !ok {
		return
	}

	existing, err := engine.GetLoan(loanID)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !user.IsAdmin && existing.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	loan, err := engine.ExtendLoan(loanID)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loanJSON(loan))
}

func getLoan(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	loanID, ok := paramID(c, "loanId")
	if !ok {
		return
	}

	loan, err := engine.GetLoan(loanID)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !user.IsAdmin && loan.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}
	c.JSON(http.StatusOK, loanJSON(loan))
}

func listLoans(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	page, size := pageParams(c)

	var totalElements int64
	if err := db.Model(&models.Loan{}).Count(&totalElements).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var items []models.Loan
	offset := (page - 1) * size
	if err := db.Offset(offset).Limit(size).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          page,
		"pageSize":      size,
		"totalElements": totalElements,
		"items":         loansJSON(items),
	})
}

func getActiveLoans(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	items, err := engine.ActiveLoans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loansJSON(items))
}

func getOverdueLoans(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	items, err := engine.OverdueLoans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loansJSON(items))
}

func getUserLoans(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	if !user.IsAdmin && user.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	items, err := engine.LoansByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loansJSON(items))
}

func getBookLoans(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	bookID, ok := paramID(c, "bookId")
	if !ok {
		return
	}

	items, err := engine.LoansByBook(bookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loansJSON(items))
}
