package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"library-backend/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Loan{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.Create(&models.User{Email: "reader@test.local", IsActive: true})
	return db
}

func addLoan(t *testing.T, db *gorm.DB, bookID uint, returned bool) {
	loan := models.Loan{
		LoanUid: uuid.New().String(),
		UserID:  1,
		BookID:  bookID,
		DueDate: time.Now().AddDate(0, 0, 14),
	}
	if returned {
		now := time.Now()
		loan.ReturnDate = &now
	}
	if err := db.Create(&loan).Error; err != nil {
		t.Fatalf("failed to create loan: %v", err)
	}
}

func TestGetBook(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)

	book := models.Book{Title: "Test Book", Quantity: 3}
	db.Create(&book)

	found, err := ledger.GetBook(book.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Test Book", found.Title)

	_, err = ledger.GetBook(999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestAvailableCountDerived(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)

	book := models.Book{Title: "Test Book", Quantity: 3}
	db.Create(&book)

	available, err := ledger.AvailableCount(book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, available)

	addLoan(t, db, book.ID, false)
	addLoan(t, db, book.ID, false)
	available, err = ledger.AvailableCount(book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, available)

	// closed loans release their copy
	addLoan(t, db, book.ID, true)
	available, err = ledger.AvailableCount(book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, available)
}

func TestAvailableCountClampsAtZero(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)

	book := models.Book{Title: "Test Book", Quantity: 2}
	db.Create(&book)
	addLoan(t, db, book.ID, false)
	addLoan(t, db, book.ID, false)

	// catalog shrank the stock below the open-loan count
	db.Model(&models.Book{}).Where("id = ?", book.ID).Update("quantity", 1)

	available, err := ledger.AvailableCount(book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestAvailableCountUnknownBook(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)

	_, err := ledger.AvailableCount(999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}
