package loans

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"library-backend/pkg/inventory"
	"library-backend/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	// a second connection to :memory: would see a separate empty database
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Book{}, &models.Loan{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	db := setupTestDB(t)
	return NewEngine(db, inventory.NewLedger(db), nil), db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, active bool) models.User {
	user := models.User{Email: email, FullName: "Test User", IsActive: active}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestBook(t *testing.T, db *gorm.DB, quantity int) models.Book {
	book := models.Book{Title: "Test Book", Author: "Test Author", Quantity: quantity}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("failed to create test book: %v", err)
	}
	return book
}

func TestCreateLoan(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "reader@test.local", true)
	book := createTestBook(t, db, 2)

	loan, err := engine.CreateLoan(user.ID, book.ID, 14)

	assert.NoError(t, err)
	assert.NotEmpty(t, loan.LoanUid)
	assert.Equal(t, user.ID, loan.UserID)
	assert.Equal(t, book.ID, loan.BookID)
	assert.Nil(t, loan.ReturnDate)
	assert.False(t, loan.Extended)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), loan.DueDate, time.Minute)
}

func TestCreateLoanDefaultPeriod(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "reader@test.local", true)
	book := createTestBook(t, db, 1)

	loan, err := engine.CreateLoan(user.ID, book.ID, 0)

	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, DefaultLoanPeriodDays), loan.DueDate, time.Minute)
}

func TestCreateLoanUnknownUser(t *testing.T) {
	engine, db := newTestEngine(t)
	book := createTestBook(t, db, 1)

	_, err := engine.CreateLoan(999, book.ID, 14)

	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestCreateLoanInactiveUser(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "inactive@test.local", false)
	book := createTestBook(t, db, 1)

	_, err := engine.CreateLoan(user.ID, book.ID, 14)

	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestCreateLoanUnknownBook(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "reader@test.local", true)

	_, err := engine.CreateLoan(user.ID, 999, 14)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateLoanLastCopyCycle(t *testing.T) {
	engine, db := newTestEngine(t)
	alice := createTestUser(t, db, "alice@test.local", true)
	bob := createTestUser(t, db, "bob@test.local", true)
	book := createTestBook(t, db, 1)

	first, err := engine.CreateLoan(alice.ID, book.ID, 14)
	assert.NoError(t, err)

	_, err = engine.CreateLoan(bob.ID, book.ID, 14)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	returned, err := engine.ReturnLoan(first.ID)
	assert.NoError(t, err)
	assert.NotNil(t, returned.ReturnDate)

	_, err = engine.CreateLoan(bob.ID, book.ID, 14)
	assert.NoError(t, err)
}

func TestReturnLoanTwice(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "reader@test.local", true)
	book := createTestBook(t, db, 1)

	loan, err := engine.CreateLoan(user.ID, book.ID, 14)
	assert.NoError(t, err)

	returned, err := engine.ReturnLoan(loan.ID)
	assert.NoError(t, err)
	assert.NotNil(t, returned.ReturnDate)
	firstReturn := *returned.ReturnDate

	_, err = engine.ReturnLoan(loan.ID)
	assert.ErrorIs(t, err, ErrAlreadyReturned)

	var stored models.Loan
	db.First(&stored, loan.ID)
	assert.NotNil(t, stored.ReturnDate)
	assert.Equal(t, firstReturn.Unix(), stored.ReturnDate.Unix())
}

func TestReturnLoanNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ReturnLoan(999)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtendLoanOnce(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "reader@test.local", true)
	book := createTestBook(t, db, 1)

	loan, err := engine.CreateLoan(user.ID, book.ID, 14)
	assert.NoError(t, err)
	originalDue := loan.DueDate

	extended, err := engine.ExtendLoan(loan.ID)
	assert.NoError(t, err)
	assert.True(t, extended.Extended)
	assert.Equal(t, originalDue.AddDate(0, 0, ExtensionDays).Unix(), extended.DueDate.Unix())

	_, err = engine.ExtendLoan(loan.ID)
	assert.ErrorIs(t, err, ErrAlreadyExtended)

	var stored models.Loan
	db.First(&stored, loan.ID)
	assert.Equal(t, extended.DueDate.Unix(), stored.DueDate.Unix())
}

func TestExtendOverdueLoanAllowed(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "reader@test.local", true)
	book := createTestBook(t, db, 1)

	loan, err := engine.CreateLoan(user.ID, book.ID, 14)
	assert.NoError(t, err)

	overdueSince := time.Now().AddDate(0, 0, -3)
	db.Model(&models.Loan{}).Where("id = ?", loan.ID).Update("due_date", overdueSince)

	extended, err := engine.ExtendLoan(loan.ID)
	assert.NoError(t, err)
	assert.True(t, extended.Extended)
}

func TestExtendClosedLoan(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "reader@test.local", true)
	book := createTestBook(t, db, 1)

	loan, err := engine.CreateLoan(user.ID, book.ID, 14)
	assert.NoError(t, err)
	_, err = engine.ReturnLoan(loan.ID)
	assert.NoError(t, err)

	_, err = engine.ExtendLoan(loan.ID)
	assert.ErrorIs(t, err, ErrLoanClosed)
}

func TestExtendClosedLoanAfterExtension(t *testing.T) {
	engine, db := newTestEngine(t)
	user := createTestUser(t, db, "reader@test.local", true)
	book := createTestBook(t, db, 1)

	loan, err := engine.CreateLoan(user.ID, book.ID, 14)
	assert.NoError(t, err)
	_, err = engine.ExtendLoan(loan.ID)
	assert.NoError(t, err)
	_, err = engine.ReturnLoan(loan.ID)
	assert.NoError(t, err)

	// terminal state wins over the already-extended flag
	_, err = engine.ExtendLoan(loan.ID)
	assert.ErrorIs(t, err, ErrLoanClosed)
	assert.NotErrorIs(t, err, ErrAlreadyExtended)
}

func TestConcurrentBorrowSingleCopy(t *testing.T) {
	engine, db := newTestEngine(t)
	book := createTestBook(t, db, 1)

	const borrowers = 10
	users := make([]models.User, borrowers)
	for i := range users {
		users[i] = createTestUser(t, db, fmt.Sprintf("reader%d@test.local", i), true)
	}

	var wg sync.WaitGroup
	errs := make([]error, borrowers)
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.CreateLoan(users[i].ID, book.ID, 14)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrBookUnavailable)
		}
	}
	assert.Equal(t, 1, successes)

	var active int64
	db.Model(&models.Loan{}).Where("book_id = ? AND return_date IS NULL", book.ID).Count(&active)
	assert.LessOrEqual(t, active, int64(book.Quantity))
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishJSON(routingKey string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func TestLifecycleEventsPublished(t *testing.T) {
	db := setupTestDB(t)
	pub := &recordingPublisher{}
	engine := NewEngine(db, inventory.NewLedger(db), pub)
	user := createTestUser(t, db, "reader@test.local", true)
	book := createTestBook(t, db, 1)

	loan, err := engine.CreateLoan(user.ID, book.ID, 14)
	assert.NoError(t, err)
	_, err = engine.ExtendLoan(loan.ID)
	assert.NoError(t, err)
	_, err = engine.ReturnLoan(loan.ID)
	assert.NoError(t, err)

	assert.Equal(t, []string{"loan.created", "loan.extended", "loan.returned"}, pub.keys)
}
