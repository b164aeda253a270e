package main

import (
	"bytes"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"library-backend/pkg/database"
	"library-backend/pkg/inventory"
	"library-backend/pkg/loans"
	"library-backend/pkg/models"
)

func setupTest(t *testing.T) *gorm.DB {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(testDB); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db = testDB
	ledger = inventory.NewLedger(testDB)
	engine = loans.NewEngine(testDB, ledger, nil)
	return testDB
}

func testAdmin(t *testing.T, testDB *gorm.DB) models.User {
	user := models.User{Email: "admin@test.local", FullName: "Admin", IsAdmin: true, IsActive: true}
	if err := testDB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	return user
}

func testReader(t *testing.T, testDB *gorm.DB, email string) models.User {
	user := models.User{Email: email, FullName: "Reader", IsActive: true}
	if err := testDB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	return user
}

func testBook(t *testing.T, testDB *gorm.DB, quantity int, isbn string) models.Book {
	book := models.Book{Title: "Test Book", Author: "Test Author", Isbn: isbn, Quantity: quantity}
	if err := testDB.Create(&book).Error; err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	return book
}

func testContext(w *httptest.ResponseRecorder, method, target string, body []byte, asUser *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	c, _ := gin.CreateTestContext(w)
	if body != nil {
		c.Request = httptest.NewRequest(method, target, bytes.NewBuffer(body))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	if asUser != nil {
		c.Request.Header.Set("X-User-Id", strconv.FormatUint(uint64(asUser.ID), 10))
	}
	return c, w
}
