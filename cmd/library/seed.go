package main

import (
	"github.com/rs/zerolog/log"

	"library-backend/pkg/models"
)

// seedData creates a default admin, a reader account, and a small catalog so
// a fresh deployment is usable immediately. Idempotent across restarts.
func seedData() {
	users := []models.User{
		{Email: "admin@library.local", FullName: "Library Admin", IsAdmin: true, IsActive: true},
		{Email: "reader@library.local", FullName: "Test Reader", IsActive: true},
	}
	for _, user := range users {
		var existing models.User
		if err := db.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			if err := db.Create(&user).Error; err != nil {
				log.Warn().Err(err).Str("email", user.Email).Msg("failed to seed user")
			}
		}
	}

	var fiction models.Category
	if err := db.Where("name = ?", "Fiction").First(&fiction).Error; err != nil {
		fiction = models.Category{Name: "Fiction", Description: "Novels and short stories"}
		if err := db.Create(&fiction).Error; err != nil {
			log.Warn().Err(err).Msg("failed to seed category")
		}
	}

	books := []models.Book{
		{Title: "The Master and Margarita", Author: "Mikhail Bulgakov", Isbn: "9780141180144", Quantity: 3, CategoryID: &fiction.ID},
		{Title: "The Go Programming Language", Author: "Donovan & Kernighan", Isbn: "9780134190440", Quantity: 2},
		{Title: "Crime and Punishment", Author: "Fyodor Dostoevsky", Isbn: "9780140449136", Quantity: 1, CategoryID: &fiction.ID},
	}
	for _, book := range books {
		var existing models.Book
		if err := db.Where("isbn = ?", book.Isbn).First(&existing).Error; err != nil {
			if err := db.Create(&book).Error; err != nil {
				log.Warn().Err(err).Str("title", book.Title).Msg("failed to seed book")
			}
		}
	}

	log.Info().Msg("seed data ensured")
}
