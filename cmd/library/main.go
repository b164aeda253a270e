package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"library-backend/pkg/config"
	"library-backend/pkg/database"
	"library-backend/pkg/events"
	"library-backend/pkg/inventory"
	"library-backend/pkg/loans"
)

var (
	db     *gorm.DB
	ledger *inventory.Ledger
	engine *loans.Engine
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	log.Info().Str("addr", cfg.HTTPAddr).Msg("starting library service")

	var err error
	db, err = database.InitLibraryDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}

	var pub loans.EventPublisher
	if cfg.RabbitURL != "" {
		rabbit, err := events.Dial(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbit connection failed")
		}
		defer rabbit.Close()
		pub = rabbit
		log.Info().Str("exchange", cfg.RabbitExchange).Msg("event publisher connected")
	} else {
		log.Info().Msg("no RABBIT_URL configured, loan events disabled")
	}

	ledger = inventory.NewLedger(db)
	engine = loans.NewEngine(db, ledger, pub)

	if cfg.SeedOnStart {
		seedData()
	}

	server := gin.Default()
	api := server.Group("/api/v1")

	api.GET("/books", listBooks)
	api.GET("/books/:bookId", getBook)
	api.POST("/books", createBook)
	api.PUT("/books/:bookId", updateBook)
	api.DELETE("/books/:bookId", deleteBook)
	api.POST("/books/:bookId/borrow", borrowBook)

	api.GET("/categories", listCategories)
	api.GET("/categories/:categoryId", getCategory)
	api.POST("/categories", createCategory)
	api.PUT("/categories/:categoryId", updateCategory)
	api.DELETE("/categories/:categoryId", deleteCategory)

	api.GET("/loans", listLoans)
	api.GET("/loans/active", getActiveLoans)
	api.GET("/loans/overdue", getOverdueLoans)
	api.GET("/loans/user/:userId", getUserLoans)
	api.GET("/loans/book/:bookId", getBookLoans)
	api.GET("/loans/:loanId", getLoan)
	api.POST("/loans", createLoan)
	api.POST("/loans/:loanId/return", returnLoan)
	api.POST("/loans/:loanId/extend", extendLoan)

	api.GET("/admin/users-loans", listUsersLoans)

	server.GET("/manage/health", healthCheck)

	log.Info().Msgf("library service listening on %s", cfg.HTTPAddr)
	if err := server.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
