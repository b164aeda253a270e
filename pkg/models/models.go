package models

import (
	"time"
)

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:120;not null;uniqueIndex"`
	FullName  string `gorm:"size:120"`
	IsAdmin   bool   `gorm:"not null;default:false"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:80;not null;uniqueIndex"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Book struct {
	ID         uint   `gorm:"primaryKey"`
	Title      string `gorm:"not null"`
	Author     string
	Isbn       string `gorm:"size:13;uniqueIndex"`
	Quantity   int    `gorm:"not null;check:quantity >= 0"`
	CategoryID *uint

	Category *Category `gorm:"foreignKey:CategoryID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Loan start date is CreatedAt. A nil ReturnDate means the loan is active.
type Loan struct {
	ID         uint   `gorm:"primaryKey"`
	LoanUid    string `gorm:"type:uuid;uniqueIndex;not null"`
	UserID     uint   `gorm:"not null;index"`
	BookID     uint   `gorm:"not null;index"`
	DueDate    time.Time
	ReturnDate *time.Time
	Extended   bool `gorm:"not null;default:false"`

	User User `gorm:"foreignKey:UserID"`
	Book Book `gorm:"foreignKey:BookID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *Loan) Active() bool {
	return l.ReturnDate == nil
}
