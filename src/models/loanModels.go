package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// LoanStatus is the persisted lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "ACTIVE"
	LoanStatusReturned LoanStatus = "RETURNED"
	LoanStatusOverdue  LoanStatus = "OVERDUE"
	LoanStatusLost     LoanStatus = "LOST"
)

// LoanStatuses lists every status in display order.
var LoanStatuses = []LoanStatus{LoanStatusActive, LoanStatusOverdue, LoanStatusReturned, LoanStatusLost}

// OpenLoanStatuses are the statuses of a loan whose book is still out.
var OpenLoanStatuses = []LoanStatus{LoanStatusActive, LoanStatusOverdue}

func (s LoanStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *LoanStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*s = LoanStatus(v)
	case []byte:
		*s = LoanStatus(v)
	case nil:
		*s = ""
	default:
		return fmt.Errorf("cannot scan %T into LoanStatus", src)
	}
	return nil
}

// ParseLoanStatus returns the status named by s, or false when s names none.
func ParseLoanStatus(s string) (LoanStatus, bool) {
	for _, st := range LoanStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type LoanModel struct {
	Id         int        `json:"id" gorm:"primaryKey;autoIncrement"`
	BookId     int        `json:"bookId" gorm:"column:book_id;not null;index"`
	UserId     int        `json:"userId" gorm:"column:user_id;not null;index"`
	LoanDate   time.Time  `json:"loanDate" gorm:"type:date;not null"`
	DueDate    time.Time  `json:"dueDate" gorm:"type:date;not null"`
	ReturnDate *time.Time `json:"returnDate" gorm:"type:date"`
	Status     LoanStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	DaysLate   int        `json:"daysLate" gorm:"not null;default:0"`
	Notes      string     `json:"notes" gorm:"type:varchar(500)"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (LoanModel) TableName() string { return "loans" }
