package models

import (
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a lifecycle change is not legal for the
// loan's current status.
type ErrInvalidTransition struct {
	From LoanStatus
	Op   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s a loan in status %s", e.Op, e.From)
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// NewLoan builds an ACTIVE loan lent today.
func NewLoan(bookId, userId int, dueDate time.Time, notes string, today time.Time) *LoanModel {
	loan := &LoanModel{
		BookId:   bookId,
		UserId:   userId,
		LoanDate: DateOf(today),
		DueDate:  DateOf(dueDate),
		Status:   LoanStatusActive,
		Notes:    notes,
	}
	loan.CalculateDaysLate(today)
	return loan
}

// IsOpen reports whether the book is still out. OVERDUE is a label over an
// ACTIVE loan past due, so both count.
func (l *LoanModel) IsOpen() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusOverdue
}

// IsTerminal reports whether the loan has been settled.
func (l *LoanModel) IsTerminal() bool {
	return l.Status == LoanStatusReturned || l.Status == LoanStatusLost
}

// IsOverdue reports whether the loan is open and today is past its due date.
func (l *LoanModel) IsOverdue(today time.Time) bool {
	return l.IsOpen() && DateOf(today).After(DateOf(l.DueDate))
}

// LateDays returns how many days late the loan is as of today without
// modifying it.
func (l *LoanModel) LateDays(today time.Time) int {
	if !l.IsOverdue(today) {
		return 0
	}
	return DaysBetween(l.DueDate, today)
}

// CalculateDaysLate recomputes DaysLate as of today.
func (l *LoanModel) CalculateDaysLate(today time.Time) {
	l.DaysLate = l.LateDays(today)
}

// Return settles an open loan. A lost book is settled as LOST.
func (l *LoanModel) Return(today time.Time, lost bool) error {
	if !l.IsOpen() {
		return &ErrInvalidTransition{From: l.Status, Op: "return"}
	}
	returned := DateOf(today)
	l.ReturnDate = &returned
	if lost {
		l.Status = LoanStatusLost
	} else {
		l.Status = LoanStatusReturned
	}
	l.CalculateDaysLate(today)
	return nil
}

// PromoteIfOverdue flips an ACTIVE loan past due to OVERDUE and refreshes
// DaysLate for open loans. It reports whether the loan changed.
func (l *LoanModel) PromoteIfOverdue(today time.Time) bool {
	if !l.IsOpen() {
		return false
	}
	before, beforeDays := l.Status, l.DaysLate
	l.CalculateDaysLate(today)
	if l.Status == LoanStatusActive && l.IsOverdue(today) {
		l.Status = LoanStatusOverdue
	}
	return l.Status != before || l.DaysLate != beforeDays
}

// ChangeDueDate moves the due date of an open loan. An OVERDUE loan whose new
// due date is not past goes back to ACTIVE.
func (l *LoanModel) ChangeDueDate(dueDate, today time.Time) error {
	if l.IsTerminal() {
		return &ErrInvalidTransition{From: l.Status, Op: "modify"}
	}
	l.DueDate = DateOf(dueDate)
	if l.Status == LoanStatusOverdue && !l.IsOverdue(today) {
		l.Status = LoanStatusActive
	}
	l.CalculateDaysLate(today)
	return nil
}
