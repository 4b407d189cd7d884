package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

func days(n int) time.Time { return today.AddDate(0, 0, n) }

func Test_NewLoan_StartsActiveWithoutLateness(t *testing.T) {
	loan := NewLoan(1, 2, days(14), "first", today)

	assert.Equal(t, LoanStatusActive, loan.Status)
	assert.Equal(t, DateOf(today), loan.LoanDate)
	assert.Equal(t, DateOf(days(14)), loan.DueDate)
	assert.Nil(t, loan.ReturnDate)
	assert.Zero(t, loan.DaysLate)
}

func Test_CalculateDaysLate(t *testing.T) {
	cases := []struct {
		name   string
		status LoanStatus
		due    time.Time
		want   int
	}{
		{"active before due date", LoanStatusActive, days(3), 0},
		{"active on due date", LoanStatusActive, today, 0},
		{"active past due", LoanStatusActive, days(-4), 4},
		{"overdue keeps counting", LoanStatusOverdue, days(-9), 9},
		{"returned is never late", LoanStatusReturned, days(-4), 0},
		{"lost is never late", LoanStatusLost, days(-4), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loan := &LoanModel{Status: tc.status, DueDate: tc.due, DaysLate: 99}

			loan.CalculateDaysLate(today)

			assert.Equal(t, tc.want, loan.DaysLate)
		})
	}
}

func Test_IsOverdue_IgnoresTimeOfDay(t *testing.T) {
	loan := &LoanModel{Status: LoanStatusActive, DueDate: time.Date(2026, time.March, 10, 23, 59, 0, 0, time.UTC)}

	assert.False(t, loan.IsOverdue(time.Date(2026, time.March, 10, 0, 1, 0, 0, time.UTC)))
	assert.True(t, loan.IsOverdue(time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)))
}

func Test_Return_SetsReturnDateAndStatus(t *testing.T) {
	loan := NewLoan(1, 1, days(-2), "", days(-10))

	require.NoError(t, loan.Return(today, false))

	assert.Equal(t, LoanStatusReturned, loan.Status)
	require.NotNil(t, loan.ReturnDate)
	assert.Equal(t, DateOf(today), *loan.ReturnDate)
	assert.Zero(t, loan.DaysLate)
}

func Test_Return_Lost(t *testing.T) {
	loan := NewLoan(1, 1, days(5), "", today)

	require.NoError(t, loan.Return(today, true))

	assert.Equal(t, LoanStatusLost, loan.Status)
	assert.NotNil(t, loan.ReturnDate)
}

func Test_Return_FromOverdueIsAllowed(t *testing.T) {
	loan := &LoanModel{Status: LoanStatusOverdue, DueDate: days(-3), DaysLate: 3}

	require.NoError(t, loan.Return(today, false))

	assert.Equal(t, LoanStatusReturned, loan.Status)
}

func Test_Return_TwiceFailsAndKeepsFirstResult(t *testing.T) {
	loan := NewLoan(1, 1, days(5), "", today)
	require.NoError(t, loan.Return(today, false))
	firstReturn := *loan.ReturnDate

	err := loan.Return(days(1), true)

	var transition *ErrInvalidTransition
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, LoanStatusReturned, transition.From)
	assert.Equal(t, LoanStatusReturned, loan.Status)
	assert.Equal(t, firstReturn, *loan.ReturnDate)
}

func Test_PromoteIfOverdue(t *testing.T) {
	pastDue := &LoanModel{Status: LoanStatusActive, DueDate: days(-1)}
	notDue := &LoanModel{Status: LoanStatusActive, DueDate: days(1)}
	returned := &LoanModel{Status: LoanStatusReturned, DueDate: days(-30)}

	assert.True(t, pastDue.PromoteIfOverdue(today))
	assert.Equal(t, LoanStatusOverdue, pastDue.Status)
	assert.Equal(t, 1, pastDue.DaysLate)

	assert.False(t, notDue.PromoteIfOverdue(today))
	assert.Equal(t, LoanStatusActive, notDue.Status)

	assert.False(t, returned.PromoteIfOverdue(today))
	assert.Equal(t, LoanStatusReturned, returned.Status)
}

func Test_PromoteIfOverdue_RefreshesDaysLateOfOverdueLoan(t *testing.T) {
	loan := &LoanModel{Status: LoanStatusOverdue, DueDate: days(-5), DaysLate: 4}

	assert.True(t, loan.PromoteIfOverdue(today))
	assert.Equal(t, 5, loan.DaysLate)
	assert.False(t, loan.PromoteIfOverdue(today))
}

func Test_ChangeDueDate(t *testing.T) {
	loan := &LoanModel{Status: LoanStatusOverdue, DueDate: days(-2), DaysLate: 2}

	require.NoError(t, loan.ChangeDueDate(days(7), today))

	assert.Equal(t, LoanStatusActive, loan.Status)
	assert.Equal(t, DateOf(days(7)), loan.DueDate)
	assert.Zero(t, loan.DaysLate)
}

func Test_ChangeDueDate_RejectsSettledLoans(t *testing.T) {
	for _, status := range []LoanStatus{LoanStatusReturned, LoanStatusLost} {
		loan := &LoanModel{Status: status, DueDate: days(-2)}

		err := loan.ChangeDueDate(days(7), today)

		assert.Error(t, err, status)
		assert.Equal(t, DateOf(days(-2)), DateOf(loan.DueDate))
	}
}

func Test_ParseLoanStatus(t *testing.T) {
	st, ok := ParseLoanStatus("LOST")
	assert.True(t, ok)
	assert.Equal(t, LoanStatusLost, st)

	_, ok = ParseLoanStatus("lost")
	assert.False(t, ok)
}
