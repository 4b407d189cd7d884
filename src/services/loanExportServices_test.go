package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/biblioteca/loans-service/src/models"
	"github.com/biblioteca/loans-service/src/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func Test_ExportLoans_WritesOneRowPerLoan(t *testing.T) {
	f := newFixture(t)
	f.givenStoredLoan(t, 1, 1, today.AddDate(0, 0, -20), today.AddDate(0, 0, -6), models.LoanStatusActive)
	f.givenStoredLoan(t, 1, 2, today.AddDate(0, 0, -30), today.AddDate(0, 0, -16), models.LoanStatusReturned)
	exporter := services.NewLoanExportService(f.svc)

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportLoans(context.Background(), &buf, ""))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Loans")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Book title", rows[0][2])
	assert.Equal(t, "Don Quijote", rows[1][2])
	assert.Equal(t, "2026-04-28", rows[1][5])
	assert.Equal(t, "ACTIVE", rows[1][7])
	assert.Equal(t, "6", rows[1][9])
	assert.Equal(t, "RETURNED", rows[2][7])
}

func Test_ExportLoans_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	f.givenStoredLoan(t, 1, 1, today, today.AddDate(0, 0, 7), models.LoanStatusActive)
	f.givenStoredLoan(t, 1, 2, today, today.AddDate(0, 0, 7), models.LoanStatusLost)
	exporter := services.NewLoanExportService(f.svc)

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportLoans(context.Background(), &buf, models.LoanStatusLost))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Loans")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "LOST", rows[1][7])
}
