package services

import (
	"context"
	"io"
	"time"

	"github.com/biblioteca/loans-service/src/models"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Loans"

var exportHeader = []any{
	"ID", "Book ID", "Book title", "User ID", "Loan date", "Due date",
	"Return date", "Status", "Overdue", "Days late", "Notes",
}

// LoanExportService writes loans as an XLSX workbook.
type LoanExportService struct {
	loans *LoanService
}

// NewLoanExportService creates a new instance of LoanExportService
func NewLoanExportService(loans *LoanService) *LoanExportService {
	return &LoanExportService{loans: loans}
}

// ExportLoans writes every loan, or only those in status when it is non-empty,
// to w as a single-sheet workbook.
func (s *LoanExportService) ExportLoans(ctx context.Context, w io.Writer, status models.LoanStatus) error {
	var (
		loans []LoanDetails
		err   error
	)
	if status == "" {
		loans, err = s.loans.GetAllLoans(ctx)
	} else {
		var rows []models.LoanModel
		rows, err = s.loans.store.FindByStatus(ctx, status)
		if err == nil {
			loans = s.loans.detailsList(ctx, rows)
		}
	}
	if err != nil {
		return err
	}

	f, err := BuildLoansWorkbook(loans)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

// BuildLoansWorkbook lays loans out one per row under a bold header.
func BuildLoansWorkbook(loans []LoanDetails) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "naming sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "creating header style")
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "writing header")
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "styling header")
	}

	for i, loan := range loans {
		returned := ""
		if loan.ReturnDate != nil {
			returned = loan.ReturnDate.Format(time.DateOnly)
		}
		row := []any{
			loan.Id, loan.BookId, loan.BookTitle, loan.UserId,
			loan.LoanDate.Format(time.DateOnly), loan.DueDate.Format(time.DateOnly),
			returned, string(loan.Status), loan.Overdue, loan.DaysLate, loan.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "addressing row")
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "writing loan %d", loan.Id)
		}
	}

	if err := f.SetColWidth(exportSheet, "C", "C", 32); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "sizing title column")
	}
	if err := f.SetColWidth(exportSheet, "K", "K", 48); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "sizing notes column")
	}
	return f, nil
}
