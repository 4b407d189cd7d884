package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/biblioteca/loans-service/src/models"
	"github.com/biblioteca/loans-service/src/repositories"
	"github.com/biblioteca/loans-service/src/testutil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)

func givenLoan(t *testing.T, store *repositories.GormLoanStore, bookId, userId int, status models.LoanStatus) *models.LoanModel {
	t.Helper()
	loan := models.NewLoan(bookId, userId, today.AddDate(0, 0, 14), "", today)
	loan.Status = status
	if loan.IsTerminal() {
		returned := today
		loan.ReturnDate = &returned
	}
	require.NoError(t, store.Create(context.Background(), loan))
	return loan
}

func Test_GormLoanStore_CreateAndFindByID(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))
	ctx := context.Background()

	created := givenLoan(t, store, 7, 3, models.LoanStatusActive)
	require.NotZero(t, created.Id)

	found, err := store.FindByID(ctx, created.Id)

	require.NoError(t, err)
	assert.Equal(t, 7, found.BookId)
	assert.Equal(t, 3, found.UserId)
	assert.Equal(t, models.LoanStatusActive, found.Status)
	assert.Equal(t, "2026-05-18", found.DueDate.Format("2006-01-02"))
	assert.Nil(t, found.ReturnDate)
	assert.False(t, found.CreatedAt.IsZero())
}

func Test_GormLoanStore_FindByID_NotFound(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))

	_, err := store.FindByID(context.Background(), 404)

	assert.True(t, errors.Is(err, repositories.ErrLoanNotFound))
}

func Test_GormLoanStore_Queries(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))
	ctx := context.Background()

	givenLoan(t, store, 1, 10, models.LoanStatusActive)
	givenLoan(t, store, 2, 10, models.LoanStatusOverdue)
	givenLoan(t, store, 1, 11, models.LoanStatusReturned)
	givenLoan(t, store, 3, 11, models.LoanStatusLost)

	byUser, err := store.FindByUser(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byBook, err := store.FindByBook(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byBook, 2)

	open, err := store.FindByStatus(ctx, models.OpenLoanStatuses...)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	count, err := store.CountByUserAndStatus(ctx, 10, models.OpenLoanStatuses...)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = store.CountByUserAndStatus(ctx, 11, models.LoanStatusActive)
	require.NoError(t, err)
	assert.Zero(t, count)

	onLoan, err := store.ExistsByBookAndStatus(ctx, 1, models.OpenLoanStatuses...)
	require.NoError(t, err)
	assert.True(t, onLoan)

	onLoan, err = store.ExistsByBookAndStatus(ctx, 3, models.OpenLoanStatuses...)
	require.NoError(t, err)
	assert.False(t, onLoan)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func Test_GormLoanStore_CountByStatus_ReportsEveryStatus(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))
	ctx := context.Background()

	givenLoan(t, store, 1, 1, models.LoanStatusActive)
	givenLoan(t, store, 2, 1, models.LoanStatusActive)
	givenLoan(t, store, 3, 2, models.LoanStatusLost)

	counts, err := store.CountByStatus(ctx)

	require.NoError(t, err)
	assert.Equal(t, map[models.LoanStatus]int64{
		models.LoanStatusActive:   2,
		models.LoanStatusOverdue:  0,
		models.LoanStatusReturned: 0,
		models.LoanStatusLost:     1,
	}, counts)
}

func Test_GormLoanStore_SaveAll_WritesEveryLoan(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))
	ctx := context.Background()

	first := givenLoan(t, store, 1, 1, models.LoanStatusActive)
	second := givenLoan(t, store, 2, 1, models.LoanStatusActive)

	first.Status, first.DaysLate = models.LoanStatusOverdue, 3
	second.Notes = "renewed by phone"

	saved, err := store.SaveAll(ctx, []models.LoanModel{*first, *second})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	reloaded, err := store.FindByID(ctx, first.Id)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusOverdue, reloaded.Status)
	assert.Equal(t, 3, reloaded.DaysLate)

	reloaded, err = store.FindByID(ctx, second.Id)
	require.NoError(t, err)
	assert.Equal(t, "renewed by phone", reloaded.Notes)

	saved, err = store.SaveAll(ctx, nil)
	assert.NoError(t, err)
	assert.Zero(t, saved)
}

func Test_GormLoanStore_Save_DeletedLoan_IsNotRecreated(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))
	ctx := context.Background()
	loan := givenLoan(t, store, 1, 1, models.LoanStatusActive)
	require.NoError(t, store.Delete(ctx, loan.Id))

	loan.Status = models.LoanStatusOverdue
	err := store.Save(ctx, loan)

	assert.True(t, errors.Is(err, repositories.ErrLoanNotFound))
	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func Test_GormLoanStore_Save_UnchangedLoan_Succeeds(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))
	loan := givenLoan(t, store, 1, 1, models.LoanStatusActive)

	assert.NoError(t, store.Save(context.Background(), loan))
	assert.NoError(t, store.Save(context.Background(), loan))
}

func Test_GormLoanStore_SaveAll_SkipsDeletedLoans(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))
	ctx := context.Background()
	kept := givenLoan(t, store, 1, 1, models.LoanStatusActive)
	gone := givenLoan(t, store, 2, 1, models.LoanStatusActive)
	require.NoError(t, store.Delete(ctx, gone.Id))

	kept.Status, gone.Status = models.LoanStatusOverdue, models.LoanStatusOverdue
	saved, err := store.SaveAll(ctx, []models.LoanModel{*kept, *gone})

	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.Id, all[0].Id)
	assert.Equal(t, models.LoanStatusOverdue, all[0].Status)
}

func Test_GormLoanStore_Delete(t *testing.T) {
	store := repositories.NewGormLoanStore(testutil.NewTestDB(t))
	ctx := context.Background()
	loan := givenLoan(t, store, 1, 1, models.LoanStatusActive)

	require.NoError(t, store.Delete(ctx, loan.Id))

	_, err := store.FindByID(ctx, loan.Id)
	assert.True(t, errors.Is(err, repositories.ErrLoanNotFound))
	assert.True(t, errors.Is(store.Delete(ctx, loan.Id), repositories.ErrLoanNotFound))
}
