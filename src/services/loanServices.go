package services

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/biblioteca/loans-service/src/clients"
	"github.com/biblioteca/loans-service/src/logger"
	"github.com/biblioteca/loans-service/src/models"
	"github.com/biblioteca/loans-service/src/repositories"
	"github.com/pkg/errors"
)

const (
	// DefaultMaxActiveLoans is how many open loans a user may hold at once.
	DefaultMaxActiveLoans = 5

	// TitleUnavailable replaces the book title when the Books service cannot provide one.
	TitleUnavailable = "Information unavailable"

	maxNotesLength = 500
)

// LoanDetails is a loan as presented to callers: the stored row with daysLate
// recomputed for today and the book title looked up best-effort.
type LoanDetails struct {
	models.LoanModel
	BookTitle string
	Overdue   bool
}

// Statistics aggregates loans by persisted status. Percentages are nil when
// there are no loans.
type Statistics struct {
	Active      int64
	Returned    int64
	Overdue     int64
	Lost        int64
	Total       int64
	PctActive   *float64
	PctReturned *float64
	PctLost     *float64
	AsOf        time.Time
}

type CreateLoanInput struct {
	BookId  int
	UserId  int
	DueDate time.Time
	Notes   string
}

// UpdateLoanInput holds the fields a caller may change on an open loan. Nil
// fields are left as they are.
type UpdateLoanInput struct {
	DueDate *time.Time
	Notes   *string
}

type LoanService struct {
	store repositories.LoanStore
	books clients.BookGateway
	log   logger.Logger

	maxActiveLoans    int
	singleLoanPerBook bool
	now               func() time.Time
}

type Option func(*LoanService) error

// WithMaxActiveLoans sets how many open loans a user may hold.
func WithMaxActiveLoans(n int) Option {
	return func(s *LoanService) error {
		if n <= 0 {
			return errors.Errorf("max active loans must be positive, got %d", n)
		}
		s.maxActiveLoans = n
		return nil
	}
}

// WithSingleLoanPerBook rejects a new loan when the book already has an open
// loan in this service, on top of the upstream availability check.
func WithSingleLoanPerBook(enabled bool) Option {
	return func(s *LoanService) error {
		s.singleLoanPerBook = enabled
		return nil
	}
}

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *LoanService) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		s.now = now
		return nil
	}
}

// NewLoanService creates a new instance of LoanService
func NewLoanService(store repositories.LoanStore, books clients.BookGateway, log logger.Logger, opts ...Option) (*LoanService, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &LoanService{
		store:          store,
		books:          books,
		log:            log.WithComponent("loan-service"),
		maxActiveLoans: DefaultMaxActiveLoans,
		now:            time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Today returns the current calendar date as seen by the service.
func (s *LoanService) Today() time.Time {
	return models.DateOf(s.now())
}

// CreateLoan lends a book to a user and takes one copy from the Books service stock.
//
// The loan row is written before the stock decrement. If the decrement fails
// the error is returned and the row stays ACTIVE.
func (s *LoanService) CreateLoan(ctx context.Context, in CreateLoanInput) (*LoanDetails, error) {
	today := s.Today()

	verr := &ValidationError{}
	if in.BookId <= 0 {
		verr.add("bookId", "must be a positive number")
	}
	if in.UserId <= 0 {
		verr.add("userId", "must be a positive number")
	}
	if in.DueDate.IsZero() {
		verr.add("dueDate", "is required")
	} else if !models.DateOf(in.DueDate).After(today) {
		verr.add("dueDate", "must be after today")
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLength {
		verr.add("notes", fmt.Sprintf("must be at most %d characters", maxNotesLength))
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	available, err := s.books.IsAvailable(ctx, in.BookId)
	if err != nil {
		if errors.Is(err, clients.ErrRemoteNotFound) {
			return nil, fmt.Errorf("book %d: %w: %w", in.BookId, ErrBookNotAvailable, err)
		}
		return nil, errors.Wrapf(err, "checking book %d", in.BookId)
	}
	if !available {
		return nil, errors.Wrapf(ErrBookNotAvailable, "book %d", in.BookId)
	}

	if s.singleLoanPerBook {
		onLoan, err := s.store.ExistsByBookAndStatus(ctx, in.BookId, models.OpenLoanStatuses...)
		if err != nil {
			return nil, err
		}
		if onLoan {
			return nil, errors.Wrapf(ErrBookNotAvailable, "book %d already has an open loan", in.BookId)
		}
	}

	userLoans, err := s.store.FindByUser(ctx, in.UserId)
	if err != nil {
		return nil, err
	}
	for i := range userLoans {
		if userLoans[i].IsOverdue(today) {
			return nil, errors.Wrapf(ErrUserHasOverdueLoans, "user %d, loan %d", in.UserId, userLoans[i].Id)
		}
	}

	open, err := s.store.CountByUserAndStatus(ctx, in.UserId, models.OpenLoanStatuses...)
	if err != nil {
		return nil, err
	}
	if open >= int64(s.maxActiveLoans) {
		return nil, errors.Wrapf(ErrLoanLimitExceeded, "user %d holds %d of %d", in.UserId, open, s.maxActiveLoans)
	}

	title := s.bookTitle(ctx, in.BookId)

	loan := models.NewLoan(in.BookId, in.UserId, in.DueDate, in.Notes, today)
	if err := s.store.Create(ctx, loan); err != nil {
		return nil, err
	}

	if err := s.books.DecrementStock(ctx, in.BookId); err != nil {
		s.log.Errorw("stock decrement failed after loan was persisted",
			"loanId", loan.Id, "bookId", in.BookId, "error", err)
		return nil, errors.Wrapf(err, "loan %d persisted but stock not decremented", loan.Id)
	}

	s.log.Infow("loan created", "loanId", loan.Id, "bookId", loan.BookId, "userId", loan.UserId,
		"dueDate", loan.DueDate.Format(time.DateOnly))
	return s.details(loan, title, today), nil
}

// RegisterReturn settles an open loan. Unless the book was lost, one copy is
// given back to the Books service after the loan is saved; a failure there is
// logged and does not undo the return.
func (s *LoanService) RegisterReturn(ctx context.Context, id int, notes *string, lost bool) (*LoanDetails, error) {
	today := s.Today()

	loan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !loan.IsOpen() {
		return nil, errors.Wrapf(ErrInvalidState, "loan %d is %s", id, loan.Status)
	}
	if notes != nil && utf8.RuneCountInString(*notes) > maxNotesLength {
		return nil, &ValidationError{Fields: map[string]string{
			"notes": fmt.Sprintf("must be at most %d characters", maxNotesLength),
		}}
	}

	if err := loan.Return(today, lost); err != nil {
		return nil, errors.Wrap(ErrInvalidState, err.Error())
	}
	if notes != nil {
		loan.Notes = *notes
	}
	if err := s.save(ctx, loan); err != nil {
		return nil, err
	}

	if !lost {
		s.releaseStock(ctx, loan, "return")
	}

	s.log.Infow("loan settled", "loanId", loan.Id, "bookId", loan.BookId, "status", loan.Status)
	return s.details(loan, s.bookTitle(ctx, loan.BookId), today), nil
}

// UpdateLoan changes the due date or notes of an open loan.
func (s *LoanService) UpdateLoan(ctx context.Context, id int, in UpdateLoanInput) (*LoanDetails, error) {
	today := s.Today()

	loan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.IsTerminal() {
		return nil, errors.Wrapf(ErrInvalidState, "loan %d is %s", id, loan.Status)
	}

	verr := &ValidationError{}
	if in.DueDate != nil && models.DateOf(*in.DueDate).Before(models.DateOf(loan.LoanDate)) {
		verr.add("dueDate", "must not be before the loan date")
	}
	if in.Notes != nil && utf8.RuneCountInString(*in.Notes) > maxNotesLength {
		verr.add("notes", fmt.Sprintf("must be at most %d characters", maxNotesLength))
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	due := loan.DueDate
	if in.DueDate != nil {
		due = *in.DueDate
	}
	if err := loan.ChangeDueDate(due, today); err != nil {
		return nil, errors.Wrap(ErrInvalidState, err.Error())
	}
	if in.Notes != nil {
		loan.Notes = *in.Notes
	}
	if err := s.save(ctx, loan); err != nil {
		return nil, err
	}

	return s.details(loan, s.bookTitle(ctx, loan.BookId), today), nil
}

// DeleteLoan removes a loan. An open loan gives its copy back to the Books
// service first, best-effort.
func (s *LoanService) DeleteLoan(ctx context.Context, id int) error {
	loan, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if loan.IsOpen() {
		s.releaseStock(ctx, loan, "delete")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrLoanNotFound) {
			return errors.Wrapf(ErrNotFound, "loan %d", id)
		}
		return err
	}
	s.log.Infow("loan deleted", "loanId", id, "bookId", loan.BookId, "status", loan.Status)
	return nil
}

// GetLoan retrieves a loan by its ID
func (s *LoanService) GetLoan(ctx context.Context, id int) (*LoanDetails, error) {
	loan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.details(loan, s.bookTitle(ctx, loan.BookId), s.Today()), nil
}

func (s *LoanService) GetAllLoans(ctx context.Context) ([]LoanDetails, error) {
	loans, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, loans), nil
}

func (s *LoanService) GetLoansByUser(ctx context.Context, userId int) ([]LoanDetails, error) {
	loans, err := s.store.FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, loans), nil
}

func (s *LoanService) GetLoansByBook(ctx context.Context, bookId int) ([]LoanDetails, error) {
	loans, err := s.store.FindByBook(ctx, bookId)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, loans), nil
}

// GetActiveLoans lists loans whose stored status is ACTIVE.
func (s *LoanService) GetActiveLoans(ctx context.Context) ([]LoanDetails, error) {
	loans, err := s.store.FindByStatus(ctx, models.LoanStatusActive)
	if err != nil {
		return nil, err
	}
	return s.detailsList(ctx, loans), nil
}

// GetOverdueLoans lists open loans that are past due today, whether or not the
// sweeper has labelled them yet.
func (s *LoanService) GetOverdueLoans(ctx context.Context) ([]LoanDetails, error) {
	loans, err := s.store.FindByStatus(ctx, models.OpenLoanStatuses...)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	overdue := loans[:0]
	for _, loan := range loans {
		if loan.IsOverdue(today) {
			overdue = append(overdue, loan)
		}
	}
	return s.detailsList(ctx, overdue), nil
}

func (s *LoanService) UserHasActiveLoans(ctx context.Context, userId int) (bool, error) {
	n, err := s.CountActiveLoansForUser(ctx, userId)
	return n > 0, err
}

// CountActiveLoansForUser counts the user's open loans, the same figure the
// loan limit is checked against.
func (s *LoanService) CountActiveLoansForUser(ctx context.Context, userId int) (int64, error) {
	return s.store.CountByUserAndStatus(ctx, userId, models.OpenLoanStatuses...)
}

func (s *LoanService) IsBookOnLoan(ctx context.Context, bookId int) (bool, error) {
	return s.store.ExistsByBookAndStatus(ctx, bookId, models.OpenLoanStatuses...)
}

func (s *LoanService) GetStatistics(ctx context.Context) (*Statistics, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Active:   counts[models.LoanStatusActive],
		Returned: counts[models.LoanStatusReturned],
		Overdue:  counts[models.LoanStatusOverdue],
		Lost:     counts[models.LoanStatusLost],
		AsOf:     s.Today(),
	}
	stats.Total = stats.Active + stats.Returned + stats.Overdue + stats.Lost
	if stats.Total > 0 {
		stats.PctActive = percentage(stats.Active, stats.Total)
		stats.PctReturned = percentage(stats.Returned, stats.Total)
		stats.PctLost = percentage(stats.Lost, stats.Total)
	}
	return stats, nil
}

func percentage(part, total int64) *float64 {
	p := math.Round(float64(part)*10000/float64(total)) / 100
	return &p
}

func (s *LoanService) load(ctx context.Context, id int) (*models.LoanModel, error) {
	loan, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLoanNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "loan %d", id)
		}
		return nil, err
	}
	return loan, nil
}

// save fails with ErrNotFound when the loan was deleted after it was loaded.
func (s *LoanService) save(ctx context.Context, loan *models.LoanModel) error {
	if err := s.store.Save(ctx, loan); err != nil {
		if errors.Is(err, repositories.ErrLoanNotFound) {
			return errors.Wrapf(ErrNotFound, "loan %d", loan.Id)
		}
		return err
	}
	return nil
}

func (s *LoanService) releaseStock(ctx context.Context, loan *models.LoanModel, reason string) {
	if err := s.books.IncrementStock(ctx, loan.BookId); err != nil {
		s.log.Warnw("could not give stock back to the Books service",
			"loanId", loan.Id, "bookId", loan.BookId, "reason", reason, "error", err)
	}
}

func (s *LoanService) bookTitle(ctx context.Context, bookId int) string {
	summary, err := s.books.FetchSummary(ctx, bookId)
	if err != nil || summary == nil {
		s.log.Debugw("book title unavailable", "bookId", bookId, "error", err)
		return TitleUnavailable
	}
	return summary.Title
}

func (s *LoanService) details(loan *models.LoanModel, title string, today time.Time) *LoanDetails {
	d := &LoanDetails{LoanModel: *loan, BookTitle: title, Overdue: loan.IsOverdue(today)}
	if d.IsOpen() {
		d.CalculateDaysLate(today)
	}
	return d
}

// detailsList looks each distinct book up once.
func (s *LoanService) detailsList(ctx context.Context, loans []models.LoanModel) []LoanDetails {
	today := s.Today()
	titles := make(map[int]string)
	out := make([]LoanDetails, 0, len(loans))
	for i := range loans {
		title, ok := titles[loans[i].BookId]
		if !ok {
			title = s.bookTitle(ctx, loans[i].BookId)
			titles[loans[i].BookId] = title
		}
		out = append(out, *s.details(&loans[i], title, today))
	}
	return out
}
