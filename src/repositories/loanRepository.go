package repositories

import (
	"context"

	"github.com/biblioteca/loans-service/src/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrLoanNotFound is returned when no loan has the requested id.
var ErrLoanNotFound = errors.New("loan not found")

// LoanStore is the persistent collection of loans.
type LoanStore interface {
	Create(ctx context.Context, loan *models.LoanModel) error
	// Save updates an existing loan. It never re-creates a deleted one.
	Save(ctx context.Context, loan *models.LoanModel) error
	// SaveAll updates every loan in a single transaction and reports how
	// many rows were written. Loans deleted in the meantime are skipped.
	SaveAll(ctx context.Context, loans []models.LoanModel) (int, error)
	Delete(ctx context.Context, id int) error

	FindByID(ctx context.Context, id int) (*models.LoanModel, error)
	FindAll(ctx context.Context) ([]models.LoanModel, error)
	FindByUser(ctx context.Context, userId int) ([]models.LoanModel, error)
	FindByBook(ctx context.Context, bookId int) ([]models.LoanModel, error)
	FindByStatus(ctx context.Context, statuses ...models.LoanStatus) ([]models.LoanModel, error)

	CountByUserAndStatus(ctx context.Context, userId int, statuses ...models.LoanStatus) (int64, error)
	ExistsByBookAndStatus(ctx context.Context, bookId int, statuses ...models.LoanStatus) (bool, error)
	CountByStatus(ctx context.Context) (map[models.LoanStatus]int64, error)
}

// GormLoanStore implements LoanStore on top of gorm.
type GormLoanStore struct {
	db *gorm.DB
}

// NewGormLoanStore creates a new instance of GormLoanStore
func NewGormLoanStore(db *gorm.DB) *GormLoanStore {
	return &GormLoanStore{db: db}
}

func (s *GormLoanStore) Create(ctx context.Context, loan *models.LoanModel) error {
	if err := s.db.WithContext(ctx).Create(loan).Error; err != nil {
		return errors.Wrap(err, "creating loan")
	}
	return nil
}

func (s *GormLoanStore) Save(ctx context.Context, loan *models.LoanModel) error {
	found, err := update(s.db.WithContext(ctx), loan)
	if err != nil {
		return errors.Wrapf(err, "saving loan %d", loan.Id)
	}
	if !found {
		return errors.Wrapf(ErrLoanNotFound, "loan %d", loan.Id)
	}
	return nil
}

func (s *GormLoanStore) SaveAll(ctx context.Context, loans []models.LoanModel) (int, error) {
	if len(loans) == 0 {
		return 0, nil
	}
	saved := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range loans {
			found, err := update(tx, &loans[i])
			if err != nil {
				return errors.Wrapf(err, "saving loan %d", loans[i].Id)
			}
			if found {
				saved++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return saved, nil
}

// update writes every column of loan to its existing row. gorm's Save falls
// back to an INSERT when no row matches, which would resurrect deleted loans.
func update(tx *gorm.DB, loan *models.LoanModel) (bool, error) {
	result := tx.Model(loan).Select("*").Updates(loan)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	// MySQL reports unchanged rows as unaffected.
	var count int64
	if err := tx.Model(&models.LoanModel{}).Where("id = ?", loan.Id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormLoanStore) Delete(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&models.LoanModel{}, id)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "deleting loan %d", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(ErrLoanNotFound, "loan %d", id)
	}
	return nil
}

func (s *GormLoanStore) FindByID(ctx context.Context, id int) (*models.LoanModel, error) {
	var loan models.LoanModel
	if err := s.db.WithContext(ctx).First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrLoanNotFound, "loan %d", id)
		}
		return nil, errors.Wrapf(err, "loading loan %d", id)
	}
	return &loan, nil
}

func (s *GormLoanStore) FindAll(ctx context.Context) ([]models.LoanModel, error) {
	var loans []models.LoanModel
	err := s.db.WithContext(ctx).Order("id").Find(&loans).Error
	return loans, errors.Wrap(err, "listing loans")
}

func (s *GormLoanStore) FindByUser(ctx context.Context, userId int) ([]models.LoanModel, error) {
	var loans []models.LoanModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userId).Order("id").Find(&loans).Error
	return loans, errors.Wrapf(err, "listing loans of user %d", userId)
}

func (s *GormLoanStore) FindByBook(ctx context.Context, bookId int) ([]models.LoanModel, error) {
	var loans []models.LoanModel
	err := s.db.WithContext(ctx).Where("book_id = ?", bookId).Order("id").Find(&loans).Error
	return loans, errors.Wrapf(err, "listing loans of book %d", bookId)
}

func (s *GormLoanStore) FindByStatus(ctx context.Context, statuses ...models.LoanStatus) ([]models.LoanModel, error) {
	var loans []models.LoanModel
	err := s.db.WithContext(ctx).Where("status IN ?", statuses).Order("id").Find(&loans).Error
	return loans, errors.Wrap(err, "listing loans by status")
}

func (s *GormLoanStore) CountByUserAndStatus(ctx context.Context, userId int, statuses ...models.LoanStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.LoanModel{}).
		Where("user_id = ? AND status IN ?", userId, statuses).
		Count(&count).Error
	return count, errors.Wrapf(err, "counting loans of user %d", userId)
}

func (s *GormLoanStore) ExistsByBookAndStatus(ctx context.Context, bookId int, statuses ...models.LoanStatus) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.LoanModel{}).
		Where("book_id = ? AND status IN ?", bookId, statuses).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "checking loans of book %d", bookId)
	}
	return count > 0, nil
}

func (s *GormLoanStore) CountByStatus(ctx context.Context) (map[models.LoanStatus]int64, error) {
	var rows []struct {
		Status models.LoanStatus
		Total  int64
	}
	err := s.db.WithContext(ctx).Model(&models.LoanModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "counting loans by status")
	}

	counts := make(map[models.LoanStatus]int64, len(models.LoanStatuses))
	for _, st := range models.LoanStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
