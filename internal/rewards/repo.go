package rewards

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yasboss/storefront-backend/pkg/db/models"
)

// Repository provides access to users and the point ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByEmailForUpdate(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	AppendHistory(ctx context.Context, entry *models.PointHistory) error
	ListHistory(ctx context.Context, email string, limit int) ([]models.PointHistory, error)
	SumDeltas(ctx context.Context, email string) (int, error)
	ListUserEmails(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rewards repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindUserByEmailForUpdate(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) SaveUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.PointHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, email string, limit int) ([]models.PointHistory, error) {
	var rows []models.PointHistory
	q := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumDeltas(ctx context.Context, email string) (int, error) {
	var sum *int
	err := r.db.WithContext(ctx).
		Model(&models.PointHistory{}).
		Where("user_email = ?", email).
		Select("SUM(delta)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repository) ListUserEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Order("email ASC").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}
