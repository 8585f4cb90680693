package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Mutation is one ledger movement. Points is always positive; the direction
// comes from calling Credit or Debit.
type Mutation struct {
	Email     string
	Points    int
	Type      enums.PointTxType
	Reference *string
	Note      *string
}

// Service owns the loyalty ledger and the cached balance projection. Every
// write appends a ledger row and updates the balance in the same
// transaction.
type Service interface {
	Credit(ctx context.Context, input Mutation) error
	Debit(ctx context.Context, input Mutation) error
	CreditInTx(ctx context.Context, tx *gorm.DB, input Mutation) error
	DebitInTx(ctx context.Context, tx *gorm.DB, input Mutation) error
	Balance(ctx context.Context, email string) (int, error)
	History(ctx context.Context, email string, limit int) ([]models.PointHistory, error)
	RecomputeBalance(ctx context.Context, email string) (balance int, drifted bool, err error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a rewards service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// NormalizeEmail lowercases and trims an email used as the ledger key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Credit(ctx context.Context, input Mutation) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.CreditInTx(ctx, tx, input)
	})
}

func (s *service) Debit(ctx context.Context, input Mutation) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.DebitInTx(ctx, tx, input)
	})
}

func (s *service) CreditInTx(ctx context.Context, tx *gorm.DB, input Mutation) error {
	if err := validateMutation(input); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	email := NormalizeEmail(input.Email)

	user, err := repo.FindUserByEmailForUpdate(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		user = &models.User{ID: uuid.New(), Email: email}
		if err := repo.CreateUser(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
	}

	user.RewardPoints += input.Points
	if err := repo.SaveUser(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update balance")
	}

	return appendEntry(ctx, repo, email, input.Points, input)
}

func (s *service) DebitInTx(ctx context.Context, tx *gorm.DB, input Mutation) error {
	if err := validateMutation(input); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	email := NormalizeEmail(input.Email)

	user, err := repo.FindUserByEmailForUpdate(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient points balance")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.RewardPoints < input.Points {
		return pkgerrors.New(pkgerrors.CodeValidation, "insufficient points balance")
	}

	user.RewardPoints -= input.Points
	if err := repo.SaveUser(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update balance")
	}

	return appendEntry(ctx, repo, email, -input.Points, input)
}

func (s *service) Balance(ctx context.Context, email string) (int, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	user, err := s.repo.FindUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user.RewardPoints, nil
}

func (s *service) History(ctx context.Context, email string, limit int) ([]models.PointHistory, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	rows, err := s.repo.ListHistory(ctx, normalized, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list point history")
	}
	return rows, nil
}

// RecomputeBalance replays the ledger and repairs the cached projection when
// it has drifted.
func (s *service) RecomputeBalance(ctx context.Context, email string) (int, bool, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return 0, false, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	var balance int
	var drifted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err := repo.FindUserByEmailForUpdate(ctx, normalized)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		sum, err := repo.SumDeltas(ctx, normalized)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ledger")
		}

		balance = sum
		if user.RewardPoints == sum {
			return nil
		}

		drifted = true
		user.RewardPoints = sum
		return repo.SaveUser(ctx, user)
	})
	if err != nil {
		return 0, false, err
	}
	return balance, drifted, nil
}

func validateMutation(input Mutation) error {
	if NormalizeEmail(input.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if input.Points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid point transaction type")
	}
	return nil
}

func appendEntry(ctx context.Context, repo Repository, email string, delta int, input Mutation) error {
	entry := &models.PointHistory{
		ID:        uuid.New(),
		UserEmail: email,
		Delta:     delta,
		Type:      input.Type,
		Reference: input.Reference,
		Note:      input.Note,
	}
	if err := repo.AppendHistory(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append point history")
	}
	return nil
}
