package rewards

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yasboss/storefront-backend/pkg/db/models"
	"github.com/yasboss/storefront-backend/pkg/enums"
	pkgerrors "github.com/yasboss/storefront-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupRewardsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  phone TEXT,
  reward_points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	histories := `
CREATE TABLE IF NOT EXISTS point_histories (
  id TEXT PRIMARY KEY,
  user_email TEXT NOT NULL,
  delta INTEGER NOT NULL,
  type TEXT NOT NULL,
  reference TEXT,
  note TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(histories).Error)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), &testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func strPtr(s string) *string { return &s }

func TestCreditCreatesUserAndLedgerRow(t *testing.T) {
	db := setupRewardsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	err := svc.Credit(ctx, Mutation{
		Email:     "Asha@Example.com",
		Points:    12,
		Type:      enums.PointTxOrderEarn,
		Reference: strPtr("YB-1A2B3C4D"),
	})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, "asha@example.com")
	require.NoError(t, err)
	require.Equal(t, 12, balance)

	history, err := svc.History(ctx, "asha@example.com", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, 12, history[0].Delta)
	require.Equal(t, enums.PointTxOrderEarn, history[0].Type)
	require.Equal(t, "asha@example.com", history[0].UserEmail)
}

func TestDebitReducesBalance(t *testing.T) {
	db := setupRewardsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, Mutation{Email: "a@b.c", Points: 100, Type: enums.PointTxOrderEarn}))
	require.NoError(t, svc.Debit(ctx, Mutation{Email: "a@b.c", Points: 40, Type: enums.PointTxOrderRedeem}))

	balance, err := svc.Balance(ctx, "a@b.c")
	require.NoError(t, err)
	require.Equal(t, 60, balance)

	history, err := svc.History(ctx, "a@b.c", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestDebitRejectsOverdraft(t *testing.T) {
	db := setupRewardsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, Mutation{Email: "a@b.c", Points: 10, Type: enums.PointTxOrderEarn}))

	err := svc.Debit(ctx, Mutation{Email: "a@b.c", Points: 11, Type: enums.PointTxOrderRedeem})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	// balance and ledger untouched
	balance, err := svc.Balance(ctx, "a@b.c")
	require.NoError(t, err)
	require.Equal(t, 10, balance)

	history, err := svc.History(ctx, "a@b.c", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestDebitUnknownUser(t *testing.T) {
	db := setupRewardsTestDB(t)
	svc := newTestService(t, db)

	err := svc.Debit(context.Background(), Mutation{Email: "ghost@b.c", Points: 1, Type: enums.PointTxOrderRedeem})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestBalanceUnknownUserIsZero(t *testing.T) {
	db := setupRewardsTestDB(t)
	svc := newTestService(t, db)

	balance, err := svc.Balance(context.Background(), "nobody@b.c")
	require.NoError(t, err)
	require.Equal(t, 0, balance)
}

func TestMutationValidation(t *testing.T) {
	db := setupRewardsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	err := svc.Credit(ctx, Mutation{Email: "", Points: 5, Type: enums.PointTxOrderEarn})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	err = svc.Credit(ctx, Mutation{Email: "a@b.c", Points: 0, Type: enums.PointTxOrderEarn})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	err = svc.Credit(ctx, Mutation{Email: "a@b.c", Points: 5, Type: "BOGUS"})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestRecomputeBalanceRepairsDrift(t *testing.T) {
	db := setupRewardsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, Mutation{Email: "a@b.c", Points: 30, Type: enums.PointTxOrderEarn}))
	require.NoError(t, svc.Credit(ctx, Mutation{Email: "a@b.c", Points: 20, Type: enums.PointTxQuizReward}))

	balance, drifted, err := svc.RecomputeBalance(ctx, "a@b.c")
	require.NoError(t, err)
	require.False(t, drifted)
	require.Equal(t, 50, balance)

	// corrupt the projection out of band
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "a@b.c").Update("reward_points", 999).Error)

	balance, drifted, err = svc.RecomputeBalance(ctx, "a@b.c")
	require.NoError(t, err)
	require.True(t, drifted)
	require.Equal(t, 50, balance)

	fixed, err := svc.Balance(ctx, "a@b.c")
	require.NoError(t, err)
	require.Equal(t, 50, fixed)
}

func TestRecomputeBalanceUnknownUser(t *testing.T) {
	db := setupRewardsTestDB(t)
	svc := newTestService(t, db)

	_, _, err := svc.RecomputeBalance(context.Background(), "ghost@b.c")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
