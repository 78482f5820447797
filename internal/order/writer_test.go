package order

import (
	"context"
	"errors"
	"testing"

	"smoothies/internal/model"
	"smoothies/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	got []model.Order
	err error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, o model.Order) error {
	p.got = append(p.got, o)
	return p.err
}

func TestSubmitInsertsOneRow(t *testing.T) {
	db := testutil.OpenDB(t)
	w := NewWriter(db, nil, nil)

	o := w.Build("Kevin", []string{"Apple", "Mango"})
	saved, err := w.Submit(context.Background(), o)
	require.NoError(t, err)
	require.NotEmpty(t, saved.OrderUID)
	require.Equal(t, int64(1), testutil.CountOrders(t, db))

	var got model.Order
	require.NoError(t, db.Where("order_uid = ?", saved.OrderUID).First(&got).Error)
	require.Equal(t, "Kevin", got.NameOnOrder)
	require.Equal(t, "Apple, Mango", got.Ingredients)
	require.False(t, got.OrderFilled)
	require.False(t, got.OrderTS.IsZero())
}

func TestSubmitAppliesFulfilledPolicy(t *testing.T) {
	db := testutil.OpenDB(t)
	w := NewWriter(db, PrefilledNames("Divya"), nil)

	saved, err := w.Submit(context.Background(), w.Build("divya", []string{"Kiwi"}))
	require.NoError(t, err)

	var got model.Order
	require.NoError(t, db.Where("order_uid = ?", saved.OrderUID).First(&got).Error)
	require.True(t, got.OrderFilled)
}

func TestInsertStatementBindsUserText(t *testing.T) {
	db := testutil.OpenDB(t)
	hostile := "O'Brien'); DROP TABLE orders; --"

	o := NewWriter(db, nil, nil).Build(hostile, []string{"Apple's", "Mango"})
	stmt := db.Session(&gorm.Session{DryRun: true}).Select(InsertColumns).Create(&o).Statement

	sql := stmt.SQL.String()
	require.NotContains(t, sql, "O'Brien")
	require.NotContains(t, sql, "Apple's")
	require.Contains(t, stmt.Vars, hostile)
	require.Contains(t, stmt.Vars, "Apple's, Mango")
}

func TestSubmitQuotedNameRoundTrips(t *testing.T) {
	db := testutil.OpenDB(t)
	w := NewWriter(db, nil, nil)
	hostile := "O'Brien'); DROP TABLE orders; --"

	saved, err := w.Submit(context.Background(), w.Build(hostile, []string{"Apple"}))
	require.NoError(t, err)

	var got model.Order
	require.NoError(t, db.Where("order_uid = ?", saved.OrderUID).First(&got).Error)
	require.Equal(t, hostile, got.NameOnOrder)
	require.Equal(t, int64(1), testutil.CountOrders(t, db))
}

func TestSubmitFailureIsWriteError(t *testing.T) {
	db := testutil.OpenDB(t)
	w := NewWriter(db, nil, nil)
	ctx := context.Background()

	o := w.Build("Kevin", []string{"Apple"})
	_, err := w.Submit(ctx, o)
	require.NoError(t, err)

	// 同一 order_uid 触发唯一约束
	_, err = w.Submit(ctx, o)
	require.Error(t, err)
	require.True(t, IsWrite(err))
	require.NotNil(t, errors.Unwrap(err))
	require.Equal(t, int64(1), testutil.CountOrders(t, db))
}

func TestSubmitPublishesAndIgnoresPublishFailure(t *testing.T) {
	db := testutil.OpenDB(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	w := NewWriter(db, nil, pub)

	saved, err := w.Submit(context.Background(), w.Build("Kevin", []string{"Apple"}))
	require.NoError(t, err)
	require.Len(t, pub.got, 1)
	require.Equal(t, saved.OrderUID, pub.got[0].OrderUID)
	require.Equal(t, int64(1), testutil.CountOrders(t, db))
}

func TestPendingAndMarkFilled(t *testing.T) {
	db := testutil.OpenDB(t)
	w := NewWriter(db, nil, nil)
	ctx := context.Background()

	a, err := w.Submit(ctx, w.Build("Kevin", []string{"Apple"}))
	require.NoError(t, err)
	b, err := w.Submit(ctx, w.Build("Divya", []string{"Mango"}))
	require.NoError(t, err)

	pending, err := w.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	filled, err := w.MarkFilled(ctx, a.OrderUID)
	require.NoError(t, err)
	require.True(t, filled.OrderFilled)

	again, err := w.MarkFilled(ctx, a.OrderUID)
	require.NoError(t, err)
	require.True(t, again.OrderFilled)

	pending, err = w.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, b.OrderUID, pending[0].OrderUID)

	_, err = w.MarkFilled(ctx, "missing")
	require.ErrorIs(t, err, ErrOrderNotFound)
}
