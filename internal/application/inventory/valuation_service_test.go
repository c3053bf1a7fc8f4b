package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lotledger/backend/internal/domain/inventory"
)

func newValuationFixture(t *testing.T) (*serviceFixture, *ValuationService) {
	t.Helper()
	f := newServiceFixture(t)
	svc := NewValuationService(f.batches, f.products, zap.NewNop())
	return f, svc
}

func TestValuationServiceStockValuation(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("values remaining quantity at lot prices", func(t *testing.T) {
		f, svc := newValuationFixture(t)
		p := f.addProduct(t, "4001")
		f.receive(t, p.ID, 100, 20, 25, day)
		f.receive(t, p.ID, 50, 22, 26, day.AddDate(0, 0, 5))

		report, err := svc.StockValuation(ctx)
		require.NoError(t, err)
		require.Len(t, report.Products, 1)

		pv := report.Products[0]
		assert.Equal(t, p.ID, pv.ProductID)
		assert.Equal(t, 2, pv.BatchCount)
		assert.True(t, pv.Quantity.Equal(decimal.NewFromInt(150)))
		// 100*20 + 50*22
		assert.True(t, pv.CostValue.Equal(decimal.NewFromInt(3100)))
		// 100*25 + 50*26
		assert.True(t, pv.RetailValue.Equal(decimal.NewFromInt(3800)))
		assert.True(t, report.TotalCostValue.Equal(pv.CostValue))
	})

	t.Run("excludes written off lots", func(t *testing.T) {
		f, svc := newValuationFixture(t)
		p := f.addProduct(t, "4001")
		good := f.receive(t, p.ID, 100, 20, 25, day)
		damaged := f.receive(t, p.ID, 60, 20, 25, day)

		_, err := f.batchSvc.WriteOffBatch(ctx, damaged.ID, inventory.BatchStatusDamaged,
			WriteOffRequest{Reason: "dropped pallet"})
		require.NoError(t, err)

		report, err := svc.StockValuation(ctx)
		require.NoError(t, err)
		require.Len(t, report.Products, 1)
		assert.Equal(t, 1, report.Products[0].BatchCount)
		assert.True(t, report.Products[0].Quantity.Equal(decimal.NewFromInt(100)))
		_ = good
	})

	t.Run("counts reserved and unswept expired stock", func(t *testing.T) {
		f, svc := newValuationFixture(t)
		p := f.addProduct(t, "4001")

		reserved := f.receive(t, p.ID, 100, 20, 25, day)
		_, err := f.batchSvc.ReserveBatch(ctx, reserved.ID, ReserveRequest{Quantity: decimal.NewFromInt(100)})
		require.NoError(t, err)

		// expiry passed but the sweep has not run; the goods are still on hand
		stale := f.receive(t, p.ID, 50, 22, 26, day)
		stored, err := f.batches.FindByID(ctx, stale.ID)
		require.NoError(t, err)
		past := time.Now().AddDate(0, 0, -1)
		stored.ExpiryDate = &past
		require.NoError(t, f.batches.SaveWithLock(ctx, stored))

		report, err := svc.StockValuation(ctx)
		require.NoError(t, err)
		require.Len(t, report.Products, 1)
		pv := report.Products[0]
		assert.Equal(t, 2, pv.BatchCount)
		assert.True(t, pv.Quantity.Equal(decimal.NewFromInt(150)))
		// 100*20 + 50*22
		assert.True(t, pv.CostValue.Equal(decimal.NewFromInt(3100)))
	})

	t.Run("empty stock yields empty report", func(t *testing.T) {
		_, svc := newValuationFixture(t)
		report, err := svc.StockValuation(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Products)
		assert.True(t, report.TotalCostValue.IsZero())
	})
}

func TestValuationServiceExpiryReport(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("lists lots expiring inside the window", func(t *testing.T) {
		f, svc := newValuationFixture(t)
		p := f.addProduct(t, "4001")

		soonResp := f.receive(t, p.ID, 50, 20, 25, now.AddDate(0, -1, 0))
		soon, err := f.batches.FindByID(ctx, soonResp.ID)
		require.NoError(t, err)
		expiry := now.AddDate(0, 0, 10)
		soon.ExpiryDate = &expiry
		require.NoError(t, f.batches.SaveWithLock(ctx, soon))

		f.receive(t, p.ID, 80, 20, 25, now.AddDate(0, -1, 0))

		report, err := svc.ExpiryReport(ctx, 30)
		require.NoError(t, err)
		require.Len(t, report.Batches, 1)
		assert.Equal(t, soonResp.ID, report.Batches[0].Batch.ID)
		assert.Equal(t, 9, report.Batches[0].DaysUntilExpiry)
		// 50 units at cost 20
		assert.True(t, report.TotalValueAtRisk.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("rejects negative window", func(t *testing.T) {
		_, svc := newValuationFixture(t)
		_, err := svc.ExpiryReport(ctx, -1)
		assert.Error(t, err)
	})
}
