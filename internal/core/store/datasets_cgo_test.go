//go:build cgo

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dataforge/dataforge/internal/config"
	"github.com/dataforge/dataforge/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleDataset(id string, createdAt time.Time) *core.Dataset {
	return &core.Dataset{
		ID:          id,
		Topic:       "E-commerce Products",
		Description: "online shop catalog",
		Columns: []core.ColumnDef{
			{Name: "product_name", Datatype: core.ColumnString},
			{Name: "price", Datatype: core.ColumnCurrency},
		},
		RowCount: 2,
		Rows: []map[string]any{
			{"product_name": "Widget", "price": 9.99},
			{"product_name": "Gadget", "price": 24.5},
		},
		Sources: []core.SourceSummary{
			{SourceType: core.SourceKaggle, Name: "Retail Sales", RelevanceScore: 80.5, RetrievedAt: createdAt},
		},
		CreatedAt: createdAt,
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	createdAt := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.InsertDataset(ctx, sampleDataset("ds-1", createdAt)))

	got, err := s.GetDataset(ctx, "ds-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "E-commerce Products", got.Topic)
	require.Equal(t, 2, got.RowCount)
	require.Len(t, got.Rows, 2)
	require.Equal(t, "Widget", got.Rows[0]["product_name"])
	require.Len(t, got.Sources, 1)
	require.Equal(t, core.SourceKaggle, got.Sources[0].SourceType)
	require.Equal(t, createdAt, got.CreatedAt)
}

func TestGetDatasetMissing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetDataset(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestListDatasetsPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for i := 0; i < 5; i++ {
		ds := sampleDataset(fmt.Sprintf("ds-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.InsertDataset(ctx, ds))
	}

	page, err := s.ListDatasets(ctx, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, "ds-4", page.Items[0].ID, "newest first")
	require.Equal(t, "ds-3", page.Items[1].ID)
	require.Empty(t, page.Items[0].Rows, "listings omit rows")

	page, err = s.ListDatasets(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "ds-0", page.Items[0].ID)
}

func TestDeleteDataset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertDataset(ctx, sampleDataset("ds-1", time.Now().UTC())))

	deleted, err := s.DeleteDataset(ctx, "ds-1")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = s.DeleteDataset(ctx, "ds-1")
	require.NoError(t, err)
	require.False(t, deleted, "second delete reports absence")

	count, err := s.CountDatasets(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestInsertDatasetRequiresID(t *testing.T) {
	s := openTestStore(t)
	err := s.InsertDataset(context.Background(), &core.Dataset{})
	require.Error(t, err)
}
