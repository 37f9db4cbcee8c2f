package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *BrandStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store, err := NewBrandStoreWithPool(mock)
	require.NoError(t, err)
	return mock, store
}

func sampleProfile() *storefront.BrandProfile {
	p := storefront.NewBrandProfile("acme-goods.com")
	p.Brand = "Acme Goods"
	p.Platform = storefront.PlatformShopify
	p.About.Text = storefront.Ptr("We make heavy tees.")
	p.ProductCatalog = []storefront.Product{
		{ID: storefront.Ptr("1"), Title: "Heavy Tee", Price: storefront.Ptr("$24.00"), URL: storefront.Ptr("https://acme-goods.com/products/heavy-tee"), Available: storefront.Ptr(true)},
		{Title: "Mystery Box"},
	}
	return p
}

func TestSaveProfileUpsertsInTransaction(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	profile := sampleProfile()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO brands").
		WithArgs("https://acme-goods.com", "Acme Goods", "acme-goods.com", "shopify", profile.About.Text, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	for _, prod := range profile.ProductCatalog {
		mock.ExpectExec("INSERT INTO products").
			WithArgs(int64(7), prod.Key(), prod.ID, prod.Title, prod.Price, prod.URL, prod.Image, prod.Available).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	id, err := store.SaveProfile(context.Background(), "https://acme-goods.com", profile)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProfileRollsBackOnProductFailure(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	profile := sampleProfile()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO brands").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO products").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.SaveProfile(context.Background(), "https://acme-goods.com", profile)
	require.ErrorContains(t, err, "upsert product")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBrands(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()
	mock.ExpectQuery("FROM brands b").
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "website", "name", "about", "count", "created_at", "updated_at"}).
			AddRow(int64(1), "https://acme-goods.com", "Acme Goods", storefront.Ptr("Tees."), int64(2), now, now).
			AddRow(int64(2), "https://other.example", "Other", (*string)(nil), int64(0), now, now))

	brands, err := store.ListBrands(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, brands, 2)
	require.Equal(t, "Acme Goods", brands[0].Name)
	require.Equal(t, 2, brands[0].ProductCount)
	require.Equal(t, "Tees.", *brands[0].About)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBrandWithProducts(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "website", "name", "about", "count", "created_at", "updated_at"}).
			AddRow(int64(1), "https://acme-goods.com", "Acme Goods", storefront.Ptr("Tees."), int64(1), now, now))
	mock.ExpectQuery("FROM products").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"external_id", "title", "price", "url", "image", "available"}).
			AddRow(storefront.Ptr("1"), "Heavy Tee", storefront.Ptr("$24.00"), storefront.Ptr("https://acme-goods.com/products/heavy-tee"), (*string)(nil), storefront.Ptr(true)))

	detail, err := store.GetBrand(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Acme Goods", detail.Name)
	require.Len(t, detail.Products, 1)
	require.Equal(t, "Heavy Tee", detail.Products[0].Title)
	require.True(t, *detail.Products[0].Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBrandNotFound(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.id = $1")).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetBrand(context.Background(), 9)
	require.ErrorIs(t, err, storefront.ErrBrandNotFound)
}

func TestDeleteBrand(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM brands WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM brands WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.DeleteBrand(context.Background(), 3))
	require.ErrorIs(t, store.DeleteBrand(context.Background(), 4), storefront.ErrBrandNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS brands").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS products").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewBrandStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := NewBrandStore(context.Background(), Config{})
	require.Error(t, err)
	_, err = NewBrandStoreWithPool(nil)
	require.Error(t, err)
}
