package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

func profileWith(brand string, products ...storefront.Product) *storefront.BrandProfile {
	p := storefront.NewBrandProfile("acme-goods.com")
	p.Brand = brand
	p.ProductCatalog = products
	return p
}

func TestBrandStoreUpsertsByWebsiteAndProductKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewBrandStore()

	first, err := store.SaveProfile(ctx, "https://acme-goods.com", profileWith("Acme",
		storefront.Product{ID: storefront.Ptr("1"), Title: "Tee", Price: storefront.Ptr("$20.00")},
		storefront.Product{Title: "Mystery Box"},
	))
	require.NoError(t, err)

	second, err := store.SaveProfile(ctx, "https://acme-goods.com", profileWith("Acme Goods",
		storefront.Product{ID: storefront.Ptr("1"), Title: "Tee", Price: storefront.Ptr("$18.00")},
		storefront.Product{URL: storefront.Ptr("https://acme-goods.com/products/cap"), Title: "Cap"},
	))
	require.NoError(t, err)
	require.Equal(t, first, second)

	detail, err := store.GetBrand(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "Acme Goods", detail.Name)
	require.Equal(t, 3, detail.ProductCount)
	require.Len(t, detail.Products, 3)
	require.Equal(t, "$18.00", *detail.Products[0].Price)

	other, err := store.SaveProfile(ctx, "https://other.example", profileWith("Other"))
	require.NoError(t, err)
	require.NotEqual(t, first, other)

	brands, err := store.ListBrands(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	require.Equal(t, other, brands[0].ID)
}

func TestBrandStoreDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewBrandStore()
	id, err := store.SaveProfile(ctx, "https://acme-goods.com", profileWith("Acme"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteBrand(ctx, id))
	require.ErrorIs(t, store.DeleteBrand(ctx, id), storefront.ErrBrandNotFound)
	_, err = store.GetBrand(ctx, id)
	require.ErrorIs(t, err, storefront.ErrBrandNotFound)

	again, err := store.SaveProfile(ctx, "https://acme-goods.com", profileWith("Acme"))
	require.NoError(t, err)
	require.NotEqual(t, id, again)
}
