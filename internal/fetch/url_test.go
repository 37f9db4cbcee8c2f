package fetch

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  https://shop.example/ ", "https://shop.example"},
		{"http://shop.example/collections/", "http://shop.example/collections"},
		{"HTTPS://Shop.example", "https://Shop.example"},
		{"//cdn.example/x", "https://cdn.example/x"},
	}
	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got)
	}

	_, err := NormalizeURL("   ")
	require.ErrorIs(t, err, ErrInvalidURL)
	_, err = NormalizeURL("https://")
	require.ErrorIs(t, err, ErrInvalidURL)
}

func TestResolveRejectsNonHTTP(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://shop.example/pages/about")
	require.NoError(t, err)

	got, ok := Resolve(base, "/products/tee")
	require.True(t, ok)
	require.Equal(t, "https://shop.example/products/tee", got)

	for _, ref := range []string{"mailto:hi@shop.example", "javascript:void(0)", "#top", "", "tel:+15551234567"} {
		_, ok := Resolve(base, ref)
		require.False(t, ok, ref)
	}
}

func TestDomainHelpers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "www.shop.example", Domain("https://WWW.Shop.example/a"))
	require.Equal(t, "shop.example", StripWWW("www.shop.example"))
	require.Equal(t, "https://shop.example/pages/faq", JoinPath("https://shop.example/", "/pages/faq"))

	origin, err := Origin("https://shop.example/a/b?c=d")
	require.NoError(t, err)
	require.Equal(t, "https://shop.example", origin)

	a, _ := url.Parse("https://www.shop.example/x")
	b, _ := url.Parse("https://shop.example/y")
	c, _ := url.Parse("https://other.example/y")
	require.True(t, SameSite(a, b))
	require.False(t, SameSite(a, c))
}
