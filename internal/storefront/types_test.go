package storefront

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSocialsSetKeepsFirst(t *testing.T) {
	t.Parallel()

	var s Socials
	require.True(t, s.Set(SocialInstagram, "https://instagram.com/a"))
	require.False(t, s.Set(SocialInstagram, "https://instagram.com/b"))
	require.Equal(t, "https://instagram.com/a", *s.Get(SocialInstagram))
	require.False(t, s.Set(SocialNetwork("myspace"), "https://myspace.com/x"))
	require.Equal(t, 1, s.Found())

	var other Socials
	other.Set(SocialInstagram, "https://instagram.com/c")
	other.Set(SocialYouTube, "https://youtube.com/@c")
	s.Merge(other)
	require.Equal(t, "https://instagram.com/a", *s.Get(SocialInstagram))
	require.Equal(t, "https://youtube.com/@c", *s.Get(SocialYouTube))
}

func TestProductKeyFallsBack(t *testing.T) {
	t.Parallel()

	require.Equal(t, "42", Product{ID: Ptr("42"), URL: Ptr("u"), Title: "t"}.Key())
	require.Equal(t, "u", Product{URL: Ptr("u"), Title: "t"}.Key())
	require.Equal(t, "t", Product{Title: "t"}.Key())
}

func TestFAQDedupKey(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("A", 80)
	require.Len(t, FAQ{Question: "  " + long}.DedupKey(), 50)
	require.Equal(t, "how do i return?", FAQ{Question: " How do I return? "}.DedupKey())
}

func TestNewBrandProfileDefaults(t *testing.T) {
	t.Parallel()

	p := NewBrandProfile("shop.example")
	require.Equal(t, PlatformUnknown, p.Platform)
	require.NotNil(t, p.Policies)
	require.Empty(t, p.Policies)
	require.NotNil(t, p.ProductCatalog)
	require.NotNil(t, p.Contacts.Emails)
}

func TestBrandProfileJSONOmitsMissingPolicies(t *testing.T) {
	t.Parallel()

	p := NewBrandProfile("shop.example")
	p.Policies[PolicyRefund] = &PolicyText{URL: "https://shop.example/refund-policy", Text: "Refunds within 30 days."}
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded struct {
		Policies map[string]json.RawMessage `json:"policies"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Policies, 1)
	require.Contains(t, decoded.Policies, string(PolicyRefund))
	require.NotContains(t, decoded.Policies, string(PolicyPrivacy))
}
