package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicyTextThresholdAndBound(t *testing.T) {
	t.Parallel()

	short := mustPage(t, "https://shop.example/policies/refund-policy", "<main>Too short.</main>")
	_, ok := PolicyText(short)
	require.False(t, ok)

	long := strings.Repeat("Refunds are issued within 30 days. ", 100)
	p := mustPage(t, "https://shop.example/policies/refund-policy",
		"<header>Shop</header><main>"+long+"</main><footer>Footer</footer>")
	text, ok := PolicyText(p)
	require.True(t, ok)
	require.LessOrEqual(t, len([]rune(text)), PolicyMaxChars)
	require.True(t, strings.HasPrefix(text, "Refunds are issued"))
}

func TestAboutTextAndSection(t *testing.T) {
	t.Parallel()

	about := strings.Repeat("We make honest goods. ", 200)
	p := mustPage(t, "https://shop.example/pages/about", "<main>"+about+"</main>")
	text, ok := AboutText(p)
	require.True(t, ok)
	require.LessOrEqual(t, len([]rune(text)), AboutMaxChars)

	home := mustPage(t, "https://shop.example", `<div class="hero">Hi</div>
		<section class="About-Brand">`+about+`</section>`)
	text, ok = AboutSection(home)
	require.True(t, ok)
	require.LessOrEqual(t, len([]rune(text)), AboutHomeMaxChars)

	bare := mustPage(t, "https://shop.example", `<div class="about">Short blurb.</div>`)
	_, ok = AboutSection(bare)
	require.False(t, ok)
}
