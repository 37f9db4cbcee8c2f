package profiler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/storefront-insights/internal/extract"
	"github.com/JakeFAU/storefront-insights/internal/fetch"
	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

func (p *Profiler) catalogTask(ctx context.Context, r *run) error {
	products, err := p.catalog.Products(ctx, r.origin)
	if err != nil {
		return err
	}
	r.profile.ProductCatalog = products
	return nil
}

func (p *Profiler) heroTask(ctx context.Context, r *run) error {
	heroes := extract.HeroProducts(r.home)
	limit := min(p.cfg.HeroEnrichLimit, len(heroes))
	if limit > 0 {
		var g errgroup.Group
		for i := range limit {
			g.Go(p.guard("hero enrichment", func() {
				heroes[i] = p.enrich(ctx, heroes[i])
			}))
		}
		_ = g.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.profile.HeroProducts = orEmpty(heroes)
	return nil
}

// enrich fills missing product fields from the product page. Failures keep the product as found.
func (p *Profiler) enrich(ctx context.Context, prod storefront.Product) storefront.Product {
	if prod.URL == nil {
		return prod
	}
	page, err := p.page(ctx, *prod.URL)
	if err != nil {
		p.logger.Debug("hero enrichment skipped", zap.String("url", *prod.URL), zap.Error(err))
		return prod
	}
	return extract.Enrich(prod, extract.ProductDetails(page))
}

func (p *Profiler) policiesTask(ctx context.Context, r *run) error {
	found := make([]*storefront.PolicyText, len(storefront.PolicyKinds))
	var g errgroup.Group
	for i, kind := range storefront.PolicyKinds {
		g.Go(p.guard("policy "+string(kind), func() {
			found[i] = p.policy(ctx, r.origin, policyPaths[kind])
		}))
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, kind := range storefront.PolicyKinds {
		if found[i] != nil {
			r.profile.Policies[kind] = found[i]
		}
	}
	return nil
}

// policy returns the first candidate path whose main text is long enough to be a policy.
func (p *Profiler) policy(ctx context.Context, origin string, paths []string) *storefront.PolicyText {
	for _, path := range paths {
		candidate := fetch.JoinPath(origin, path)
		page, err := p.page(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		if text, ok := extract.PolicyText(page); ok {
			return &storefront.PolicyText{URL: candidate, Text: text}
		}
	}
	return nil
}

func (p *Profiler) faqTask(ctx context.Context, r *run) error {
	home := extract.FAQs(r.home)
	var secondary []storefront.FAQ
	for _, path := range faqPaths {
		page, err := p.page(ctx, fetch.JoinPath(r.origin, path))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if secondary = extract.FAQs(page); len(secondary) > 0 {
			break
		}
	}
	r.profile.FAQs = orEmpty(extract.MergeFAQs(extract.FAQMergedMax, home, secondary))
	return nil
}

func (p *Profiler) socialsTask(ctx context.Context, r *run) error {
	socials := extract.Socials(r.home)
	contacts := extract.Contacts(r.home)
	if link := extract.ContactLink(r.home); link != nil && r.onSite(*link) {
		page, err := p.page(ctx, *link)
		switch {
		case err == nil:
			socials.Merge(extract.Socials(page))
			contacts = extract.MergeContacts(contacts, extract.Contacts(page))
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			p.logger.Debug("contact page unavailable", zap.String("url", *link), zap.Error(err))
		}
	}
	r.profile.Socials = socials
	r.profile.Contacts = contacts
	return nil
}

func (p *Profiler) aboutTask(ctx context.Context, r *run) error {
	for _, candidate := range aboutCandidates(r) {
		page, err := p.page(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if text, ok := extract.AboutText(page); ok {
			r.profile.About = storefront.About{Text: &text, URL: storefront.Ptr(candidate)}
			return nil
		}
	}
	if text, ok := extract.AboutSection(r.home); ok {
		r.profile.About = storefront.About{Text: &text}
	}
	return nil
}

// aboutCandidates puts the guessed link ahead of the conventional paths, without repeats.
func aboutCandidates(r *run) []string {
	candidates := make([]string, 0, len(aboutPaths)+1)
	seen := make(map[string]struct{}, len(aboutPaths)+1)
	add := func(u string) {
		key := strings.TrimRight(u, "/")
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, u)
	}
	if link := extract.AboutLink(r.home); link != nil && r.onSite(*link) {
		add(*link)
	}
	for _, path := range aboutPaths {
		add(fetch.JoinPath(r.origin, path))
	}
	return candidates
}

func (p *Profiler) linksTask(ctx context.Context, r *run) error {
	links := storefront.ImportantLinks{
		OrderTracking: extract.TrackingLink(r.home),
		ContactUs:     extract.ContactLink(r.home),
		Blogs:         extract.BlogLink(r.home),
	}
	sitemap := fetch.JoinPath(r.origin, sitemapPath)
	resp, err := p.fetcher.Fetch(ctx, sitemap)
	switch {
	case err != nil && ctx.Err() != nil:
		return fmt.Errorf("sitemap check: %w", ctx.Err())
	case err == nil && resp.OK() && extract.IsSitemap(resp.Body):
		links.Sitemap = &sitemap
	}
	r.profile.ImportantLinks = links
	return nil
}

func (p *Profiler) reviewsTask(_ context.Context, r *run) error {
	r.profile.Reviews = orEmpty(extract.Reviews(r.home))
	return nil
}

// onSite reports whether link stays on the storefront's own host. Off-site pages such as
// hosted help desks are never followed.
func (r *run) onSite(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return fetch.SameSite(r.home.URL, u)
}

// orEmpty keeps collections serialized as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
