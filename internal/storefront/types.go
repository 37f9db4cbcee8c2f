// Package storefront defines the profile aggregate and the collaborator contracts shared across subsystems.
package storefront

import (
	"strings"
	"time"
)

// Platform identifies the commerce platform serving a storefront.
type Platform string

// Known platform identifiers. Detection is advisory only.
const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
	PlatformMagento     Platform = "magento"
	PlatformBigCommerce Platform = "bigcommerce"
	PlatformSquarespace Platform = "squarespace"
	PlatformWix         Platform = "wix"
	PlatformPrestaShop  Platform = "prestashop"
	PlatformOpenCart    Platform = "opencart"
	PlatformUnknown     Platform = "unknown"
)

// PolicyKind names one of the policy documents a store publishes.
type PolicyKind string

// Policy kinds probed for every profile.
const (
	PolicyPrivacy  PolicyKind = "privacy"
	PolicyReturn   PolicyKind = "return"
	PolicyRefund   PolicyKind = "refund"
	PolicyTerms    PolicyKind = "terms"
	PolicyShipping PolicyKind = "shipping"
)

// PolicyKinds lists every policy kind in a stable order.
var PolicyKinds = []PolicyKind{PolicyPrivacy, PolicyReturn, PolicyRefund, PolicyTerms, PolicyShipping}

// SocialNetwork names a supported social platform.
type SocialNetwork string

// Supported social networks.
const (
	SocialInstagram SocialNetwork = "instagram"
	SocialFacebook  SocialNetwork = "facebook"
	SocialTikTok    SocialNetwork = "tiktok"
	SocialTwitter   SocialNetwork = "twitter"
	SocialYouTube   SocialNetwork = "youtube"
	SocialLinkedIn  SocialNetwork = "linkedin"
	SocialPinterest SocialNetwork = "pinterest"
)

// SocialNetworks lists the fixed key set of Socials.
var SocialNetworks = []SocialNetwork{
	SocialInstagram, SocialFacebook, SocialTikTok, SocialTwitter,
	SocialYouTube, SocialLinkedIn, SocialPinterest,
}

// Product is a single catalog or hero entry. Optional fields stay nil when unknown.
type Product struct {
	ID        *string `json:"id"`
	Title     string  `json:"title"`
	Price     *string `json:"price"`
	URL       *string `json:"url"`
	Image     *string `json:"image"`
	Available *bool   `json:"available"`

	// Breadcrumbs is the navigation trail of the product page, when it was visited.
	Breadcrumbs []Breadcrumb `json:"breadcrumbs,omitempty"`
}

// Key returns the identifier used to upsert the product: ID, then URL, then title.
func (p Product) Key() string {
	if p.ID != nil && *p.ID != "" {
		return *p.ID
	}
	if p.URL != nil && *p.URL != "" {
		return *p.URL
	}
	return p.Title
}

// PolicyText is the main text of one policy page.
type PolicyText struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// FAQ is a question/answer pair and the page it came from.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	URL      string `json:"url"`
}

// DedupKey returns the normalized question prefix FAQs are deduplicated on.
func (f FAQ) DedupKey() string {
	key := strings.ToLower(strings.TrimSpace(f.Question))
	runes := []rune(key)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	return string(runes)
}

// Socials holds at most one profile URL per network.
type Socials struct {
	Instagram *string `json:"instagram"`
	Facebook  *string `json:"facebook"`
	TikTok    *string `json:"tiktok"`
	Twitter   *string `json:"twitter"`
	YouTube   *string `json:"youtube"`
	LinkedIn  *string `json:"linkedin"`
	Pinterest *string `json:"pinterest"`
}

func (s *Socials) slot(network SocialNetwork) **string {
	switch network {
	case SocialInstagram:
		return &s.Instagram
	case SocialFacebook:
		return &s.Facebook
	case SocialTikTok:
		return &s.TikTok
	case SocialTwitter:
		return &s.Twitter
	case SocialYouTube:
		return &s.YouTube
	case SocialLinkedIn:
		return &s.LinkedIn
	case SocialPinterest:
		return &s.Pinterest
	default:
		return nil
	}
}

// Get returns the URL recorded for network, or nil.
func (s *Socials) Get(network SocialNetwork) *string {
	slot := s.slot(network)
	if slot == nil {
		return nil
	}
	return *slot
}

// Set records url for network unless one is already present. It reports whether the value was stored.
func (s *Socials) Set(network SocialNetwork, url string) bool {
	slot := s.slot(network)
	if slot == nil || *slot != nil || url == "" {
		return false
	}
	*slot = &url
	return true
}

// Merge fills empty networks from other.
func (s *Socials) Merge(other Socials) {
	for _, network := range SocialNetworks {
		if v := other.Get(network); v != nil {
			s.Set(network, *v)
		}
	}
}

// Found counts the networks with a URL.
func (s *Socials) Found() int {
	n := 0
	for _, network := range SocialNetworks {
		if s.Get(network) != nil {
			n++
		}
	}
	return n
}

// Contacts are deduplicated email addresses and phone numbers, sorted.
type Contacts struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
}

// About is the store's self-description.
type About struct {
	Text *string `json:"text"`
	URL  *string `json:"url"`
}

// ImportantLinks are well-known navigation targets.
type ImportantLinks struct {
	OrderTracking *string `json:"order_tracking"`
	ContactUs     *string `json:"contact_us"`
	Blogs         *string `json:"blogs"`
	Sitemap       *string `json:"sitemap"`
}

// Review is a customer testimonial shown on the storefront.
type Review struct {
	Author *string  `json:"author"`
	Rating *float64 `json:"rating"`
	Text   string   `json:"text"`
}

// Breadcrumb is one step of a page's navigation trail.
type Breadcrumb struct {
	Name string  `json:"name"`
	URL  *string `json:"url"`
}

// BrandProfile is the aggregate produced for one storefront.
type BrandProfile struct {
	Brand          string                     `json:"brand"`
	Domain         string                     `json:"domain"`
	Platform       Platform                   `json:"platform"`
	ProductCatalog []Product                  `json:"product_catalog"`
	HeroProducts   []Product                  `json:"hero_products"`
	Policies       map[PolicyKind]*PolicyText `json:"policies"`
	FAQs           []FAQ                      `json:"faqs"`
	Socials        Socials                    `json:"socials"`
	Contacts       Contacts                   `json:"contacts"`
	About          About                      `json:"about"`
	ImportantLinks ImportantLinks             `json:"important_links"`
	Reviews        []Review                   `json:"reviews"`
	Timestamp      time.Time                  `json:"timestamp"`
}

// NewBrandProfile returns a profile with every collection initialized to its empty default.
// Policies holds only the kinds that were found.
func NewBrandProfile(domain string) *BrandProfile {
	return &BrandProfile{
		Domain:         domain,
		Platform:       PlatformUnknown,
		ProductCatalog: []Product{},
		HeroProducts:   []Product{},
		Policies:       make(map[PolicyKind]*PolicyText, len(PolicyKinds)),
		FAQs:           []FAQ{},
		Contacts:       Contacts{Emails: []string{}, Phones: []string{}},
		Reviews:        []Review{},
	}
}

// BrandRecord is a persisted brand without its products.
type BrandRecord struct {
	ID           int64     `json:"id"`
	Website      string    `json:"website"`
	Name         string    `json:"name"`
	About        *string   `json:"about"`
	ProductCount int       `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BrandDetail is a persisted brand with its stored products.
type BrandDetail struct {
	BrandRecord
	Products []Product `json:"products"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
