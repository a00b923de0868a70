package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/consolewatch/backend/internal/activity"
)

// ErrNotFound reports a catalog response that yielded no usable name.
var ErrNotFound = errors.New("metadata: title not found in catalog")

// ps4Prefixes selects the previous-generation catalog domain. Anything
// else is assumed current-generation.
var ps4Prefixes = []string{"CUSA", "CUSJ", "CUSK", "CUSC", "CUSH", "CUSE", "PLAS", "PLJM", "PCJS"}

const (
	defaultPS4BaseURL = "https://orbispatches.com"
	defaultPS5BaseURL = "https://prosperopatches.com"

	defaultFetchTimeout = 10 * time.Second

	userAgent = "Mozilla/5.0"
)

var backgroundURLPattern = regexp.MustCompile(`url\((?:&quot;|")?(.*?)(?:&quot;|")?\)`)

// Resolver fetches display metadata for a title id from the patch
// catalog site matching the title's console family.
type Resolver struct {
	client     *http.Client
	ps4BaseURL string
	ps5BaseURL string
}

// ResolverConfig overrides the catalog endpoints and fetch timeout.
// Zero fields keep the production defaults.
type ResolverConfig struct {
	PS4BaseURL   string
	PS5BaseURL   string
	FetchTimeout time.Duration
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.PS4BaseURL == "" {
		cfg.PS4BaseURL = defaultPS4BaseURL
	}
	if cfg.PS5BaseURL == "" {
		cfg.PS5BaseURL = defaultPS5BaseURL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Resolver{
		client:     &http.Client{Timeout: cfg.FetchTimeout},
		ps4BaseURL: cfg.PS4BaseURL,
		ps5BaseURL: cfg.PS5BaseURL,
	}
}

// baseURL picks the catalog domain for id by prefix allowlist.
func (r *Resolver) baseURL(id string) string {
	for _, p := range ps4Prefixes {
		if strings.HasPrefix(id, p) {
			return r.ps4BaseURL
		}
	}
	return r.ps5BaseURL
}

// Fetch resolves id against the external catalog. A non-200 response,
// timeout, or page with no derivable name is a resolution failure; the
// caller decides whether to retry later.
func (r *Resolver) Fetch(ctx context.Context, id string) (activity.GameMetadata, error) {
	base := r.baseURL(id)
	url := base + "/" + id

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return activity.GameMetadata{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := r.client.Do(req)
	if err != nil {
		return activity.GameMetadata{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return activity.GameMetadata{}, fmt.Errorf("%w: %s returned %d", ErrNotFound, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return activity.GameMetadata{}, fmt.Errorf("parsing %s: %w", url, err)
	}

	name := extractName(doc)
	if name == "" {
		return activity.GameMetadata{}, fmt.Errorf("%w: no name derivable for %s", ErrNotFound, id)
	}

	icon, background := extractArt(doc, base)

	return activity.GameMetadata{
		TitleID:    id,
		Name:       name,
		Icon:       icon,
		Background: background,
	}, nil
}

// extractName tries the page's heading, then any image alt text, then
// the document title as last resort.
func extractName(doc *goquery.Document) string {
	if name := strings.TrimSpace(doc.Find("h1.bd-title").First().Text()); name != "" {
		return name
	}

	name := ""
	doc.Find("img[alt]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if alt := strings.TrimSpace(s.AttrOr("alt", "")); alt != "" {
			name = alt
			return false
		}
		return true
	})
	if name != "" {
		return name
	}

	title := doc.Find("title").First().Text()
	if strings.Contains(title, "Patches") {
		return strings.TrimSpace(strings.SplitN(title, " - ", 2)[0])
	}
	return ""
}

// extractArt pulls the icon URL out of the styled game-icon container's
// background-image declaration. Relative URLs are prefixed with the
// catalog domain. The icon doubles as the background reference.
func extractArt(doc *goquery.Document, base string) (icon, background string) {
	icon = DefaultIcon

	style, ok := doc.Find("div.game-icon.secondary").First().Attr("style")
	if !ok {
		return icon, ""
	}
	m := backgroundURLPattern.FindStringSubmatch(style)
	if m == nil {
		return icon, ""
	}

	u := m[1]
	if strings.HasPrefix(u, "/") {
		u = base + u
	}
	return u, u
}
