package discover

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/kinostat/kinofetch/pkg/engine"
)

// detailPathMarker identifies film detail links inside the catalog listing.
const detailPathMarker = "/films/detail/"

// ListingSource discovers film detail URLs by fetching a catalog listing
// page and collecting every detail link inside its article cards. Relative
// links are resolved against the listing URL.
type ListingSource struct {
	Client     engine.FetchClient
	ListingURL string
	Logger     zerolog.Logger
}

// Targets fetches the listing page and returns the detail URLs it links to,
// in page order with duplicates removed.
func (s ListingSource) Targets(ctx context.Context) ([]string, error) {
	if s.Client == nil {
		return nil, fmt.Errorf("listing source requires a fetch client")
	}

	base, err := url.Parse(s.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	resp, err := s.Client.Fetch(ctx, s.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("listing returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var targets []string
	doc.Find("article a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.Contains(href, detailPathMarker) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		targets = append(targets, base.ResolveReference(ref).String())
	})

	targets = dedupe(targets)
	s.Logger.Info().
		Str("listing", s.ListingURL).
		Int("discovered", len(targets)).
		Msg("Discovered film detail URLs")

	return targets, nil
}
