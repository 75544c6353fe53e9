package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ldProduct is the schema.org Product block Tokopedia embeds in its
// product pages as application/ld+json.
type ldProduct struct {
	Type   string          `json:"@type"`
	Name   string          `json:"name"`
	Offers json.RawMessage `json:"offers"`
}

type ldOffer struct {
	Price        json.RawMessage `json:"price"`
	Availability string          `json:"availability"`
}

// fetchFromPage scrapes the public product page for its embedded
// structured data. Coarser than the API: JSON-LD exposes availability
// rather than a stock count, so stock degrades to 1 (in stock) or 0.
func (c *tokopediaClient) fetchFromPage(ctx context.Context, shopDomain, productKey string) (ProductSnapshot, error) {
	pageURL := fmt.Sprintf("%s/%s/%s", c.pageBase, shopDomain, productKey)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ProductSnapshot{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgentValue)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	slog.Debug("Fetching product page", "url", pageURL)

	res, err := c.http.Do(req)
	if err != nil {
		return ProductSnapshot{}, fmt.Errorf("product page request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return ProductSnapshot{}, fmt.Errorf("product page status %d %s", res.StatusCode, res.Status)
	}

	// Product pages are heavy; 2MB is plenty for the head scripts.
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(res.Body, 2<<20))
	if err != nil {
		return ProductSnapshot{}, fmt.Errorf("failed to parse product page: %w", err)
	}

	var snap ProductSnapshot
	var parseErr error
	found := false

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var product ldProduct
		if err := json.Unmarshal([]byte(s.Text()), &product); err != nil {
			return true
		}
		if !strings.EqualFold(product.Type, "Product") || product.Name == "" {
			return true
		}

		offer, err := parseLDOffer(product.Offers)
		if err != nil {
			parseErr = err
			return true
		}
		price, err := parseLDPrice(offer.Price)
		if err != nil {
			parseErr = err
			return true
		}

		var stock int64
		if strings.Contains(offer.Availability, "InStock") {
			stock = 1
		}
		slog.Debug("Using coarse stock from JSON-LD availability", "availability", offer.Availability, "stock", stock)

		snap = ProductSnapshot{
			Name:      product.Name,
			Price:     price,
			Stock:     stock,
			FetchedAt: time.Now(),
		}
		found = true
		return false
	})

	if !found {
		if parseErr != nil {
			return ProductSnapshot{}, fmt.Errorf("product page JSON-LD unusable: %w", parseErr)
		}
		return ProductSnapshot{}, fmt.Errorf("no Product JSON-LD block on product page")
	}
	return snap, nil
}

// parseLDOffer accepts both the single-object and array encodings of
// schema.org offers.
func parseLDOffer(raw json.RawMessage) (ldOffer, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ldOffer{}, fmt.Errorf("Product block has no offers")
	}

	if strings.HasPrefix(trimmed, "[") {
		var offers []ldOffer
		if err := json.Unmarshal(raw, &offers); err != nil {
			return ldOffer{}, fmt.Errorf("unparseable offers array: %w", err)
		}
		if len(offers) == 0 {
			return ldOffer{}, fmt.Errorf("empty offers array")
		}
		return offers[0], nil
	}

	var offer ldOffer
	if err := json.Unmarshal(raw, &offer); err != nil {
		return ldOffer{}, fmt.Errorf("unparseable offer: %w", err)
	}
	return offer, nil
}

// parseLDPrice tolerates the price appearing as either a JSON number
// or a quoted string, both of which occur in the wild.
func parseLDPrice(raw json.RawMessage) (int64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, fmt.Errorf("offer has no price")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q: %w", s, err)
	}
	return int64(f), nil
}
