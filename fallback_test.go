package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newPageTestClient(pageURL string) *tokopediaClient {
	return &tokopediaClient{
		http:     &http.Client{Timeout: 5 * time.Second},
		endpoint: "http://invalid.invalid",
		pageBase: pageURL,
		timeout:  5 * time.Second,
	}
}

func TestFetchFromPage(t *testing.T) {
	testCases := []struct {
		name      string
		html      string
		wantName  string
		wantPrice int64
		wantStock int64
		shouldErr bool
	}{
		{
			name: "object offer in stock",
			html: `<html><head>
				<script type="application/ld+json">{"@type": "BreadcrumbList"}</script>
				<script type="application/ld+json">{"@type": "Product", "name": "Example Item", "offers": {"price": 150000, "availability": "https://schema.org/InStock"}}</script>
			</head></html>`,
			wantName:  "Example Item",
			wantPrice: 150000,
			wantStock: 1,
		},
		{
			name: "array offer out of stock",
			html: `<html><head>
				<script type="application/ld+json">{"@type": "Product", "name": "Example Item", "offers": [{"price": "99500.00", "availability": "https://schema.org/OutOfStock"}]}</script>
			</head></html>`,
			wantName:  "Example Item",
			wantPrice: 99500,
			wantStock: 0,
		},
		{
			name:      "no product block",
			html:      `<html><head><script type="application/ld+json">{"@type": "Organization"}</script></head></html>`,
			shouldErr: true,
		},
		{
			name:      "product without offers",
			html:      `<html><head><script type="application/ld+json">{"@type": "Product", "name": "Example Item"}</script></head></html>`,
			shouldErr: true,
		},
		{
			name:      "no structured data at all",
			html:      `<html><body><h1>Example Item</h1></body></html>`,
			shouldErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, tc.html)
			}))
			defer server.Close()

			client := newPageTestClient(server.URL)
			snap, err := client.fetchFromPage(context.Background(), "exampleshop", "example-item-21e0")
			if tc.shouldErr {
				if err == nil {
					t.Fatal("Expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if snap.Name != tc.wantName {
				t.Errorf("Expected name %q, got %q", tc.wantName, snap.Name)
			}
			if snap.Price != tc.wantPrice {
				t.Errorf("Expected price %d, got %d", tc.wantPrice, snap.Price)
			}
			if snap.Stock != tc.wantStock {
				t.Errorf("Expected stock %d, got %d", tc.wantStock, snap.Stock)
			}
		})
	}
}

func TestFetchFromPage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	client := newPageTestClient(server.URL)
	_, err := client.fetchFromPage(context.Background(), "exampleshop", "example-item-21e0")
	if err == nil {
		t.Fatal("Expected error for HTTP 410, got none")
	}
}

func TestParseLDPrice(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		want      int64
		shouldErr bool
	}{
		{"number", `150000`, 150000, false},
		{"quoted string", `"150000"`, 150000, false},
		{"decimal string", `"99500.00"`, 99500, false},
		{"null", `null`, 0, true},
		{"empty string", `""`, 0, true},
		{"garbage", `"Rp150.000"`, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseLDPrice(json.RawMessage(tc.raw))
			if tc.shouldErr {
				if err == nil {
					t.Errorf("Expected error for %s, got %d", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestParseLDOffer(t *testing.T) {
	obj, err := parseLDOffer(json.RawMessage(`{"price": 100, "availability": "https://schema.org/InStock"}`))
	if err != nil {
		t.Fatalf("Unexpected error for object offer: %v", err)
	}
	if obj.Availability != "https://schema.org/InStock" {
		t.Errorf("Unexpected availability %q", obj.Availability)
	}

	arr, err := parseLDOffer(json.RawMessage(`[{"price": 200, "availability": "https://schema.org/OutOfStock"}]`))
	if err != nil {
		t.Fatalf("Unexpected error for array offer: %v", err)
	}
	if arr.Availability != "https://schema.org/OutOfStock" {
		t.Errorf("Unexpected availability %q", arr.Availability)
	}

	if _, err := parseLDOffer(json.RawMessage(`[]`)); err == nil {
		t.Error("Expected error for empty offers array")
	}
	if _, err := parseLDOffer(json.RawMessage(`null`)); err == nil {
		t.Error("Expected error for null offers")
	}
}
