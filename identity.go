package main

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// identityDigestSize keeps topic segments at 8 hex chars. Changing it
// would re-register every tracked listing under a new entity, so it is
// effectively frozen.
const identityDigestSize = 4

// parseItemURL canonicalizes a Tokopedia product URL down to the pair
// that actually identifies a listing: the shop domain and the product
// key. Query strings (tracking parameters), fragments, extra path
// segments and the www. host variant are all ignored, so cosmetic
// variations of the same listing URL converge on one identity.
func parseItemURL(raw string) (shopDomain, productKey string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("unable to parse URL: %w", err)
	}

	host := strings.ToLower(u.Hostname())
	if host != "tokopedia.com" && host != "www.tokopedia.com" {
		return "", "", fmt.Errorf("unsupported host %q: only tokopedia.com product URLs are supported", u.Hostname())
	}

	var segments []string
	for _, s := range strings.Split(u.EscapedPath(), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 1 {
		return "", "", fmt.Errorf("URL has no shop domain: is this a base URL?")
	}
	if len(segments) < 2 {
		return "", "", fmt.Errorf("URL has no product key: is this a shop URL instead of a product URL?")
	}

	return segments[0], segments[1], nil
}

// deriveIdentity maps a canonicalized listing to a fixed-width,
// collision-resistant topic segment. Pure and deterministic: the digest
// input is exactly the shop/product pair, with no time or randomness,
// so reruns always reconcile with the same registered entities.
func deriveIdentity(shopDomain, productKey string) string {
	h, err := blake2b.New(identityDigestSize, nil)
	if err != nil {
		// Only reachable with an invalid digest size constant.
		panic(err)
	}
	h.Write([]byte(shopDomain))
	h.Write([]byte(productKey))
	return hex.EncodeToString(h.Sum(nil))
}
