package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	gqlEndpoint      = "https://gql.tokopedia.com/graphql/PDPGetLayoutQuery"
	gqlOperationName = "PDPGetLayoutQuery"
	productPageBase  = "https://www.tokopedia.com"
	akamaiHeader     = "pdpGetLayout"
	userAgentValue   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"
)

// gqlQuery is Tokopedia's own PDPGetLayout query as issued by their web
// frontend. Only the product_content component is consumed.
const gqlQuery = `fragment ProductHighlight on pdpDataProductContent {
  name
  price {
    value
    currency
    priceFmt
    slashPriceFmt
    discPercentage
    __typename
  }
  campaign {
    campaignID
    campaignType
    campaignTypeName
    campaignIdentifier
    background
    percentageAmount
    originalPrice
    discountedPrice
    originalStock
    stock
    stockSoldPercentage
    threshold
    startDate
    endDate
    endDateUnix
    appLinks
    isAppsOnly
    isActive
    hideGimmick
    showStockBar
    __typename
  }
  thematicCampaign {
    additionalInfo
    background
    campaignName
    icon
    __typename
  }
  stock {
    useStock
    value
    stockWording
    __typename
  }
  variant {
    isVariant
    parentID
    __typename
  }
  wholesale {
    minQty
    price {
      value
      currency
      __typename
    }
    __typename
  }
  isCashback {
    percentage
    __typename
  }
  isTradeIn
  isOS
  isPowerMerchant
  isWishlist
  isCOD
  preorder {
    duration
    timeUnit
    isActive
    preorderInDays
    __typename
  }
  __typename
}

query PDPGetLayoutQuery($shopDomain: String, $productKey: String, $layoutID: String, $apiVersion: Float, $userLocation: pdpUserLocation, $extParam: String, $tokonow: pdpTokoNow, $deviceID: String) {
  pdpGetLayout(shopDomain: $shopDomain, productKey: $productKey, layoutID: $layoutID, apiVersion: $apiVersion, userLocation: $userLocation, extParam: $extParam, tokonow: $tokonow, deviceID: $deviceID) {
    name
    components {
      name
      type
      position
      data {
        ...ProductHighlight
        __typename
      }
      __typename
    }
    __typename
  }
}`

// errUnexpectedSchema marks responses that arrived but no longer match
// the shape this tool knows how to read. It is the trigger for the
// product-page fallback; transport and HTTP-status failures are not.
var errUnexpectedSchema = errors.New("unexpected Tokopedia response shape")

type gqlRequest struct {
	Query         string       `json:"query"`
	OperationName string       `json:"operationName"`
	Variables     gqlVariables `json:"variables"`
}

type gqlVariables struct {
	ShopDomain string `json:"shopDomain"`
	ProductKey string `json:"productKey"`
	APIVersion int    `json:"apiVersion"`
}

type pdpResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Data struct {
		PdpGetLayout struct {
			Components []pdpComponent `json:"components"`
		} `json:"pdpGetLayout"`
	} `json:"data"`
}

type pdpComponent struct {
	Name string       `json:"name"`
	Data []pdpContent `json:"data"`
}

type pdpContent struct {
	Name  string `json:"name"`
	Price struct {
		Value int64 `json:"value"`
	} `json:"price"`
	Stock struct {
		Value string `json:"value"`
	} `json:"stock"`
}

// tokopediaClient fetches a listing snapshot from Tokopedia's GraphQL
// endpoint, with the public product page as a degraded fallback.
type tokopediaClient struct {
	http     *http.Client
	endpoint string
	pageBase string
	timeout  time.Duration
}

func newTokopediaClient(timeout time.Duration) *tokopediaClient {
	return &tokopediaClient{
		http:     &http.Client{Timeout: timeout},
		endpoint: gqlEndpoint,
		pageBase: productPageBase,
		timeout:  timeout,
	}
}

// FetchSnapshot retrieves the current name, price and stock of a
// listing. No retries: the external scheduler owns retry cadence.
func (c *tokopediaClient) FetchSnapshot(ctx context.Context, shopDomain, productKey string) (ProductSnapshot, error) {
	snap, err := c.fetchFromAPI(ctx, shopDomain, productKey)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, errUnexpectedSchema) {
		return ProductSnapshot{}, err
	}

	slog.Warn("Tokopedia API response not recognized, falling back to product page", "error", err)
	pageSnap, pageErr := c.fetchFromPage(ctx, shopDomain, productKey)
	if pageErr != nil {
		return ProductSnapshot{}, fmt.Errorf("%w (product page fallback also failed: %v)", err, pageErr)
	}
	return pageSnap, nil
}

func (c *tokopediaClient) fetchFromAPI(ctx context.Context, shopDomain, productKey string) (ProductSnapshot, error) {
	body, err := json.Marshal(gqlRequest{
		Query:         gqlQuery,
		OperationName: gqlOperationName,
		Variables: gqlVariables{
			ShopDomain: shopDomain,
			ProductKey: productKey,
			APIVersion: 1,
		},
	})
	if err != nil {
		return ProductSnapshot{}, fmt.Errorf("failed to encode query: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ProductSnapshot{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", userAgentValue)
	req.Header.Set("Referer", fmt.Sprintf("https://www.tokopedia.com/%s/%s", shopDomain, productKey))
	req.Header.Set("X-Tkpd-Akamai", akamaiHeader)

	slog.Debug("Sending Tokopedia API request", "shop", shopDomain, "product", productKey)

	res, err := c.http.Do(req)
	if err != nil {
		return ProductSnapshot{}, fmt.Errorf("Tokopedia API request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return ProductSnapshot{}, fmt.Errorf("Tokopedia API status %d %s", res.StatusCode, res.Status)
	}

	var resp pdpResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return ProductSnapshot{}, fmt.Errorf("%w: %v", errUnexpectedSchema, err)
	}

	return parsePDPResponse(resp)
}

// parsePDPResponse walks the decoded layout down to the listing values.
// Every missing piece is reported as a schema mismatch: the response
// shape is owned by Tokopedia and can change under us at any time.
func parsePDPResponse(resp pdpResponse) (ProductSnapshot, error) {
	if len(resp.Errors) > 0 {
		return ProductSnapshot{}, fmt.Errorf("%w: API error: %s", errUnexpectedSchema, resp.Errors[0].Message)
	}

	for _, comp := range resp.Data.PdpGetLayout.Components {
		if comp.Name != "product_content" || len(comp.Data) == 0 {
			continue
		}
		content := comp.Data[0]
		if content.Name == "" {
			return ProductSnapshot{}, fmt.Errorf("%w: product_content has no name", errUnexpectedSchema)
		}
		stock, err := strconv.ParseInt(content.Stock.Value, 10, 64)
		if err != nil {
			return ProductSnapshot{}, fmt.Errorf("%w: unparseable stock value %q", errUnexpectedSchema, content.Stock.Value)
		}
		return ProductSnapshot{
			Name:      content.Name,
			Price:     content.Price.Value,
			Stock:     stock,
			FetchedAt: time.Now(),
		}, nil
	}

	return ProductSnapshot{}, fmt.Errorf("%w: no product_content component in layout", errUnexpectedSchema)
}
