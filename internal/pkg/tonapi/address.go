package tonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
)

// Address holds the display formats of one account address.
type Address struct {
	MainNet string `json:"mainNet"`
	TestNet string `json:"testNet"`
	Hex     string `json:"hex"`
}

// AddressClient resolves raw addresses into user-friendly formats.
type AddressClient struct {
	baseURL string
	http    *http.Client
}

// NewAddressClient creates an address lookup client.
func NewAddressClient(baseURL string, timeout time.Duration) *AddressClient {
	return &AddressClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout),
	}
}

// Lookup resolves addr via GET /address/{addr}.
func (c *AddressClient) Lookup(ctx context.Context, addr string) (*Address, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("address lookup config error: base url is empty: %w", apperr.ErrUpstreamUnavailable)
	}

	body, err := get(ctx, c.http, "address lookup", c.baseURL+"/address/"+url.PathEscape(addr), "")
	if err != nil {
		return nil, err
	}

	var out Address
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("address lookup decode error: %v: %w", err, apperr.ErrUpstreamUnavailable)
	}
	return &out, nil
}
