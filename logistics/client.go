// Package logistics talks to the upstream logistics GraphQL API that owns
// pickup points and their shipping SLAs.
package logistics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mikios34/pickup-availability/entity"
	"github.com/mikios34/pickup-availability/pickup"
)

const (
	skuPickupSLAsQuery = `query skuPickupSLAs($itemId: String, $seller: String, $lat: String, $long: String, $country: String) {
  skuPickupSLAs(itemId: $itemId, seller: $seller, lat: $lat, long: $long, country: $country) {
    id
    shippingEstimate
    pickupStoreInfo { friendlyName address { addressId street number complement neighborhood city state country postalCode geoCoordinates } }
  }
}`
	skuPickupSLAQuery = `query skuPickupSLA($itemId: String, $seller: String, $lat: String, $long: String, $country: String, $pickupId: String) {
  skuPickupSLA(itemId: $itemId, seller: $seller, lat: $lat, long: $long, country: $country, pickupId: $pickupId) {
    id
    shippingEstimate
    pickupStoreInfo { friendlyName address { addressId street number complement neighborhood city state country postalCode geoCoordinates } }
  }
}`
	logisticsQuery = `query logistics { logistics { googleMapsKey } }`
)

// sharedCallTimeout bounds a deduplicated upstream call.
const sharedCallTimeout = 10 * time.Second

// ErrUpstream wraps failures reported by the logistics API itself.
var ErrUpstream = errors.New("logistics upstream error")

// Logistics is the store's logistics configuration.
type Logistics struct {
	GoogleMapsKey string `json:"googleMapsKey"`
}

type pickupSLA struct {
	ID               string `json:"id"`
	ShippingEstimate string `json:"shippingEstimate"`
	PickupStoreInfo  struct {
		FriendlyName string         `json:"friendlyName"`
		Address      entity.Address `json:"address"`
	} `json:"pickupStoreInfo"`
}

func (s pickupSLA) candidate() entity.PickupCandidate {
	return entity.PickupCandidate{
		ID:               s.ID,
		FriendlyName:     s.PickupStoreInfo.FriendlyName,
		Address:          s.PickupStoreInfo.Address,
		ShippingEstimate: entity.EstimateOf(s.ShippingEstimate),
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client calls the logistics API. Identical concurrent requests share one round-trip.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	sf         singleflight.Group
}

// NewClient returns a client for endpoint. A nil httpClient gets a 10s timeout.
func NewClient(endpoint, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, token: token, httpClient: httpClient}
}

func variables(p pickup.AvailabilityParams) map[string]any {
	v := map[string]any{
		"itemId":  p.ItemID,
		"seller":  p.SellerID,
		"lat":     p.Lat,
		"long":    p.Long,
		"country": p.Country,
	}
	if p.PickupID != "" {
		v["pickupId"] = p.PickupID
	}
	return v
}

// PickupSLAs returns the pickup points around the coordinates that can serve
// the item, in upstream order.
func (c *Client) PickupSLAs(ctx context.Context, params pickup.AvailabilityParams) ([]entity.PickupCandidate, error) {
	var data struct {
		SkuPickupSLAs []pickupSLA `json:"skuPickupSLAs"`
	}
	if err := c.do(ctx, "skuPickupSLAs", skuPickupSLAsQuery, variables(params), &data); err != nil {
		return nil, err
	}
	out := make([]entity.PickupCandidate, 0, len(data.SkuPickupSLAs))
	for _, s := range data.SkuPickupSLAs {
		out = append(out, s.candidate())
	}
	return out, nil
}

// PickupSLA returns the SLA of params.PickupID, or nil when that point cannot
// serve the item.
func (c *Client) PickupSLA(ctx context.Context, params pickup.AvailabilityParams) (*entity.PickupCandidate, error) {
	if params.PickupID == "" {
		return nil, errors.New("pickupId is required")
	}
	var data struct {
		SkuPickupSLA *pickupSLA `json:"skuPickupSLA"`
	}
	if err := c.do(ctx, "skuPickupSLA", skuPickupSLAQuery, variables(params), &data); err != nil {
		return nil, err
	}
	if data.SkuPickupSLA == nil {
		return nil, nil
	}
	cand := data.SkuPickupSLA.candidate()
	return &cand, nil
}

// Logistics returns the logistics configuration of the store.
func (c *Client) Logistics(ctx context.Context) (*Logistics, error) {
	var data struct {
		Logistics Logistics `json:"logistics"`
	}
	if err := c.do(ctx, "logistics", logisticsQuery, nil, &data); err != nil {
		return nil, err
	}
	return &data.Logistics, nil
}

func (c *Client) do(ctx context.Context, name, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", name, err)
	}

	// encoding/json sorts map keys, so equal variables give equal keys.
	// The shared call outlives any single caller; each caller stops waiting
	// on its own context.
	ch := c.sf.DoChan(name+":"+string(payload), func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		return c.post(callCtx, name, payload)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s request: %w", name, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return res.Err
	}
	if err := json.Unmarshal(res.Val.(json.RawMessage), out); err != nil {
		return fmt.Errorf("decode %s data: %w", name, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, name string, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrUpstream, name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", name, err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrUpstream, name, strings.Join(msgs, "; "))
	}
	return gr.Data, nil
}
