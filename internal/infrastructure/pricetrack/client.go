package pricetrack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"PhoneSync/internal/config"
	"PhoneSync/internal/domain"
	"PhoneSync/internal/ports"
)

// Client talks to a price-tracking API and normalizes retailer offers.
type Client struct {
	cfg       config.AdapterConfig
	retailers []string
	client    *http.Client
	events    ports.EventLog

	mu          sync.Mutex
	lastRequest time.Time
}

var _ ports.PriceProvider = (*Client)(nil)

// NewClient wires an HTTP client and the Indian-retailer allow-list.
func NewClient(cfg config.AdapterConfig, retailers []string, client *http.Client, events ports.EventLog) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	allow := make([]string, 0, len(retailers))
	for _, r := range retailers {
		allow = append(allow, strings.ToLower(strings.TrimSpace(r)))
	}
	return &Client{cfg: cfg, retailers: allow, client: client, events: events}
}

// GetPrices fetches all current offers for one phone.
func (c *Client) GetPrices(ctx context.Context, brand, model string) ([]domain.PriceData, error) {
	var payload struct {
		Offers []rawOffer `json:"offers"`
	}
	endpoint := fmt.Sprintf("%s/prices?brand=%s&model=%s",
		c.cfg.BaseURL, url.QueryEscape(brand), url.QueryEscape(model))
	if err := c.getJSON(ctx, "prices", endpoint, &payload); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prices := make([]domain.PriceData, 0, len(payload.Offers))
	for _, raw := range payload.Offers {
		prices = append(prices, domain.PriceData{
			Retailer:    strings.TrimSpace(raw.Retailer),
			URL:         raw.URL,
			Price:       raw.Price,
			Currency:    defaultCurrency(raw.Currency),
			InStock:     raw.InStock,
			RetrievedAt: now,
		})
	}
	return prices, nil
}

// CalculatePriceStats aggregates in-stock offers only. An empty in-stock
// set yields all-zero stats and a nil best deal.
func CalculatePriceStats(prices []domain.PriceData) domain.PriceStats {
	var stats domain.PriceStats
	var sum float64

	for i := range prices {
		p := prices[i]
		if !p.InStock {
			continue
		}

		if stats.OfferCount == 0 || p.Price < stats.LowestPrice {
			stats.LowestPrice = p.Price
			stats.BestDeal = &prices[i]
		}
		if stats.OfferCount == 0 || p.Price > stats.HighestPrice {
			stats.HighestPrice = p.Price
		}
		sum += p.Price
		stats.OfferCount++
	}

	if stats.OfferCount > 0 {
		stats.AveragePrice = sum / float64(stats.OfferCount)
	}
	return stats
}

// FilterIndianRetailers keeps offers whose retailer name or URL matches the
// allow-list and recomputes stats over the filtered subset.
func (c *Client) FilterIndianRetailers(prices []domain.PriceData) ([]domain.PriceData, domain.PriceStats) {
	filtered := make([]domain.PriceData, 0, len(prices))
	for _, p := range prices {
		if c.isIndianRetailer(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered, CalculatePriceStats(filtered)
}

func (c *Client) isIndianRetailer(p domain.PriceData) bool {
	name := strings.ToLower(p.Retailer)
	link := strings.ToLower(p.URL)
	for _, allowed := range c.retailers {
		if allowed == "" {
			continue
		}
		if strings.Contains(name, allowed) || strings.Contains(link, allowed) {
			return true
		}
	}
	return false
}

// getJSON mirrors the spec adapter's retry contract: linear backoff,
// rate-limit courtesy between sequential requests, typed source error
// once attempts are exhausted.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, v any) error {
	attempts := c.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		c.throttle(ctx)

		start := time.Now()
		status, err := c.doOnce(ctx, endpoint, v)
		elapsed := time.Since(start)

		if err == nil {
			c.record(domain.EventAPIRequest, "", elapsed, map[string]string{"op": op})
			return nil
		}

		if status == http.StatusTooManyRequests {
			c.record(domain.EventRateLimitHit, err.Error(), elapsed, map[string]string{"op": op})
		} else {
			c.record(domain.EventAPIError, err.Error(), elapsed, map[string]string{"op": op})
		}

		lastErr = err
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.cfg.RetryDelay):
			}
		}
	}

	return &domain.SourceError{Source: domain.SourcePriceTracking, Op: op, Err: lastErr}
}

func (c *Client) doOnce(ctx context.Context, endpoint string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) throttle(ctx context.Context) {
	if c.cfg.RateLimitDelay <= 0 {
		return
	}

	c.mu.Lock()
	wait := c.cfg.RateLimitDelay - time.Since(c.lastRequest)
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

func (c *Client) record(t domain.EventType, errText string, d time.Duration, meta map[string]string) {
	if c.events == nil {
		return
	}
	c.events.LogEvent(domain.Event{
		Type:     t,
		Source:   domain.SourcePriceTracking,
		Duration: d,
		Error:    errText,
		Metadata: meta,
	})
}

type rawOffer struct {
	Retailer string  `json:"retailer"`
	URL      string  `json:"url"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	InStock  bool    `json:"inStock"`
}

func defaultCurrency(currency string) string {
	if strings.TrimSpace(currency) == "" {
		return "INR"
	}
	return currency
}
