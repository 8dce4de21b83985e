package gsmarena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"PhoneSync/internal/config"
	"PhoneSync/internal/domain"
	"PhoneSync/internal/ports"
)

var cameraExpr = regexp.MustCompile(`(?i)([\d.]+)\s*MP(?:\s+(f/[\d.]+))?`)

// Client talks to a GSMArena-like specification API.
type Client struct {
	cfg    config.AdapterConfig
	client *http.Client
	events ports.EventLog

	mu          sync.Mutex
	lastRequest time.Time
}

var _ ports.SpecProvider = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a timeout-bound default.
func NewClient(cfg config.AdapterConfig, client *http.Client, events ports.EventLog) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, client: client, events: events}
}

// SearchPhones queries the upstream by free text. Queries shorter than two
// characters return an empty result without touching the network.
func (c *Client) SearchPhones(ctx context.Context, query string) ([]domain.Phone, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return []domain.Phone{}, nil
	}

	var payload struct {
		Phones []rawPhone `json:"phones"`
	}
	endpoint := fmt.Sprintf("%s/search?q=%s", c.cfg.BaseURL, url.QueryEscape(query))
	if err := c.getJSON(ctx, "search", endpoint, &payload); err != nil {
		return nil, err
	}

	phones := make([]domain.Phone, 0, len(payload.Phones))
	for _, raw := range payload.Phones {
		phones = append(phones, ConvertToPhone(raw))
	}
	return phones, nil
}

// GetPhonesByBrand lists all phones the upstream knows for one brand.
func (c *Client) GetPhonesByBrand(ctx context.Context, brand string) ([]domain.Phone, error) {
	var payload struct {
		Phones []rawPhone `json:"phones"`
	}
	endpoint := fmt.Sprintf("%s/brands/%s/phones", c.cfg.BaseURL, url.PathEscape(brand))
	if err := c.getJSON(ctx, "phones by brand", endpoint, &payload); err != nil {
		return nil, err
	}

	phones := make([]domain.Phone, 0, len(payload.Phones))
	for _, raw := range payload.Phones {
		phones = append(phones, ConvertToPhone(raw))
	}
	return phones, nil
}

// GetPhoneByID fetches one phone; a missing id yields nil, not an error.
func (c *Client) GetPhoneByID(ctx context.Context, id string) (*domain.Phone, error) {
	var raw rawPhone
	endpoint := fmt.Sprintf("%s/phones/%s", c.cfg.BaseURL, url.PathEscape(id))
	err := c.getJSON(ctx, "phone by id", endpoint, &raw)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	phone := ConvertToPhone(raw)
	return &phone, nil
}

// errNotFound marks an upstream 404; callers translate it to a nil result.
var errNotFound = errors.New("not found")

// getJSON issues one GET with retry: non-2xx responses are retried up to
// RetryAttempts times with linearly increasing delay, then surfaced as a
// SourceError. A 404 short-circuits the loop.
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

		if status == http.StatusNotFound {
			return &domain.SourceError{Source: domain.SourceGSMArena, Op: op, Err: errNotFound}
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

	return &domain.SourceError{Source: domain.SourceGSMArena, Op: op, Err: lastErr}
}

func (c *Client) doOnce(ctx context.Context, endpoint string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
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

// throttle enforces a minimum delay between sequential requests to the
// upstream, including after successful calls.
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
		Source:   domain.SourceGSMArena,
		Duration: d,
		Error:    errText,
		Metadata: meta,
	})
}

// rawPhone mirrors the upstream response shape.
type rawPhone struct {
	ID    string `json:"id"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Image string `json:"image"`
	Specs struct {
		Display      string `json:"display"`
		Chipset      string `json:"chipset"`
		RAM          string `json:"ram"`
		Storage      string `json:"storage"`
		Battery      string `json:"battery"`
		OS           string `json:"os"`
		MainCamera   string `json:"mainCamera"`
		SelfieCamera string `json:"selfieCamera"`
		Network      string `json:"network"`
		Weight       string `json:"weight"`
	} `json:"specs"`
}

// ConvertToPhone maps the upstream shape into the catalog representation.
// Missing spec fields become empty defaults rather than errors.
func ConvertToPhone(raw rawPhone) domain.Phone {
	return domain.Phone{
		ID:       raw.ID,
		Brand:    strings.TrimSpace(raw.Brand),
		Model:    strings.TrimSpace(raw.Model),
		ImageURL: raw.Image,
		Active:   true,
		Specs: domain.PhoneSpecifications{
			Display:     raw.Specs.Display,
			Processor:   raw.Specs.Chipset,
			RAM:         raw.Specs.RAM,
			Storage:     raw.Specs.Storage,
			Battery:     raw.Specs.Battery,
			OS:          raw.Specs.OS,
			RearCamera:  ParseCameraSpec(raw.Specs.MainCamera),
			FrontCamera: ParseCameraSpec(raw.Specs.SelfieCamera),
			Network:     raw.Specs.Network,
			Weight:      raw.Specs.Weight,
		},
	}
}

// ParseCameraSpec splits a compound camera string such as "48MP f/1.8".
// Invalid numeric text yields zero megapixels.
func ParseCameraSpec(value string) domain.CameraSpec {
	match := cameraExpr.FindStringSubmatch(value)
	if match == nil {
		return domain.CameraSpec{}
	}

	mp, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		mp = 0
	}
	return domain.CameraSpec{Megapixels: mp, Aperture: match[2]}
}
