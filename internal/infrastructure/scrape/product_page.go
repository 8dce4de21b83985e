package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PhoneSync/internal/domain"
	"PhoneSync/internal/infrastructure/gsmarena"
	"PhoneSync/internal/ports"
)

// ProductPageSource is the fallback chain's alternative provider: it
// scrapes a public comparison-site product page instead of calling an API.
type ProductPageSource struct {
	baseURL string
	client  *http.Client
}

var _ ports.AlternativeSource = (*ProductPageSource)(nil)

// NewProductPageSource wires an HTTP client; a nil client gets a default.
func NewProductPageSource(baseURL string, client *http.Client) *ProductPageSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ProductPageSource{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// FetchPhone downloads and parses one product page. A page without a
// recognizable spec table yields an error, not a partial record.
func (p *ProductPageSource) FetchPhone(ctx context.Context, brand, model string) (*domain.Phone, error) {
	pageURL := fmt.Sprintf("%s/phones/%s/%s",
		p.baseURL, url.PathEscape(slugify(brand)), url.PathEscape(slugify(model)))

	doc, err := p.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	phone, err := parseProductPage(doc, brand, model)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return phone, nil
}

func (p *ProductPageSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "PhoneSync/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// parseProductPage extracts a spec table of the form
// <tr><th>Display</th><td>6.1-inch OLED</td></tr>.
func parseProductPage(doc *goquery.Document, brand, model string) (*domain.Phone, error) {
	specs := map[string]string{}
	doc.Find("table.specs tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(row.Find("th").First().Text()))
		value := strings.TrimSpace(row.Find("td").First().Text())
		if label != "" && value != "" {
			specs[label] = value
		}
	})

	if len(specs) == 0 {
		return nil, fmt.Errorf("no spec table found")
	}

	phone := &domain.Phone{
		Brand:  brand,
		Model:  model,
		Active: true,
		Specs: domain.PhoneSpecifications{
			Display:     specs["display"],
			Processor:   specs["processor"],
			RAM:         specs["ram"],
			Storage:     specs["storage"],
			Battery:     specs["battery"],
			OS:          specs["os"],
			RearCamera:  gsmarena.ParseCameraSpec(specs["rear camera"]),
			FrontCamera: gsmarena.ParseCameraSpec(specs["front camera"]),
			Network:     specs["network"],
			Weight:      specs["weight"],
		},
	}

	if img, ok := doc.Find("img.product-image").First().Attr("src"); ok {
		phone.ImageURL = img
	}
	return phone, nil
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(value, " ", "-")
}
