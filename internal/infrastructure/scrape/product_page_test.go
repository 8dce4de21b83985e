package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPageHTML = `<!DOCTYPE html>
<html><body>
<h1>Apple iPhone 15</h1>
<img class="product-image" src="/img/iphone-15.jpg">
<table class="specs">
  <tr><th>Display</th><td>6.1-inch OLED</td></tr>
  <tr><th>Processor</th><td>A16 Bionic</td></tr>
  <tr><th>RAM</th><td>6GB</td></tr>
  <tr><th>Rear Camera</th><td>48 MP f/1.6</td></tr>
  <tr><th>Battery</th><td>3349mAh</td></tr>
  <tr><th></th><td>ignored</td></tr>
</table>
</body></html>`

func TestFetchPhoneParsesSpecTable(t *testing.T) {
	t.Parallel()

	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		fmt.Fprint(w, productPageHTML)
	}))
	defer server.Close()

	source := NewProductPageSource(server.URL, server.Client())
	phone, err := source.FetchPhone(context.Background(), "Apple", "iPhone 15")
	require.NoError(t, err)
	require.NotNil(t, phone)

	assert.Equal(t, "/phones/apple/iphone-15", requested)
	assert.Equal(t, "Apple", phone.Brand)
	assert.Equal(t, "6.1-inch OLED", phone.Specs.Display)
	assert.Equal(t, "A16 Bionic", phone.Specs.Processor)
	assert.InDelta(t, 48.0, phone.Specs.RearCamera.Megapixels, 0.001)
	assert.Equal(t, "f/1.6", phone.Specs.RearCamera.Aperture)
	assert.Equal(t, "/img/iphone-15.jpg", phone.ImageURL)
	assert.True(t, phone.Active)
}

func TestFetchPhoneRejectsPageWithoutSpecs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>Not a product page.</p></body></html>`)
	}))
	defer server.Close()

	source := NewProductPageSource(server.URL, server.Client())
	phone, err := source.FetchPhone(context.Background(), "Apple", "iPhone 15")
	require.Error(t, err)
	assert.Nil(t, phone)
	assert.Contains(t, err.Error(), "no spec table")
}

func TestFetchPhoneNonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	source := NewProductPageSource(server.URL, server.Client())
	_, err := source.FetchPhone(context.Background(), "Apple", "iPhone 15")
	require.Error(t, err)
}
