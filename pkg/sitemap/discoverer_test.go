package sitemap_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-merchant-feed/pkg/sitemap"
)

// MockFetcher はテスト用の sitemap.Fetcher インターフェースの実装です。
type MockFetcher struct {
	content    string
	fetchError error
}

func (m *MockFetcher) FetchText(ctx context.Context, url string) (string, error) {
	if m.fetchError != nil {
		return "", m.fetchError
	}
	return m.content, nil
}

func TestNewDiscoverer(t *testing.T) {
	t.Run("success_with_valid_fetcher", func(t *testing.T) {
		d, err := sitemap.NewDiscoverer(&MockFetcher{})
		assert.NoError(t, err)
		assert.NotNil(t, d)
	})

	t.Run("error_with_nil_fetcher", func(t *testing.T) {
		d, err := sitemap.NewDiscoverer(nil)
		assert.Error(t, err)
		assert.Nil(t, d)
	})
}

func TestDiscoverProductURLs(t *testing.T) {
	const sitemapXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://www.turkiyesolarmarket.com.tr/</loc></url>
  <url><loc>https://www.turkiyesolarmarket.com.tr/urunler/solar-panel-450w</loc></url>
  <url><loc>https://www.turkiyesolarmarket.com.tr/hakkimizda</loc></url>
  <url><loc>https://www.turkiyesolarmarket.com.tr/urunler/inverter-5kw</loc></url>
  <url><loc>https://www.turkiyesolarmarket.com.tr/urunler/solar-panel-450w</loc></url>
</urlset>`

	t.Run("extracts_product_urls_in_order_with_duplicates", func(t *testing.T) {
		d, err := sitemap.NewDiscoverer(&MockFetcher{content: sitemapXML})
		require.NoError(t, err)

		urls, err := d.DiscoverProductURLs(context.Background(), sitemap.DefaultSitemapURL)
		require.NoError(t, err)

		// 商品URLのみが出現順に抽出され、重複はそのまま保持される
		expected := []string{
			"https://www.turkiyesolarmarket.com.tr/urunler/solar-panel-450w",
			"https://www.turkiyesolarmarket.com.tr/urunler/inverter-5kw",
			"https://www.turkiyesolarmarket.com.tr/urunler/solar-panel-450w",
		}
		assert.Equal(t, expected, urls)
	})

	t.Run("empty_sitemap_yields_no_urls", func(t *testing.T) {
		d, err := sitemap.NewDiscoverer(&MockFetcher{content: "<urlset></urlset>"})
		require.NoError(t, err)

		urls, err := d.DiscoverProductURLs(context.Background(), sitemap.DefaultSitemapURL)
		require.NoError(t, err)
		assert.Empty(t, urls)
	})

	t.Run("fetch_error_is_fatal", func(t *testing.T) {
		fetchErr := errors.New("connection refused")
		d, err := sitemap.NewDiscoverer(&MockFetcher{fetchError: fetchErr})
		require.NoError(t, err)

		urls, err := d.DiscoverProductURLs(context.Background(), sitemap.DefaultSitemapURL)
		assert.Error(t, err)
		assert.ErrorIs(t, err, fetchErr)
		assert.Nil(t, urls)
	})
}

func TestCountDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		urls     []string
		expected int
	}{
		{"no urls", nil, 0},
		{"no duplicates", []string{"a", "b", "c"}, 0},
		{"one duplicate", []string{"a", "b", "a"}, 1},
		{"triple occurrence counts twice", []string{"a", "a", "a"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sitemap.CountDuplicates(tt.urls))
		})
	}
}
