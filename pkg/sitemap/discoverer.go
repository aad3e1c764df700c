package sitemap

import (
	"context"
	"fmt"
	"regexp"
)

// ----------------------------------------------------------------------
// 定数と依存性の定義
// ----------------------------------------------------------------------

const (
	// DefaultSitemapURL は対象サイトのサイトマップURLです。
	DefaultSitemapURL = "https://www.turkiyesolarmarket.com.tr/sitemap.xml"

	// productLocPattern は、サイトマップの <loc> 要素から商品ページのURLのみを抜き出すパターンです。
	// 商品ページは /urunler/ 配下に置かれる運用のため、このプレフィックスで判定します。
	productLocPattern = `<loc>(https://www\.turkiyesolarmarket\.com\.tr/urunler/[^<]+)</loc>`
)

// Fetcher は、URLのコンテンツをテキストとして取得する機能のインターフェースを定義します。
// Discoverer は、この抽象に依存します。
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// ----------------------------------------------------------------------
// Discoverer
// ----------------------------------------------------------------------

// Discoverer は、サイトマップから商品ページのURL一覧を抽出します。
type Discoverer struct {
	fetcher Fetcher
	pattern *regexp.Regexp
}

// NewDiscoverer は、新しいDiscovererのインスタンスを生成します。
func NewDiscoverer(fetcher Fetcher) (*Discoverer, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("sitemap.NewDiscoverer: Fetcher cannot be nil")
	}
	return &Discoverer{
		fetcher: fetcher,
		pattern: regexp.MustCompile(productLocPattern),
	}, nil
}

// DiscoverProductURLs は、サイトマップを一度だけ取得し、商品URLを出現順に返します。
// 重複したURLはそのまま保持されます（サイトマップ側の重複をここでは隠蔽しません）。
// サイトマップ自体が取得できない場合のみエラーを返します。URLが無いとフィードを
// 生成しようがないため、これはパイプライン全体で唯一の無条件致命エラーです。
func (d *Discoverer) DiscoverProductURLs(ctx context.Context, sitemapURL string) ([]string, error) {
	content, err := d.fetcher.FetchText(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("サイトマップの取得に失敗しました (URL: %s): %w", sitemapURL, err)
	}

	matches := d.pattern.FindAllStringSubmatch(content, -1)

	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls, nil
}

// CountDuplicates は、URLリスト中の重複件数（2回目以降の出現数）を返します。
// discover サブコマンドの表示用で、スクレイピング対象の決定には影響しません。
func CountDuplicates(urls []string) int {
	seen := make(map[string]struct{}, len(urls))
	duplicates := 0
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			duplicates++
			continue
		}
		seen[u] = struct{}{}
	}
	return duplicates
}
