package scraper

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/shouni/go-merchant-feed/pkg/product"
	"github.com/shouni/go-merchant-feed/pkg/types"
)

const (
	// DefaultMaxConcurrency は、並列スクレイピングのデフォルトの最大同時実行数を定義します。
	DefaultMaxConcurrency = 10

	// progressInterval は、進捗ログを出力する完了件数の間隔です。
	progressInterval = 50
)

// Scraper は商品ページの並列スクレイピング機能を提供するインターフェースです。
type Scraper interface {
	ScrapeInParallel(ctx context.Context, urls []string) []types.ScrapeResult
}

// ProductScraper は Scraper インターフェースを実装する並列処理構造体です。
// 各ワーク単位（1URLのフェッチ＋抽出）は独立しており、可変状態を共有しません。
// 唯一の共有リソースは進捗表示用のカウンタで、atomic で更新されます。
type ProductScraper struct {
	extractor      *product.Extractor
	maxConcurrency int // 最大並列数を保持するフィールド
}

// NewProductScraper は ProductScraper を初期化します。
// 依存性として Extractor と、最大同時実行数を受け取ります。
func NewProductScraper(extractor *product.Extractor, maxConcurrency int) *ProductScraper {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &ProductScraper{
		extractor:      extractor,
		maxConcurrency: maxConcurrency,
	}
}

// ScrapeInParallel は Scraper インターフェースのメソッドを実装します。
// すべての単位が完了するまでブロックします。完了順と結果の順序に意味はなく、
// 最終的な出力順はフィードシリアライザのソートのみが決定します。
func (s *ProductScraper) ScrapeInParallel(ctx context.Context, urls []string) []types.ScrapeResult {
	var wg sync.WaitGroup
	resultsChan := make(chan types.ScrapeResult, len(urls))

	// バッファ付きチャネルをセマフォとして使用し、同時実行数を制限する
	semaphore := make(chan struct{}, s.maxConcurrency)

	total := len(urls)
	var done, okCount, errCount int64

	for _, url := range urls {
		wg.Add(1)

		// リソース（スロット）の確保。maxConcurrency件実行中の場合はここでブロックして待機。
		semaphore <- struct{}{}

		go func(u string) {
			defer wg.Done()

			// 処理完了後にリソース（スロット）を解放。他の待機中のGoroutineが実行可能になる。
			defer func() { <-semaphore }()

			p, err := s.extractor.FetchAndExtract(ctx, u)

			if err != nil {
				atomic.AddInt64(&errCount, 1)
			} else {
				atomic.AddInt64(&okCount, 1)
			}
			resultsChan <- types.ScrapeResult{
				URL:     u,
				Product: p,
				Error:   err,
			}

			// 50件ごと、および最終完了時に進捗を出力する。カウンタは進捗表示のためだけの
			// ものであり、処理の正しさには影響しない。
			completed := atomic.AddInt64(&done, 1)
			if completed%progressInterval == 0 || completed == int64(total) {
				log.Printf("  進捗: %d/%d 件処理, 成功 %d 件, エラー %d 件",
					completed, total, atomic.LoadInt64(&okCount), atomic.LoadInt64(&errCount))
			}
		}(url)
	}

	wg.Wait()
	close(resultsChan)

	var finalResults []types.ScrapeResult
	for res := range resultsChan {
		finalResults = append(finalResults, res)
	}

	return finalResults
}
