package types

import "github.com/shouni/go-merchant-feed/pkg/product"

// ScrapeResult は、特定のURLに対するフェッチ＋抽出１単位の結果を保持します。
// これは、Scraperの出力、フィード生成の入力として利用されます。
// Error が nil のとき Product は必ず非nilです。棄却されたページは Error に
// 棄却理由を持ち、Product は nil になります。
type ScrapeResult struct {
	URL     string           // 処理対象のURL
	Product *product.Product // 抽出された正規化済みレコード
	Error   error            // 処理中に発生したエラー、または棄却理由
}
