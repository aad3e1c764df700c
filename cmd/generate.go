package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-merchant-feed/pkg/feed"
	"github.com/shouni/go-merchant-feed/pkg/httpclient"
	"github.com/shouni/go-merchant-feed/pkg/product"
	"github.com/shouni/go-merchant-feed/pkg/scraper"
	"github.com/shouni/go-merchant-feed/pkg/sitemap"
	"github.com/shouni/go-merchant-feed/pkg/types"
)

// コマンドラインフラグ変数を定義
var (
	generateSitemapURL string // --sitemap-url 対象サイトマップ
	outputFile         string // --output 出力先のXMLファイルパス
	concurrency        int    // --concurrency 並列実行数
	minProducts        int    // --min-products フィードを書き出す最小商品数
)

const (
	defaultOutputFile = "merchant-feed.xml"

	// defaultMinProducts を下回る場合はサイト側かスクレイピングの系統的な異常と
	// みなし、フィードを書き出さずに失敗させます。中途半端なフィードを広告
	// プラットフォームへ渡すよりも、前回のフィードを残す方が安全なためです。
	defaultMinProducts = 10

	topBrandCount = 5
)

// runGeneratePipeline は、フィード生成の全工程を実行するメインロジックです。
// 工程: URL発見 → 並列スクレイピング → 閾値チェック → シリアライズ → ファイル書き出し
func runGeneratePipeline(ctx context.Context, fetcher *httpclient.Client) error {

	// 1. URL発見。サイトマップが取得できない場合はここで致命エラーとなる
	discoverer, err := sitemap.NewDiscoverer(fetcher)
	if err != nil {
		return fmt.Errorf("Discovererの初期化エラー: %w", err)
	}

	urls, err := discoverer.DiscoverProductURLs(ctx, generateSitemapURL)
	if err != nil {
		return err
	}
	fmt.Printf("サイトマップから %d 件の商品URLを発見しました\n", len(urls))

	// 2. 並列スクレイピング
	extractor, err := product.NewExtractor(fetcher)
	if err != nil {
		return fmt.Errorf("Extractorの初期化エラー: %w", err)
	}
	s := scraper.NewProductScraper(extractor, concurrency)

	fmt.Printf("%d 件の商品ページをスクレイピングします (並列数: %d)...\n", len(urls), concurrency)
	results := s.ScrapeInParallel(ctx, urls)

	products, errorCount := partitionResults(results)

	// 3. 閾値チェック。下回る場合はフィードを一切書き出さない
	if len(products) < minProducts {
		return fmt.Errorf("収集できた商品が閾値を下回りました (%d件 < %d件)。フィードは書き出されません", len(products), minProducts)
	}

	// 4. シリアライズとファイル書き出し (ソートはWriterが行う)
	fmt.Printf("\n%d 件の商品でフィードを生成します...\n", len(products))
	xmlContent := feed.NewWriter().Generate(products)

	if err := os.WriteFile(outputFile, []byte(xmlContent), 0o644); err != nil {
		return fmt.Errorf("フィードファイルの書き出しに失敗しました (%s): %w", outputFile, err)
	}
	fmt.Printf("フィードを %s に保存しました\n", outputFile)

	// 5. サマリーの出力
	printSummary(products, errorCount, len(xmlContent))

	return nil
}

// partitionResults は、スクレイピング結果を有効なレコードとエラー件数に振り分けます。
// 棄却されたページは件数として数えるのみで、処理全体を止めることはありません。
func partitionResults(results []types.ScrapeResult) ([]product.Product, int) {
	products := make([]product.Product, 0, len(results))
	errorCount := 0

	for _, res := range results {
		if res.Error != nil {
			errorCount++
			if clibase.Flags.Verbose {
				log.Printf("ページをスキップしました (URL: %s): %v", res.URL, res.Error)
			}
			continue
		}
		products = append(products, *res.Product)
	}
	return products, errorCount
}

// printSummary は、実行結果の要約（件数・ブランド上位・ファイルサイズ）を表示します。
func printSummary(products []product.Product, errorCount, fileSize int) {
	fmt.Println("\n=== サマリー ===")
	fmt.Printf("商品数: %d\n", len(products))
	fmt.Printf("エラー/スキップ: %d\n", errorCount)
	fmt.Printf("ブランド上位: %s\n", topBrands(products, topBrandCount))
	fmt.Printf("ファイルサイズ: %d バイト\n", fileSize)
}

// topBrands は、出現頻度の高いブランド上位n件を "Brand(count)" 形式で返します。
// ブランドが空のレコードは "Unknown" に集計されます。
func topBrands(products []product.Product, n int) string {
	counts := make(map[string]int)
	for i := range products {
		brand := products[i].Brand
		if brand == "" {
			brand = "Unknown"
		}
		counts[brand]++
	}

	type brandCount struct {
		name  string
		count int
	}
	list := make([]brandCount, 0, len(counts))
	for name, count := range counts {
		list = append(list, brandCount{name, count})
	}
	// 件数の降順、同数はブランド名の昇順 (表示を決定的にするため)
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].name < list[j].name
	})

	if len(list) > n {
		list = list[:n]
	}

	parts := make([]string, 0, len(list))
	for _, bc := range list {
		parts = append(parts, fmt.Sprintf("%s(%d)", bc.name, bc.count))
	}
	return strings.Join(parts, ", ")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "サイトマップから商品をスクレイピングし、Merchant Center用フィードを生成します",
	Long: `サイトマップから商品URLを発見し、各ページのJSON-LD構造化データとOGタグから
商品レコードを抽出して、RSS 2.0 + Google Shopping名前空間のXMLフィードを生成します。
収集できた商品数が閾値を下回った場合、フィードは書き出されず非ゼロで終了します。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {

		fetcher := GetGlobalFetcher()
		if fetcher == nil {
			return fmt.Errorf("HTTPクライアントが初期化されていません。rootコマンドのPreRunを確認してください")
		}

		// 実行全体にタイムアウトは設けない。個々のリクエストのタイムアウトのみが
		// 各ワーク単位の実行時間を制限する。
		ctx := context.Background()

		return runGeneratePipeline(ctx, fetcher)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateSitemapURL, "sitemap-url",
		sitemap.DefaultSitemapURL, "商品URLの発見に使用するサイトマップのURL")

	generateCmd.Flags().StringVarP(&outputFile, "output", "o",
		defaultOutputFile, "フィードXMLの出力先ファイルパス")

	generateCmd.Flags().IntVarP(&concurrency, "concurrency", "c",
		scraper.DefaultMaxConcurrency,
		fmt.Sprintf("最大並列実行数 (デフォルト: %d)", scraper.DefaultMaxConcurrency))

	generateCmd.Flags().IntVar(&minProducts, "min-products",
		defaultMinProducts, "フィードを書き出すために必要な最小商品数")
}
