package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-merchant-feed/pkg/sitemap"
)

// フラグ変数
var discoverSitemapURL string

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "サイトマップから商品URLの一覧のみを抽出して表示します",
	Long: `サイトマップを取得し、商品ページのURLを出現順に表示します。
スクレイピングは行いません。フィード生成前の対象確認に使用します。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {

		fetcher := GetGlobalFetcher()
		if fetcher == nil {
			return fmt.Errorf("HTTPクライアントが初期化されていません。rootコマンドのPreRunを確認してください")
		}

		discoverer, err := sitemap.NewDiscoverer(fetcher)
		if err != nil {
			return fmt.Errorf("Discovererの初期化エラー: %w", err)
		}

		urls, err := discoverer.DiscoverProductURLs(context.Background(), discoverSitemapURL)
		if err != nil {
			return err
		}

		for _, u := range urls {
			fmt.Println(u)
		}

		// 重複はスクレイピング時にそのまま2回処理される仕様のため、件数として可視化しておく
		fmt.Printf("\n合計: %d 件 (うち重複 %d 件)\n", len(urls), sitemap.CountDuplicates(urls))

		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverSitemapURL, "sitemap-url",
		sitemap.DefaultSitemapURL, "商品URLの発見に使用するサイトマップのURL")
}
