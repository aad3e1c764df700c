package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-merchant-feed/pkg/retry"
)

// ErrRequestBuild は、HTTPリクエストの組み立て自体に失敗したことを示します。
// 再試行しても直らないため、リトライ対象から除外されます。
var ErrRequestBuild = errors.New("GETリクエスト作成に失敗しました")

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 15 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB: レスポンスボディの最大読み込みサイズ

	// UserAgent はフィードボットであることを明示する固定のUser-Agentです。
	UserAgent = "Mozilla/5.0 (compatible; TSM-FeedBot/1.0)"
)

// Doer は、標準の *http.Client.Do()と互換性のあるHTTPクライアントのインターフェースを定義します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client はHTTPリクエストと固定間隔のリトライロジックを管理します。
// ステータスコードの種別は区別せず、失敗はすべて同一のポリシーでリトライします。
// ページ単位の取得失敗は呼び出し側で「そのページのスキップ」として扱われるため、
// ここで賢く振り分ける必要はありません。
type Client struct {
	httpClient  Doer
	retryConfig retry.Config
}

// ClientOption はClientの設定を行うための関数型です。
type ClientOption func(*Client)

// WithHTTPClient はカスタムのDoerを設定します。テストでのモック注入に使用します。
func WithHTTPClient(doer Doer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithMaxRetries は最大リトライ回数を設定します。
func WithMaxRetries(max uint64) ClientOption {
	return func(c *Client) {
		c.retryConfig.MaxRetries = max
	}
}

// WithRetryInterval は試行間の待機時間を設定します。テストの高速化にも使用します。
func WithRetryInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.retryConfig.Interval = interval
	}
}

// New は、新しいClientを生成します。
func New(timeout time.Duration, options ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryConfig: retry.DefaultConfig(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// addCommonHeaders は共通のHTTPヘッダーを設定します。
func (c *Client) addCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
}

// FetchBytes は URL からコンテンツをフェッチし、生のバイト配列として返します。
// 失敗した場合はリトライ設定に従って再試行し、それでも失敗した場合にエラーを返します。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		var fetchErr error
		body, fetchErr = c.doFetch(ctx, url)
		return fetchErr
	}

	err := retry.Do(
		ctx,
		c.retryConfig,
		fmt.Sprintf("URL(%s)のフェッチ", url),
		op,
		c.isRetryableError,
	)

	if err != nil {
		return nil, err
	}
	return body, nil
}

// FetchText は URL からコンテンツをフェッチし、UTF-8テキストとして返します。
// 不正なバイト列は置換文字に差し替えます（壊れたページでもパイプラインを止めないため）。
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	body, err := c.FetchBytes(ctx, url)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(body), "�"), nil
}

// doFetch は実際の一度のHTTP GETリクエストを実行し、レスポンスボディを返します。
func (c *Client) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestBuild, err)
	}
	c.addCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTPステータスコードエラー: %d", resp.StatusCode)
	}

	limitedReader := io.LimitReader(resp.Body, MaxBodySize)
	bodyBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}

	return bodyBytes, nil
}

// isRetryableError はエラーがリトライ対象かどうかを判定します。
// この関数は retry.ShouldRetryFunc 型のシグネチャを満たします。
// フェッチ失敗はステータスコード・タイムアウト・接続エラーを区別せず、すべて同一にリトライします。
// 唯一の例外はリクエストの組み立て自体の失敗で、これは再試行しても直らないため即座に中止します。
func (c *Client) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRequestBuild) {
		return false
	}
	return true
}
