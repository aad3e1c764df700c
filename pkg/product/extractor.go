package product

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、ページのコンテンツをテキストとして取得する機能のインターフェースを定義します。
// Extractor は、この抽象に依存します。
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// ----------------------------------------------------------------------
// エラー定義
// ----------------------------------------------------------------------

var (
	// ErrNoProductData は、ページ内に利用可能な商品構造化データが無いことを示します。
	// 商品ページでない、あるいはメタデータ未整備のページで発生する「想定内の不在」です。
	ErrNoProductData = errors.New("構造化データに商品情報が見つかりませんでした")

	// ErrMissingRequiredField は、すべてのフォールバックを試しても title または price が
	// 得られなかったことを示します。この2つは広告プラットフォームの受理に必須です。
	ErrMissingRequiredField = errors.New("必須フィールド (title/price) が取得できませんでした")
)

// ----------------------------------------------------------------------
// JSON-LD の柔軟なデコード
// ----------------------------------------------------------------------

// flexString は、文字列・数値・配列（先頭要素）のいずれで表現されていても
// 文字列として受け取るためのフィールド型です。実サイトのJSON-LDでは
// price が数値、image が配列で現れることがあります。
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*s = ""
		return nil
	}

	switch trimmed[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
	case '[':
		var arr []flexString
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		if len(arr) > 0 {
			*s = arr[0]
		} else {
			*s = ""
		}
	case '{':
		// オブジェクト形式は対象外。エラーにせず空として扱う
		*s = ""
	default:
		// 数値・真偽値はJSON上の表記をそのまま文字列として採用
		*s = flexString(trimmed)
	}
	return nil
}

func (s flexString) String() string { return string(s) }

// jsonldBrand は brand フィールドを受け取ります。
// {"@type":"Brand","name":"..."} 形式と裸の文字列形式の両方に対応します。
type jsonldBrand struct {
	Name string
}

func (b *jsonldBrand) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if trimmed[0] == '{' {
		var obj struct {
			Name flexString `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		b.Name = obj.Name.String()
		return nil
	}

	var v flexString
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	b.Name = v.String()
	return nil
}

// jsonldOffers は offers サブオブジェクトです。単一オブジェクトと配列（先頭要素）の
// 両方の形式に対応します。
type jsonldOffers struct {
	Price         flexString `json:"price"`
	PriceCurrency string     `json:"priceCurrency"`
	Availability  string     `json:"availability"`
	ItemCondition string     `json:"itemCondition"`
}

type jsonldOffersField struct {
	jsonldOffers
}

func (o *jsonldOffersField) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if trimmed[0] == '[' {
		var arr []jsonldOffers
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		if len(arr) > 0 {
			o.jsonldOffers = arr[0]
		}
		return nil
	}

	return json.Unmarshal(data, &o.jsonldOffers)
}

// jsonldProduct は、schema.org の Product ドキュメントのうち、フィード生成に必要な
// フィールドのみを受け取ります。
type jsonldProduct struct {
	Type        flexString        `json:"@type"`
	Name        flexString        `json:"name"`
	Description flexString        `json:"description"`
	Image       flexString        `json:"image"`
	SKU         flexString        `json:"sku"`
	MPN         flexString        `json:"mpn"`
	GTIN13      flexString        `json:"gtin13"`
	GTIN        flexString        `json:"gtin"`
	Category    flexString        `json:"category"`
	Brand       jsonldBrand       `json:"brand"`
	Offers      jsonldOffersField `json:"offers"`
}

// ----------------------------------------------------------------------
// 在庫状態・商品状態の変換テーブル
// ----------------------------------------------------------------------

// schema.org のURIはhttpsとhttpの両方の表記が実サイトに存在します。
// 未知の値・欠落はそれぞれ in_stock / new にフォールバックします。
var availabilityByURI = map[string]Availability{
	"https://schema.org/InStock":    AvailabilityInStock,
	"https://schema.org/OutOfStock": AvailabilityOutOfStock,
	"https://schema.org/PreOrder":   AvailabilityPreorder,
	"http://schema.org/InStock":     AvailabilityInStock,
	"http://schema.org/OutOfStock":  AvailabilityOutOfStock,
}

var conditionByURI = map[string]Condition{
	"https://schema.org/NewCondition":         ConditionNew,
	"http://schema.org/NewCondition":          ConditionNew,
	"https://schema.org/UsedCondition":        ConditionUsed,
	"https://schema.org/RefurbishedCondition": ConditionRefurbished,
}

// MapAvailability は schema.org の在庫URIを列挙値へ変換します。
func MapAvailability(uri string) Availability {
	if v, ok := availabilityByURI[uri]; ok {
		return v
	}
	return AvailabilityInStock
}

// MapCondition は schema.org の商品状態URIを列挙値へ変換します。
func MapCondition(uri string) Condition {
	if v, ok := conditionByURI[uri]; ok {
		return v
	}
	return ConditionNew
}

// ----------------------------------------------------------------------
// Extractor
// ----------------------------------------------------------------------

const (
	// DefaultCurrency は priceCurrency 欠落時に補う通貨コードです。
	DefaultCurrency = "TRY"

	// metaDescriptionKey は、og: タグと同じマップに汎用の description メタタグを
	// 格納するための予約キーです。og: のタグ名と衝突しないよう接頭辞を付けています。
	metaDescriptionKey = "meta_description"
)

// Extractor は、Fetcher を使って商品ページから正規化済みレコードを構築します。
type Extractor struct {
	fetcher Fetcher
}

// NewExtractor は、新しいExtractorのインスタンスを生成します。
func NewExtractor(fetcher Fetcher) (*Extractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("product.NewExtractor: Fetcher cannot be nil")
	}
	return &Extractor{fetcher: fetcher}, nil
}

// FetchAndExtract は、商品ページを取得し、正規化済みのProductを構築します。
// 商品データが無い・必須フィールドが欠けているページは ErrNoProductData /
// ErrMissingRequiredField を返します。これらは「想定内の不在」であり、
// 呼び出し側ではそのページのスキップとして扱われます。
func (e *Extractor) FetchAndExtract(ctx context.Context, pageURL string) (*Product, error) {
	html, err := e.fetcher.FetchText(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("商品ページの取得に失敗しました (URL: %s): %w", pageURL, err)
	}
	return ExtractFromHTML(html, pageURL)
}

// ExtractFromHTML は、ページのHTMLとそのURLから正規化済みのProductを構築します。
func ExtractFromHTML(html, pageURL string) (*Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました (URL: %s): %w", pageURL, err)
	}

	jsonld := findProductDocument(doc)
	if jsonld == nil {
		return nil, ErrNoProductData
	}

	tags := extractMetaTags(doc)
	return buildProduct(jsonld, tags, pageURL)
}

// findProductDocument は、application/ld+json のスクリプトブロックを走査し、
// @type が "Product" である最初のドキュメントを返します。
// 個々のブロックの解析エラーはそのブロックのスキップに留め、ページ全体は中断しません。
func findProductDocument(doc *goquery.Document) *jsonldProduct {
	var found *jsonldProduct

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		p, ok := decodeProductBlock(s.Text())
		if !ok {
			return true // 次のブロックへ
		}
		found = p
		return false
	})

	return found
}

// decodeProductBlock は、1つのJSON-LDブロックをデコードします。
// 実サイトのブロックは文字列中の生の改行などで不正なJSONになっていることがあるため、
// 通常のデコードに失敗した場合は jsonrepair で修復してから一度だけ再試行します。
func decodeProductBlock(raw string) (*jsonldProduct, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	var p jsonldProduct
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return nil, false
		}
		p = jsonldProduct{}
		if err := json.Unmarshal([]byte(repaired), &p); err != nil {
			return nil, false
		}
	}

	if p.Type.String() != "Product" {
		return nil, false
	}
	return &p, true
}

// extractMetaTags は、og: タグと汎用の description メタタグをフォールバック用に収集します。
// キーは og: 接頭辞を除いたタグ名です。goqueryのHTMLパーサが属性値のエンティティを
// デコード済みで返すため、追加のアンエスケープは不要です。
func extractMetaTags(doc *goquery.Document) map[string]string {
	tags := make(map[string]string)

	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		key := strings.TrimPrefix(prop, "og:")
		if key != "" {
			tags[key] = s.AttrOr("content", "")
		}
	})

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		tags[metaDescriptionKey] = desc
	}

	return tags
}

// buildProduct は、JSON-LDドキュメントとメタタグのフォールバックから
// レコードをフィールド単位で組み立てます。各フィールドは一度だけ代入されます。
func buildProduct(jsonld *jsonldProduct, tags map[string]string, pageURL string) (*Product, error) {
	offers := jsonld.Offers.jsonldOffers

	currency := offers.PriceCurrency
	if currency == "" {
		currency = DefaultCurrency
	}

	price := ""
	if offers.Price.String() != "" {
		price = offers.Price.String() + " " + currency
	}

	id := firstNonEmpty(jsonld.SKU.String(), lastPathSegment(pageURL))
	id = ShortenID(id)

	description := firstNonEmpty(jsonld.Description.String(), tags[metaDescriptionKey])
	description = TruncateRunes(strings.TrimSpace(description), MaxDescriptionLength)

	p := &Product{
		ID:             id,
		Title:          firstNonEmpty(jsonld.Name.String(), tags["title"]),
		Description:    description,
		Link:           pageURL,
		ImageLink:      firstNonEmpty(jsonld.Image.String(), tags["image"]),
		Price:          price,
		Availability:   MapAvailability(offers.Availability),
		Condition:      MapCondition(offers.ItemCondition),
		Brand:          jsonld.Brand.Name,
		MPN:            jsonld.MPN.String(),
		GTIN:           firstNonEmpty(jsonld.GTIN13.String(), jsonld.GTIN.String()),
		Category:       jsonld.Category.String(),
		GoogleCategory: MapGoogleCategory(pageURL),
	}

	if p.Title == "" || p.Price == "" {
		return nil, ErrMissingRequiredField
	}
	return p, nil
}

// ----------------------------------------------------------------------
// ヘルパー関数
// ----------------------------------------------------------------------

// ShortenID は、50文字を超えるIDを「先頭41文字 + ハイフン + 元ID全体のMD5先頭8桁」の
// ちょうど50文字に短縮します。ハッシュは決定的で、同じ入力からは常に同じIDが得られ、
// 切り詰めによる衝突をほぼ防ぎます。50文字以下のIDはそのまま返します。
func ShortenID(id string) string {
	if utf8.RuneCountInString(id) <= MaxIDLength {
		return id
	}

	sum := md5.Sum([]byte(id))
	prefix := string([]rune(id)[:41])
	return prefix + "-" + hex.EncodeToString(sum[:])[:8]
}

// TruncateRunes は、文字列を最大max文字（バイトではなく文字数）に切り詰めます。
// 既にmax以下の文字列には何もしません（冪等）。
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// lastPathSegment は、末尾のスラッシュを取り除いた上で、URLパスの最後の区切り以降を返します。
func lastPathSegment(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// firstNonEmpty は、最初の非空文字列を返します。
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
