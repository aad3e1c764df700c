package feed

import (
	"sort"
	"strings"

	"github.com/shouni/go-merchant-feed/pkg/product"
)

// ----------------------------------------------------------------------
// 定数定義
// ----------------------------------------------------------------------

const (
	// チャネルのメタデータ (RSSの <channel> 直下に出力される)
	DefaultChannelTitle       = "Türkiye Solar Market - Ürün Kataloğu"
	DefaultChannelLink        = "https://www.turkiyesolarmarket.com.tr"
	DefaultChannelDescription = "Solar enerji ekipmanları - inverter, panel, pil, şarj cihazı"

	// MaxTitleLength はシリアライズ時のタイトル最大長（文字数）です。
	MaxTitleLength = 150

	// googleNamespace は Google Shopping 拡張の名前空間URIです。
	googleNamespace = "http://base.google.com/ns/1.0"
)

// xmlEscaper は、XMLの予約5文字のみをエスケープします。
// CDATAやパーセントエンコーディングは使用しません。encoding/xml の EscapeText は
// 改行・タブも文字参照に書き換えてしまい、テキストの往復が崩れるため使いません。
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// ----------------------------------------------------------------------
// Writer
// ----------------------------------------------------------------------

// Writer は、検証済みレコードの集合から RSS 2.0 + Google Shopping 名前空間の
// XMLドキュメントを組み立てます。
type Writer struct {
	channelTitle       string
	channelLink        string
	channelDescription string
}

// NewWriter は、既定のチャネルメタデータを持つWriterを生成します。
func NewWriter() *Writer {
	return &Writer{
		channelTitle:       DefaultChannelTitle,
		channelLink:        DefaultChannelLink,
		channelDescription: DefaultChannelDescription,
	}
}

// Generate は、フィード全体のXML文字列を生成します。
// レコードはタイトルの昇順（バイト単位の辞書順）でソートされます。これが出力における
// 唯一の順序保証です。入力スライスは変更しません。
func (w *Writer) Generate(products []product.Product) string {
	sorted := make([]product.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Title < sorted[j].Title
	})

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<rss version="2.0" xmlns:g="` + googleNamespace + `">` + "\n")
	sb.WriteString("  <channel>\n")
	sb.WriteString("    <title>" + escapeXML(w.channelTitle) + "</title>\n")
	sb.WriteString("    <link>" + escapeXML(w.channelLink) + "</link>\n")
	sb.WriteString("    <description>" + escapeXML(w.channelDescription) + "</description>\n")

	for i := range sorted {
		writeItem(&sb, &sorted[i])
	}

	sb.WriteString("  </channel>\n")
	sb.WriteString("</rss>")

	return sb.String()
}

// writeItem は、1レコード分の <item> ブロックを書き出します。
// タイトルと説明文は最終的な安全網としてここでも切り詰めます（冪等なため、
// 構築時に切り詰め済みでも結果は変わりません）。
func writeItem(sb *strings.Builder, p *product.Product) {
	sb.WriteString("    <item>\n")
	sb.WriteString("      <g:id>" + escapeXML(p.ID) + "</g:id>\n")
	sb.WriteString("      <g:title>" + escapeXML(product.TruncateRunes(p.Title, MaxTitleLength)) + "</g:title>\n")
	sb.WriteString("      <g:description>" + escapeXML(product.TruncateRunes(p.Description, product.MaxDescriptionLength)) + "</g:description>\n")
	sb.WriteString("      <g:link>" + escapeXML(p.Link) + "</g:link>\n")
	sb.WriteString("      <g:image_link>" + escapeXML(p.ImageLink) + "</g:image_link>\n")
	sb.WriteString("      <g:price>" + escapeXML(p.Price) + "</g:price>\n")
	sb.WriteString("      <g:availability>" + string(p.Availability) + "</g:availability>\n")
	sb.WriteString("      <g:condition>" + string(p.Condition) + "</g:condition>\n")

	// brand と mpn は任意フィールドのため、非空のときのみ出力する
	if p.Brand != "" {
		sb.WriteString("      <g:brand>" + escapeXML(p.Brand) + "</g:brand>\n")
	}
	if p.MPN != "" {
		sb.WriteString("      <g:mpn>" + escapeXML(p.MPN) + "</g:mpn>\n")
	}

	// 広告プラットフォームはGTINか「識別子なし」の明示のどちらかを要求する
	if p.GTIN != "" {
		sb.WriteString("      <g:gtin>" + escapeXML(p.GTIN) + "</g:gtin>\n")
	} else {
		sb.WriteString("      <g:identifier_exists>false</g:identifier_exists>\n")
	}

	sb.WriteString("      <g:google_product_category>" + escapeXML(p.GoogleCategory) + "</g:google_product_category>\n")
	sb.WriteString("    </item>\n")
}

// escapeXML は、XMLの予約5文字 (& < > " ') をエスケープします。
func escapeXML(text string) string {
	return xmlEscaper.Replace(text)
}
