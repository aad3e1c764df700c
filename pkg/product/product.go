package product

// Availability は、広告プラットフォームが受け付ける在庫状態の列挙値です。
type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityPreorder   Availability = "preorder"
)

// Condition は、広告プラットフォームが受け付ける商品状態の列挙値です。
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
)

const (
	// MaxIDLength は商品IDの最大長です。これを超えるIDはハッシュ付きで短縮されます。
	MaxIDLength = 50

	// MaxDescriptionLength は説明文の最大長（文字数）です。
	// 構築時とシリアライズ時の両方で適用され、二重適用しても結果は変わりません。
	MaxDescriptionLength = 5000
)

// Product は、1つの商品ページから構築される正規化済みレコードです。
// Extractor 内で一度だけ構築され、以降は変更されません。
// Title / Link / Price / ID / GoogleCategory はシリアライザに到達する時点で必ず非空です。
type Product struct {
	ID             string       // SKU由来、無ければURL末尾のスラッグ由来。常に50文字以下
	Title          string       // 必須。シリアライズ時に150文字へ切り詰め
	Description    string       // 任意。5000文字へ切り詰め
	Link           string       // 商品ページの正規URL。必須
	ImageLink      string       // 任意
	Price          string       // "<金額> <通貨コード>" 形式。必須
	Availability   Availability // 未知・欠落時は in_stock
	Condition      Condition    // 未知・欠落時は new
	Brand          string       // 任意
	MPN            string       // 任意（メーカー型番）
	GTIN           string       // 任意。欠落は出力側で identifier_exists=false として明示される
	Category       string       // 任意。サイト側の分類で、出力の分類には使用しない
	GoogleCategory string       // 必須。URLから決定される6種の固定タクソノミーパスのいずれか
}
