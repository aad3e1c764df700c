package product

import "strings"

// Google Merchant Center のタクソノミーパス
const (
	CategorySolarPanels    = "Hardware > Power & Electrical Supplies > Solar Panels"
	CategoryBatteries      = "Hardware > Power & Electrical Supplies > Power Storage Batteries"
	CategoryEVCharging     = "Vehicles & Parts > Vehicle Parts & Accessories > Motor Vehicle Electronics > Motor Vehicle Charging"
	CategoryCables         = "Hardware > Power & Electrical Supplies > Electrical Wires & Cable"
	CategorySolarKits      = "Hardware > Power & Electrical Supplies > Solar Energy Kits"
	CategoryPowerInverters = "Hardware > Power & Electrical Supplies > Power Inverters"
)

// categoryRule は、URLの部分文字列パターン群と対応するカテゴリの組です。
type categoryRule struct {
	patterns []string
	category string
}

// categoryRules は上から順に評価されます。最初に一致したルールが勝ちます。
// 例えば "solar-panel" と "kablo" の両方を含むURLはソーラーパネルに分類されます。
// この優先順位を保つため、順序を持たない map ではなくスライスで定義しています。
var categoryRules = []categoryRule{
	{[]string{"solar-panel", "gunes-paneli"}, CategorySolarPanels},
	{[]string{"lityum-pil", "batarya", "reserva", "enerji-depolama"}, CategoryBatteries},
	{[]string{"sarj-cihazi", "wattpilot", "sarj-kablosu", "ev-sarj"}, CategoryEVCharging},
	{[]string{"solar-kablo", "konnektor", "kablo"}, CategoryCables},
	{[]string{"solar-malzeme", "pano", "sigorta"}, CategorySolarKits},
}

// MapGoogleCategory は、商品URLからGoogleの商品カテゴリを決定します。
// 判定は小文字化したURL全体への部分文字列マッチで、構造化データの内容には依存しません。
// どのルールにも一致しない場合はインバーターに分類されます（このサイトの主力商品）。
func MapGoogleCategory(url string) string {
	path := strings.ToLower(url)
	for _, rule := range categoryRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(path, pattern) {
				return rule.category
			}
		}
	}
	return CategoryPowerInverters
}
