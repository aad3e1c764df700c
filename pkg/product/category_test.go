package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shouni/go-merchant-feed/pkg/product"
)

func TestMapGoogleCategory(t *testing.T) {
	const base = "https://www.turkiyesolarmarket.com.tr/urunler/"

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"solar panel", base + "solar-panel-450w-half-cut", product.CategorySolarPanels},
		{"turkish panel spelling", base + "gunes-paneli-400w", product.CategorySolarPanels},
		{"case insensitive", base + "SOLAR-PANEL-450W", product.CategorySolarPanels},
		{"lithium battery", base + "lityum-pil-48v", product.CategoryBatteries},
		{"battery", base + "jenerator-batarya-12v", product.CategoryBatteries},
		{"energy storage", base + "enerji-depolama-sistemi", product.CategoryBatteries},
		{"ev charger", base + "ev-sarj-istasyonu-22kw", product.CategoryEVCharging},
		{"wattpilot", base + "fronius-wattpilot-go", product.CategoryEVCharging},
		{"charging cable", base + "sarj-kablosu-tip2", product.CategoryEVCharging},
		{"solar cable", base + "solar-kablo-6mm", product.CategoryCables},
		{"connector", base + "mc4-konnektor-cifti", product.CategoryCables},
		{"generic cable", base + "topraklama-kablo-16mm", product.CategoryCables},
		{"solar material", base + "solar-malzeme-seti", product.CategorySolarKits},
		{"fuse", base + "dc-sigorta-15a", product.CategorySolarKits},
		{"panel board", base + "ac-pano-kombinasyon", product.CategorySolarKits},
		{"default is inverter", base + "hibrit-inverter-5kw", product.CategoryPowerInverters},
		{"no match at all", base + "montaj-aparati", product.CategoryPowerInverters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, product.MapGoogleCategory(tt.url))
		})
	}
}

// TestMapGoogleCategory_Precedence は、ルールの評価順序を検証します。
// 複数のルールに一致するURLは、リストの上位のルールに分類されなければなりません。
func TestMapGoogleCategory_Precedence(t *testing.T) {
	const base = "https://www.turkiyesolarmarket.com.tr/urunler/"

	t.Run("solar-panel beats kablo", func(t *testing.T) {
		url := base + "solar-panel-baglanti-kablo-seti"
		assert.Equal(t, product.CategorySolarPanels, product.MapGoogleCategory(url))
	})

	t.Run("batarya beats sigorta", func(t *testing.T) {
		url := base + "batarya-sigorta-kiti"
		assert.Equal(t, product.CategoryBatteries, product.MapGoogleCategory(url))
	})

	t.Run("sarj-kablosu beats kablo", func(t *testing.T) {
		url := base + "tip2-sarj-kablosu-5m"
		assert.Equal(t, product.CategoryEVCharging, product.MapGoogleCategory(url))
	})
}
