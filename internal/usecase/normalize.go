package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"

	"github.com/sorashop/backend/internal/domain"
)

const (
	// nameDisplayLimit is the maximum product name length in runes
	nameDisplayLimit = 30
	// coarseUnit is the yen granularity selling prices are rounded to
	coarseUnit = 100
	// maxTags caps the tag set the model may return
	maxTags = 5

	systemPrompt = "あなたは日本のECサイト向けの商品情報最適化の専門家です。正確なJSON形式で応答してください。"
)

// defaultTags is substituted when the model returns no usable tags
var defaultTags = []string{"輸入品", "新着", "おすすめ"}

// categoryAliases maps every category spelling the model has been seen to
// produce onto the store's enum.
var categoryAliases = map[string]domain.Category{
	"personal":     domain.CategoryPersonal,
	"個人向け":         domain.CategoryPersonal,
	"smart-home":   domain.CategorySmartHome,
	"smarthome":    domain.CategorySmartHome,
	"smart home":   domain.CategorySmartHome,
	"スマートホーム":      domain.CategorySmartHome,
	"vehicle":      domain.CategoryVehicle,
	"車両・バイク":       domain.CategoryVehicle,
	"車両":           domain.CategoryVehicle,
	"車両・バイク用品":     domain.CategoryVehicle,
}

var fencedBlockRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// modelReply mirrors the completion reply schema. Every field is optional on
// the wire; repair() defaults anything missing or invalid immediately after
// decode so nothing stays "maybe present" past this boundary.
type modelReply struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Tags           []string          `json:"tags"`
	Price          float64           `json:"price"`
	Specifications map[string]string `json:"specifications"`
}

// ProductNormalizer turns a raw extraction into a store-ready draft via a
// structured-output completion call. It is the one pipeline stage allowed to
// fail outward: without generated copy there is nothing to show the admin.
type ProductNormalizer struct {
	client       domain.CompletionClient
	exchangeRate float64 // yen per dollar
}

// NewProductNormalizer creates a product normalizer
func NewProductNormalizer(client domain.CompletionClient, exchangeRate float64) *ProductNormalizer {
	return &ProductNormalizer{
		client:       client,
		exchangeRate: exchangeRate,
	}
}

// Normalize requests optimized Japanese product copy for the extraction and
// repairs whatever the model returns. marginPercent is the merchant markup
// applied on top of the source price.
func (n *ProductNormalizer) Normalize(ctx context.Context, extraction domain.RawExtraction, marginPercent float64) (domain.ProductDraft, error) {
	raw, err := n.client.Complete(ctx, systemPrompt, n.buildPrompt(extraction, marginPercent))
	if err != nil {
		return domain.ProductDraft{}, fmt.Errorf("%w: %v", domain.ErrNormalization, err)
	}

	reply, err := decodeReply(raw)
	if err != nil {
		log.Printf("[normalize] unparseable model reply for %s: %v", extraction.SourceURL, err)
		return domain.ProductDraft{}, fmt.Errorf("%w: unparseable reply: %s", domain.ErrNormalization, truncateRunes(raw, 200))
	}

	return n.repair(reply, extraction, marginPercent), nil
}

// buildPrompt renders the structured-output instruction for one extraction
func (n *ProductNormalizer) buildPrompt(ex domain.RawExtraction, margin float64) string {
	var specs strings.Builder
	for key, value := range ex.Specifications {
		fmt.Fprintf(&specs, "%s: %s\n", key, value)
	}

	return fmt.Sprintf(`あなたはECサイトの商品登録アシスタントです。以下の仕入れ元の商品情報を分析し、日本のECサイト用に最適化してください。

【元の商品情報】
商品名: %s
商品説明: %s
価格範囲: $%.2f - $%.2f
マージン率: %.0f%%
仕様:
%s
【出力形式】
以下のJSON形式で出力してください：

{
  "name": "日本語の商品名（30文字以内、魅力的に）",
  "description": "日本語の商品説明（100-200文字、SEO対策済み、ベネフィット重視）",
  "category": "個人向け、スマートホーム、車両・バイク のいずれか",
  "tags": ["タグ1", "タグ2", "タグ3"],
  "price": 販売価格（円、整数）,
  "specifications": {
    "主要スペック1": "値1",
    "主要スペック2": "値2"
  }
}

【価格計算ルール】
- 元の価格（ドル）を円に換算（1ドル=%.0f円）
- マージン率を適用: 販売価格 = 仕入れ価格 × (1 + マージン率/100)
- 最終価格は%d円単位で丸める

【注意事項】
- 商品名は日本人にとって魅力的で分かりやすく
- 商品説明はベネフィット（利点）を強調
- カテゴリは商品の特性から最適なものを選択
- タグはSEO対策とユーザー検索を考慮
`, ex.Title, ex.Description, ex.MinPrice, ex.MaxPrice, margin, specs.String(), n.exchangeRate, coarseUnit)
}

// repair validates and defaults every model field; the model is never
// trusted blindly and never authoritative for provenance data.
func (n *ProductNormalizer) repair(reply modelReply, ex domain.RawExtraction, margin float64) domain.ProductDraft {
	draft := domain.ProductDraft{
		Name:           strings.TrimSpace(reply.Name),
		Description:    strings.TrimSpace(reply.Description),
		Category:       coerceCategory(reply.Category),
		Tags:           reply.Tags,
		Specifications: reply.Specifications,
		SourceURL:      ex.SourceURL,
		SourcePrice:    ex.MinPrice,
		ImageURLs:      ex.Images,
	}

	if draft.Name == "" {
		draft.Name = truncateRunes(ex.Title, nameDisplayLimit)
	}
	if draft.Description == "" {
		draft.Description = ex.Description
	}
	if len(draft.Tags) == 0 {
		draft.Tags = append([]string(nil), defaultTags...)
	} else if len(draft.Tags) > maxTags {
		draft.Tags = draft.Tags[:maxTags]
	}
	if draft.Specifications == nil {
		draft.Specifications = ex.Specifications
	}
	if draft.ImageURLs == nil {
		draft.ImageURLs = []string{}
	}

	draft.Price = int(math.Round(reply.Price))
	if draft.Price <= 0 {
		draft.Price = n.computeSellingPrice(ex.MinPrice, margin)
	}
	if draft.Price <= 0 {
		// Source price was unrecoverable: floor at one coarse unit and flag
		// the draft so the admin sets the real price by hand.
		draft.Price = coarseUnit
		draft.ManualPriceRequired = true
		log.Printf("[normalize] no recoverable price for %s, flagging manual price entry", ex.SourceURL)
	}

	return draft
}

// computeSellingPrice applies the deterministic formula the model is also
// instructed to use: dollars to yen, markup, coarse rounding.
func (n *ProductNormalizer) computeSellingPrice(minPriceUSD, marginPercent float64) int {
	raw := minPriceUSD * n.exchangeRate * (1 + marginPercent/100)
	if raw <= 0 {
		return 0
	}
	rounded := int(math.Round(raw/coarseUnit)) * coarseUnit
	if rounded < coarseUnit {
		rounded = coarseUnit
	}
	return rounded
}

// decodeReply parses the model reply, recovering a JSON object embedded in
// fenced blocks or surrounding prose before giving up.
func decodeReply(raw string) (modelReply, error) {
	var reply modelReply
	if err := json.Unmarshal([]byte(raw), &reply); err == nil {
		return reply, nil
	}

	candidate := extractJSONObject(raw)
	if candidate == "" {
		return reply, fmt.Errorf("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(candidate), &reply); err != nil {
		return reply, fmt.Errorf("embedded JSON object invalid: %v", err)
	}
	return reply, nil
}

// extractJSONObject returns the outermost {...} span of raw, unwrapping a
// fenced code block first when present.
func extractJSONObject(raw string) string {
	if m := fencedBlockRegex.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// coerceCategory maps any category spelling to the enum, defaulting to
// personal for anything unrecognized.
func coerceCategory(raw string) domain.Category {
	key := strings.ToLower(strings.TrimSpace(raw))
	if category, ok := categoryAliases[key]; ok {
		return category
	}
	return domain.CategoryPersonal
}

// truncateRunes shortens s to at most limit runes
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
