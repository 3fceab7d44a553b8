package usecase

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sorashop/backend/internal/domain"
)

const (
	maxImages    = 5
	maxSpecs     = 20
	maxSpecKey   = 50
	maxSpecValue = 200
	minTitleLen  = 5
)

// defaultSpecKeyAliases maps Chinese marketplace specification keys to their
// Japanese display form. Held as data so localization never touches
// extraction control flow.
var defaultSpecKeyAliases = map[string]string{
	"颜色": "カラー",
	"材质": "素材",
	"尺寸": "サイズ",
	"重量": "重量",
	"品牌": "ブランド",
	"型号": "型番",
	"电压": "電圧",
	"功率": "消費電力",
	"容量": "容量",
	"产地": "原産地",
}

var (
	// marketplace title suffixes like " - Alibaba.com"
	titleSuffixRegex = regexp.MustCompile(`(?i)\s*[-|｜]\s*(alibaba\.com|aliexpress(\.com)?|1688\.com|アリババ).*$`)
	// "key: value" lines in reduced text, ASCII or full-width colon
	specLineRegex = regexp.MustCompile(`^([^:：]+)[:：]\s*(.+)$`)
	// structured-data title fields embedded in page scripts
	jsonTitleRegex = regexp.MustCompile(`"(?:title|subject)"\s*:\s*"([^"]{3,})"`)
	// candidate image URLs anywhere in the markup
	imageURLRegex = regexp.MustCompile(`https://[^"'\s\\)]+?\.(?:jpg|jpeg|png|webp)`)
)

// markupTitleMatcher recovers one title candidate from parsed markup.
// Matchers run in order until one yields a plausible title.
type markupTitleMatcher func(doc *goquery.Document, raw string) string

// FieldExtractor recovers structured product fields from fetched content
// using format-specific heuristics. It never fails: fields it cannot recover
// stay empty for the assembler to fill in.
type FieldExtractor struct {
	keyAliases    map[string]string
	cdnHosts      []string
	excludeHints  []string
	titleMatchers []markupTitleMatcher
}

// NewFieldExtractor creates an extractor with the marketplace defaults
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{
		keyAliases:   defaultSpecKeyAliases,
		cdnHosts:     []string{"img.alibaba.com", "ae01.alicdn.com"},
		excludeHints: []string{"logo", "icon", "avatar", "sprite"},
		titleMatchers: []markupTitleMatcher{
			matchHeadingTitle,
			matchPageTitle,
			matchOGTitle,
			matchStructuredTitle,
		},
	}
}

// Extract applies the heuristics for the given content format. The returned
// extraction may have empty fields but never nil collections.
func (e *FieldExtractor) Extract(content string, format domain.ContentFormat) domain.RawExtraction {
	switch format {
	case domain.FormatReducedText:
		return e.extractFromText(content)
	case domain.FormatRawMarkup:
		return e.extractFromMarkup(content)
	default:
		return emptyExtraction()
	}
}

// extractFromText handles reader-service output: first non-blank line is the
// title, "key: value" lines become specifications, and the description is
// synthesized from the leading specification entries.
func (e *FieldExtractor) extractFromText(content string) domain.RawExtraction {
	out := emptyExtraction()

	lines := strings.Split(content, "\n")
	var specOrder []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if out.Title == "" {
			out.Title = cleanTitle(line)
			continue
		}

		if len(out.Specifications) >= maxSpecs {
			continue
		}
		m := specLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		if !plausibleSpec(key, value) {
			continue
		}
		key = e.aliasSpecKey(key)
		if _, seen := out.Specifications[key]; seen {
			continue
		}
		out.Specifications[key] = value
		specOrder = append(specOrder, key)
	}

	// Reduced text rarely carries a standalone description; synthesize one
	// from the first few specification entries.
	if len(specOrder) > 0 {
		parts := make([]string, 0, 3)
		for _, key := range specOrder {
			if len(parts) == 3 {
				break
			}
			parts = append(parts, key+": "+out.Specifications[key])
		}
		out.Description = strings.Join(parts, " / ")
	} else {
		out.Description = out.Title
	}

	return out
}

// extractFromMarkup handles directly-fetched HTML: title pattern cascade,
// meta description, two-column spec tables, and CDN-hosted image URLs.
func (e *FieldExtractor) extractFromMarkup(content string) domain.RawExtraction {
	out := emptyExtraction()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		// Unparseable markup still allows regex-based recovery below.
		doc = nil
	}

	if doc != nil {
		for _, matcher := range e.titleMatchers {
			candidate := cleanTitle(matcher(doc, content))
			if utf8.RuneCountInString(candidate) > minTitleLen {
				out.Title = candidate
				break
			}
		}
	} else if candidate := cleanTitle(matchStructuredTitle(nil, content)); utf8.RuneCountInString(candidate) > minTitleLen {
		out.Title = candidate
	}

	if doc != nil {
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			out.Description = strings.TrimSpace(html.UnescapeString(desc))
		}
		e.extractSpecTable(doc, &out)
	}

	out.Images = e.extractImages(content)

	return out
}

// extractSpecTable pulls key/value pairs out of two-column table rows
func (e *FieldExtractor) extractSpecTable(doc *goquery.Document, out *domain.RawExtraction) {
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		if cells.Length() != 2 {
			return true
		}
		key := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if !plausibleSpec(key, value) {
			return true
		}
		key = e.aliasSpecKey(key)
		if _, seen := out.Specifications[key]; !seen {
			out.Specifications[key] = value
		}
		return len(out.Specifications) < maxSpecs
	})
}

// extractImages collects plausible product-image URLs from the raw markup:
// CDN-hosted, not an obvious site asset, first-seen order, capped.
func (e *FieldExtractor) extractImages(content string) []string {
	images := make([]string, 0, maxImages)
	seen := make(map[string]bool)

	for _, candidate := range imageURLRegex.FindAllString(content, -1) {
		if len(images) == maxImages {
			break
		}
		if seen[candidate] || !e.onCDN(candidate) || e.looksLikeAsset(candidate) {
			continue
		}
		seen[candidate] = true
		images = append(images, candidate)
	}

	return images
}

func (e *FieldExtractor) onCDN(url string) bool {
	for _, host := range e.cdnHosts {
		if strings.Contains(url, host) {
			return true
		}
	}
	return false
}

func (e *FieldExtractor) looksLikeAsset(url string) bool {
	lower := strings.ToLower(url)
	for _, hint := range e.excludeHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func (e *FieldExtractor) aliasSpecKey(key string) string {
	if ja, ok := e.keyAliases[key]; ok {
		return ja
	}
	return key
}

func matchHeadingTitle(doc *goquery.Document, _ string) string {
	return doc.Find("h1").First().Text()
}

func matchPageTitle(doc *goquery.Document, _ string) string {
	return doc.Find("title").First().Text()
}

func matchOGTitle(doc *goquery.Document, _ string) string {
	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	return title
}

func matchStructuredTitle(_ *goquery.Document, raw string) string {
	if m := jsonTitleRegex.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// cleanTitle decodes entities and strips known marketplace suffixes
func cleanTitle(title string) string {
	title = html.UnescapeString(title)
	title = titleSuffixRegex.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// plausibleSpec rejects empty or implausibly long key/value pairs. A value
// starting with "//" is the remainder of a URL split at its scheme colon,
// not a specification.
func plausibleSpec(key, value string) bool {
	if key == "" || value == "" {
		return false
	}
	if strings.HasPrefix(value, "//") {
		return false
	}
	return utf8.RuneCountInString(key) <= maxSpecKey && utf8.RuneCountInString(value) <= maxSpecValue
}

func emptyExtraction() domain.RawExtraction {
	return domain.RawExtraction{
		Images:         []string{},
		Specifications: map[string]string{},
	}
}
