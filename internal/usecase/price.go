package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// Price patterns found on marketplace pages, most specific first. Extraction
// normalizes into US dollars; yuan-quoted prices are converted with a fixed
// rate. Each matcher is independent so individual patterns stay unit-testable.
var (
	usdRangeRegex  = regexp.MustCompile(`(?i)US\s*\$\s*(\d+(?:\.\d+)?)\s*-\s*US\s*\$\s*(\d+(?:\.\d+)?)`)
	bareRangeRegex = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)\s*-\s*\$\s*(\d+(?:\.\d+)?)`)
	yuanRangeRegex = regexp.MustCompile(`[¥￥]\s*([\d,]+(?:\.\d+)?)(?:\s*-\s*[¥￥]?\s*([\d,]+(?:\.\d+)?))?`)
	usdSingleRegex = regexp.MustCompile(`(?i)(?:US\s*)?\$\s*(\d+(?:\.\d+)?)`)
)

// priceMatch is one recovered price range, before currency normalization
type priceMatch struct {
	min, max float64
	yuan     bool // quoted in yuan, needs conversion to dollars
}

// priceMatcher inspects content for one price shape
type priceMatcher func(content string) (priceMatch, bool)

// PriceNormalizer recovers a dollar price range from page content
type PriceNormalizer struct {
	yuanRate float64
	matchers []priceMatcher
}

// NewPriceNormalizer creates a price normalizer. yuanRate is the number of
// dollars per yuan.
func NewPriceNormalizer(yuanRate float64) *PriceNormalizer {
	return &PriceNormalizer{
		yuanRate: yuanRate,
		matchers: []priceMatcher{
			matchUSDRange,
			matchBareRange,
			matchYuanRange,
			matchUSDSingle,
		},
	}
}

// ExtractPrice returns the first price range any pattern recovers from
// content, in dollars. (0, 0) means no parseable price was found; that is a
// valid unknown, not an error.
func (p *PriceNormalizer) ExtractPrice(content string) (float64, float64) {
	for _, matcher := range p.matchers {
		match, ok := matcher(content)
		if !ok {
			continue
		}
		if match.yuan {
			match.min *= p.yuanRate
			match.max *= p.yuanRate
		}
		if match.max < match.min {
			match.max = match.min
		}
		return match.min, match.max
	}
	return 0, 0
}

// matchUSDRange matches an explicit two-currency range like "US $12.50 - US $18.00"
func matchUSDRange(content string) (priceMatch, bool) {
	m := usdRangeRegex.FindStringSubmatch(content)
	if m == nil {
		return priceMatch{}, false
	}
	min, err1 := strconv.ParseFloat(m[1], 64)
	max, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return priceMatch{}, false
	}
	return priceMatch{min: min, max: max}, true
}

// matchBareRange matches a bare-symbol range like "$12 - $18"
func matchBareRange(content string) (priceMatch, bool) {
	m := bareRangeRegex.FindStringSubmatch(content)
	if m == nil {
		return priceMatch{}, false
	}
	min, err1 := strconv.ParseFloat(m[1], 64)
	max, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return priceMatch{}, false
	}
	return priceMatch{min: min, max: max}, true
}

// matchYuanRange matches yuan-quoted prices like "¥35.00-¥48.00" or "¥1,280"
func matchYuanRange(content string) (priceMatch, bool) {
	m := yuanRangeRegex.FindStringSubmatch(content)
	if m == nil {
		return priceMatch{}, false
	}
	min, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return priceMatch{}, false
	}
	max := min
	if m[2] != "" {
		max, err = strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			return priceMatch{}, false
		}
	}
	return priceMatch{min: min, max: max, yuan: true}, true
}

// matchUSDSingle matches a lone amount like "US $12" or "$12.99",
// treated as both min and max
func matchUSDSingle(content string) (priceMatch, bool) {
	m := usdSingleRegex.FindStringSubmatch(content)
	if m == nil {
		return priceMatch{}, false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return priceMatch{}, false
	}
	return priceMatch{min: amount, max: amount}, true
}
