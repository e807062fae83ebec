package verify

import (
	"regexp"
	"strings"

	"github.com/mnakata/islandhop/internal/model"
)

// Pattern families for atomic claims in generated prose. Matching is
// deliberately liberal; the support scoring step does the filtering.
// knownPlaces bounds route-claim endpoints. Chinese prose has no word
// boundaries, so an open-ended pattern would swallow trailing text.
const knownPlaces = `高松机场|高松港|高松|直岛|直島|丰岛|豊島|小豆岛|小豆島|犬岛|犬島|宇野|神户|神戸|宫浦港|家浦港|土庄港`

var (
	timeClaimPattern     = regexp.MustCompile(`\d{1,2}:\d{2}`)
	priceClaimPattern    = regexp.MustCompile(`\d+円`)
	operatorClaimPattern = regexp.MustCompile(`[\p{Han}ぁ-んァ-ヶー]{1,8}(?:汽船|フェリー|商船|海運|海运)`)
	routeClaimPattern    = regexp.MustCompile(`(` + knownPlaces + `)(?:到|→)(` + knownPlaces + `)`)
	portClaimPattern     = regexp.MustCompile(`[\p{Han}]{1,5}港`)
)

// Fabrication patterns: over-specific details a model invents when it
// has no schedule to cite.
var (
	calendarDatePattern  = regexp.MustCompile(`(?:\d{4}年)?\d{1,2}月\d{1,2}日`)
	approxMinutePattern  = regexp.MustCompile(`大约\d+分钟`)
	estimatedHourPattern = regexp.MustCompile(`预计\d{1,2}点`)
)

// extractClaims pulls typed claims out of prose, deduplicated on
// (type, value) with first-mention order preserved.
func extractClaims(prose string) []model.Claim {
	var claims []model.Claim
	seen := make(map[string]bool)
	add := func(t model.ClaimType, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		key := string(t) + ":" + value
		if seen[key] {
			return
		}
		seen[key] = true
		claims = append(claims, model.Claim{Type: t, Value: value, Context: snippet(prose, value)})
	}

	for _, m := range timeClaimPattern.FindAllString(prose, -1) {
		add(model.ClaimTime, m)
	}
	for _, m := range priceClaimPattern.FindAllString(prose, -1) {
		add(model.ClaimPrice, m)
	}
	for _, m := range operatorClaimPattern.FindAllString(prose, -1) {
		// The suffix family match can swallow leading particles.
		add(model.ClaimOperator, strings.TrimLeft(m, particleCutset))
	}
	for _, m := range routeClaimPattern.FindAllStringSubmatch(prose, -1) {
		add(model.ClaimRoute, m[1]+"→"+m[2])
	}
	for _, m := range portClaimPattern.FindAllString(prose, -1) {
		add(model.ClaimPort, strings.TrimLeft(m, particleCutset))
	}
	return claims
}

// particleCutset strips function words the suffix patterns pick up
// from unsegmented prose.
const particleCutset = "的由从在是乘坐搭到达去和与往经抵"

// snippet returns a short window of prose around the first occurrence
// of value, for the Claim's diagnostic context.
func snippet(prose, value string) string {
	idx := strings.Index(prose, value)
	if idx < 0 {
		// Route claims rewrite 到 as →; context is best-effort.
		return ""
	}
	runes := []rune(prose[:idx])
	start := len(runes) - 10
	if start < 0 {
		start = 0
	}
	before := string(runes[start:])

	after := prose[idx+len(value):]
	afterRunes := []rune(after)
	if len(afterRunes) > 10 {
		afterRunes = afterRunes[:10]
	}
	return before + value + string(afterRunes)
}

// findFabrications returns over-specific phrases that appear in prose
// but in none of the evidence items.
func findFabrications(prose string, evidence []model.Evidence) []string {
	var suspicious []string
	seen := make(map[string]bool)

	for _, pattern := range []*regexp.Regexp{calendarDatePattern, approxMinutePattern, estimatedHourPattern} {
		for _, m := range pattern.FindAllString(prose, -1) {
			if seen[m] {
				continue
			}
			seen[m] = true
			supported := false
			for _, ev := range evidence {
				if strings.Contains(ev.Content, m) {
					supported = true
					break
				}
			}
			if !supported {
				suspicious = append(suspicious, m)
			}
		}
	}
	return suspicious
}
