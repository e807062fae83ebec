package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/store"
)

// gazetteer lists every place the fallback can recognize. Longer names
// match first so 高松机场 never decays into a bare 高松 hit.
var gazetteer = []string{
	"高松机场",
	"高松港",
	"小豆岛",
	"高松",
	"直岛",
	"丰岛",
	"犬岛",
	"宇野",
	"神户",
}

var (
	clockPattern     = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	qualifiedPattern = regexp.MustCompile(`(下午|晚上|早上|上午)(\d{1,2})点(\d{0,2})`)
	barePattern      = regexp.MustCompile(`(\d{1,2})点(\d{0,2})`)
)

var scheduleWords = []string{"班次", "时间表", "时刻表", "什么时候"}
var stillWords = []string{"还能", "能去", "可以"}
var priceWords = []string{"多少钱", "价格", "便宜"}

type placeHit struct {
	name  string
	start int
	end   int
}

// findPlaces scans the query for gazetteer names, longest-first, and
// drops any hit nested inside an earlier, longer hit.
func findPlaces(query string) []placeHit {
	var hits []placeHit
	for _, name := range gazetteer {
		from := 0
		for {
			idx := strings.Index(query[from:], name)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(name)
			covered := false
			for _, h := range hits {
				if start >= h.start && end <= h.end {
					covered = true
					break
				}
			}
			if !covered {
				hits = append(hits, placeHit{name: name, start: start, end: end})
			}
			from = end
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	return hits
}

// findTime extracts the first mentioned clock time as HH:MM. The
// qualified form runs before the bare 点 form so 下午3点 becomes 15:00
// instead of 03:00.
func findTime(query string) string {
	if m := clockPattern.FindStringSubmatch(query); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h < 30 && min < 60 {
			return fmt.Sprintf("%02d:%02d", h, min)
		}
	}

	if m := qualifiedPattern.FindStringSubmatch(query); m != nil {
		h, _ := strconv.Atoi(m[2])
		min := 0
		if m[3] != "" {
			min, _ = strconv.Atoi(m[3])
		}
		if (m[1] == "下午" || m[1] == "晚上") && h < 12 {
			h += 12
		}
		if h < 30 && min < 60 {
			return fmt.Sprintf("%02d:%02d", h, min)
		}
	}

	if m := barePattern.FindStringSubmatch(query); m != nil {
		h, _ := strconv.Atoi(m[1])
		min := 0
		if m[2] != "" {
			min, _ = strconv.Atoi(m[2])
		}
		if h < 30 && min < 60 {
			return fmt.Sprintf("%02d:%02d", h, min)
		}
	}

	return ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func isDeparturePlace(name string) bool {
	return strings.Contains(name, "机场") || strings.Contains(name, "港")
}

// fallbackExtract builds a requirement from keyword rules alone. It is
// the answer of last resort, so it never fails; at worst it returns a
// general consultation with low confidence.
func fallbackExtract(query string) *model.TravelRequirement {
	hits := findPlaces(query)
	timeStr := findTime(query)

	var departure model.Transport
	var destinations []string
	for _, h := range hits {
		if isDeparturePlace(h.name) && departure.Location == "" {
			departure.Location = h.name
			continue
		}
		dest := store.NormalizeLocation(h.name)
		dup := false
		for _, d := range destinations {
			if d == dest {
				dup = true
				break
			}
		}
		if !dup {
			destinations = append(destinations, dest)
		}
	}
	// A mentioned time is the traveler's arrival even when no departure
	// place was named; feasibility needs it either way.
	departure.Time = timeStr
	if departure.Location != "" {
		if strings.Contains(departure.Location, "机场") {
			departure.Mode = "飞机"
		} else {
			departure.Mode = "船运"
		}
	}

	category := classify(query, timeStr, destinations)

	confidence := 0.7
	if len(hits) == 0 {
		confidence = 0.6
	}

	req := &model.TravelRequirement{
		Category:           category,
		Departure:          departure,
		DestinationOptions: destinations,
		Constraints:        map[string]string{},
		Confidence:         confidence,
	}
	if timeStr != "" {
		req.Constraints["time"] = timeStr
	}

	switch category {
	case model.CategoryTimeQuery:
		req.Priority = "时间"
		req.AnalysisNeeded = []string{"feasibility"}
	case model.CategoryConvenienceComparison:
		req.Priority = "便利性"
		req.AnalysisNeeded = []string{"convenience"}
	case model.CategoryPriceComparison:
		req.Priority = "价格"
		req.AnalysisNeeded = []string{"price"}
	case model.CategoryRoutePlanning:
		req.Priority = "路线"
		req.AnalysisNeeded = []string{"routing"}
	}

	return req
}

// classify applies the keyword cascade in fixed order; the first
// matching rule wins.
func classify(query, timeStr string, destinations []string) model.RequirementCategory {
	switch {
	case containsAny(query, scheduleWords):
		return model.CategoryTimeQuery
	case timeStr != "" && containsAny(query, stillWords):
		return model.CategoryTimeQuery
	case timeStr != "" && len(destinations) >= 1:
		return model.CategoryTimeQuery
	case strings.Contains(query, "哪个方便"):
		return model.CategoryConvenienceComparison
	case containsAny(query, priceWords):
		return model.CategoryPriceComparison
	case len(destinations) >= 2 && timeStr == "":
		return model.CategoryRoutePlanning
	}
	return model.CategoryGeneralConsultation
}
