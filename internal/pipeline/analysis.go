package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mnakata/islandhop/internal/feasible"
	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/store"
)

// destinationData is the per-destination digest of route evidence
type destinationData struct {
	name      string
	durations []int // minutes
	fares     []int // yen
	times     []string
	transfers int
}

var (
	durationPattern = regexp.MustCompile(`(\d+)\s*分`)
	farePattern     = regexp.MustCompile(`(\d+)円`)
)

// digestEvidence groups structured route evidence by destination
func digestEvidence(req *model.TravelRequirement, evidence []model.Evidence) map[string]*destinationData {
	out := make(map[string]*destinationData)
	for _, dest := range req.DestinationOptions {
		out[store.NormalizeLocation(dest)] = &destinationData{name: store.NormalizeLocation(dest)}
	}

	for _, ev := range evidence {
		t := ev.Metadata["type"]
		if t != "route_schedule" && t != "price_info" {
			continue
		}
		dest := store.NormalizeLocation(ev.Metadata["destination"])
		data, ok := out[dest]
		if !ok {
			continue
		}
		if m := durationPattern.FindStringSubmatch(ev.Metadata["duration"]); m != nil {
			if mins, err := strconv.Atoi(m[1]); err == nil {
				data.durations = append(data.durations, mins)
			}
		}
		if m := farePattern.FindStringSubmatch(ev.Metadata["fare"]); m != nil {
			if yen, err := strconv.Atoi(m[1]); err == nil {
				data.fares = append(data.fares, yen)
			}
		}
		if dep := ev.Metadata["departure_time"]; dep != "" {
			data.times = append(data.times, dep)
		}
		// A leg that neither starts at the traveler's departure nor
		// ends at the destination implies a transfer.
		if t == "route_schedule" && req.Departure.Location != "" {
			legFrom := store.NormalizeLocation(ev.Metadata["departure"])
			travelerFrom := store.NormalizeLocation(req.Departure.Location)
			if legFrom != travelerFrom && !strings.Contains(travelerFrom, legFrom) {
				data.transfers = 1
			}
		}
	}
	return out
}

// convenienceScore rates one destination from total travel minutes,
// transfer count and expected wait. Scores land in [0,1].
func convenienceScore(totalMins, transfers, waitMins int) float64 {
	timePenalty := float64(totalMins) * 0.5
	if timePenalty > 50 {
		timePenalty = 50
	}
	waitPenalty := float64(waitMins) * 0.3
	if waitPenalty > 30 {
		waitPenalty = 30
	}
	score := (100 - timePenalty - float64(transfers)*15 - waitPenalty) / 100
	if score < 0 {
		score = 0
	}
	return score
}

// recommendationConfidence grows with the score gap between the top
// two options.
func recommendationConfidence(options []model.RecommendationOption) float64 {
	if len(options) < 2 {
		return 0.6
	}
	gap := options[0].Score - options[1].Score
	switch {
	case gap >= 0.3:
		return 0.9
	case gap >= 0.2:
		return 0.8
	case gap >= 0.1:
		return 0.7
	}
	return 0.6
}

func minOf(values []int) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}

// waitMinutes estimates the wait between the traveler's port arrival
// and the next departure in the digest.
func waitMinutes(board string, times []string) int {
	if board == "" || len(times) == 0 {
		return 0
	}
	sorted := append([]string(nil), times...)
	sort.Strings(sorted)
	for _, t := range sorted {
		if t >= board {
			return clockDiffMins(board, t)
		}
	}
	return 0
}

func clockDiffMins(from, to string) int {
	fh, fm := splitClock(from)
	th, tm := splitClock(to)
	diff := (th*60 + tm) - (fh*60 + fm)
	if diff < 0 {
		return 0
	}
	return diff
}

func splitClock(clock string) (int, int) {
	parts := strings.SplitN(clock, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m := 0
	if len(parts) == 2 {
		m, _ = strconv.Atoi(parts[1])
	}
	return h, m
}

// analyzeConvenience scores and ranks destinations by reachability
func analyzeConvenience(req *model.TravelRequirement, evidence []model.Evidence) *model.AnalysisResult {
	digest := digestEvidence(req, evidence)
	board := req.Departure.Time

	var options []model.RecommendationOption
	for _, dest := range req.DestinationOptions {
		data := digest[store.NormalizeLocation(dest)]
		if data == nil {
			continue
		}
		totalMins, ok := minOf(data.durations)
		if !ok {
			totalMins = 60 // Unknown duration scores pessimistically
		}
		wait := waitMinutes(board, data.times)
		score := convenienceScore(totalMins, data.transfers, wait)

		opt := model.RecommendationOption{
			Name:      store.NormalizeLocation(dest),
			Score:     score,
			TotalMins: totalMins,
			Transfers: data.transfers,
			WaitMins:  wait,
			Reason:    fmt.Sprintf("航程约%d分钟，中转%d次", totalMins, data.transfers),
		}
		if fare, ok := minOf(data.fares); ok {
			opt.Fare = fmt.Sprintf("%d円", fare)
		}
		options = append(options, opt)
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].Score > options[j].Score })

	result := &model.AnalysisResult{
		Category: model.CategoryConvenienceComparison,
		Options:  options,
	}
	if len(options) > 0 {
		result.Recommendation = options[0].Name
		result.Confidence = recommendationConfidence(options)
		result.Summary = fmt.Sprintf("%s最方便：%s", options[0].Name, options[0].Reason)
	} else {
		result.Confidence = 0.6
		result.Summary = "缺少可比较的班次数据"
	}
	return result
}

// analyzePrice ranks destinations by cheapest adult fare
func analyzePrice(req *model.TravelRequirement, evidence []model.Evidence) *model.AnalysisResult {
	digest := digestEvidence(req, evidence)

	var options []model.RecommendationOption
	for _, dest := range req.DestinationOptions {
		data := digest[store.NormalizeLocation(dest)]
		if data == nil {
			continue
		}
		fare, ok := minOf(data.fares)
		if !ok {
			continue
		}
		options = append(options, model.RecommendationOption{
			Name:   store.NormalizeLocation(dest),
			Score:  1 / (1 + float64(fare)/1000),
			Fare:   fmt.Sprintf("%d円", fare),
			Reason: fmt.Sprintf("最低成人票价%d円", fare),
		})
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].Score > options[j].Score })

	result := &model.AnalysisResult{
		Category: model.CategoryPriceComparison,
		Options:  options,
	}
	if len(options) > 0 {
		result.Recommendation = options[0].Name
		result.Confidence = recommendationConfidence(options)
		result.Summary = fmt.Sprintf("%s最便宜：%s", options[0].Name, options[0].Reason)
	} else {
		result.Confidence = 0.6
		result.Summary = "缺少票价数据"
	}
	return result
}

// analyzeRouting orders the destinations by earliest reachable
// departure for a simple visit order.
func analyzeRouting(req *model.TravelRequirement, evidence []model.Evidence) *model.AnalysisResult {
	digest := digestEvidence(req, evidence)

	type ordered struct {
		name     string
		earliest string
	}
	var order []ordered
	for _, dest := range req.DestinationOptions {
		data := digest[store.NormalizeLocation(dest)]
		earliest := "99:99"
		if data != nil && len(data.times) > 0 {
			sorted := append([]string(nil), data.times...)
			sort.Strings(sorted)
			earliest = sorted[0]
		}
		order = append(order, ordered{name: store.NormalizeLocation(dest), earliest: earliest})
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].earliest < order[j].earliest })

	var names []string
	var options []model.RecommendationOption
	for i, o := range order {
		names = append(names, o.name)
		opt := model.RecommendationOption{Name: o.name, Score: 1 - 0.1*float64(i)}
		if o.earliest != "99:99" {
			opt.Reason = fmt.Sprintf("最早班次%s", o.earliest)
		}
		options = append(options, opt)
	}

	result := &model.AnalysisResult{
		Category:   model.CategoryRoutePlanning,
		Options:    options,
		Confidence: 0.6,
	}
	if len(names) > 0 {
		result.Recommendation = names[0]
		result.Summary = fmt.Sprintf("建议游览顺序：%s", strings.Join(names, "→"))
		if len(options) >= 2 {
			result.Confidence = recommendationConfidence(options)
		}
	} else {
		result.Summary = "缺少可规划的目的地"
	}
	return result
}

// analyzeTimeQuery wraps the feasibility verdict
func analyzeTimeQuery(req *model.TravelRequirement, analysis *model.FeasibilityAnalysis) *model.AnalysisResult {
	result := &model.AnalysisResult{
		Category:    model.CategoryTimeQuery,
		Feasibility: analysis,
		Confidence:  0.6,
	}
	if analysis == nil {
		result.Summary = "未提供出发时间，无法判断班次可达性"
		return result
	}
	result.Summary = analysis.Summary
	if rec := feasible.Recommended(analysis); rec != "" {
		result.Recommendation = rec
		result.Confidence = 0.8
	}
	return result
}

func analyzeGeneral(evidence []model.Evidence) *model.AnalysisResult {
	result := &model.AnalysisResult{
		Category:   model.CategoryGeneralConsultation,
		Confidence: 0.6,
	}
	if len(evidence) == 0 {
		result.Summary = "暂无相关数据"
	} else {
		result.Summary = fmt.Sprintf("找到%d条相关信息", len(evidence))
	}
	return result
}
