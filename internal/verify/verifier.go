package verify

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/model"
)

// Result fact prefixes, used to group results when scoring quality
const (
	factSource       = "source"
	factCompleteness = "completeness"
	factTimeliness   = "timeliness"
	factFabrication  = "fabrication"
)

// requiredFields lists metadata keys each evidence subtype must carry.
// Missing required fields cost 0.3, missing optional fields 0.1.
var requiredFields = map[string][]string{
	"route_schedule": {"departure", "destination", "departure_time"},
	"price_info":     {"fare"},
	"port_info":      {"port_name"},
}

var optionalFields = map[string][]string{
	"route_schedule": {"arrival_time", "duration", "fare", "company"},
	"price_info":     {"departure", "destination", "company"},
	"port_info":      {"island"},
}

// Verifier checks evidence quality and generated prose against the
// evidence corpus. Neither mode fails; empty input yields empty output.
type Verifier struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewVerifier creates a verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{logger: logger, now: time.Now}
}

// VerifyEvidence runs the three independent completeness checks over
// each evidence item: source trust, field completeness, timeliness.
func (v *Verifier) VerifyEvidence(evidence []model.Evidence) []model.VerificationResult {
	var results []model.VerificationResult
	for i, ev := range evidence {
		results = append(results,
			v.sourceTrust(i, ev),
			v.fieldCompleteness(i, ev),
			v.timeliness(i, ev),
		)
	}
	return results
}

func (v *Verifier) sourceTrust(idx int, ev model.Evidence) model.VerificationResult {
	var confidence float64
	var status model.VerificationStatus
	var details string

	switch {
	case ev.Source.Structured():
		confidence = 0.95
		status = model.StatusVerified
		details = "结构化数据源"
	case ev.Source == model.SourceVector:
		if ev.Relevance > 0.7 {
			confidence = 0.8
		} else {
			confidence = 0.6
		}
		if confidence > 0.7 {
			status = model.StatusVerified
		} else {
			status = model.StatusUnverified
		}
		details = "语义检索数据源"
	default:
		confidence = 0.5
		status = model.StatusUnverified
		details = fmt.Sprintf("未知数据源 %q", ev.Source)
	}

	return model.VerificationResult{
		Fact:       fmt.Sprintf("%s:%d:%s", factSource, idx, ev.Source),
		Status:     status,
		Supporting: []model.Evidence{ev},
		Confidence: confidence,
		Details:    details,
	}
}

func (v *Verifier) fieldCompleteness(idx int, ev model.Evidence) model.VerificationResult {
	subtype := ev.Metadata["type"]
	score := 1.0
	var missing []string

	for _, field := range requiredFields[subtype] {
		if ev.Metadata[field] == "" {
			score -= 0.3
			missing = append(missing, field)
		}
	}
	for _, field := range optionalFields[subtype] {
		if ev.Metadata[field] == "" {
			score -= 0.1
			missing = append(missing, field+"(可选)")
		}
	}
	if utf8.RuneCountInString(ev.Content) < 10 {
		score -= 0.2
		missing = append(missing, "内容过短")
	}
	if score < 0 {
		score = 0
	}

	var status model.VerificationStatus
	var details string
	switch {
	case score >= 0.8:
		status = model.StatusVerified
		details = "字段完整"
	case score >= 0.6:
		status = model.StatusVerified
		details = "字段基本完整"
	case score >= 0.4:
		status = model.StatusUnverified
		details = "字段缺失较多"
	default:
		status = model.StatusInsufficient
		details = "字段严重缺失"
	}
	if len(missing) > 0 {
		details += "：" + strings.Join(missing, "、")
	}

	return model.VerificationResult{
		Fact:       fmt.Sprintf("%s:%d:%s", factCompleteness, idx, subtype),
		Status:     status,
		Supporting: []model.Evidence{ev},
		Confidence: score,
		Details:    details,
	}
}

func (v *Verifier) timeliness(idx int, ev model.Evidence) model.VerificationResult {
	age := v.now().Sub(ev.RetrievedAt)

	var confidence float64
	status := model.StatusVerified
	switch {
	case age < 5*time.Minute:
		confidence = 0.95
	case age < time.Hour:
		confidence = 0.9
	case age < 24*time.Hour:
		confidence = 0.8
	default:
		confidence = 0.6
		status = model.StatusUnverified
	}

	return model.VerificationResult{
		Fact:       fmt.Sprintf("%s:%d", factTimeliness, idx),
		Status:     status,
		Supporting: []model.Evidence{ev},
		Confidence: confidence,
		Details:    fmt.Sprintf("数据年龄 %s", age.Round(time.Second)),
	}
}

// VerifyResponse extracts typed claims from generated prose and scores
// each against the evidence corpus, plus a fabrication sweep for
// over-specific phrases with no evidence at all.
func (v *Verifier) VerifyResponse(prose string, evidence []model.Evidence) []model.VerificationResult {
	var results []model.VerificationResult

	for _, claim := range extractClaims(prose) {
		results = append(results, v.checkClaim(claim, evidence))
	}

	if fabricated := findFabrications(prose, evidence); len(fabricated) > 0 {
		results = append(results, model.VerificationResult{
			Fact:       factFabrication,
			Status:     model.StatusConflicting,
			Confidence: 0.2,
			Details:    "疑似编造的具体信息：" + strings.Join(fabricated, "、"),
		})
	}
	return results
}

// checkClaim averages the claim's support over all evidence items with
// support above the noise floor of 0.3.
func (v *Verifier) checkClaim(claim model.Claim, evidence []model.Evidence) model.VerificationResult {
	var supporting []model.Evidence
	var total float64
	var count int

	for _, ev := range evidence {
		support := supportScore(claim, ev)
		if support > 0.3 {
			supporting = append(supporting, ev)
			total += support
			count++
		}
	}

	result := model.VerificationResult{
		Fact:       fmt.Sprintf("%s:%s", claim.Type, claim.Value),
		Supporting: supporting,
		Status:     model.StatusUnverified,
	}
	if count == 0 {
		result.Confidence = 0
		result.Details = "没有证据支持该信息"
		return result
	}

	avg := total / float64(count)
	result.Confidence = avg
	required := claim.Type.RequiredConfidence()
	if avg >= required {
		result.Status = model.StatusVerified
		result.Details = fmt.Sprintf("%d条证据支持，平均支持度%.2f", count, avg)
	} else {
		result.Details = fmt.Sprintf("支持度%.2f低于阈值%.2f", avg, required)
	}
	return result
}

// supportScore rates one evidence item's support for one claim.
// Structured sources are boosted 1.1x (capped at 1.0); vector sources
// are scaled by their own relevance.
func supportScore(claim model.Claim, ev model.Evidence) float64 {
	score := rawSupport(claim, ev.Content)
	if score == 0 {
		return 0
	}

	if ev.Source.Structured() {
		score *= 1.1
		if score > 1 {
			score = 1
		}
	} else if ev.Source == model.SourceVector {
		score *= ev.Relevance
	}
	return score
}

func rawSupport(claim model.Claim, content string) float64 {
	switch claim.Type {
	case model.ClaimTime:
		if strings.Contains(content, claim.Value) {
			return 0.9
		}
		// Hour-level agreement is partial support.
		if hour, _, ok := strings.Cut(claim.Value, ":"); ok && strings.Contains(content, hour+":") {
			return 0.5
		}
	case model.ClaimPrice:
		if strings.Contains(content, claim.Value) {
			return 0.95
		}
		if digits := strings.TrimSuffix(claim.Value, "円"); digits != "" && strings.Contains(content, digits) {
			return 0.6
		}
	case model.ClaimOperator:
		if strings.Contains(content, claim.Value) {
			return 0.9
		}
	case model.ClaimRoute:
		from, to, ok := strings.Cut(claim.Value, "→")
		if !ok {
			return 0
		}
		hasFrom := strings.Contains(content, from)
		hasTo := strings.Contains(content, to)
		switch {
		case hasFrom && hasTo:
			return 0.9
		case hasFrom || hasTo:
			return 0.5
		}
	case model.ClaimPort:
		if strings.Contains(content, claim.Value) {
			return 0.9
		}
	}
	return 0
}

// Accuracy is the verified share of all results. This is the only way
// an accuracy number is produced anywhere in the pipeline.
func Accuracy(results []model.VerificationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	verified := 0
	for _, r := range results {
		if r.Status == model.StatusVerified {
			verified++
		}
	}
	return float64(verified) / float64(len(results))
}

// Quality aggregates verification results into a data-quality summary.
// The score blends source reliability, completeness and timeliness at
// 0.4/0.4/0.2.
func Quality(results []model.VerificationResult) model.DataQuality {
	if len(results) == 0 {
		return model.DataQuality{Label: "no data"}
	}

	avgFor := func(prefix string) float64 {
		var total float64
		var count int
		for _, r := range results {
			if strings.HasPrefix(r.Fact, prefix+":") {
				total += r.Confidence
				count++
			}
		}
		if count == 0 {
			return 0
		}
		return total / float64(count)
	}

	q := model.DataQuality{
		SourceReliability: avgFor(factSource),
		Completeness:      avgFor(factCompleteness),
		Timeliness:        avgFor(factTimeliness),
		TotalCount:        len(results),
	}
	for _, r := range results {
		if r.Status == model.StatusVerified {
			q.VerifiedCount++
		}
	}
	q.Score = 0.4*q.SourceReliability + 0.4*q.Completeness + 0.2*q.Timeliness

	switch {
	case q.Score >= 0.8:
		q.Label = "excellent"
	case q.Score >= 0.6:
		q.Label = "good"
	case q.Score >= 0.4:
		q.Label = "fair"
	default:
		q.Label = "insufficient"
	}
	return q
}
