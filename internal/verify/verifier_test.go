package verify

import (
	"strings"
	"testing"
	"time"

	"github.com/mnakata/islandhop/internal/model"
)

func structuredEvidence(content string, metadata map[string]string) model.Evidence {
	return model.Evidence{
		Source:      model.SourceStructuredRoute,
		Content:     content,
		Metadata:    metadata,
		Relevance:   0.9,
		RetrievedAt: time.Now(),
	}
}

func TestVerifyEvidenceThreeChecksPerItem(t *testing.T) {
	v := NewVerifier(nil)
	evidence := []model.Evidence{
		structuredEvidence("高松到直岛的船班：08:12出发", map[string]string{
			"type": "route_schedule", "departure": "高松", "destination": "直岛", "departure_time": "08:12",
		}),
	}

	results := v.VerifyEvidence(evidence)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 per evidence item", len(results))
	}
	for _, r := range results {
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Errorf("confidence %v out of [0,1] for %s", r.Confidence, r.Fact)
		}
	}
}

func TestSourceTrustStructured(t *testing.T) {
	v := NewVerifier(nil)
	r := v.sourceTrust(0, structuredEvidence("x", nil))
	if r.Confidence != 0.95 || r.Status != model.StatusVerified {
		t.Errorf("structured source: confidence %v status %s, want 0.95 verified", r.Confidence, r.Status)
	}
}

func TestSourceTrustVector(t *testing.T) {
	v := NewVerifier(nil)

	high := v.sourceTrust(0, model.Evidence{Source: model.SourceVector, Relevance: 0.8})
	if high.Confidence != 0.8 || high.Status != model.StatusVerified {
		t.Errorf("high-relevance vector: %v/%s, want 0.8 verified", high.Confidence, high.Status)
	}

	low := v.sourceTrust(0, model.Evidence{Source: model.SourceVector, Relevance: 0.5})
	if low.Confidence != 0.6 || low.Status != model.StatusUnverified {
		t.Errorf("low-relevance vector: %v/%s, want 0.6 unverified", low.Confidence, low.Status)
	}
}

func TestSourceTrustUnknown(t *testing.T) {
	v := NewVerifier(nil)
	r := v.sourceTrust(0, model.Evidence{Source: "carrier_pigeon"})
	if r.Confidence != 0.5 || r.Status != model.StatusUnverified {
		t.Errorf("unknown source: %v/%s, want 0.5 unverified", r.Confidence, r.Status)
	}
}

func TestFieldCompletenessFullRoute(t *testing.T) {
	v := NewVerifier(nil)
	r := v.fieldCompleteness(0, structuredEvidence("高松到直岛的船班：08:12出发，09:02到达", map[string]string{
		"type": "route_schedule", "departure": "高松", "destination": "直岛",
		"departure_time": "08:12", "arrival_time": "09:02", "duration": "50分",
		"fare": "520円", "company": "四国汽船",
	}))
	if r.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 with all fields present", r.Confidence)
	}
	if r.Status != model.StatusVerified {
		t.Errorf("status = %s, want verified", r.Status)
	}
}

func TestFieldCompletenessMissingRequired(t *testing.T) {
	v := NewVerifier(nil)
	// Missing departure_time (-0.3) and all four optional fields (-0.4).
	r := v.fieldCompleteness(0, structuredEvidence("高松到直岛有船可以直达", map[string]string{
		"type": "route_schedule", "departure": "高松", "destination": "直岛",
	}))
	if r.Confidence > 0.31 || r.Confidence < 0.29 {
		t.Errorf("confidence = %v, want ~0.3", r.Confidence)
	}
	if r.Status != model.StatusInsufficient {
		t.Errorf("status = %s, want insufficient", r.Status)
	}
}

func TestFieldCompletenessShortContent(t *testing.T) {
	v := NewVerifier(nil)
	r := v.fieldCompleteness(0, model.Evidence{
		Source:   model.SourceVector,
		Content:  "短",
		Metadata: map[string]string{"type": "vector_doc"},
	})
	if r.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8 (only the short-content penalty)", r.Confidence)
	}
}

func TestTimelinessBuckets(t *testing.T) {
	v := NewVerifier(nil)
	now := time.Now()
	v.now = func() time.Time { return now }

	tests := []struct {
		age    time.Duration
		want   float64
		status model.VerificationStatus
	}{
		{time.Minute, 0.95, model.StatusVerified},
		{30 * time.Minute, 0.9, model.StatusVerified},
		{6 * time.Hour, 0.8, model.StatusVerified},
		{48 * time.Hour, 0.6, model.StatusUnverified},
	}
	for _, tt := range tests {
		r := v.timeliness(0, model.Evidence{RetrievedAt: now.Add(-tt.age)})
		if r.Confidence != tt.want || r.Status != tt.status {
			t.Errorf("age %v: got %v/%s, want %v/%s", tt.age, r.Confidence, r.Status, tt.want, tt.status)
		}
	}
}

func TestVerifyResponsePriceClaimVerified(t *testing.T) {
	v := NewVerifier(nil)
	evidence := []model.Evidence{
		structuredEvidence("高松到直岛的票价：成人500円", map[string]string{"type": "price_info", "fare": "500円"}),
	}

	results := v.VerifyResponse("船票是500円。", evidence)

	var priceResult *model.VerificationResult
	for i := range results {
		if strings.HasPrefix(results[i].Fact, "price:") {
			priceResult = &results[i]
		}
	}
	if priceResult == nil {
		t.Fatal("expected a price claim result")
	}
	// Exact substring in a structured source: 0.95 * 1.1 capped at 1.0.
	if priceResult.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", priceResult.Confidence)
	}
	if priceResult.Status != model.StatusVerified {
		t.Errorf("status = %s, want verified", priceResult.Status)
	}
}

func TestVerifyResponseUnsupportedClaim(t *testing.T) {
	v := NewVerifier(nil)
	evidence := []model.Evidence{
		structuredEvidence("高松到直岛的船班：08:12出发", map[string]string{"type": "route_schedule"}),
	}

	results := v.VerifyResponse("船票是9999円。", evidence)
	for _, r := range results {
		if strings.HasPrefix(r.Fact, "price:") {
			if r.Status != model.StatusUnverified {
				t.Errorf("status = %s, want unverified", r.Status)
			}
			if r.Confidence != 0 {
				t.Errorf("confidence = %v, want 0 with no support", r.Confidence)
			}
		}
	}
}

func TestVerifyResponseRouteEndpoints(t *testing.T) {
	v := NewVerifier(nil)
	full := []model.Evidence{
		structuredEvidence("高松到直岛的船班：08:12出发", map[string]string{"type": "route_schedule"}),
	}
	half := []model.Evidence{
		structuredEvidence("直岛的港口是宫浦港", map[string]string{"type": "port_info"}),
	}

	fullResults := v.VerifyResponse("高松到直岛很方便。", full)
	halfResults := v.VerifyResponse("高松到直岛很方便。", half)

	fullConf := routeConfidence(t, fullResults)
	halfConf := routeConfidence(t, halfResults)
	// Both endpoints: 0.9 * 1.1 capped at 1.0. One endpoint: 0.5 * 1.1.
	if fullConf != 1.0 {
		t.Errorf("both endpoints: confidence = %v, want 1.0", fullConf)
	}
	if halfConf >= fullConf {
		t.Errorf("single endpoint %v should score below both endpoints %v", halfConf, fullConf)
	}
}

func routeConfidence(t *testing.T, results []model.VerificationResult) float64 {
	t.Helper()
	for _, r := range results {
		if strings.HasPrefix(r.Fact, "route:") {
			return r.Confidence
		}
	}
	t.Fatal("no route claim result")
	return 0
}

func TestVerifyResponseVectorScaledByRelevance(t *testing.T) {
	v := NewVerifier(nil)
	evidence := []model.Evidence{
		{Source: model.SourceVector, Content: "船票大概是500円", Relevance: 0.6, RetrievedAt: time.Now()},
	}

	results := v.VerifyResponse("票价500円。", evidence)
	for _, r := range results {
		if strings.HasPrefix(r.Fact, "price:") {
			want := 0.95 * 0.6
			if r.Confidence < want-1e-9 || r.Confidence > want+1e-9 {
				t.Errorf("confidence = %v, want %v", r.Confidence, want)
			}
			if r.Status != model.StatusUnverified {
				t.Errorf("status = %s, want unverified below 0.7 threshold", r.Status)
			}
		}
	}
}

func TestVerifyResponseFabrication(t *testing.T) {
	v := NewVerifier(nil)
	evidence := []model.Evidence{
		structuredEvidence("高松到直岛的船班：08:12出发", map[string]string{"type": "route_schedule"}),
	}

	results := v.VerifyResponse("8月30日的船大约50分钟，预计9点到。", evidence)

	var fabrication *model.VerificationResult
	for i := range results {
		if results[i].Fact == "fabrication" {
			fabrication = &results[i]
		}
	}
	if fabrication == nil {
		t.Fatal("expected a fabrication result")
	}
	if fabrication.Status != model.StatusConflicting {
		t.Errorf("status = %s, want conflicting", fabrication.Status)
	}
	for _, phrase := range []string{"8月30日", "大约50分钟", "预计9点"} {
		if !strings.Contains(fabrication.Details, phrase) {
			t.Errorf("details missing %q: %s", phrase, fabrication.Details)
		}
	}
}

func TestVerifyResponseNoFabricationWhenEvidenced(t *testing.T) {
	v := NewVerifier(nil)
	evidence := []model.Evidence{
		structuredEvidence("航程大约50分钟", map[string]string{"type": "route_schedule"}),
	}

	results := v.VerifyResponse("航程大约50分钟。", evidence)
	for _, r := range results {
		if r.Fact == "fabrication" {
			t.Error("evidenced phrase must not be flagged as fabrication")
		}
	}
}

func TestAccuracy(t *testing.T) {
	results := []model.VerificationResult{
		{Status: model.StatusVerified},
		{Status: model.StatusVerified},
		{Status: model.StatusUnverified},
		{Status: model.StatusConflicting},
	}
	if got := Accuracy(results); got != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", got)
	}
	if got := Accuracy(nil); got != 0 {
		t.Errorf("Accuracy(nil) = %v, want 0", got)
	}
}

func TestQualityEmptyIsNoData(t *testing.T) {
	q := Quality(nil)
	if q.Label != "no data" {
		t.Errorf("label = %q, want no data", q.Label)
	}
	if q.Score != 0 {
		t.Errorf("score = %v, want 0", q.Score)
	}
}

func TestQualityBlend(t *testing.T) {
	v := NewVerifier(nil)
	evidence := []model.Evidence{
		structuredEvidence("高松到直岛的船班：08:12出发，09:02到达，航程50分，四国汽船运营，成人票价520円", map[string]string{
			"type": "route_schedule", "departure": "高松", "destination": "直岛",
			"departure_time": "08:12", "arrival_time": "09:02", "duration": "50分",
			"fare": "520円", "company": "四国汽船",
		}),
	}

	q := Quality(v.VerifyEvidence(evidence))
	// 0.4*0.95 + 0.4*1.0 + 0.2*0.95 = 0.97.
	if q.Score < 0.96 || q.Score > 0.98 {
		t.Errorf("score = %v, want ~0.97", q.Score)
	}
	if q.Label != "excellent" {
		t.Errorf("label = %q, want excellent", q.Label)
	}
	if q.VerifiedCount != 3 || q.TotalCount != 3 {
		t.Errorf("counts = %d/%d, want 3/3", q.VerifiedCount, q.TotalCount)
	}
}
