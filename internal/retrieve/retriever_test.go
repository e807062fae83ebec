package retrieve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/store"
)

// fakeSource serves canned rows
type fakeSource struct {
	routes    []model.Route
	ports     []model.Port
	companies []model.Company
	err       error
}

func (f *fakeSource) FindRoutes(departure, destination string) ([]model.Route, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Route
	for _, r := range f.routes {
		if departure != "" && r.Departure != departure {
			continue
		}
		if destination != "" && r.Arrival != destination {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeSource) FindPorts(place string) ([]model.Port, error) {
	return f.ports, f.err
}

func (f *fakeSource) FindCompanies(term string) ([]model.Company, error) {
	return f.companies, f.err
}

func (f *fakeSource) FindConnections(departure, destination string) ([]model.Route, error) {
	return f.FindRoutes(departure, destination)
}

// fakeVector returns fixed hits
type fakeVector struct {
	hits   []store.VectorHit
	err    error
	called bool
}

func (f *fakeVector) Search(ctx context.Context, query string, k int) ([]store.VectorHit, error) {
	f.called = true
	return f.hits, f.err
}

func scheduleStep(departure, destination, timeFilter string) model.StrategyStep {
	return model.StrategyStep{
		Step:       1,
		Action:     "查询船班",
		DataNeeded: []string{"班次时间"},
		SearchParams: model.SearchParams{
			Departure:   departure,
			Destination: destination,
			TimeFilter:  timeFilter,
		},
	}
}

func TestExecuteTimeFilter(t *testing.T) {
	src := &fakeSource{routes: []model.Route{
		{Departure: "高松", Arrival: "直岛", DepartureTime: "08:00", AdultFare: "520円"},
		{Departure: "高松", Arrival: "直岛", DepartureTime: "14:00", AdultFare: "520円"},
		{Departure: "高松", Arrival: "直岛", DepartureTime: "18:00", AdultFare: "520円"},
	}}
	r := NewRetriever(src, nil, nil)

	evidence := r.Execute(context.Background(), &model.QueryStrategy{
		Steps: []model.StrategyStep{scheduleStep("高松", "直岛", "13:30")},
	})

	if len(evidence) != 2 {
		t.Fatalf("got %d evidence items, want 2 (08:00 filtered out)", len(evidence))
	}
	for _, ev := range evidence {
		if strings.Contains(ev.Content, "08:00") {
			t.Errorf("pre-filter departure leaked through: %s", ev.Content)
		}
		if ev.Source != model.SourceStructuredRoute {
			t.Errorf("source = %s, want structured_route", ev.Source)
		}
		// Base 0.8 + time-filter 0.1 + fare 0.1.
		if ev.Relevance != 1.0 {
			t.Errorf("relevance = %v, want 1.0", ev.Relevance)
		}
	}
}

func TestExecuteScheduleCap(t *testing.T) {
	var routes []model.Route
	for _, tm := range []string{"07:00", "09:00", "11:00", "13:00", "15:00", "17:00", "19:00"} {
		routes = append(routes, model.Route{Departure: "高松", Arrival: "小豆岛", DepartureTime: tm})
	}
	r := NewRetriever(&fakeSource{routes: routes}, nil, nil)

	evidence := r.Execute(context.Background(), &model.QueryStrategy{
		Steps: []model.StrategyStep{scheduleStep("高松", "小豆岛", "")},
	})

	if len(evidence) != maxScheduleResults {
		t.Errorf("got %d evidence items, want cap %d", len(evidence), maxScheduleResults)
	}
}

func TestExecuteSkipsAnalysisSteps(t *testing.T) {
	src := &fakeSource{routes: []model.Route{
		{Departure: "高松", Arrival: "直岛", DepartureTime: "08:00"},
	}}
	r := NewRetriever(src, nil, nil)

	evidence := r.Execute(context.Background(), &model.QueryStrategy{
		Steps: []model.StrategyStep{
			scheduleStep("高松", "直岛", ""),
			{Step: 2, Action: "比较便利性", AnalysisType: "convenience", DataNeeded: []string{"班次时间"}},
		},
	})

	if len(evidence) != 1 {
		t.Errorf("got %d evidence items, want 1 (analysis step retrieves nothing)", len(evidence))
	}
}

func TestExecuteVectorSupplementWhenThin(t *testing.T) {
	vec := &fakeVector{hits: []store.VectorHit{
		{Content: "直岛美术馆周一闭馆", Score: 0.95},
		{Content: "宫浦港可以租自行车", Score: 0.9},
		{Content: "直岛有町营巴士", Score: 0.8},
	}}
	src := &fakeSource{routes: []model.Route{
		{Departure: "高松", Arrival: "直岛", DepartureTime: "08:00"},
	}}
	r := NewRetriever(src, vec, nil)

	evidence := r.Execute(context.Background(), &model.QueryStrategy{
		Steps: []model.StrategyStep{scheduleStep("高松", "直岛", "")},
	})

	if !vec.called {
		t.Fatal("expected vector supplement for a thin result set")
	}
	if len(evidence) != 4 {
		t.Fatalf("got %d evidence items, want 1 structured + 3 vector", len(evidence))
	}

	// Discount curve: 0.7, 0.6, 0.5 regardless of service scores.
	var vectorRelevances []float64
	for _, ev := range evidence {
		if ev.Source == model.SourceVector {
			vectorRelevances = append(vectorRelevances, ev.Relevance)
		}
	}
	want := []float64{0.7, 0.6, 0.5}
	if len(vectorRelevances) != len(want) {
		t.Fatalf("got %d vector items, want %d", len(vectorRelevances), len(want))
	}
	for i, rel := range vectorRelevances {
		if rel != want[i] {
			t.Errorf("vector relevance[%d] = %v, want %v", i, rel, want[i])
		}
	}
}

func TestExecuteNoVectorSupplementWhenRich(t *testing.T) {
	var routes []model.Route
	for _, tm := range []string{"08:00", "10:00", "12:00"} {
		routes = append(routes, model.Route{Departure: "高松", Arrival: "直岛", DepartureTime: tm})
	}
	vec := &fakeVector{hits: []store.VectorHit{{Content: "x", Score: 0.9}}}
	r := NewRetriever(&fakeSource{routes: routes}, vec, nil)

	r.Execute(context.Background(), &model.QueryStrategy{
		Steps: []model.StrategyStep{scheduleStep("高松", "直岛", "")},
	})

	if vec.called {
		t.Error("three structured matches should not trigger the supplement")
	}
}

func TestExecuteSourceFailureYieldsEmpty(t *testing.T) {
	r := NewRetriever(&fakeSource{err: errors.New("disk gone")}, nil, nil)

	evidence := r.Execute(context.Background(), &model.QueryStrategy{
		Steps: []model.StrategyStep{scheduleStep("高松", "直岛", "")},
	})

	if len(evidence) != 0 {
		t.Errorf("got %d evidence items, want 0 on source failure", len(evidence))
	}
}

func TestMergeDeduplicatesAndRanks(t *testing.T) {
	evidence := []model.Evidence{
		{Content: "重复内容", Relevance: 0.5},
		{Content: "高分内容", Relevance: 0.9},
		{Content: "重复内容", Relevance: 0.8},
		{Content: "低分内容", Relevance: 0.3},
	}

	merged := Merge(evidence)
	if len(merged) != 3 {
		t.Fatalf("got %d items, want 3", len(merged))
	}
	if merged[0].Content != "高分内容" {
		t.Errorf("first item = %q, want highest relevance first", merged[0].Content)
	}
	// First occurrence wins, even at lower relevance.
	for _, ev := range merged {
		if ev.Content == "重复内容" && ev.Relevance != 0.5 {
			t.Errorf("duplicate kept relevance %v, want first occurrence 0.5", ev.Relevance)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	evidence := []model.Evidence{
		{Content: "甲", Relevance: 0.4},
		{Content: "乙", Relevance: 0.9},
		{Content: "甲", Relevance: 0.7},
	}

	once := Merge(evidence)
	twice := Merge(once)
	if len(once) != len(twice) {
		t.Fatalf("lengths differ: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Content != twice[i].Content || once[i].Relevance != twice[i].Relevance {
			t.Errorf("item %d differs after re-merge", i)
		}
	}
}

func TestMergeKeyUsesRunes(t *testing.T) {
	long := strings.Repeat("岛", 100)
	a := model.Evidence{Content: long + "甲", Relevance: 0.5}
	b := model.Evidence{Content: long + "乙", Relevance: 0.5}

	merged := Merge([]model.Evidence{a, b})
	// Identical first 100 runes means duplicates despite differing tails.
	if len(merged) != 1 {
		t.Errorf("got %d items, want 1", len(merged))
	}
}

func TestNormalizeClock(t *testing.T) {
	tests := []struct{ in, want string }{
		{"8:05", "08:05"},
		{"15:30", "15:30"},
		{" 9:00 ", "09:00"},
		{"930", ""},
		{"ab:cd", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeClock(tt.in); got != tt.want {
			t.Errorf("normalizeClock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDataCategoriesDispatch(t *testing.T) {
	got := dataCategories([]string{"班次时间", "票价信息", "港口信息", "中转连接", "运营公司信息", "班次时间"})
	want := []string{"schedule", "fare", "port", "connection", "company"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d = %q, want %q", i, got[i], want[i])
		}
	}
}
