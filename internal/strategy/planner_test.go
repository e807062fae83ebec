package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/mnakata/islandhop/internal/model"
)

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) IsAvailable(ctx context.Context) bool { return p.err == nil }

func (p *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.calls++
	return p.response, p.err
}

func TestPlanTimeQueryShortCircuit(t *testing.T) {
	provider := &stubProvider{response: "should not be called"}
	p := NewPlanner(provider, nil)

	s := p.Plan(context.Background(), &model.TravelRequirement{
		Category:           model.CategoryTimeQuery,
		Departure:          model.Transport{Location: "高松", Time: "15:30"},
		DestinationOptions: []string{"直岛"},
	})

	if provider.calls != 0 {
		t.Error("single-destination time query must not call the LLM")
	}
	if len(s.Steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(s.Steps))
	}
	step := s.Steps[0]
	if step.SearchParams.Departure != "高松" || step.SearchParams.Destination != "直岛" {
		t.Errorf("search params = %+v", step.SearchParams)
	}
	if step.SearchParams.TimeFilter != "15:30" {
		t.Errorf("time filter = %q, want 15:30", step.SearchParams.TimeFilter)
	}
	if step.AnalysisType != "" {
		t.Error("retrieval step must not carry an analysis type")
	}
}

func TestPlanLLMStrategy(t *testing.T) {
	p := NewPlanner(&stubProvider{response: `{
		"name": "多岛规划",
		"steps": [
			{"action": "查高松到直岛", "data_needed": ["班次时间"], "departure": "高松", "destination": "直岛", "time_filter": "", "analysis_type": "", "priority": "high"},
			{"action": "优化顺序", "data_needed": [], "departure": "", "destination": "", "time_filter": "", "analysis_type": "routing", "priority": "high"}
		],
		"analysis_criteria": ["总耗时"],
		"expected_outcome": "游览顺序"
	}`}, nil)

	s := p.Plan(context.Background(), &model.TravelRequirement{
		Category:           model.CategoryRoutePlanning,
		DestinationOptions: []string{"直岛", "丰岛"},
	})

	if s.Name != "多岛规划" {
		t.Errorf("name = %q", s.Name)
	}
	if len(s.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(s.Steps))
	}
	if s.Steps[0].Step != 1 || s.Steps[1].Step != 2 {
		t.Error("steps must be renumbered sequentially")
	}
	if s.Steps[1].AnalysisType != "routing" {
		t.Errorf("analysis type = %q, want routing", s.Steps[1].AnalysisType)
	}
}

func TestPlanMalformedLLMFallsBackToTemplate(t *testing.T) {
	p := NewPlanner(&stubProvider{response: "这不是JSON"}, nil)

	s := p.Plan(context.Background(), &model.TravelRequirement{
		Category:           model.CategoryConvenienceComparison,
		Departure:          model.Transport{Location: "高松"},
		DestinationOptions: []string{"直岛", "犬岛"},
	})

	// One retrieval step per destination plus the comparison step.
	if len(s.Steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(s.Steps))
	}
	last := s.Steps[len(s.Steps)-1]
	if last.AnalysisType != "convenience" {
		t.Errorf("trailing step analysis type = %q, want convenience", last.AnalysisType)
	}
	if len(last.DataNeeded) != 0 {
		t.Error("analysis step must carry no data requirement")
	}
}

func TestPlanEmptyStepsFallsBackToTemplate(t *testing.T) {
	p := NewPlanner(&stubProvider{response: `{"name": "空计划", "steps": [], "analysis_criteria": [], "expected_outcome": ""}`}, nil)

	s := p.Plan(context.Background(), &model.TravelRequirement{
		Category:           model.CategoryPriceComparison,
		DestinationOptions: []string{"小豆岛"},
	})

	if len(s.Steps) == 0 {
		t.Fatal("strategy steps must never be empty")
	}
	last := s.Steps[len(s.Steps)-1]
	if last.AnalysisType != "price" {
		t.Errorf("trailing step analysis type = %q, want price", last.AnalysisType)
	}
}

func TestPlanProviderErrorFallsBack(t *testing.T) {
	p := NewPlanner(&stubProvider{err: errors.New("unreachable")}, nil)

	s := p.Plan(context.Background(), &model.TravelRequirement{
		Category:           model.CategoryRoutePlanning,
		DestinationOptions: []string{"直岛", "丰岛"},
	})

	if len(s.Steps) != 2 {
		t.Fatalf("got %d steps, want 2 (retrieval + routing analysis)", len(s.Steps))
	}
	if s.Steps[1].AnalysisType != "routing" {
		t.Errorf("analysis type = %q, want routing", s.Steps[1].AnalysisType)
	}
}

func TestPlanNilProviderGeneralConsultation(t *testing.T) {
	p := NewPlanner(nil, nil)

	s := p.Plan(context.Background(), &model.TravelRequirement{
		Category: model.CategoryGeneralConsultation,
	})

	if len(s.Steps) != 1 {
		t.Fatalf("got %d steps, want 1 generic retrieval step", len(s.Steps))
	}
	if s.Steps[0].AnalysisType != "" {
		t.Error("general template step must be a retrieval step")
	}
	if s.ID == "" {
		t.Error("strategy must carry an ID")
	}
}

func TestPlanTimeQueryNoDestinationStillHasSteps(t *testing.T) {
	p := NewPlanner(nil, nil)

	s := p.Plan(context.Background(), &model.TravelRequirement{
		Category:  model.CategoryTimeQuery,
		Departure: model.Transport{Location: "高松", Time: "18:00"},
	})

	if len(s.Steps) == 0 {
		t.Fatal("strategy steps must never be empty")
	}
	if s.Steps[0].SearchParams.TimeFilter != "18:00" {
		t.Errorf("time filter = %q, want 18:00", s.Steps[0].SearchParams.TimeFilter)
	}
}
