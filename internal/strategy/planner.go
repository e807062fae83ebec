package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/llm"
	"github.com/mnakata/islandhop/internal/model"
)

// Planner maps a travel requirement to an ordered query strategy.
// Plan never fails: the common case short-circuits to a fixed step and
// everything else degrades to category templates.
type Planner struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewPlanner creates a planner. provider may be nil.
func NewPlanner(provider llm.Provider, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{provider: provider, logger: logger}
}

// Plan produces a strategy with at least one step
func (p *Planner) Plan(ctx context.Context, req *model.TravelRequirement) *model.QueryStrategy {
	// Single-destination schedule lookups are the bulk of traffic and
	// need no model call.
	if req.Category == model.CategoryTimeQuery && len(req.DestinationOptions) == 1 {
		return p.timeQueryStrategy(req)
	}

	if p.provider != nil {
		if s, err := p.planLLM(ctx, req); err == nil && len(s.Steps) > 0 {
			return s
		} else if err != nil {
			p.logger.Debug("LLM planning failed, using template",
				zap.String("category", string(req.Category)), zap.Error(err))
		}
	}

	return p.templateStrategy(req)
}

// timeQueryStrategy is the deterministic short-circuit for one
// destination: a single step asking for schedule, duration and fare.
func (p *Planner) timeQueryStrategy(req *model.TravelRequirement) *model.QueryStrategy {
	dest := req.DestinationOptions[0]
	return &model.QueryStrategy{
		ID:   uuid.NewString(),
		Name: "班次查询",
		Steps: []model.StrategyStep{
			{
				Step:       1,
				Action:     fmt.Sprintf("查询%s到%s的船班信息", orAny(req.Departure.Location), dest),
				DataNeeded: []string{"班次时间", "航行时长", "票价信息"},
				SearchParams: model.SearchParams{
					Departure:   req.Departure.Location,
					Destination: dest,
					TimeFilter:  req.Departure.Time,
				},
				Priority: "high",
			},
		},
		AnalysisCriteria: []string{"班次可达性"},
		ExpectedOutcome:  fmt.Sprintf("%s方向的可乘班次", dest),
	}
}

// llmStrategy mirrors the JSON shape the planning prompt asks for
type llmStrategy struct {
	Name  string `json:"name"`
	Steps []struct {
		Action       string   `json:"action"`
		DataNeeded   []string `json:"data_needed"`
		Departure    string   `json:"departure"`
		Destination  string   `json:"destination"`
		TimeFilter   string   `json:"time_filter"`
		AnalysisType string   `json:"analysis_type"`
		Priority     string   `json:"priority"`
	} `json:"steps"`
	AnalysisCriteria []string `json:"analysis_criteria"`
	ExpectedOutcome  string   `json:"expected_outcome"`
}

func (p *Planner) planLLM(ctx context.Context, req *model.TravelRequirement) (*model.QueryStrategy, error) {
	resp, err := p.provider.Generate(ctx, buildPlanningPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	raw := llm.FirstJSONObject(resp)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var ls llmStrategy
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ls); err != nil {
		return nil, fmt.Errorf("decode strategy: %w", err)
	}
	if len(ls.Steps) == 0 {
		return nil, fmt.Errorf("strategy has no steps")
	}

	s := &model.QueryStrategy{
		ID:               uuid.NewString(),
		Name:             ls.Name,
		AnalysisCriteria: ls.AnalysisCriteria,
		ExpectedOutcome:  ls.ExpectedOutcome,
	}
	if s.Name == "" {
		s.Name = string(req.Category)
	}
	for i, st := range ls.Steps {
		s.Steps = append(s.Steps, model.StrategyStep{
			Step:       i + 1,
			Action:     st.Action,
			DataNeeded: st.DataNeeded,
			SearchParams: model.SearchParams{
				Departure:   st.Departure,
				Destination: st.Destination,
				TimeFilter:  st.TimeFilter,
			},
			AnalysisType: st.AnalysisType,
			Priority:     st.Priority,
		})
	}
	return s, nil
}

// templateStrategy builds the fixed per-category fallback plan
func (p *Planner) templateStrategy(req *model.TravelRequirement) *model.QueryStrategy {
	switch req.Category {
	case model.CategoryConvenienceComparison:
		return p.comparisonTemplate(req, "便利性比较", []string{"班次时间", "航行时长", "港口信息"}, "convenience")
	case model.CategoryPriceComparison:
		return p.comparisonTemplate(req, "价格比较", []string{"票价信息", "运营公司信息"}, "price")
	case model.CategoryRoutePlanning:
		return p.routePlanningTemplate(req)
	case model.CategoryTimeQuery:
		return p.multiTimeQueryTemplate(req)
	}
	return p.generalTemplate(req)
}

// comparisonTemplate emits one retrieval step per destination plus a
// trailing analysis step that carries no retrieval obligation.
func (p *Planner) comparisonTemplate(req *model.TravelRequirement, name string, dataNeeded []string, analysisType string) *model.QueryStrategy {
	s := &model.QueryStrategy{
		ID:               uuid.NewString(),
		Name:             name,
		AnalysisCriteria: []string{name},
		ExpectedOutcome:  "各目的地的对比结论",
	}
	for i, dest := range req.DestinationOptions {
		s.Steps = append(s.Steps, model.StrategyStep{
			Step:       i + 1,
			Action:     fmt.Sprintf("查询%s到%s的数据", orAny(req.Departure.Location), dest),
			DataNeeded: dataNeeded,
			SearchParams: model.SearchParams{
				Departure:   req.Departure.Location,
				Destination: dest,
				TimeFilter:  req.Departure.Time,
			},
			Priority: "high",
		})
	}
	if len(s.Steps) == 0 {
		s.Steps = append(s.Steps, model.StrategyStep{
			Step:       1,
			Action:     "查询各岛屿的船班数据",
			DataNeeded: dataNeeded,
			Priority:   "high",
		})
	}
	s.Steps = append(s.Steps, model.StrategyStep{
		Step:         len(s.Steps) + 1,
		Action:       fmt.Sprintf("对候选目的地进行%s", name),
		AnalysisType: analysisType,
		Priority:     "high",
	})
	return s
}

func (p *Planner) routePlanningTemplate(req *model.TravelRequirement) *model.QueryStrategy {
	dests := strings.Join(req.DestinationOptions, "、")
	if dests == "" {
		dests = "各岛屿"
	}
	return &model.QueryStrategy{
		ID:   uuid.NewString(),
		Name: "路线规划",
		Steps: []model.StrategyStep{
			{
				Step:       1,
				Action:     fmt.Sprintf("查询%s到%s的船班与中转信息", orAny(req.Departure.Location), dests),
				DataNeeded: []string{"班次时间", "中转连接", "港口信息"},
				SearchParams: model.SearchParams{
					Departure:  req.Departure.Location,
					TimeFilter: req.Departure.Time,
				},
				Priority: "high",
			},
			{
				Step:         2,
				Action:       "优化多岛游览顺序",
				AnalysisType: "routing",
				Priority:     "high",
			},
		},
		AnalysisCriteria: []string{"总耗时", "中转次数"},
		ExpectedOutcome:  "推荐的游览顺序与班次衔接",
	}
}

// multiTimeQueryTemplate covers time queries that missed the
// short-circuit (zero or several destinations).
func (p *Planner) multiTimeQueryTemplate(req *model.TravelRequirement) *model.QueryStrategy {
	s := &model.QueryStrategy{
		ID:               uuid.NewString(),
		Name:             "班次查询",
		AnalysisCriteria: []string{"班次可达性"},
		ExpectedOutcome:  "各方向的可乘班次",
	}
	for i, dest := range req.DestinationOptions {
		s.Steps = append(s.Steps, model.StrategyStep{
			Step:       i + 1,
			Action:     fmt.Sprintf("查询%s到%s的船班信息", orAny(req.Departure.Location), dest),
			DataNeeded: []string{"班次时间", "票价信息"},
			SearchParams: model.SearchParams{
				Departure:   req.Departure.Location,
				Destination: dest,
				TimeFilter:  req.Departure.Time,
			},
			Priority: "high",
		})
	}
	if len(s.Steps) == 0 {
		s.Steps = append(s.Steps, model.StrategyStep{
			Step:       1,
			Action:     fmt.Sprintf("查询%s出发的船班信息", orAny(req.Departure.Location)),
			DataNeeded: []string{"班次时间"},
			SearchParams: model.SearchParams{
				Departure:  req.Departure.Location,
				TimeFilter: req.Departure.Time,
			},
			Priority: "high",
		})
	}
	return s
}

func (p *Planner) generalTemplate(req *model.TravelRequirement) *model.QueryStrategy {
	return &model.QueryStrategy{
		ID:   uuid.NewString(),
		Name: "一般咨询",
		Steps: []model.StrategyStep{
			{
				Step:       1,
				Action:     "查询相关的岛屿与船班背景信息",
				DataNeeded: []string{"班次时间", "港口信息", "运营公司信息"},
				Priority:   "medium",
			},
		},
		ExpectedOutcome: "面向问题的背景信息",
	}
}

func buildPlanningPrompt(req *model.TravelRequirement) string {
	reqJSON, _ := json.Marshal(req)

	var b strings.Builder
	b.WriteString("根据旅客需求制定数据查询计划，输出JSON（不要输出其它内容）。字段：\n")
	b.WriteString(`{"name": "计划名称", "steps": [{"action": "要做什么", "data_needed": ["班次时间|票价信息|港口信息|中转连接|运营公司信息"],` + "\n")
	b.WriteString(`"departure": "出发地或留空", "destination": "目的地或留空", "time_filter": "HH:MM或留空",` + "\n")
	b.WriteString(`"analysis_type": "convenience|price|routing|留空", "priority": "high|medium|low"}],` + "\n")
	b.WriteString(`"analysis_criteria": ["评判维度"], "expected_outcome": "期望结论"}` + "\n\n")
	b.WriteString("旅客需求：")
	b.Write(reqJSON)
	return b.String()
}

func orAny(location string) string {
	if location == "" {
		return "各出发地"
	}
	return location
}
