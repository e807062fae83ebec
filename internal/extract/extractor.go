package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/llm"
	"github.com/mnakata/islandhop/internal/model"
)

// Extractor turns a natural-language travel query into a structured
// requirement. The LLM path runs first when a provider is configured;
// every failure mode degrades to the keyword fallback, never to an
// error.
type Extractor struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewExtractor creates an extractor. provider may be nil, in which case
// only the fallback path runs.
func NewExtractor(provider llm.Provider, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{provider: provider, logger: logger}
}

// llmRequirement mirrors the JSON shape the extraction prompt asks for
type llmRequirement struct {
	Category           string            `json:"category"`
	DepartureLocation  string            `json:"departure_location"`
	DepartureTime      string            `json:"departure_time"`
	DepartureMode      string            `json:"departure_mode"`
	DestinationOptions []string          `json:"destination_options"`
	Constraints        map[string]string `json:"constraints"`
	Priority           string            `json:"priority"`
	AnalysisNeeded     []string          `json:"analysis_needed"`
	Confidence         float64           `json:"confidence"`
}

// Extract analyzes the query, using recent history for pronoun and
// ellipsis resolution. It always returns a usable requirement.
func (e *Extractor) Extract(ctx context.Context, query string, history []model.ChatMessage) *model.TravelRequirement {
	if e.provider == nil {
		return fallbackExtract(query)
	}

	req, err := e.extractLLM(ctx, query, history)
	if err != nil {
		e.logger.Debug("LLM extraction failed, using fallback",
			zap.String("query", query), zap.Error(err))
		return fallbackExtract(query)
	}
	if req.Confidence < 0.3 {
		e.logger.Debug("LLM extraction below confidence floor, using fallback",
			zap.Float64("confidence", req.Confidence))
		return fallbackExtract(query)
	}
	return req
}

func (e *Extractor) extractLLM(ctx context.Context, query string, history []model.ChatMessage) (*model.TravelRequirement, error) {
	resp, err := e.provider.Generate(ctx, buildExtractionPrompt(query, history))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	raw := llm.FirstJSONObject(resp)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var lr llmRequirement
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode requirement: %w", err)
	}

	category, ok := model.ParseRequirementCategory(lr.Category)
	if !ok {
		e.logger.Debug("unknown category from LLM", zap.String("category", lr.Category))
	}

	confidence := lr.Confidence
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		confidence = 0.8
	}

	req := &model.TravelRequirement{
		Category: category,
		Departure: model.Transport{
			Location: strings.TrimSpace(lr.DepartureLocation),
			Time:     strings.TrimSpace(lr.DepartureTime),
			Mode:     strings.TrimSpace(lr.DepartureMode),
		},
		DestinationOptions: lr.DestinationOptions,
		Constraints:        lr.Constraints,
		Priority:           lr.Priority,
		AnalysisNeeded:     lr.AnalysisNeeded,
		Confidence:         confidence,
	}
	if req.Constraints == nil {
		req.Constraints = map[string]string{}
	}
	return req, nil
}

func buildExtractionPrompt(query string, history []model.ChatMessage) string {
	var b strings.Builder
	b.WriteString("分析旅客的渡轮出行问题，输出JSON（不要输出其它内容）。字段：\n")
	b.WriteString(`{"category": "route_planning|time_query|convenience_comparison|price_comparison|general_consultation",` + "\n")
	b.WriteString(`"departure_location": "出发地，未知则留空", "departure_time": "HH:MM，未知则留空", "departure_mode": "飞机|火车|船运|未知则留空",` + "\n")
	b.WriteString(`"destination_options": ["候选目的地"], "constraints": {"时间或其它约束": "值"},` + "\n")
	b.WriteString(`"priority": "旅客最关心的维度", "analysis_needed": ["feasibility|convenience|price|routing"], "confidence": 0.0}` + "\n\n")

	if len(history) > 0 {
		b.WriteString("近期对话：\n")
		start := len(history) - 6
		if start < 0 {
			start = 0
		}
		for _, msg := range history[start:] {
			b.WriteString(msg.Role)
			b.WriteString(": ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("问题：")
	b.WriteString(query)
	return b.String()
}
