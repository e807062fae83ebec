package retrieve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/store"
)

// Per-step result caps by data category, bounding retrieval fan-out
const (
	maxScheduleResults   = 5
	maxFareResults       = 4
	maxPortResults       = 3
	maxCompanyResults    = 3
	maxConnectionResults = 2
	maxVectorResults     = 5
)

// DataSource is the structured side of retrieval, served by
// store.EvidenceStore.
type DataSource interface {
	FindRoutes(departure, destination string) ([]model.Route, error)
	FindPorts(place string) ([]model.Port, error)
	FindCompanies(term string) ([]model.Company, error)
	FindConnections(departure, destination string) ([]model.Route, error)
}

// Retriever executes a query strategy against the structured store,
// supplementing thin results with semantic search. Execute never
// fails; a broken source contributes nothing.
type Retriever struct {
	source DataSource
	vector store.VectorSearcher
	logger *zap.Logger
	now    func() time.Time
}

// NewRetriever creates a retriever. vector may be nil to disable
// semantic supplements.
func NewRetriever(source DataSource, vector store.VectorSearcher, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		source: source,
		vector: vector,
		logger: logger,
		now:    time.Now,
	}
}

// Execute runs every retrieval step of the strategy and returns the
// merged, deduplicated, relevance-ranked evidence.
func (r *Retriever) Execute(ctx context.Context, strategy *model.QueryStrategy) []model.Evidence {
	var raw []model.Evidence
	for _, step := range strategy.Steps {
		if step.AnalysisType != "" {
			continue
		}
		raw = append(raw, r.executeStep(ctx, step)...)
	}
	return Merge(raw)
}

// Merge deduplicates and ranks evidence. It is idempotent: merging an
// already-merged list returns it unchanged.
func Merge(evidence []model.Evidence) []model.Evidence {
	seen := make(map[string]bool, len(evidence))
	out := make([]model.Evidence, 0, len(evidence))
	for _, ev := range evidence {
		key := contentKey(ev.Content)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	return out
}

// contentKey is the dedup key: the first 100 runes of content.
// Rune-based so multibyte text is not split mid-character.
func contentKey(content string) string {
	runes := []rune(content)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes)
}

func (r *Retriever) executeStep(ctx context.Context, step model.StrategyStep) []model.Evidence {
	var out []model.Evidence
	structured := 0

	for _, category := range dataCategories(step.DataNeeded) {
		items := r.retrieveCategory(step, category)
		structured += len(items)
		out = append(out, items...)
	}

	// Thin structured results get a semantic supplement.
	if structured < 3 && r.vector != nil {
		out = append(out, r.vectorSupplement(ctx, step)...)
	}
	return out
}

// dataCategories maps free-text data requirements to retrieval
// categories, preserving first-mention order.
func dataCategories(dataNeeded []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, need := range dataNeeded {
		switch {
		case strings.Contains(need, "班次") || strings.Contains(need, "时刻表") || strings.Contains(need, "时长"):
			add("schedule")
		case strings.Contains(need, "票价") || strings.Contains(need, "价格") || strings.Contains(need, "费用"):
			add("fare")
		case strings.Contains(need, "中转") || strings.Contains(need, "连接"):
			add("connection")
		case strings.Contains(need, "港口"):
			add("port")
		case strings.Contains(need, "公司"):
			add("company")
		}
	}
	return out
}

func (r *Retriever) retrieveCategory(step model.StrategyStep, category string) []model.Evidence {
	params := step.SearchParams
	switch category {
	case "schedule":
		return r.scheduleEvidence(params, maxScheduleResults)
	case "fare":
		return r.fareEvidence(params)
	case "port":
		return r.portEvidence(params)
	case "company":
		return r.companyEvidence(params)
	case "connection":
		return r.connectionEvidence(params)
	}
	return nil
}

func (r *Retriever) scheduleEvidence(params model.SearchParams, limit int) []model.Evidence {
	routes, err := r.source.FindRoutes(params.Departure, params.Destination)
	if err != nil {
		r.logger.Warn("route lookup failed", zap.Error(err))
		return nil
	}
	routes = filterByTime(routes, params.TimeFilter)

	var out []model.Evidence
	for _, route := range routes {
		if len(out) >= limit {
			break
		}
		out = append(out, r.routeEvidence(route, params.TimeFilter))
	}
	return out
}

func (r *Retriever) routeEvidence(route model.Route, timeFilter string) model.Evidence {
	var b strings.Builder
	fmt.Fprintf(&b, "%s到%s的船班：%s出发", route.Departure, route.Arrival, route.DepartureTime)
	if route.ArrivalTime != "" {
		fmt.Fprintf(&b, "，%s到达", route.ArrivalTime)
	}
	if route.Duration != "" {
		fmt.Fprintf(&b, "，航程%s", route.Duration)
	}
	if route.Company != "" {
		fmt.Fprintf(&b, "，%s运营", route.Company)
	}
	if route.ShipType != "" {
		fmt.Fprintf(&b, "（%s）", route.ShipType)
	}
	if route.AdultFare != "" {
		fmt.Fprintf(&b, "，成人票价%s", route.AdultFare)
	}

	relevance := 0.8
	if timeFilter != "" {
		relevance += 0.1
	}
	if route.AdultFare != "" {
		relevance += 0.1
	}

	return model.Evidence{
		Source:  model.SourceStructuredRoute,
		Content: b.String(),
		Metadata: map[string]string{
			"type":           "route_schedule",
			"departure":      route.Departure,
			"destination":    route.Arrival,
			"departure_time": route.DepartureTime,
			"arrival_time":   route.ArrivalTime,
			"duration":       route.Duration,
			"fare":           route.AdultFare,
			"company":        route.Company,
		},
		Relevance:   clamp01(relevance),
		RetrievedAt: r.now(),
	}
}

func (r *Retriever) fareEvidence(params model.SearchParams) []model.Evidence {
	routes, err := r.source.FindRoutes(params.Departure, params.Destination)
	if err != nil {
		r.logger.Warn("fare lookup failed", zap.Error(err))
		return nil
	}

	var out []model.Evidence
	for _, route := range routes {
		if route.AdultFare == "" {
			continue
		}
		if len(out) >= maxFareResults {
			break
		}
		content := fmt.Sprintf("%s到%s的票价：成人%s", route.Departure, route.Arrival, route.AdultFare)
		if route.ChildFare != "" {
			content += fmt.Sprintf("，儿童%s", route.ChildFare)
		}
		if route.Company != "" {
			content += fmt.Sprintf("（%s）", route.Company)
		}
		out = append(out, model.Evidence{
			Source:  model.SourceStructuredRoute,
			Content: content,
			Metadata: map[string]string{
				"type":        "price_info",
				"departure":   route.Departure,
				"destination": route.Arrival,
				"fare":        route.AdultFare,
				"child_fare":  route.ChildFare,
				"company":     route.Company,
			},
			Relevance:   0.9,
			RetrievedAt: r.now(),
		})
	}
	return out
}

func (r *Retriever) portEvidence(params model.SearchParams) []model.Evidence {
	place := params.Destination
	if place == "" {
		place = params.Departure
	}
	ports, err := r.source.FindPorts(place)
	if err != nil {
		r.logger.Warn("port lookup failed", zap.Error(err))
		return nil
	}

	var out []model.Evidence
	for _, port := range ports {
		if len(out) >= maxPortResults {
			break
		}
		content := fmt.Sprintf("%s位于%s", port.Name, port.Island)
		if port.Connections != "" {
			content += fmt.Sprintf("，可通往%s", strings.ReplaceAll(port.Connections, ":", "、"))
		}
		if port.Features != "" {
			content += fmt.Sprintf("。%s", port.Features)
		}
		out = append(out, model.Evidence{
			Source:  model.SourceStructuredPort,
			Content: content,
			Metadata: map[string]string{
				"type":      "port_info",
				"port_name": port.Name,
				"island":    port.Island,
			},
			Relevance:   0.8,
			RetrievedAt: r.now(),
		})
	}
	return out
}

func (r *Retriever) companyEvidence(params model.SearchParams) []model.Evidence {
	term := params.Destination
	if term == "" {
		term = params.Departure
	}
	companies, err := r.source.FindCompanies(term)
	if err != nil {
		r.logger.Warn("company lookup failed", zap.Error(err))
		return nil
	}

	var out []model.Evidence
	for _, c := range companies {
		if len(out) >= maxCompanyResults {
			break
		}
		content := fmt.Sprintf("%s运营航线：%s", c.Name, strings.ReplaceAll(c.MainRoutes, ":", "、"))
		if c.Phone != "" {
			content += fmt.Sprintf("，电话%s", c.Phone)
		}
		if c.Notes != "" {
			content += fmt.Sprintf("。%s", c.Notes)
		}
		out = append(out, model.Evidence{
			Source:  model.SourceStructuredCompany,
			Content: content,
			Metadata: map[string]string{
				"type":    "company_info",
				"company": c.Name,
			},
			Relevance:   0.85,
			RetrievedAt: r.now(),
		})
	}
	return out
}

func (r *Retriever) connectionEvidence(params model.SearchParams) []model.Evidence {
	routes, err := r.source.FindConnections(params.Departure, params.Destination)
	if err != nil {
		r.logger.Warn("connection lookup failed", zap.Error(err))
		return nil
	}

	var out []model.Evidence
	for _, route := range routes {
		if len(out) >= maxConnectionResults {
			break
		}
		ev := r.routeEvidence(route, "")
		ev.Relevance = 0.75
		ev.Metadata["type"] = "route_schedule"
		out = append(out, ev)
	}
	return out
}

// vectorSupplement pads thin structured results with semantic hits.
// Supplement relevance is rank-based rather than score-based so vector
// results never outrank structured records.
func (r *Retriever) vectorSupplement(ctx context.Context, step model.StrategyStep) []model.Evidence {
	query := step.Action
	if step.SearchParams.Departure != "" {
		query += " " + step.SearchParams.Departure
	}
	if step.SearchParams.Destination != "" {
		query += " " + step.SearchParams.Destination
	}

	hits, err := r.vector.Search(ctx, query, maxVectorResults)
	if err != nil {
		r.logger.Debug("vector supplement failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	var out []model.Evidence
	for i, hit := range hits {
		if i >= maxVectorResults {
			break
		}
		relevance := 0.7 - 0.1*float64(i)
		if relevance < 0 {
			relevance = 0
		}
		metadata := map[string]string{"type": "vector_doc"}
		for k, v := range hit.Metadata {
			metadata[k] = v
		}
		out = append(out, model.Evidence{
			Source:      model.SourceVector,
			Content:     hit.Content,
			Metadata:    metadata,
			Relevance:   relevance,
			RetrievedAt: r.now(),
		})
	}
	return out
}

// filterByTime keeps routes departing at or after the filter. Routes
// with unparseable times are kept rather than silently dropped.
func filterByTime(routes []model.Route, filter string) []model.Route {
	normalized := normalizeClock(filter)
	if normalized == "" {
		return routes
	}
	var out []model.Route
	for _, route := range routes {
		dep := normalizeClock(route.DepartureTime)
		if dep == "" || dep >= normalized {
			out = append(out, route)
		}
	}
	return out
}

// normalizeClock zero-pads H:MM to HH:MM so string comparison orders
// times correctly. Returns "" for anything unparseable.
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[1]) != 2 {
		return ""
	}
	h := parts[0]
	if len(h) == 1 {
		h = "0" + h
	}
	if len(h) != 2 {
		return ""
	}
	for _, r := range h + parts[1] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return h + ":" + parts[1]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
