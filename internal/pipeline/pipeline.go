package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/cache"
	"github.com/mnakata/islandhop/internal/extract"
	"github.com/mnakata/islandhop/internal/feasible"
	"github.com/mnakata/islandhop/internal/llm"
	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/retrieve"
	"github.com/mnakata/islandhop/internal/store"
	"github.com/mnakata/islandhop/internal/strategy"
	"github.com/mnakata/islandhop/internal/verify"
)

// Pipeline sequences the query stages: extraction, planning,
// retrieval, verification, feasibility and synthesis. Each stage is
// contained; only the outermost boundary converts a failure into the
// standard error response.
type Pipeline struct {
	config    *model.Config
	logger    *zap.Logger
	provider  llm.Provider
	extractor *extract.Extractor
	planner   *strategy.Planner
	retriever *retrieve.Retriever
	verifier  *verify.Verifier
	analyzer  *feasible.Analyzer
	store     *store.EvidenceStore
	sessions  *SessionManager
	metrics   *Metrics
	respCache cache.Cache
}

// NewPipeline wires the full pipeline from configuration. A broken
// LLM configuration degrades to fallback-only operation instead of
// failing construction.
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		logger.Warn("LLM provider unavailable, running on fallbacks", zap.Error(err))
		provider = nil
	}

	evidenceStore := store.NewEvidenceStore(cfg.Data, cfg.Cache.Snapshot, logger)

	var vector store.VectorSearcher
	if cfg.Vector.BaseURL != "" {
		vector = store.NewVectorClient(cfg.Vector)
	}

	var respCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			respCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			respCache = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
	}

	return &Pipeline{
		config:    cfg,
		logger:    logger,
		provider:  provider,
		extractor: extract.NewExtractor(provider, logger),
		planner:   strategy.NewPlanner(provider, logger),
		retriever: retrieve.NewRetriever(evidenceStore, vector, logger),
		verifier:  verify.NewVerifier(logger),
		analyzer:  feasible.NewAnalyzer(feasible.DefaultBufferMins, logger),
		store:     evidenceStore,
		sessions:  NewSessionManager(),
		metrics:   NewMetrics(),
		respCache: respCache,
	}
}

// Store exposes the evidence store for data validation commands
func (p *Pipeline) Store() *store.EvidenceStore { return p.store }

// Metrics exposes the rolling performance counters
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Sessions exposes the session registry
func (p *Pipeline) Sessions() *SessionManager { return p.sessions }

// ProcessQuery answers one user query. It never returns an error;
// unrecoverable failures become an apologetic response with zero
// accuracy and empty sources.
func (p *Pipeline) ProcessQuery(ctx context.Context, query, sessionID string) *model.QueryResponse {
	start := time.Now()
	session := p.sessions.Get(sessionID)
	history := session.History()

	resp := p.process(ctx, query, session.ID, history, start)

	session.Append("user", query)
	session.Append("assistant", resp.Answer)
	p.metrics.Record(resp.Elapsed, resp.Accuracy, resp.Error)
	return resp
}

func (p *Pipeline) process(ctx context.Context, query, sessionID string, history []model.ChatMessage, start time.Time) (resp *model.QueryResponse) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic", zap.Any("panic", r), zap.String("query", query))
			resp = p.errorResponse(query, sessionID, start)
		}
	}()

	// Cached answers are reused only for fresh sessions; follow-up
	// turns depend on history.
	cacheKey := cache.Key("response", query)
	if p.respCache != nil && len(history) == 0 {
		var cached model.QueryResponse
		if cache.GetJSON(p.respCache, cacheKey, &cached) {
			cached.SessionID = sessionID
			cached.Elapsed = time.Since(start)
			p.logger.Debug("cache hit", zap.String("query", query))
			return &cached
		}
	}

	requirement := p.stageExtract(ctx, query, history)
	queryStrategy := p.stagePlan(ctx, requirement)
	evidence := p.stageRetrieve(ctx, queryStrategy)
	results := p.stageVerifyEvidence(evidence)

	var feasibility *model.FeasibilityAnalysis
	if requirement.Departure.Time != "" {
		feasibility = p.stageFeasibility(requirement, evidence)
	}

	analysis := p.stageAnalyze(requirement, evidence, feasibility)
	answer, claimResults := p.stageAnswer(ctx, query, requirement, analysis, evidence)
	results = append(results, claimResults...)

	quality := verify.Quality(results)
	accuracy := verify.Accuracy(results)
	if len(evidence) == 0 {
		// Without retrieved data the metrics report zero with an
		// explicit label.
		quality = model.DataQuality{Label: "no data"}
		accuracy = 0
	}

	resp = &model.QueryResponse{
		SessionID:    sessionID,
		Query:        query,
		Answer:       answer,
		Requirement:  requirement,
		Strategy:     queryStrategy,
		Analysis:     analysis,
		Verification: results,
		Accuracy:     accuracy,
		Quality:      quality,
		Sources:      summarizeSources(evidence),
		Elapsed:      time.Since(start),
		GeneratedAt:  time.Now(),
	}

	if p.respCache != nil && len(history) == 0 && !resp.Error {
		if err := cache.SetJSON(p.respCache, cacheKey, resp, p.config.Cache.TTL); err != nil {
			p.logger.Debug("response cache write failed", zap.Error(err))
		}
	}
	return resp
}

func (p *Pipeline) stageExtract(ctx context.Context, query string, history []model.ChatMessage) (req *model.TravelRequirement) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("extraction stage panicked", zap.Any("panic", r))
			req = &model.TravelRequirement{
				Category:    model.CategoryGeneralConsultation,
				Constraints: map[string]string{},
				Confidence:  0.5,
			}
		}
	}()
	return p.extractor.Extract(ctx, query, history)
}

func (p *Pipeline) stagePlan(ctx context.Context, req *model.TravelRequirement) (s *model.QueryStrategy) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("planning stage panicked", zap.Any("panic", r))
			s = &model.QueryStrategy{
				Name: "一般咨询",
				Steps: []model.StrategyStep{
					{Step: 1, Action: "查询背景信息", DataNeeded: []string{"班次时间"}},
				},
			}
		}
	}()
	return p.planner.Plan(ctx, req)
}

func (p *Pipeline) stageRetrieve(ctx context.Context, s *model.QueryStrategy) (evidence []model.Evidence) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("retrieval stage panicked", zap.Any("panic", r))
			evidence = nil
		}
	}()
	return p.retriever.Execute(ctx, s)
}

func (p *Pipeline) stageVerifyEvidence(evidence []model.Evidence) (results []model.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("verification stage panicked", zap.Any("panic", r))
			results = nil
		}
	}()
	return p.verifier.VerifyEvidence(evidence)
}

func (p *Pipeline) stageFeasibility(req *model.TravelRequirement, evidence []model.Evidence) (fa *model.FeasibilityAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("feasibility stage panicked", zap.Any("panic", r))
			fa = nil
		}
	}()
	return p.analyzer.Analyze(req, feasible.ExtractSchedules(evidence))
}

func (p *Pipeline) stageAnalyze(req *model.TravelRequirement, evidence []model.Evidence, fa *model.FeasibilityAnalysis) (result *model.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("analysis stage panicked", zap.Any("panic", r))
			result = &model.AnalysisResult{Category: req.Category, Confidence: 0.5}
		}
	}()

	switch req.Category {
	case model.CategoryTimeQuery:
		return analyzeTimeQuery(req, fa)
	case model.CategoryConvenienceComparison:
		result = analyzeConvenience(req, evidence)
	case model.CategoryPriceComparison:
		result = analyzePrice(req, evidence)
	case model.CategoryRoutePlanning:
		result = analyzeRouting(req, evidence)
	default:
		result = analyzeGeneral(evidence)
	}
	if fa != nil {
		result.Feasibility = fa
	}
	return result
}

// stageAnswer produces the reply text. With a provider, generated
// prose is claim-checked against the evidence; without one, or when
// generation fails, the deterministic rendering is used.
func (p *Pipeline) stageAnswer(ctx context.Context, query string, req *model.TravelRequirement, analysis *model.AnalysisResult, evidence []model.Evidence) (answer string, results []model.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("answer stage panicked", zap.Any("panic", r))
			answer = renderAnswer(req, analysis, evidence)
			results = nil
		}
	}()

	if p.provider != nil && len(evidence) > 0 {
		prose, err := p.provider.Generate(ctx, buildAnswerPrompt(query, analysis, evidence))
		if err == nil && prose != "" {
			return prose, p.verifier.VerifyResponse(prose, evidence)
		}
		if err != nil {
			p.logger.Debug("prose generation failed, rendering deterministically", zap.Error(err))
		}
	}
	return renderAnswer(req, analysis, evidence), nil
}

func (p *Pipeline) errorResponse(query, sessionID string, start time.Time) *model.QueryResponse {
	return &model.QueryResponse{
		SessionID:   sessionID,
		Query:       query,
		Answer:      errorMessage,
		Accuracy:    0,
		Quality:     model.DataQuality{Label: "no data"},
		Sources:     model.SourceSummary{},
		Elapsed:     time.Since(start),
		Error:       true,
		GeneratedAt: time.Now(),
	}
}
