package model

import "time"

// ChatMessage is one turn of session history
type ChatMessage struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// SourceStat counts evidence items per source with their mean relevance
type SourceStat struct {
	Source       EvidenceSource `json:"source"`
	Count        int            `json:"count"`
	AvgRelevance float64        `json:"avg_relevance"`
}

// SourceSummary describes where an answer's evidence came from
type SourceSummary struct {
	Total int          `json:"total"`
	Stats []SourceStat `json:"stats,omitempty"`
}

// AnalysisResult is the category-specific synthesis of retrieved evidence
type AnalysisResult struct {
	Category       RequirementCategory    `json:"category"`
	Summary        string                 `json:"summary,omitempty"`
	Options        []RecommendationOption `json:"options,omitempty"`
	Recommendation string                 `json:"recommendation,omitempty"`
	Confidence     float64                `json:"confidence"` // Recommendation confidence, 0..1
	Feasibility    *FeasibilityAnalysis   `json:"feasibility,omitempty"`
	Details        map[string]string      `json:"details,omitempty"`
}

// RecommendationOption scores one candidate destination or route
type RecommendationOption struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"` // 0..1, higher is better
	TotalMins int     `json:"total_mins,omitempty"`
	Transfers int     `json:"transfers,omitempty"`
	WaitMins  int     `json:"wait_mins,omitempty"`
	Fare      string  `json:"fare,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// QueryResponse is the assembled answer for one user query
type QueryResponse struct {
	SessionID    string               `json:"session_id,omitempty"`
	Query        string               `json:"query"`
	Answer       string               `json:"answer"`
	Requirement  *TravelRequirement   `json:"requirement,omitempty"`
	Strategy     *QueryStrategy       `json:"strategy,omitempty"`
	Analysis     *AnalysisResult      `json:"analysis,omitempty"`
	Verification []VerificationResult `json:"verification,omitempty"`
	Accuracy     float64              `json:"accuracy"` // Verified / total checks
	Quality      DataQuality          `json:"quality"`
	Sources      SourceSummary        `json:"sources"`
	Elapsed      time.Duration        `json:"elapsed"`
	Error        bool                 `json:"error,omitempty"` // True for contained-failure responses
	GeneratedAt  time.Time            `json:"generated_at"`
}
