package model

// SearchParams narrows a retrieval step to a route pair and time window
type SearchParams struct {
	Departure   string `json:"departure,omitempty"`
	Destination string `json:"destination,omitempty"`
	TimeFilter  string `json:"time_filter,omitempty"` // HH:MM lower bound on departures
}

// StrategyStep is one retrieval or analysis action in a query strategy.
// A step with a non-empty AnalysisType carries no retrieval obligation.
type StrategyStep struct {
	Step         int          `json:"step"`
	Action       string       `json:"action"`
	DataNeeded   []string     `json:"data_needed,omitempty"`
	SearchParams SearchParams `json:"search_params,omitempty"`
	AnalysisType string       `json:"analysis_type,omitempty"`
	Priority     string       `json:"priority,omitempty"`
}

// QueryStrategy is an ordered plan of retrieval/analysis steps for one requirement.
// Produced by the planner, consumed read-only by the retriever.
type QueryStrategy struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Steps            []StrategyStep `json:"steps"`
	AnalysisCriteria []string       `json:"analysis_criteria,omitempty"`
	ExpectedOutcome  string         `json:"expected_outcome,omitempty"`
}
