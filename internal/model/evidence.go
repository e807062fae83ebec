package model

import "time"

// EvidenceSource tags where a retrieved snippet came from
type EvidenceSource string

const (
	SourceStructuredRoute   EvidenceSource = "structured_route"   // Ferry route/timetable rows
	SourceStructuredPort    EvidenceSource = "structured_port"    // Port records
	SourceStructuredCompany EvidenceSource = "structured_company" // Operator records
	SourceVector            EvidenceSource = "vector"             // Semantic-search documents
)

// Structured reports whether the source is a structured (tabular) record
// as opposed to a semantic-search hit.
func (s EvidenceSource) Structured() bool {
	switch s {
	case SourceStructuredRoute, SourceStructuredPort, SourceStructuredCompany:
		return true
	}
	return false
}

// Evidence is a single retrieved snippet with relevance and provenance.
// Never mutated after creation; its lifetime is one pipeline run.
type Evidence struct {
	Source      EvidenceSource    `json:"source"`
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Relevance   float64           `json:"relevance"` // 0..1
	RetrievedAt time.Time         `json:"retrieved_at"`
}

// Route is one ferry connection row from the tabular source
type Route struct {
	Departure      string `json:"departure"`
	Arrival        string `json:"arrival"`
	DepartureTime  string `json:"departure_time"` // HH:MM
	ArrivalTime    string `json:"arrival_time"`
	Duration       string `json:"duration"`
	Company        string `json:"company"`
	ShipType       string `json:"ship_type"`
	AdultFare      string `json:"adult_fare"`
	ChildFare      string `json:"child_fare"`
	OperatingDays  string `json:"operating_days"`
	AllowsVehicles bool   `json:"allows_vehicles"`
	AllowsBicycles bool   `json:"allows_bicycles"`
	Notes          string `json:"notes"`
}

// Port is one harbor row from the tabular source
type Port struct {
	Name        string `json:"name"`
	Island      string `json:"island"`
	Address     string `json:"address"`
	Features    string `json:"features"`
	Connections string `json:"connections"` // Comma-separated reachable places
}

// Company is one ferry operator row from the tabular source
type Company struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Website    string `json:"website"`
	MainRoutes string `json:"main_routes"`
	Notes      string `json:"notes"`
}
