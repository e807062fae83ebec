package model

// DestinationFeasibility is the schedule verdict for one candidate island
type DestinationFeasibility struct {
	Destination     string   `json:"destination"`
	Feasible        bool     `json:"feasible"`
	EarliestBoard   string   `json:"earliest_board,omitempty"` // HH:MM, arrival plus transfer buffer
	CatchableTimes  []string `json:"catchable_times,omitempty"`
	NextDeparture   string   `json:"next_departure,omitempty"`
	MissedToday     bool     `json:"missed_today,omitempty"` // No sailing left after the buffer
	Recommendation  string   `json:"recommendation,omitempty"`
	ScheduleSource  string   `json:"schedule_source,omitempty"` // "evidence" or "default"
	DeparturesTried []string `json:"departures_tried,omitempty"`
}

// FeasibilityAnalysis is the combined schedule verdict across all destinations
type FeasibilityAnalysis struct {
	ArrivalTime  string                   `json:"arrival_time,omitempty"` // Normalized HH:MM
	NextDay      bool                     `json:"next_day,omitempty"`     // Arrival rolled past midnight
	BufferMins   int                      `json:"buffer_mins"`
	Destinations []DestinationFeasibility `json:"destinations,omitempty"`
	Summary      string                   `json:"summary,omitempty"`
}
