package model

// RequirementCategory classifies what kind of help the traveler is asking for
type RequirementCategory string

const (
	CategoryRoutePlanning         RequirementCategory = "route_planning"         // Multi-island itinerary questions
	CategoryTimeQuery             RequirementCategory = "time_query"             // Schedule/timetable questions
	CategoryConvenienceComparison RequirementCategory = "convenience_comparison" // "Which is easier to reach?"
	CategoryPriceComparison       RequirementCategory = "price_comparison"       // Fare questions
	CategoryGeneralConsultation   RequirementCategory = "general_consultation"   // Anything else
)

// ParseRequirementCategory validates a category string against the closed set.
// Unknown values report ok=false so callers can clamp to the default.
func ParseRequirementCategory(s string) (RequirementCategory, bool) {
	switch RequirementCategory(s) {
	case CategoryRoutePlanning, CategoryTimeQuery, CategoryConvenienceComparison,
		CategoryPriceComparison, CategoryGeneralConsultation:
		return RequirementCategory(s), true
	}
	return CategoryGeneralConsultation, false
}

// Transport describes where and how the traveler starts
type Transport struct {
	Location string `json:"location,omitempty"` // e.g. "高松机场"
	Time     string `json:"time,omitempty"`     // HH:MM if known
	Mode     string `json:"mode,omitempty"`     // e.g. "飞机", "火车", "船运"
}

// TravelRequirement is the structured form of a user query.
// It is created once per query by the extractor and immutable afterwards.
type TravelRequirement struct {
	Category           RequirementCategory `json:"category"`
	Departure          Transport           `json:"departure"`
	DestinationOptions []string            `json:"destination_options"` // Order meaningful for tie-breaks
	Constraints        map[string]string   `json:"constraints,omitempty"`
	Priority           string              `json:"priority,omitempty"` // What the user cares about most
	AnalysisNeeded     []string            `json:"analysis_needed,omitempty"`
	Confidence         float64             `json:"confidence"` // 0..1, lower for fallback extraction
}
