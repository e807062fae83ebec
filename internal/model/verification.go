package model

// VerificationStatus is the outcome of one verification check
type VerificationStatus string

const (
	StatusVerified     VerificationStatus = "verified"
	StatusUnverified   VerificationStatus = "unverified"
	StatusConflicting  VerificationStatus = "conflicting"  // Evidence contradicts the claim
	StatusInsufficient VerificationStatus = "insufficient" // Not enough data to judge
)

// ClaimType categorizes an atomic factual assertion found in prose
type ClaimType string

const (
	ClaimTime     ClaimType = "time"
	ClaimPrice    ClaimType = "price"
	ClaimOperator ClaimType = "operator"
	ClaimRoute    ClaimType = "route"
	ClaimPort     ClaimType = "port"
)

// RequiredConfidence returns the minimum average support a claim of this
// type needs before it counts as verified.
func (t ClaimType) RequiredConfidence() float64 {
	switch t {
	case ClaimTime:
		return 0.6
	case ClaimPrice:
		return 0.7
	case ClaimOperator:
		return 0.7
	case ClaimRoute:
		return 0.6
	case ClaimPort:
		return 0.5
	}
	return 0.6
}

// Claim is an atomic factual assertion extracted from generated prose
type Claim struct {
	Type    ClaimType `json:"type"`
	Value   string    `json:"value"`
	Context string    `json:"context,omitempty"` // Surrounding text, for diagnostics
}

// VerificationResult is the outcome of checking one fact or one evidence property
type VerificationResult struct {
	Fact       string             `json:"fact"`
	Status     VerificationStatus `json:"status"`
	Supporting []Evidence         `json:"supporting,omitempty"`
	Confidence float64            `json:"confidence"` // 0..1
	Details    string             `json:"details,omitempty"`
}

// DataQuality summarizes verification results for one pipeline run
type DataQuality struct {
	Label             string  `json:"label"` // excellent / good / fair / insufficient / no data
	Score             float64 `json:"score"`
	SourceReliability float64 `json:"source_reliability"`
	Completeness      float64 `json:"completeness"`
	Timeliness        float64 `json:"timeliness"`
	VerifiedCount     int     `json:"verified_count"`
	TotalCount        int     `json:"total_count"`
}
