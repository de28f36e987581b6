package models

import "time"

// Pipeline stages known to the feature vector, in column order.
const (
	StageProspecting   = "Prospecting"
	StageQualification = "Qualification"
	StageNeedsAnalysis = "Needs Analysis"
	StageProposal      = "Proposal"
	StageNegotiation   = "Negotiation"
)

// Stages is the fixed one-hot vocabulary.
var Stages = [...]string{
	StageProspecting,
	StageQualification,
	StageNeedsAnalysis,
	StageProposal,
	StageNegotiation,
}

// Opportunity is a CRM deal as read by the scorer. Probability is 0-100;
// ActivityScore is 0-100 and optional.
type Opportunity struct {
	ID            string    `json:"id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	Amount        float64   `json:"amount" validate:"gte=0"`
	Stage         string    `json:"stage" validate:"required"`
	CloseDate     time.Time `json:"close_date" validate:"required"`
	CreatedDate   time.Time `json:"created_date" validate:"required"`
	Probability   float64   `json:"probability" validate:"gte=0,lte=100"`
	ActivityScore *float64  `json:"activity_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	OwnerID       string    `json:"owner_id,omitempty"`
	OwnerName     string    `json:"owner_name,omitempty"`
}

// DealFeatureVector is the classifier input for one opportunity.
type DealFeatureVector struct {
	Amount        float64              `json:"amount"`
	DaysOpen      int                  `json:"days_open"`
	DaysToClose   int                  `json:"days_to_close"`
	Probability   float64              `json:"probability"`
	IsHighValue   float64              `json:"is_high_value"`
	DealVelocity  float64              `json:"deal_velocity"`
	UrgencyFactor float64              `json:"urgency_factor"`
	StageFlags    [len(Stages)]float64 `json:"stage_flags"`
	ActivityScore float64              `json:"activity_score"`
}

// FeatureNames lists the columns of Values, in order.
func FeatureNames() []string {
	names := []string{"amount", "days_open", "days_to_close", "probability", "is_high_value", "deal_velocity", "urgency_factor"}
	for _, s := range Stages {
		names = append(names, "stage_"+s)
	}
	return append(names, "activity_score")
}

// Values flattens the vector in FeatureNames order.
func (v DealFeatureVector) Values() []float64 {
	out := []float64{
		v.Amount,
		float64(v.DaysOpen),
		float64(v.DaysToClose),
		v.Probability,
		v.IsHighValue,
		v.DealVelocity,
		v.UrgencyFactor,
	}
	out = append(out, v.StageFlags[:]...)
	return append(out, v.ActivityScore)
}

type RiskCategory string

const (
	CategoryLow    RiskCategory = "LOW"
	CategoryMedium RiskCategory = "MEDIUM"
	CategoryHigh   RiskCategory = "HIGH"
)

// DealRiskAssessment is the scored view of one opportunity.
type DealRiskAssessment struct {
	OpportunityID   string       `json:"opportunity_id"`
	OpportunityName string       `json:"opportunity_name"`
	WinProbability  float64      `json:"win_probability"`
	RiskScore       float64      `json:"risk_score"`
	RiskCategory    RiskCategory `json:"risk_category"`
	ActionPriority  RiskCategory `json:"action_priority"`
	KeyFactors      []string     `json:"key_factors"`
	Strategy        string       `json:"strategy"`
}

// HistoricalDeal is a closed opportunity with its known outcome.
type HistoricalDeal struct {
	Opportunity Opportunity `json:"opportunity" validate:"required"`
	Won         bool        `json:"won"`
}

// BacktestResult summarises scorer accuracy on closed deals.
type BacktestResult struct {
	Accuracy                float64 `json:"accuracy"`
	RecallOnWins            float64 `json:"recall_on_wins"`
	AtRiskRevenueIdentified float64 `json:"at_risk_revenue_identified"`
	TotalDealsAnalyzed      int     `json:"total_deals_analyzed"`
}
