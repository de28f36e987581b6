package usecase

import (
	"fmt"
	"strings"

	"SalesPulse/internal/domain/models"
	xutil "SalesPulse/pkg/util"
)

const (
	forecastSystemPrompt = "You are a sales forecasting expert."
	dealSystemPrompt     = "You are a senior sales strategist."
)

func forecastExplanationPrompt(f models.ForecastResult, r models.RiskAssessment) string {
	return fmt.Sprintf(`You are a sales analyst. Explain this forecast concisely:

**Forecast:**
- Date: %s
- Predicted: %s

**Risk:**
- Level: %s (%d/100)
- Reliability: %s
- Deviation: %.1f%%

Provide:
1. Brief summary (1-2 sentences)
2. Risk explanation
3. 3 actionable recommendations
`, xutil.FormatDate(f.Date), xutil.FormatMoney(f.Ensemble), r.RiskLevel, r.RiskScore, r.Reliability, r.DeviationFromMean)
}

func dealInsightPrompt(opp models.Opportunity, a models.DealRiskAssessment) string {
	return fmt.Sprintf(`Analyze this Salesforce Opportunity and provide strategic insights:

**Deal Info:**
- Name: %s
- Amount: %s
- Stage: %s
- Close Date: %s

**AI Risk Assessment:**
- Win Probability: %.1f%%
- Risk Category: %s
- Risk Factors: %s

Please provide:
1. **Executive Summary**: 2-3 paragraphs on deal health.
2. **Action Recommendations**: 3-5 bullet points for the sales rep.
3. **Outreach Email Draft**: A personalized email template for the customer.
4. **Competitive Strategy**: Advice on positioning.
`, opp.Name, xutil.FormatMoney(opp.Amount), opp.Stage, xutil.FormatDate(opp.CloseDate),
		a.WinProbability*100, a.RiskCategory, strings.Join(a.KeyFactors, ", "))
}

// dealAlert builds the chat alert for a deal that needs attention.
func dealAlert(opp models.Opportunity, a models.DealRiskAssessment, link string) models.Alert {
	owner := opp.OwnerName
	if owner == "" {
		owner = opp.OwnerID
	}
	if owner == "" {
		owner = "Unassigned"
	}
	msg := fmt.Sprintf("*Deal:* %s\n*Amount:* %s\n*Win Probability:* %.1f%%\n*Owner:* %s",
		opp.Name, xutil.FormatMoney(opp.Amount), a.WinProbability*100, owner)
	if link != "" {
		msg += fmt.Sprintf("\n\n<%s|View Deal & Recommendations>", link)
	}

	severity := models.SeverityWarning
	if a.RiskCategory == models.CategoryHigh {
		severity = models.SeverityCritical
	}
	return models.Alert{
		Title:    "High-Risk Deal Alert",
		Message:  msg,
		Severity: severity,
		Link:     link,
		Fields: map[string]string{
			"opportunity_id": opp.ID,
			"risk_category":  string(a.RiskCategory),
		},
	}
}
