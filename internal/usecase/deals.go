package usecase

import (
	"context"
	"errors"
	"fmt"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/service"
	xutil "SalesPulse/pkg/util"
)

// ErrNoHistoricalDeals is returned by Backtest on empty input.
var ErrNoHistoricalDeals = errors.New("no historical deals provided")

// DealInsights scores a deal and asks for written recommendations.
type DealInsights struct {
	scorer   DealScorer
	insights service.TextInsightClient
}

func NewDealInsights(scorer DealScorer, insights service.TextInsightClient) *DealInsights {
	return &DealInsights{scorer: scorer, insights: insights}
}

func (d *DealInsights) Insights(ctx context.Context, opp models.Opportunity) (models.DealInsight, error) {
	a, err := d.scorer.PredictRisk(ctx, opp)
	if err != nil {
		return models.DealInsight{}, fmt.Errorf("deal insights: %w", err)
	}
	return models.DealInsight{
		Assessment: a,
		Insight:    d.insights.Generate(ctx, dealInsightPrompt(opp, a), dealSystemPrompt),
	}, nil
}

// Backtester replays closed deals through the scorer. A deal is predicted
// won when its win probability exceeds one half.
type Backtester struct {
	scorer DealScorer
}

func NewBacktester(scorer DealScorer) *Backtester {
	return &Backtester{scorer: scorer}
}

func (b *Backtester) Backtest(ctx context.Context, deals []models.HistoricalDeal) (models.BacktestResult, error) {
	if len(deals) == 0 {
		return models.BacktestResult{}, ErrNoHistoricalDeals
	}

	var correct, wins, caughtWins int
	var missedRevenue float64
	for _, deal := range deals {
		a, err := b.scorer.PredictRisk(ctx, deal.Opportunity)
		if err != nil {
			return models.BacktestResult{}, fmt.Errorf("backtest %s: %w", deal.Opportunity.ID, err)
		}
		predictedWin := a.WinProbability > 0.5
		if predictedWin == deal.Won {
			correct++
		}
		if deal.Won {
			wins++
			if predictedWin {
				caughtWins++
			} else {
				missedRevenue += deal.Opportunity.Amount
			}
		}
	}

	res := models.BacktestResult{
		Accuracy:                xutil.Round(float64(correct)/float64(len(deals)), 4),
		AtRiskRevenueIdentified: xutil.Round(missedRevenue, 2),
		TotalDealsAnalyzed:      len(deals),
	}
	if wins > 0 {
		res.RecallOnWins = xutil.Round(float64(caughtWins)/float64(wins), 4)
	}
	return res, nil
}
