// Package stats reduces trade sequences into aggregate figures used both by
// the live chat context and the per-session summary.
package stats

import (
	"github.com/shopspring/decimal"

	"tradechat/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Aggregate computes statistics over trades in a single pass. It is total:
// an empty input yields exact zero stats rather than dividing by zero.
// Trades with a flat P/L count toward the total but neither the winning nor
// the losing bucket.
func Aggregate(trades []types.Trade) types.AggregateStats {
	if len(trades) == 0 {
		return types.AggregateStats{
			NetProfitLoss:     decimal.Zero,
			WinRatePercent:    decimal.Zero,
			TotalMarginUsed:   decimal.Zero,
			AverageROIPercent: decimal.Zero,
		}
	}
	out := types.AggregateStats{
		TotalTrades:   len(trades),
		NetProfitLoss: decimal.Zero,
	}
	roiSum := decimal.Zero
	margin := decimal.Zero
	for _, tr := range trades {
		out.NetProfitLoss = out.NetProfitLoss.Add(tr.ProfitLoss)
		margin = margin.Add(tr.Margin)
		roiSum = roiSum.Add(tr.ROI)
		switch tr.ProfitLoss.Sign() {
		case 1:
			out.WinningTrades++
		case -1:
			out.LosingTrades++
		}
	}
	total := decimal.NewFromInt(int64(out.TotalTrades))
	out.TotalMarginUsed = margin
	out.WinRatePercent = decimal.NewFromInt(int64(out.WinningTrades)).Mul(hundred).Div(total)
	out.AverageROIPercent = roiSum.Div(total)
	return out
}
