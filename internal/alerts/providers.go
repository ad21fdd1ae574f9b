package alerts

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Provider supplies one batch of alerts from a single feed.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, now time.Time) ([]Alert, error)
}

// Rand is the randomness the jittered feeds draw from.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// lockedRand serializes access to a non thread-safe source; providers run concurrently.
type lockedRand struct {
	mu  sync.Mutex
	src Rand
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

// jitterMinutes returns a value in [lo, hi], both inclusive.
func jitterMinutes(rng Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

type providerFunc struct {
	name string
	fn   func(ctx context.Context, now time.Time) ([]Alert, error)
}

// NewProviderFunc adapts a plain function into a Provider.
func NewProviderFunc(name string, fn func(ctx context.Context, now time.Time) ([]Alert, error)) Provider {
	return providerFunc{name: name, fn: fn}
}

func (p providerFunc) Name() string { return p.name }

func (p providerFunc) Fetch(ctx context.Context, now time.Time) ([]Alert, error) {
	return p.fn(ctx, now)
}

// DefaultProviders returns the three built-in feeds in their fixed order.
func DefaultProviders(rng Rand) []Provider {
	return []Provider{
		cryptoNewsProvider{},
		defiExploitProvider{rng: rng},
		scamPatternProvider{rng: rng},
	}
}

// Crypto news: real incidents with fixed offsets.

type newsIncident struct {
	title       string
	description string
	amount      string
	severity    Severity
	link        string
	minutesAgo  int
}

var newsIncidents = []newsIncident{
	{
		title:       "WazirX Exchange Hack: $230M Stolen",
		description: "Major Indian crypto exchange WazirX suffers massive hack affecting over 200 tokens",
		amount:      "$230M",
		severity:    SeverityHigh,
		link:        "https://cointelegraph.com/news/wazirx-exchange-suffers-230m-hack-affecting-hundreds-of-tokens",
		minutesAgo:  45,
	},
	{
		title:       "DMM Bitcoin Exchange Closure: $320M Lost",
		description: "Japanese exchange DMM Bitcoin announces closure after massive security breach",
		amount:      "$320M",
		severity:    SeverityHigh,
		link:        "https://www.coindesk.com/business/2024/05/31/japans-dmm-bitcoin-exchange-loses-320m-in-hack/",
		minutesAgo:  180,
	},
	{
		title:       "UwU Lend DeFi Protocol Exploit: $20M Drained",
		description: "Anime-themed DeFi protocol UwU Lend suffers flash loan attack",
		amount:      "$20M",
		severity:    SeverityHigh,
		link:        "https://decrypt.co/234789/uwu-lend-defi-protocol-hacked-20-million",
		minutesAgo:  360,
	},
}

type cryptoNewsProvider struct{}

func (cryptoNewsProvider) Name() string { return "crypto-news" }

func (cryptoNewsProvider) Fetch(ctx context.Context, now time.Time) ([]Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alerts := make([]Alert, 0, len(newsIncidents))
	for _, incident := range newsIncidents {
		alerts = append(alerts, Alert{
			Title:       incident.title,
			Description: incident.description,
			AmountLost:  incident.amount,
			Source:      "CryptoNews",
			Timestamp:   minutesAgo(now, incident.minutesAgo),
			Severity:    incident.severity,
			Link:        incident.link,
		})
	}
	return alerts, nil
}

// DeFi exploits: simulated, jittered 5..180 minutes back.

const (
	defiJitterMin = 5
	defiJitterMax = 180
)

type defiExploit struct {
	protocol    string
	amount      string
	exploitType string
	severity    Severity
}

var defiExploits = []defiExploit{
	{protocol: "FlashLoan Protocol", amount: "$1.2M", exploitType: "Flash loan attack", severity: SeverityHigh},
	{protocol: "Bridge Protocol", amount: "$4.1M", exploitType: "Cross-chain bridge exploit", severity: SeverityHigh},
	{protocol: "Yield Farm", amount: "$340K", exploitType: "Rug pull detected", severity: SeverityMedium},
}

type defiExploitProvider struct {
	rng Rand
}

func (defiExploitProvider) Name() string { return "defi-exploits" }

func (p defiExploitProvider) Fetch(ctx context.Context, now time.Time) ([]Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alerts := make([]Alert, 0, len(defiExploits))
	for _, exploit := range defiExploits {
		alerts = append(alerts, Alert{
			Title:       fmt.Sprintf("DeFi Exploit: %s - %s", exploit.protocol, exploit.amount),
			Description: fmt.Sprintf("%s resulted in %s loss", exploit.exploitType, exploit.amount),
			AmountLost:  exploit.amount,
			Source:      "DeFi Security",
			Timestamp:   minutesAgo(now, jitterMinutes(p.rng, defiJitterMin, defiJitterMax)),
			Severity:    exploit.severity,
			Link:        "https://defisafety.com",
		})
	}
	return alerts, nil
}

// Scam patterns: simulated, jittered 10..300 minutes back, severity from amount.

const (
	scamJitterMin = 10
	scamJitterMax = 300
)

var highSeverityThreshold = decimal.NewFromInt(100)

type scamPattern struct {
	scamType string
	target   string
	amount   string
	method   string
}

var scamPatterns = []scamPattern{
	{scamType: "Phishing", target: "MetaMask users", amount: "$45K", method: "Fake airdrop website"},
	{scamType: "Social Engineering", target: "Discord crypto community", amount: "$78K", method: "Fake customer support scam"},
	{scamType: "Fake Exchange", target: "New crypto investors", amount: "$234K", method: "Clone of popular DEX"},
	{scamType: "NFT Scam", target: "NFT collectors", amount: "$67K", method: "Malicious mint draining wallets"},
}

type scamPatternProvider struct {
	rng Rand
}

func (scamPatternProvider) Name() string { return "scam-patterns" }

func (p scamPatternProvider) Fetch(ctx context.Context, now time.Time) ([]Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alerts := make([]Alert, 0, len(scamPatterns))
	for _, scam := range scamPatterns {
		severity, err := severityForAmount(scam.amount)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, Alert{
			Title:       fmt.Sprintf("%s Scam Alert: %s stolen", scam.scamType, scam.amount),
			Description: fmt.Sprintf("%s targeting %s", scam.method, scam.target),
			AmountLost:  scam.amount,
			Source:      "Scam Detection",
			Timestamp:   minutesAgo(now, jitterMinutes(p.rng, scamJitterMin, scamJitterMax)),
			Severity:    severity,
			Link:        "https://scam-database.com",
		})
	}
	return alerts, nil
}

// severityForAmount compares the bare number of an amount such as "$234K"
// against 100. The unit suffix is dropped, not applied.
func severityForAmount(amount string) (Severity, error) {
	numeric := strings.NewReplacer("$", "", "K", "", "M", "").Replace(amount)
	value, err := decimal.NewFromString(strings.TrimSpace(numeric))
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if value.GreaterThan(highSeverityThreshold) {
		return SeverityHigh, nil
	}
	return SeverityMedium, nil
}
