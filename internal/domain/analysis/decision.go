package analysis

import "strings"

// Action is the structured trading action extracted from agent output.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Valid reports whether the action is one of BUY, SELL, HOLD.
func (a Action) Valid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionHold:
		return true
	}
	return false
}

// String returns the action token.
func (a Action) String() string {
	return string(a)
}

// ParseAction normalizes a raw token into an Action. The second return
// value is false when the token is not a recognized action.
func ParseAction(token string) (Action, bool) {
	a := Action(strings.ToUpper(strings.TrimSpace(token)))
	if a.Valid() {
		return a, true
	}
	return "", false
}

// AnalystKind identifies a report slot and the analyst that owns it.
type AnalystKind string

const (
	AnalystMarket       AnalystKind = "market"
	AnalystNews         AnalystKind = "news"
	AnalystSocial       AnalystKind = "social"
	AnalystFundamentals AnalystKind = "fundamentals"
)

// Valid reports whether the kind names a known analyst.
func (k AnalystKind) Valid() bool {
	switch k {
	case AnalystMarket, AnalystNews, AnalystSocial, AnalystFundamentals:
		return true
	}
	return false
}

// Proposal is the trader's draft decision, written once after the
// research debate concludes.
type Proposal struct {
	Action    Action
	Rationale string
}

// Decision is the terminal structured signal issued by the portfolio
// manager. Once set on a State the state becomes immutable.
type Decision struct {
	Action     Action
	Confidence float64
	Rationale  string

	// Caveat records why a safe default was applied, e.g. the terminal
	// output could not be parsed. Empty for cleanly extracted decisions.
	Caveat string
}
