package agents

import "consilium/internal/domain/analysis"

// Role enumerates the reasoning roles in the decision workflow.
type Role string

const (
	RoleMarketAnalyst       Role = "market_analyst"
	RoleNewsAnalyst         Role = "news_analyst"
	RoleSocialAnalyst       Role = "social_analyst"
	RoleFundamentalsAnalyst Role = "fundamentals_analyst"

	RoleBullResearcher Role = "bull_researcher"
	RoleBearResearcher Role = "bear_researcher"

	RoleAggressiveDebator   Role = "aggressive_debator"
	RoleConservativeDebator Role = "conservative_debator"
	RoleNeutralDebator      Role = "neutral_debator"

	RoleTrader           Role = "trader"
	RolePortfolioManager Role = "portfolio_manager"
)

// String returns the role name.
func (r Role) String() string { return string(r) }

var analystRoles = map[analysis.AnalystKind]Role{
	analysis.AnalystMarket:       RoleMarketAnalyst,
	analysis.AnalystNews:         RoleNewsAnalyst,
	analysis.AnalystSocial:       RoleSocialAnalyst,
	analysis.AnalystFundamentals: RoleFundamentalsAnalyst,
}

// AnalystRole maps a report slot to the analyst role that owns it.
func AnalystRole(kind analysis.AnalystKind) (Role, bool) {
	r, ok := analystRoles[kind]
	return r, ok
}

var speakerRoles = map[string]Role{
	analysis.SpeakerBull:         RoleBullResearcher,
	analysis.SpeakerBear:         RoleBearResearcher,
	analysis.SpeakerAggressive:   RoleAggressiveDebator,
	analysis.SpeakerConservative: RoleConservativeDebator,
	analysis.SpeakerNeutral:      RoleNeutralDebator,
}

// SpeakerRole maps a debate speaker to its agent role.
func SpeakerRole(speaker string) (Role, bool) {
	r, ok := speakerRoles[speaker]
	return r, ok
}
