package agents

import (
	"consilium/internal/adapters/ai"
	"consilium/internal/adapters/feeds"
	"consilium/internal/adapters/marketdata"
	"consilium/internal/domain/analysis"
	"consilium/internal/domain/memory"
	"consilium/internal/signal"
	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

// Deps carries everything the factory needs to assemble the full agent
// roster.
type Deps struct {
	Provider ai.Provider
	Model    string

	Market marketdata.Provider
	News   feeds.NewsProvider
	Social feeds.SocialProvider

	Memory  *memory.Service
	MemoryK int

	Extractor *signal.Extractor
	Prompts   *PromptRegistry
}

// BuildRegistry constructs one agent per role and registers them.
func BuildRegistry(deps Deps) (*Registry, error) {
	if deps.Provider == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "reasoning provider is required")
	}
	if deps.Extractor == nil {
		deps.Extractor = signal.NewExtractor()
	}
	if deps.Prompts == nil {
		prompts, err := NewPromptRegistry()
		if err != nil {
			return nil, err
		}
		deps.Prompts = prompts
	}

	log := logger.Get().With("component", "agents")
	reg := NewRegistry()

	for kind, role := range analystRoles {
		reg.Register(role, &Analyst{
			kind:     kind,
			role:     role,
			provider: deps.Provider,
			model:    deps.Model,
			prompts:  deps.Prompts,
			market:   deps.Market,
			news:     deps.News,
			social:   deps.Social,
			memory:   deps.Memory,
			memoryK:  deps.MemoryK,
			log:      log,
		})
	}

	reg.Register(RoleBullResearcher, &Researcher{
		speaker:  analysis.SpeakerBull,
		role:     RoleBullResearcher,
		provider: deps.Provider,
		model:    deps.Model,
		prompts:  deps.Prompts,
		memory:   deps.Memory,
		memoryK:  deps.MemoryK,
	})
	reg.Register(RoleBearResearcher, &Researcher{
		speaker:  analysis.SpeakerBear,
		role:     RoleBearResearcher,
		provider: deps.Provider,
		model:    deps.Model,
		prompts:  deps.Prompts,
		memory:   deps.Memory,
		memoryK:  deps.MemoryK,
	})

	for speaker, role := range map[string]Role{
		analysis.SpeakerAggressive:   RoleAggressiveDebator,
		analysis.SpeakerConservative: RoleConservativeDebator,
		analysis.SpeakerNeutral:      RoleNeutralDebator,
	} {
		reg.Register(role, &RiskDebator{
			speaker:  speaker,
			role:     role,
			provider: deps.Provider,
			model:    deps.Model,
			prompts:  deps.Prompts,
		})
	}

	reg.Register(RoleTrader, &Trader{
		provider:  deps.Provider,
		model:     deps.Model,
		prompts:   deps.Prompts,
		extractor: deps.Extractor,
		memory:    deps.Memory,
		memoryK:   deps.MemoryK,
	})

	reg.Register(RolePortfolioManager, &PortfolioManager{
		provider:  deps.Provider,
		model:     deps.Model,
		prompts:   deps.Prompts,
		extractor: deps.Extractor,
	})

	return reg, nil
}
