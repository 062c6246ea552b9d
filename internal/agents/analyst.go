package agents

import (
	"context"
	"time"

	"consilium/internal/adapters/ai"
	"consilium/internal/adapters/feeds"
	"consilium/internal/adapters/marketdata"
	"consilium/internal/domain/analysis"
	"consilium/internal/domain/memory"
	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

const candleLookbackDays = 30

// Analyst produces the report for one write-once slot. Each kind reads
// a different data collaborator; data failures surface as agent
// failures for the engine to retry.
type Analyst struct {
	kind     analysis.AnalystKind
	role     Role
	provider ai.Provider
	model    string
	prompts  *PromptRegistry

	market marketdata.Provider
	news   feeds.NewsProvider
	social feeds.SocialProvider

	memory  *memory.Service
	memoryK int

	log *logger.Logger
}

var _ Agent = (*Analyst)(nil)

// Role returns the analyst role.
func (a *Analyst) Role() Role { return a.role }

// Act fetches the kind-specific context, renders the role prompt and
// returns the report delta.
func (a *Analyst) Act(ctx context.Context, view analysis.View) (*Delta, error) {
	if _, ok := view.Reports[a.kind]; ok {
		return nil, errors.Wrapf(errors.ErrReportExists, "analyst %s", a.kind)
	}

	docs, err := a.fetchContext(ctx, view.Ticker, view.Date)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch context for %s", a.kind)
	}

	lessons := recallLessons(ctx, a.memory,
		view.Ticker+" "+view.Date.Format("2006-01-02")+" "+string(a.kind), a.memoryK)

	prompt, err := a.prompts.Render(string(a.role), map[string]interface{}{
		"Ticker":  view.Ticker,
		"Date":    view.Date.Format("2006-01-02"),
		"Context": docs,
		"Lessons": lessons,
	})
	if err != nil {
		return nil, err
	}

	resp, err := complete(ctx, a.provider, a.model, prompt)
	if err != nil {
		return nil, err
	}

	a.log.Debugw("analyst report produced", "kind", a.kind, "tokens", resp.Usage.TotalTokens)

	return &Delta{
		Report: &ReportDelta{Kind: a.kind, Text: resp.Content},
		Usage:  resp.Usage,
	}, nil
}

// noContextNote stands in when an analyst has no data collaborator
// wired; the analyst then reasons from the prompt alone.
const noContextNote = "No external data available for this analysis. " +
	"Reason from general knowledge of the ticker and state any assumptions."

func (a *Analyst) fetchContext(ctx context.Context, ticker string, date time.Time) (string, error) {
	switch a.kind {
	case analysis.AnalystMarket:
		if a.market == nil {
			return noContextNote, nil
		}
		candles, err := a.market.Candles(ctx, ticker, date, candleLookbackDays)
		if err != nil {
			return "", err
		}
		return marketdata.RenderCandles(candles), nil

	case analysis.AnalystFundamentals:
		if a.market == nil {
			return noContextNote, nil
		}
		return a.market.Fundamentals(ctx, ticker, date)

	case analysis.AnalystNews:
		if a.news == nil {
			return noContextNote, nil
		}
		docs, err := a.news.FetchNews(ctx, ticker, date)
		if err != nil {
			return "", err
		}
		return feeds.RenderDocuments(docs), nil

	case analysis.AnalystSocial:
		if a.social == nil {
			return noContextNote, nil
		}
		docs, err := a.social.FetchSocial(ctx, ticker, date)
		if err != nil {
			return "", err
		}
		return feeds.RenderDocuments(docs), nil
	}

	return "", errors.Wrapf(errors.ErrInvalidInput, "unknown analyst kind %q", a.kind)
}
