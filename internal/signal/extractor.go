package signal

import (
	"regexp"
	"strconv"
	"strings"

	"consilium/internal/domain/analysis"
	"consilium/pkg/errors"
)

// Signal is the structured form of an agent's free-form output.
type Signal struct {
	Action        analysis.Action
	Confidence    float64
	HasConfidence bool
}

// Extractor parses free-form reasoning text into a Signal. It never
// defaults silently: when no action token is present the caller gets
// ErrParseFailure and decides whether to re-prompt or fall back.
type Extractor struct {
	proposal   *regexp.Regexp
	token      *regexp.Regexp
	confidence *regexp.Regexp

	bullish []*regexp.Regexp
	bearish []*regexp.Regexp
	neutral []*regexp.Regexp
}

// NewExtractor compiles the recognition patterns.
func NewExtractor() *Extractor {
	return &Extractor{
		// Explicit proposal marker wins over any token elsewhere in prose.
		proposal:   regexp.MustCompile(`(?i)FINAL\s+TRANSACTION\s+PROPOSAL\s*:?\s*\**\s*(BUY|SELL|HOLD)`),
		token:      regexp.MustCompile(`(?i)\b(BUY|SELL|HOLD)\b`),
		confidence: regexp.MustCompile(`(?i)confidence[^0-9]{0,16}([0-9]+(?:\.[0-9]+)?)\s*(%?)`),

		bullish: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(buy|long|bullish|upside|accumulate|undervalued|oversold)\b`),
		},
		bearish: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sell|short|bearish|downside|divest|overvalued|overbought)\b`),
		},
		neutral: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(hold|neutral|wait|sideways|stay put|no action)\b`),
		},
	}
}

// Extract parses raw text into a Signal. Returns ErrParseFailure when no
// recognizable action token exists.
func (e *Extractor) Extract(raw string) (Signal, error) {
	action, ok := e.extractAction(raw)
	if !ok {
		return Signal{}, errors.Wrap(errors.ErrParseFailure, "no action token found")
	}

	sig := Signal{Action: action}
	if conf, ok := e.extractConfidence(raw); ok {
		sig.Confidence = conf
		sig.HasConfidence = true
	}
	return sig, nil
}

func (e *Extractor) extractAction(raw string) (analysis.Action, bool) {
	if m := e.proposal.FindStringSubmatch(raw); m != nil {
		if a, ok := analysis.ParseAction(m[1]); ok {
			return a, true
		}
	}

	matches := e.token.FindAllString(raw, -1)
	if len(matches) == 0 {
		return "", false
	}

	// Most frequent token wins; on a tie the later occurrence decides,
	// since conclusions follow discussion.
	counts := map[analysis.Action]int{}
	var last analysis.Action
	for _, m := range matches {
		a, _ := analysis.ParseAction(m)
		counts[a]++
		last = a
	}

	best, bestCount := last, counts[last]
	for _, a := range []analysis.Action{analysis.ActionBuy, analysis.ActionSell, analysis.ActionHold} {
		if counts[a] > bestCount {
			best, bestCount = a, counts[a]
		}
	}
	return best, true
}

func (e *Extractor) extractConfidence(raw string) (float64, bool) {
	m := e.confidence.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if m[2] == "%" || val > 1 {
		val /= 100
	}
	if val < 0 {
		val = 0
	}
	if val > 1 {
		val = 1
	}
	return val, true
}

// Stance scores a risk debator's statement and returns the direction it
// supports. Unscoreable statements count as HOLD so they support neither
// direction in the consensus vote.
func (e *Extractor) Stance(raw string) analysis.Action {
	text := strings.ToLower(raw)

	score := func(patterns []*regexp.Regexp) int {
		n := 0
		for _, p := range patterns {
			n += len(p.FindAllString(text, -1))
		}
		return n
	}

	bull := score(e.bullish)
	bear := score(e.bearish)
	hold := score(e.neutral)

	switch {
	case bull > bear && bull > hold:
		return analysis.ActionBuy
	case bear > bull && bear > hold:
		return analysis.ActionSell
	default:
		return analysis.ActionHold
	}
}
