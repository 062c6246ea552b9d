package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consilium/internal/domain/analysis"
	"consilium/pkg/errors"
)

func TestExtractor_ProposalMarkerWins(t *testing.T) {
	e := NewExtractor()

	raw := "The debate leaned toward selling, sell pressure everywhere.\n" +
		"FINAL TRANSACTION PROPOSAL: **BUY**"

	sig, err := e.Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, analysis.ActionBuy, sig.Action)
}

func TestExtractor_MarkerIsCaseInsensitive(t *testing.T) {
	e := NewExtractor()

	sig, err := e.Extract("final transaction proposal: hold")
	require.NoError(t, err)
	assert.Equal(t, analysis.ActionHold, sig.Action)
}

func TestExtractor_TokenFrequencyFallback(t *testing.T) {
	e := NewExtractor()

	sig, err := e.Extract("Arguments to buy are weak. We should sell; sell into strength.")
	require.NoError(t, err)
	assert.Equal(t, analysis.ActionSell, sig.Action)
}

func TestExtractor_TieBreaksTowardLaterToken(t *testing.T) {
	e := NewExtractor()

	sig, err := e.Extract("I considered buy at first, but on reflection: hold.")
	require.NoError(t, err)
	assert.Equal(t, analysis.ActionHold, sig.Action)
}

func TestExtractor_NoTokenIsParseFailure(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract("The committee is undecided and offers no recommendation.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestExtractor_EmbeddedWordsDoNotMatch(t *testing.T) {
	e := NewExtractor()

	// "buyback" and "household" must not count as action tokens.
	_, err := e.Extract("The buyback program supports household names.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseFailure))
}

func TestExtractor_Confidence(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		raw  string
		want float64
		has  bool
	}{
		{"BUY with confidence: 80%", 0.80, true},
		{"BUY, confidence 0.65", 0.65, true},
		{"HOLD. Confidence level of 45", 0.45, true},
		{"SELL now", 0, false},
	}

	for _, tt := range tests {
		sig, err := e.Extract(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.has, sig.HasConfidence, tt.raw)
		if tt.has {
			assert.InDelta(t, tt.want, sig.Confidence, 0.001, tt.raw)
		}
	}
}

func TestExtractor_Stance(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		raw  string
		want analysis.Action
	}{
		{"Strong upside, clearly bullish, accumulate on dips", analysis.ActionBuy},
		{"Overvalued with real downside, better to divest", analysis.ActionSell},
		{"Wait for clarity, stay neutral for now", analysis.ActionHold},
		{"No directional language at all.", analysis.ActionHold},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Stance(tt.raw), tt.raw)
	}
}
