package analysis

import (
	"fmt"
	"strings"

	"consilium/pkg/errors"
)

// Turn is a single statement in a debate. History is append-only; turns
// are never edited or removed.
type Turn struct {
	Speaker   string
	Statement string
}

// Debate holds the bounded, strictly rotating conversation between
// opposing roles. The rotation is fixed at construction (e.g. bull, bear)
// and turn order never depends on completion time.
type Debate struct {
	rotation []string
	turns    []Turn
	summary  string
}

// NewDebate creates an empty debate with the given speaker rotation.
func NewDebate(rotation ...string) *Debate {
	return &Debate{rotation: append([]string(nil), rotation...)}
}

// NextSpeaker returns the speaker whose turn is next under the fixed
// rotation.
func (d *Debate) NextSpeaker() string {
	if len(d.rotation) == 0 {
		return ""
	}
	return d.rotation[len(d.turns)%len(d.rotation)]
}

// Append records a turn. The speaker must match the rotation; anything
// else indicates an orchestration bug and is rejected.
func (d *Debate) Append(speaker, statement string) error {
	if expected := d.NextSpeaker(); speaker != expected {
		return errors.Wrapf(errors.ErrInvalidInput,
			"out-of-rotation turn: got %q, expected %q", speaker, expected)
	}
	d.turns = append(d.turns, Turn{Speaker: speaker, Statement: statement})
	return nil
}

// Len returns the number of recorded turns.
func (d *Debate) Len() int {
	return len(d.turns)
}

// Rounds returns the number of completed rounds: one round is one full
// pass over the rotation.
func (d *Debate) Rounds() int {
	if len(d.rotation) == 0 {
		return 0
	}
	return len(d.turns) / len(d.rotation)
}

// Rotation returns a copy of the speaker rotation.
func (d *Debate) Rotation() []string {
	return append([]string(nil), d.rotation...)
}

// Turns returns a copy of the history.
func (d *Debate) Turns() []Turn {
	return append([]Turn(nil), d.turns...)
}

// LastBy returns the most recent statement by the given speaker.
func (d *Debate) LastBy(speaker string) (string, bool) {
	for i := len(d.turns) - 1; i >= 0; i-- {
		if d.turns[i].Speaker == speaker {
			return d.turns[i].Statement, true
		}
	}
	return "", false
}

// SetSummary stores the latest per-round summary.
func (d *Debate) SetSummary(summary string) {
	d.summary = summary
}

// Summary returns the latest summary, empty before the first round closes.
func (d *Debate) Summary() string {
	return d.summary
}

// Transcript renders the full history for prompt construction.
func (d *Debate) Transcript() string {
	if len(d.turns) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range d.turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Speaker, t.Statement)
	}
	return b.String()
}

// DebateView is the read-only snapshot of a debate handed to agents.
type DebateView struct {
	Turns      []Turn
	Rounds     int
	Summary    string
	Transcript string
}

// view captures the debate as an immutable snapshot.
func (d *Debate) view() DebateView {
	return DebateView{
		Turns:      d.Turns(),
		Rounds:     d.Rounds(),
		Summary:    d.summary,
		Transcript: d.Transcript(),
	}
}
