// Package funnel implements the qualification funnel engine: a per-turn state
// machine that extracts lead fields from the transcript, resolves the active
// funnel step, runs the qualification oracle when a reason is on the table,
// and generates the next reply.
package funnel

import (
	"strings"

	"github.com/renato-saldanha/talk-to-api/internal/model"
)

// TurnState is the working record threaded through one engine invocation. It
// is owned by the invocation and discarded after its result is projected back
// onto the conversation.
type TurnState struct {
	PhoneNumber string
	Messages    []model.Message
	Fields      model.Fields
	Step        model.FunnelStep
	Reply       string
}

// event is the tagged union of things that can happen during a turn. The
// reducer folds each event into the state; stages never mutate state
// directly.
type event interface {
	isEvent()
}

// fieldsExtracted carries the extractor's (possibly partial) field update.
type fieldsExtracted struct {
	fields model.Fields
}

// stepResolved carries a step computed by detection or validation.
type stepResolved struct {
	step model.FunnelStep
}

// verdictReached carries the oracle's qualification decision.
type verdictReached struct {
	qualified bool
}

// replyGenerated carries the generated user-facing reply.
type replyGenerated struct {
	reply string
}

func (fieldsExtracted) isEvent() {}
func (stepResolved) isEvent()    {}
func (verdictReached) isEvent()  {}
func (replyGenerated) isEvent()  {}

// reduce folds an event into the turn state. Field updates are monotonic: a
// known value is only ever replaced by another non-blank value, never erased.
func reduce(st TurnState, ev event) TurnState {
	switch e := ev.(type) {
	case fieldsExtracted:
		st.Fields.Name = fold(st.Fields.Name, e.fields.Name)
		st.Fields.BirthDate = fold(st.Fields.BirthDate, e.fields.BirthDate)
		st.Fields.WeightLossReason = fold(st.Fields.WeightLossReason, e.fields.WeightLossReason)
		if e.fields.Qualified != nil {
			st.Fields.Qualified = e.fields.Qualified
		}
	case stepResolved:
		st.Step = e.step
	case verdictReached:
		qualified := e.qualified
		st.Fields.Qualified = &qualified
	case replyGenerated:
		st.Reply = e.reply
	}
	return st
}

// fold keeps the previous value unless the update carries a non-blank one.
func fold(prev, next *string) *string {
	if next == nil || strings.TrimSpace(*next) == "" {
		return prev
	}
	return next
}

// present reports whether a field holds a non-blank value.
func present(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
