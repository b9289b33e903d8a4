package funnel

import (
	"context"

	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/model"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
)

// maxQualifyPasses bounds qualification re-entry into detection. The flow
// needs exactly one pass; the bound keeps later extensions of the detection
// logic from looping.
const maxQualifyPasses = 1

// FieldExtractor extracts lead fields from the turn's transcript.
type FieldExtractor interface {
	Extract(ctx context.Context, st TurnState) model.Fields
}

// Oracle decides whether a weight-loss reason is strong enough to qualify.
type Oracle interface {
	IsQualified(ctx context.Context, reason string) bool
}

// ReplyGenerator produces the next user-facing message.
type ReplyGenerator interface {
	Generate(ctx context.Context, st TurnState) string
}

// Engine runs the per-turn funnel flow: extract, detect, validate, qualify
// when a reason is on the table, then generate the reply for the step the
// turn settled on.
type Engine struct {
	extractor FieldExtractor
	oracle    Oracle
	generator ReplyGenerator
	logger    *logger.Logger
}

// NewEngine creates a new funnel engine.
func NewEngine(extractor FieldExtractor, oracle Oracle, generator ReplyGenerator, log *logger.Logger) *Engine {
	return &Engine{
		extractor: extractor,
		oracle:    oracle,
		generator: generator,
		logger:    log,
	}
}

// Run executes one turn over the given state and returns the resulting
// state. It never fails: every stage degrades to a neutral fallback.
func (e *Engine) Run(ctx context.Context, st TurnState) TurnState {
	entryStep := st.Step

	st = reduce(st, fieldsExtracted{fields: e.extractor.Extract(ctx, st)})
	st = reduce(st, stepResolved{step: DetectStep(st)})
	st = reduce(st, stepResolved{step: ValidateStep(st)})

	for pass := 0; pass < maxQualifyPasses && e.needsQualification(st); pass++ {
		verdict := e.oracle.IsQualified(ctx, *st.Fields.WeightLossReason)
		st = reduce(st, verdictReached{qualified: verdict})
		st = reduce(st, stepResolved{step: DetectStep(st)})
	}

	st = reduce(st, replyGenerated{reply: e.generator.Generate(ctx, st)})

	e.logger.Debug("turn completed",
		zap.String("phone_number", st.PhoneNumber),
		zap.String("entry_step", string(entryStep)),
		zap.String("final_step", string(st.Step)),
	)

	return st
}

// needsQualification reports whether the oracle should run: the turn settled
// on collect_weight_loss_reason with a reason collected and no verdict yet.
func (e *Engine) needsQualification(st TurnState) bool {
	return st.Step == model.StepCollectWeightLossReason &&
		present(st.Fields.WeightLossReason) &&
		st.Fields.Qualified == nil
}
