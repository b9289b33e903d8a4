package funnel

import (
	"github.com/renato-saldanha/talk-to-api/internal/model"
)

// ValidateStep decides whether freshly collected data is sufficient to
// advance past the current step. It only ever advances or stays put.
// collect_weight_loss_reason is deliberately not advanced here: leaving that
// step is gated by the qualification oracle, which runs downstream in the
// same turn.
func ValidateStep(st TurnState) model.FunnelStep {
	switch st.Step {
	case model.StepCollectName:
		if present(st.Fields.Name) {
			return model.StepCollectBirthDate
		}
	case model.StepCollectBirthDate:
		if present(st.Fields.BirthDate) {
			return model.StepCollectWeightLossReason
		}
	}
	return st.Step
}
