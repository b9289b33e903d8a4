package funnel

import (
	"github.com/renato-saldanha/talk-to-api/internal/model"
)

// DetectStep computes the funnel step implied by the collected data. The
// qualification verdict dominates field completeness; after that the first
// missing field decides. When everything is collected but no verdict exists
// yet, the step is left unchanged.
func DetectStep(st TurnState) model.FunnelStep {
	if st.Fields.Qualified != nil {
		if *st.Fields.Qualified {
			return model.StepQualified
		}
		return model.StepRejected
	}

	if !present(st.Fields.Name) {
		return model.StepCollectName
	}

	if !present(st.Fields.BirthDate) {
		return model.StepCollectBirthDate
	}

	if !present(st.Fields.WeightLossReason) {
		return model.StepCollectWeightLossReason
	}

	return st.Step
}
