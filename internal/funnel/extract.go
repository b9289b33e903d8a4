package funnel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/llm"
	"github.com/renato-saldanha/talk-to-api/internal/model"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
	"github.com/renato-saldanha/talk-to-api/pkg/metrics"
)

// Extractor pulls structured lead fields out of free-form messages with an
// LLM. It is advisory: any failure yields an empty update and the turn
// continues with the fields it already had.
type Extractor struct {
	completer llm.Completer
	logger    *logger.Logger
}

// NewExtractor creates a new field extractor.
func NewExtractor(completer llm.Completer, log *logger.Logger) *Extractor {
	return &Extractor{completer: completer, logger: log}
}

// extractedFields is the JSON shape the model is asked to return.
type extractedFields struct {
	Name             *string `json:"name"`
	BirthDate        *string `json:"birthDate"`
	WeightLossReason *string `json:"weightLossReason"`
}

// Extract analyzes the latest user message in context and returns a partial
// field update. Unparsable output and provider failures both degrade to an
// empty update.
func (e *Extractor) Extract(ctx context.Context, st TurnState) model.Fields {
	if len(st.Messages) == 0 {
		return model.Fields{}
	}

	resp, err := e.completer.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "user", Content: e.buildPrompt(st)},
		},
		Temperature: 0.0,
	})
	if err != nil {
		e.logger.Warn("field extraction call failed, keeping known fields", zap.Error(err))
		metrics.RecordProviderError(e.completer.Name(), "extract")
		return model.Fields{}
	}

	raw, ok := firstJSONObject(resp.Content)
	if !ok {
		e.logger.Warn("extractor returned no JSON object, keeping known fields")
		return model.Fields{}
	}

	var extracted extractedFields
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		e.logger.Warn("extractor returned malformed JSON, keeping known fields", zap.Error(err))
		return model.Fields{}
	}

	return model.Fields{
		Name:             cleanField(extracted.Name),
		BirthDate:        normalizeBirthDate(extracted.BirthDate),
		WeightLossReason: cleanField(extracted.WeightLossReason),
	}
}

func (e *Extractor) buildPrompt(st TurnState) string {
	last := st.Messages[len(st.Messages)-1]

	var sb strings.Builder
	sb.WriteString("Analise a mensagem do usuário e extraia as informações relevantes.\n")
	sb.WriteString("O usuário está em um fluxo para coletar: nome, data de nascimento e motivo para emagrecer.\n")
	sb.WriteString("A mensagem pode estar em português (ex.: \"Meu nome é Maria\", \"15/03/1990\", \"Preciso fazer cirurgia\").\n\n")
	fmt.Fprintf(&sb, "Mensagem do usuário: %q\n\n", last.Content)

	sb.WriteString("Contexto da conversa:\n")
	for _, m := range st.Messages[:len(st.Messages)-1] {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}

	sb.WriteString("\nEstado atual:\n")
	fmt.Fprintf(&sb, "- Nome: %s\n", fieldOr(st.Fields.Name, "não coletado"))
	fmt.Fprintf(&sb, "- Data de nascimento: %s\n", fieldOr(st.Fields.BirthDate, "não coletado"))
	fmt.Fprintf(&sb, "- Motivo para emagrecer: %s\n", fieldOr(st.Fields.WeightLossReason, "não coletado"))
	fmt.Fprintf(&sb, "- Etapa do funil: %s\n\n", st.Step)

	sb.WriteString("Retorne APENAS um objeto JSON com as chaves exatas:\n")
	sb.WriteString("- name: nome extraído (se houver na mensagem, senão null)\n")
	sb.WriteString("- birthDate: data de nascimento em YYYY-MM-DD (ex.: 1990-03-15; se houver, senão null)\n")
	sb.WriteString("- weightLossReason: motivo para emagrecer extraído (se houver, senão null)\n\n")
	sb.WriteString("Retorne SOMENTE JSON válido, sem outro texto.")

	return sb.String()
}

// cleanField trims the value and drops it entirely when blank.
func cleanField(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeBirthDate accepts only calendar dates already in YYYY-MM-DD form;
// anything else is treated as not extracted.
func normalizeBirthDate(v *string) *string {
	cleaned := cleanField(v)
	if cleaned == nil {
		return nil
	}
	if _, err := time.Parse("2006-01-02", *cleaned); err != nil {
		return nil
	}
	return cleaned
}

func fieldOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
