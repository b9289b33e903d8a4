package funnel

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/llm"
	"github.com/renato-saldanha/talk-to-api/internal/model"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
	"github.com/renato-saldanha/talk-to-api/pkg/metrics"
)

// FallbackReply is returned when the reply provider fails. Reply generation
// must never abort a turn.
const FallbackReply = "Desculpe, ocorreu um erro. Por favor, tente novamente."

const languageRule = "Responda SEMPRE em português do Brasil."

// Generator produces the next user-facing message for the step the turn
// settled on.
type Generator struct {
	completer llm.Completer
	logger    *logger.Logger
}

// NewGenerator creates a new reply generator.
func NewGenerator(completer llm.Completer, log *logger.Logger) *Generator {
	return &Generator{completer: completer, logger: log}
}

// Generate builds the step-specific prompt and returns the model's trimmed
// reply, or the fixed fallback on provider failure.
func (g *Generator) Generate(ctx context.Context, st TurnState) string {
	resp, err := g.completer.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "user", Content: g.buildPrompt(st)},
		},
		Temperature: 0.8,
	})
	if err != nil {
		g.logger.Warn("reply generation failed, using fallback", zap.Error(err))
		metrics.RecordProviderError(g.completer.Name(), "generate")
		return FallbackReply
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return FallbackReply
	}
	return reply
}

func (g *Generator) buildPrompt(st TurnState) string {
	switch st.Step {
	case model.StepQualified:
		return fmt.Sprintf(`Você é um assistente amigável de uma clínica de saúde. O lead foi qualificado com base no motivo forte para emagrecer.

Histórico da conversa:
%s

Dados do lead:
- Nome: %s
- Data de nascimento: %s
- Motivo para emagrecer: %s

Gere uma resposta acolhedora e empática, parabenizando e oferecendo agendar uma avaliação gratuita. Seja profissional e amigável. Máximo 2-3 frases. %s`,
			transcript(st.Messages),
			fieldOr(st.Fields.Name, ""),
			fieldOr(st.Fields.BirthDate, ""),
			fieldOr(st.Fields.WeightLossReason, ""),
			languageRule)

	case model.StepRejected:
		return fmt.Sprintf(`Você é um assistente amigável de uma clínica de saúde. O lead não atende aos critérios de qualificação.

Histórico da conversa:
%s

Dados do lead:
- Nome: %s
- Data de nascimento: %s
- Motivo para emagrecer: %s

Gere uma resposta educada e respeitosa explicando que não é possível atendê-los no momento. Seja gentil e profissional. Máximo 2-3 frases. %s`,
			transcript(st.Messages),
			fieldOr(st.Fields.Name, ""),
			fieldOr(st.Fields.BirthDate, ""),
			fieldOr(st.Fields.WeightLossReason, ""),
			languageRule)

	case model.StepCollectName:
		return fmt.Sprintf(`Você é um assistente amigável de uma clínica de saúde, dando as boas-vindas a um novo lead. Peça o nome de forma acolhedora. Ex.: "Olá! Bem-vindo à clínica. Qual é o seu nome?" Mantenha breve (1-2 frases). %s`, languageRule)

	case model.StepCollectBirthDate:
		name := fieldOr(st.Fields.Name, "")
		return fmt.Sprintf(`Você é um assistente amigável de uma clínica de saúde. O nome do lead é %s. Peça a data de nascimento de forma amigável. Ex.: "Prazer, %s! Qual é a sua data de nascimento?" Mantenha breve (1-2 frases). %s`, name, name, languageRule)

	case model.StepCollectWeightLossReason:
		return fmt.Sprintf(`Você é um assistente amigável de uma clínica de saúde. O lead se chama %s e nasceu em %s. Peça o principal motivo para querer emagrecer. Seja empático e encorajador. Ex.: "Obrigada! Qual o principal motivo que te faz querer emagrecer?" Mantenha breve (1-2 frases). %s`,
			fieldOr(st.Fields.Name, ""),
			fieldOr(st.Fields.BirthDate, ""),
			languageRule)

	default:
		return fmt.Sprintf(`Você é um assistente amigável de uma clínica de saúde. Continue a conversa de forma natural. Mantenha breve e profissional. %s`, languageRule)
	}
}

func transcript(messages []model.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}
