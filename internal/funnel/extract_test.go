package funnel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renato-saldanha/talk-to-api/internal/llm"
	"github.com/renato-saldanha/talk-to-api/internal/model"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
)

// fakeCompleter returns a canned response or error and records the requests
// it receives.
type fakeCompleter struct {
	content  string
	err      error
	requests []*llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeCompleter) Name() string { return "fake" }

func turnWithMessage(content string) TurnState {
	return TurnState{
		PhoneNumber: "+5511999990000",
		Step:        model.StepCollectName,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: content},
		},
	}
}

func TestExtractParsesModelOutput(t *testing.T) {
	completer := &fakeCompleter{
		content: `{"name": "Maria Silva", "birthDate": "1990-03-15", "weightLossReason": null}`,
	}
	extractor := NewExtractor(completer, logger.NewNop())

	fields := extractor.Extract(context.Background(), turnWithMessage("Meu nome é Maria Silva, nasci em 15/03/1990"))

	assert.Equal(t, "Maria Silva", *fields.Name)
	assert.Equal(t, "1990-03-15", *fields.BirthDate)
	assert.Nil(t, fields.WeightLossReason)
}

func TestExtractToleratesProseAroundJSON(t *testing.T) {
	completer := &fakeCompleter{
		content: "Claro! Segue o JSON:\n```json\n{\"name\": \"João\", \"birthDate\": null, \"weightLossReason\": null}\n```",
	}
	extractor := NewExtractor(completer, logger.NewNop())

	fields := extractor.Extract(context.Background(), turnWithMessage("João"))

	assert.Equal(t, "João", *fields.Name)
}

func TestExtractDegradesToEmptyUpdate(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
	}{
		{name: "provider error", completer: &fakeCompleter{err: errors.New("timeout")}},
		{name: "no JSON in output", completer: &fakeCompleter{content: "não entendi"}},
		{name: "malformed JSON", completer: &fakeCompleter{content: `{"name": }`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewExtractor(tt.completer, logger.NewNop())
			fields := extractor.Extract(context.Background(), turnWithMessage("oi"))
			assert.Equal(t, model.Fields{}, fields)
		})
	}
}

func TestExtractEmptyTranscriptSkipsTheCall(t *testing.T) {
	completer := &fakeCompleter{content: `{"name": "x"}`}
	extractor := NewExtractor(completer, logger.NewNop())

	fields := extractor.Extract(context.Background(), TurnState{})

	assert.Equal(t, model.Fields{}, fields)
	assert.Empty(t, completer.requests)
}

func TestNormalizeBirthDate(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  *string
	}{
		{name: "valid ISO date", input: strptr("1990-03-15"), want: strptr("1990-03-15")},
		{name: "brazilian format is rejected", input: strptr("15/03/1990"), want: nil},
		{name: "impossible date is rejected", input: strptr("1990-13-45"), want: nil},
		{name: "blank is absent", input: strptr("  "), want: nil},
		{name: "nil stays nil", input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeBirthDate(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}
