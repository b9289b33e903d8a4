package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"name": "Maria"}`,
			want:  `{"name": "Maria"}`,
			ok:    true,
		},
		{
			name:  "object wrapped in prose",
			input: "Aqui está o resultado:\n```json\n{\"name\": null}\n```\nEspero ter ajudado!",
			want:  `{"name": null}`,
			ok:    true,
		},
		{
			name:  "nested objects are kept whole",
			input: `prefix {"a": {"b": 1}} suffix`,
			want:  `{"a": {"b": 1}}`,
			ok:    true,
		},
		{
			name:  "braces inside strings do not close the object",
			input: `{"reason": "peso e saúde {importante}"}`,
			want:  `{"reason": "peso e saúde {importante}"}`,
			ok:    true,
		},
		{
			name:  "escaped quote inside string",
			input: `{"name": "Jo\"o"} trailing`,
			want:  `{"name": "Jo\"o"}`,
			ok:    true,
		},
		{
			name:  "no object at all",
			input: "desculpe, não consegui entender",
			ok:    false,
		},
		{
			name:  "unbalanced object",
			input: `{"name": "Maria"`,
			ok:    false,
		},
		{
			name:  "empty input",
			input: "",
			ok:    false,
		},
		{
			name:  "first of two objects wins",
			input: `{"a": 1} {"b": 2}`,
			want:  `{"a": 1}`,
			ok:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstJSONObject(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
