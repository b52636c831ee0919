package pipeline

import "testing"

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain object",
			raw:  `{"paid": "amt_paid"}`,
			want: `{"paid": "amt_paid"}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"paid\": \"amt_paid\"}\n```",
			want: `{"paid": "amt_paid"}`,
		},
		{
			name: "bare fence",
			raw:  "```\n{\"paid\": \"amt_paid\"}\n```",
			want: `{"paid": "amt_paid"}`,
		},
		{
			name: "leading prose",
			raw:  "Here is the mapping:\n{\"paid\": \"amt_paid\"}",
			want: `{"paid": "amt_paid"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
