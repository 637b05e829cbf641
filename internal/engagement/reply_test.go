package engagement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     string
		schedule bool
	}{
		{"plain", "Claro, posso ajudar.", "Claro, posso ajudar.", false},
		{"trailing sentinel", "Posso ajudar! [AGENDAR_REUNIAO]", "Posso ajudar!", true},
		{"leading sentinel", "[AGENDAR_REUNIAO] Vamos marcar.", "Vamos marcar.", true},
		{"sentinel only", "[AGENDAR_REUNIAO]", "", true},
		{"repeated sentinel", "A [AGENDAR_REUNIAO] B [AGENDAR_REUNIAO]", "A  B", true},
		{"surrounding whitespace", "\n  Oi  \n", "Oi", false},
		{"empty", "", "", false},
		{"lowercase is not the sentinel", "[agendar_reuniao]", "[agendar_reuniao]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReply(tt.raw)
			assert.Equal(t, tt.want, got.Text)
			assert.Equal(t, tt.schedule, got.ScheduleRequested)
			assert.NotContains(t, got.Text, ScheduleSentinel)
		})
	}
}

func TestResponderFunc(t *testing.T) {
	var got Query
	r := ResponderFunc(func(_ context.Context, q Query) (Reply, error) {
		got = q
		return Reply{Text: "ok"}, nil
	})

	reply, err := r.Respond(context.Background(), Query{Text: "oi", Context: ContextNews})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Equal(t, ContextNews, got.Context)
}
