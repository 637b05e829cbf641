package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/concierge/internal/engagement"
	"github.com/soyeahso/concierge/internal/llm"
	"github.com/soyeahso/concierge/internal/logging"
)

// DefaultEmptyReplyText stands in for a completion with no text.
const DefaultEmptyReplyText = "Desculpe, estou processando muitas leis no momento. Poderia repetir?"

// DefaultTemperature applies when no temperature is configured.
const DefaultTemperature = 0.4

// Persona is the system instruction for the senior accountant assistant.
const Persona = `Você é o "Grand Prime Assistente Inteligente".
Sua base de conhecimento inclui:
1. Manuais internos da Grand Prime.
2. Leis tributárias brasileiras (CTN, Regulamento do IR, Leis do Simples Nacional).
3. Artigos técnicos de portais como IOB e Econet.

OBJETIVO:
Aja como um Contador Consultor Sênior. Ao responder, deixe claro que consultou essas fontes, com frases como "Verificando na legislação vigente..." ou "Segundo o manual interno...".

CAPTURA DE LEAD:
Se o usuário mostrar intenção de contratar (abrir empresa, trocar de contador, dúvida complexa), peça Nome, Email e Telefone.

ESTILO:
- Para "Quero abrir uma empresa", explique o processo de forma resumida e peça os dados para que um especialista entre em contato.
- Seja técnico, mas acessível.
- Termine com [AGENDAR_REUNIAO] quando o lead estiver pronto para uma reunião.

Exemplo:
Usuário: "MEI paga IRPJ?"
Assistente: "Consultando a Lei Complementar nº 123/2006... O MEI é isento de IRPJ, CSLL, PIS e COFINS e paga apenas um valor fixo mensal no DAS. Atenção ao limite de R$ 81 mil anuais."`

// LLMOptions configures an LLMResponder.
type LLMOptions struct {
	Model        string
	SystemPrompt string // replaces Persona when set
	Temperature  *float64
	MaxTokens    int
	// EmptyReplyText nil means DefaultEmptyReplyText.
	EmptyReplyText *string
}

// LLMResponder answers visitor messages through a completion client.
type LLMResponder struct {
	client      llm.Client
	model       string
	system      string
	temperature *float64
	maxTokens   int
	emptyText   string
	log         *logging.Logger
}

// NewLLM creates a responder for the given client.
func NewLLM(client llm.Client, opts LLMOptions, log *logging.Logger) *LLMResponder {
	r := &LLMResponder{
		client:      client,
		model:       opts.Model,
		system:      Persona,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		emptyText:   DefaultEmptyReplyText,
		log:         log.Sub("responder.llm"),
	}
	if opts.SystemPrompt != "" {
		r.system = opts.SystemPrompt
	}
	if r.temperature == nil {
		t := DefaultTemperature
		r.temperature = &t
	}
	if opts.EmptyReplyText != nil {
		r.emptyText = *opts.EmptyReplyText
	}
	return r
}

// Respond makes one completion call. Transport and API errors are
// returned as is; an empty completion is a successful reply.
func (r *LLMResponder) Respond(ctx context.Context, q engagement.Query) (engagement.Reply, error) {
	resp, err := r.client.Complete(ctx, llm.CompletionRequest{
		Model:       r.model,
		System:      r.system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: BuildPrompt(q)}},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return engagement.Reply{}, fmt.Errorf("%s completion: %w", r.client.Name(), err)
	}

	r.log.Debug().
		Str("context", string(q.Context)).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Dur("took", resp.Duration).
		Str("stop", resp.StopReason).
		Msg("completion done")

	text := resp.Content
	if strings.TrimSpace(text) == "" {
		text = r.emptyText
	}
	return engagement.ParseReply(text), nil
}

// BuildPrompt renders the recent history and the visitor message into a
// single user prompt.
func BuildPrompt(q engagement.Query) string {
	return "Histórico recente: " + strings.Join(q.History, " | ") + "\nUsuário agora: " + q.Text
}
