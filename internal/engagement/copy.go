package engagement

import (
	"slices"
	"strings"
)

// ContextTag identifies the page the visitor is looking at.
type ContextTag string

// Known page contexts. Any other tag falls back to the default copy.
const (
	ContextHome       ContextTag = "home"
	ContextServices   ContextTag = "services"
	ContextNews       ContextTag = "news"
	ContextAbout      ContextTag = "about"
	ContextClientArea ContextTag = "client-area"
)

// KnownContexts lists the page contexts with dedicated copy.
var KnownContexts = []ContextTag{
	ContextHome,
	ContextServices,
	ContextNews,
	ContextAbout,
	ContextClientArea,
}

// ParseContext normalises a page signal into a tag. Upper-case and
// underscore forms ("CLIENT_AREA") are accepted. Unknown values are kept
// as-is so the default copy applies to them.
func ParseContext(s string) ContextTag {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return ContextTag(s)
}

// Known reports whether the tag has dedicated copy.
func (c ContextTag) Known() bool {
	return slices.Contains(KnownContexts, c)
}

// ContextCopy is the per-page conversation starter material.
type ContextCopy struct {
	Opening      string   `json:"opening"`
	QuickReplies []string `json:"quickReplies"`
}

var defaultCopy = ContextCopy{
	Opening:      "Olá! Sou a IA da Grand Prime. Posso ajudar você a otimizar seus impostos hoje?",
	QuickReplies: []string{"Como funciona?", "Quero um orçamento"},
}

var contextCopy = map[ContextTag]ContextCopy{
	ContextHome: {
		Opening:      "Olá! Sou o Assistente Virtual da Grand Prime. Notei seu interesse em reduzir custos. Sua empresa é de Serviços ou Comércio?",
		QuickReplies: []string{"Quero reduzir impostos", "Abrir minha empresa", "Falar com contador"},
	},
	ContextServices: {
		Opening:      "Olá! Posso agilizar seu atendimento. Qual serviço você procura com mais urgência hoje?",
		QuickReplies: []string{"Orçamento PJ", "Regularizar CPF", "Trocar de contador"},
	},
	ContextNews: {
		Opening:      "O cenário fiscal muda rápido! Se essa notícia impacta seu negócio, posso explicar como se proteger.",
		QuickReplies: []string{"Dúvida sobre a notícia", "Impacto no meu negócio"},
	},
	ContextAbout: {
		Opening:      "Gostou da nossa trajetória? Posso agendar uma visita para você conhecer nossa estrutura pessoalmente.",
		QuickReplies: defaultCopy.QuickReplies,
	},
	ContextClientArea: {
		Opening:      "Problemas com acesso? Posso conectar você diretamente ao suporte técnico.",
		QuickReplies: defaultCopy.QuickReplies,
	},
}

// CopyFor returns the starter copy for a context. The returned slice is a
// fresh copy and may be modified by the caller.
func CopyFor(c ContextTag) ContextCopy {
	cc, ok := contextCopy[c]
	if !ok {
		cc = defaultCopy
	}
	return ContextCopy{Opening: cc.Opening, QuickReplies: slices.Clone(cc.QuickReplies)}
}

// DefaultCopy returns the fallback copy used for unknown contexts.
func DefaultCopy() ContextCopy {
	return CopyFor("")
}

// OpeningFor returns the first bot line for a context.
func OpeningFor(c ContextTag) string {
	return CopyFor(c).Opening
}

// QuickRepliesFor returns the suggestion chips for a context.
func QuickRepliesFor(c ContextTag) []string {
	return CopyFor(c).QuickReplies
}

// Escalation copy, used once the inactivity timer fires.
const (
	EscalationOpenText = "Vi que você está conferindo nossa calculadora. Para eu simular uma economia exata, qual é o seu regime tributário atual?"
	EscalationHookText = "Posso simular sua economia tributária agora. Qual seu regime atual?"
)

var escalationReplies = []string{"Simples Nacional", "Lucro Presumido", "Lucro Real", "Não sei informar"}

// EscalationReplies returns the tax-regime suggestions offered after
// escalation.
func EscalationReplies() []string {
	return slices.Clone(escalationReplies)
}

// Teaser bubble copy.
const (
	TeaserHomeText    = "Sua empresa paga muito imposto? Posso fazer uma análise rápida."
	TeaserGenericText = "Olá! Posso te ajudar com uma dúvida técnica?"
)

// TeaserText picks the bubble line: the pending hook wins, then the home
// pitch, then the generic greeting.
func TeaserText(c ContextTag, pendingHook string) string {
	if pendingHook != "" {
		return pendingHook
	}
	if c == ContextHome {
		return TeaserHomeText
	}
	return TeaserGenericText
}

// ApologyText is appended under FailureApology when the provider call fails.
const ApologyText = "Estou analisando seu perfil, mas tive uma falha de conexão momentânea. Podemos falar no WhatsApp? (11) 94723-1355"

// SchedulingCardCopy is what a renderer shows for a SchedulingCard turn.
type SchedulingCardCopy struct {
	Title           string `json:"title"`
	Body            string `json:"body"`
	PrimaryAction   string `json:"primaryAction"`
	SecondaryAction string `json:"secondaryAction"`
}

// SchedulingCard returns the copy of the meeting-booking card.
func SchedulingCard() SchedulingCardCopy {
	return SchedulingCardCopy{
		Title:           "Agendamento Recomendado",
		Body:            "Vamos analisar seu caso em detalhes. Escolha um horário para nossa consultoria gratuita.",
		PrimaryAction:   "Agendar via Google Meet",
		SecondaryAction: "Chamar no WhatsApp",
	}
}
