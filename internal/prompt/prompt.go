// Package prompt renders the instruction documents sent to the model.
// Every builder is pure: the same input always yields the same text.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"worldforge/internal/domain"
)

// None is rendered in place of absent optional data.
const None = "None"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

var personas = map[domain.Era]string{
	domain.EraPrimal: "You are a 'Primal Era' Simulator. Your worldview MUST be PRIMEVAL, SIMPLE, and SUPERSTITIOUS. " +
		"Your goals are Survival, Safety, and Basic Understanding (e.g., 'The sickness is an angry spirit'). " +
		"You are FORBIDDEN from generating narratives with complex concepts like 'long-term planning', 'economics', or 'philosophy'.",
	domain.EraTribal: "You are a 'Tribal Era' Simulator. Your worldview MUST be KIN-BOUND, RITUAL, and TERRITORIAL. " +
		"Your goals are the strength of the clan, the honour of the ancestors, and the land that feeds them. " +
		"You are FORBIDDEN from generating narratives with written law, coinage, or empires.",
	domain.EraClassical: "You are a 'Classical Era' Simulator. Your worldview MUST be CIVIC, AMBITIOUS, and INQUISITIVE. " +
		"Your goals are Law, Trade, Learning, and Legacy. Cities, writing, and organized faith are part of everyday life.",
}

// Persona returns the era persona, falling back to the Primal one.
func Persona(era domain.Era) string {
	if p, ok := personas[era]; ok {
		return p
	}
	return personas[domain.EraPrimal]
}

func render(name string, data interface{}) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func renderPair(prefix string, data interface{}) (system, user string, err error) {
	if system, err = render(prefix+"_system", data); err != nil {
		return "", "", err
	}
	if user, err = render(prefix+"_user", data); err != nil {
		return "", "", err
	}
	return system, user, nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return None
	}
	return s
}

func joinOrNone[T ~string](items []T) string {
	if len(items) == 0 {
		return None
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = string(it)
	}
	return strings.Join(parts, ", ")
}
