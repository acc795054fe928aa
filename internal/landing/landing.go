// Package landing renders the WhatsApp hand-off page shown after a
// tracked redirect.
package landing

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
)

//go:embed redirect.html
var redirectHTML string

var redirectTemplate = template.Must(template.New("redirect").Parse(redirectHTML))

// Page is the data rendered into the hand-off page
type Page struct {
	WhatsAppURL string
	Message     string
	Description string
}

// Renderer builds WhatsApp URLs and renders the hand-off page
type Renderer struct {
	baseURL string
}

// NewRenderer creates a renderer pointing at the WhatsApp base URL
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/")}
}

// URL builds the wa.me link with a pre-filled greeting referencing the
// campaign when known.
func (r *Renderer) URL(phone string, campaign *string) string {
	origin := "en redes sociales"
	if campaign != nil && *campaign != "" {
		origin = *campaign
	}

	message := fmt.Sprintf("Hola! Vengo de la promoción %s", origin)
	return fmt.Sprintf("%s/%s?text=%s", r.baseURL, strings.TrimPrefix(phone, "+"), url.QueryEscape(message))
}

// FallbackURL builds a plain WhatsApp link for error paths
func (r *Renderer) FallbackURL(phone string) string {
	return fmt.Sprintf("%s/%s?text=%s", r.baseURL, strings.TrimPrefix(phone, "+"), url.QueryEscape("Hola!"))
}

// Render writes the hand-off page, varying headline and description for
// known campaign kinds.
func (r *Renderer) Render(w io.Writer, phone string, campaign *string) error {
	page := Page{
		WhatsAppURL: r.URL(phone, campaign),
		Message:     "¡Hablemos!",
		Description: "Toca el botón para abrir WhatsApp y comenzar la conversación",
	}

	if campaign != nil {
		switch {
		case strings.Contains(*campaign, "promo"):
			page.Message = "¡Aprovecha la promoción!"
			page.Description = "Toca el botón para consultar disponibilidad en WhatsApp"
		case strings.Contains(*campaign, "cotizacion"):
			page.Message = "¡Solicita tu cotización!"
			page.Description = "Toca el botón para recibir tu cotización personalizada"
		}
	}

	return redirectTemplate.Execute(w, page)
}

// RenderFallback writes the generic page used when attribution failed.
// The visitor still gets a working WhatsApp link.
func (r *Renderer) RenderFallback(w io.Writer, phone string) error {
	return redirectTemplate.Execute(w, Page{
		WhatsAppURL: r.FallbackURL(phone),
		Message:     "¡Hablemos!",
		Description: "Toca el botón para abrir WhatsApp",
	})
}
