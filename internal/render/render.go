// Package render turns a newsletter and a subscriber into a transport-ready
// email message. Rendering is pure: no I/O, no persistence, and identical
// inputs always produce identical output.
package render

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/inkwell/newsletter-platform/internal/domain"
)

// DefaultPreviewLength bounds the plain-text preview extracted from
// newsletter content.
const DefaultPreviewLength = 150

// emailShell is the Liquid template wrapping newsletter content into a
// standalone HTML email. Content is injected unescaped: it is
// author-controlled HTML, not subscriber input.
const emailShell = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{ title | escape }}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #f8f9fa; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
    .title { font-size: 24px; font-weight: bold; margin: 0; color: #1a1a1a; }
    .content { background: white; padding: 20px; border-radius: 8px; border: 1px solid #e9ecef; }
    .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #e9ecef; font-size: 14px; color: #6c757d; text-align: center; }
    .unsubscribe { color: #6c757d; text-decoration: none; }
  </style>
</head>
<body>
  <div class="header">
    <h1 class="title">{{ title | escape }}</h1>
  </div>
  <div class="content">
    {{ content }}
  </div>
  <div class="footer">
    <p>If you no longer wish to receive these emails you can <a href="{{ unsubscribe_url }}" class="unsubscribe">unsubscribe</a>.</p>
    <p>&copy; {{ year }} {{ sender_name | escape }}. All rights reserved.</p>
  </div>
</body>
</html>
`

// Message is a fully-formed email ready for a transport sender.
type Message struct {
	Subject     string
	HTML        string
	PreviewText string
}

// Renderer renders newsletters into HTML emails using a pre-parsed Liquid
// template. Safe for concurrent use.
type Renderer struct {
	tpl           *liquid.Template
	baseURL       string
	senderName    string
	previewLength int
	now           func() time.Time
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithPreviewLength overrides the preview truncation length.
func WithPreviewLength(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.previewLength = n
		}
	}
}

// WithClock overrides the time source used for the footer copyright year.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Renderer. baseURL is the externally reachable root of the
// application, used to build unsubscribe links. senderName appears in the
// email footer.
func New(baseURL, senderName string, opts ...Option) (*Renderer, error) {
	engine := liquid.NewEngine()
	tpl, err := engine.ParseTemplate([]byte(emailShell))
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}

	r := &Renderer{
		tpl:           tpl,
		baseURL:       strings.TrimRight(baseURL, "/"),
		senderName:    senderName,
		previewLength: DefaultPreviewLength,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render produces the subject line and HTML body for one subscriber. The
// subject is the newsletter title; the body embeds a per-subscriber
// unsubscribe link.
func (r *Renderer) Render(n *domain.Newsletter, s *domain.Subscriber) (*Message, error) {
	bindings := map[string]interface{}{
		"title":           n.Title,
		"content":         n.Content,
		"unsubscribe_url": r.UnsubscribeURL(s.ID),
		"sender_name":     r.senderName,
		"year":            r.now().UTC().Year(),
	}

	out, err := r.tpl.Render(bindings)
	if err != nil {
		return nil, fmt.Errorf("render newsletter %s: %w", n.ID, err)
	}

	return &Message{
		Subject:     n.Title,
		HTML:        string(out),
		PreviewText: PreviewText(n.Content, r.previewLength),
	}, nil
}

// UnsubscribeURL builds the unsubscribe link for a subscriber id.
func (r *Renderer) UnsubscribeURL(subscriberID string) string {
	return r.baseURL + "/unsubscribe?token=" + url.QueryEscape(GenerateUnsubscribeToken(subscriberID))
}

var (
	tagRegex   = regexp.MustCompile(`<[^>]*>`)
	spaceRegex = regexp.MustCompile(`\s+`)
)

// PreviewText strips HTML tags from content, collapses whitespace, and
// truncates to maxLength characters. Truncated previews end with "...".
func PreviewText(htmlContent string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultPreviewLength
	}
	text := tagRegex.ReplaceAllString(htmlContent, "")
	text = strings.TrimSpace(spaceRegex.ReplaceAllString(text, " "))
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return strings.TrimSpace(string(runes[:maxLength])) + "..."
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether addr looks like a deliverable email address.
func IsValidEmail(addr string) bool {
	return emailRegex.MatchString(addr)
}
