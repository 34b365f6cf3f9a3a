package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// hexPlaceholder marks where the color goes in the final template.
const hexPlaceholder = "{hex}"

// Emphasis controls how a sampled color is used as a text color.
type Emphasis int

const (
	EmphasisNone Emphasis = iota
	EmphasisBright
	EmphasisDark
)

// ParseEmphasis maps a config keyword to an Emphasis. Unknown or empty
// keywords mean no emphasis.
func ParseEmphasis(s string) Emphasis {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bright":
		return EmphasisBright
	case "dark":
		return EmphasisDark
	default:
		return EmphasisNone
	}
}

func (e Emphasis) String() string {
	switch e {
	case EmphasisBright:
		return "bright"
	case EmphasisDark:
		return "dark"
	default:
		return "none"
	}
}

// StyleRule describes how one kind of output line is styled.
type StyleRule struct {
	Foreground Emphasis
	Background Emphasis
	Bold       bool
	Italic     bool
}

// DisplayAttribute is a color override. Set is false when the terminal
// default should be kept.
type DisplayAttribute struct {
	Color RGB
	Set   bool
}

// Attributes is the resolved styling for one color.
type Attributes struct {
	Foreground DisplayAttribute
	Background DisplayAttribute
	Bold       bool
	Italic     bool
}

func toDisplayColor(c RGB, e Emphasis) DisplayAttribute {
	switch e {
	case EmphasisBright:
		return DisplayAttribute{Color: c, Set: true}
	case EmphasisDark:
		return DisplayAttribute{Color: c.Darken(), Set: true}
	default:
		return DisplayAttribute{}
	}
}

// Attributes resolves the rule against a sampled color.
func (r StyleRule) Attributes(c RGB) Attributes {
	return Attributes{
		Foreground: toDisplayColor(c, r.Foreground),
		Background: toDisplayColor(c, r.Background),
		Bold:       r.Bold,
		Italic:     r.Italic,
	}
}

// Presenter turns colors into styled lines.
type Presenter struct {
	renderer *lipgloss.Renderer
	live     StyleRule
	final    StyleRule
	template string
}

// NewPresenter returns a Presenter that renders for w. Colors are always
// emitted in true color, whether or not w is a terminal.
func NewPresenter(w io.Writer, live, final StyleRule, template string) *Presenter {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.TrueColor)
	return &Presenter{renderer: r, live: live, final: final, template: template}
}

// Style builds the lipgloss style for c under rule.
func (p *Presenter) Style(rule StyleRule, c RGB) lipgloss.Style {
	a := rule.Attributes(c)
	s := p.renderer.NewStyle().Bold(a.Bold).Italic(a.Italic)
	if a.Foreground.Set {
		s = s.Foreground(lipgloss.Color(a.Foreground.Color.String()))
	}
	if a.Background.Set {
		s = s.Background(lipgloss.Color(a.Background.Color.String()))
	}
	return s
}

// Live renders c as a live stream entry.
func (p *Presenter) Live(c RGB) string {
	return p.Style(p.live, c).Render(c.String())
}

// Final renders c with the final template and style.
func (p *Presenter) Final(c RGB) string {
	return p.Style(p.final, c).Render(FormatFinal(p.template, c))
}

// WriteLive writes one live line to w.
func (p *Presenter) WriteLive(w io.Writer, c RGB) error {
	_, err := fmt.Fprintln(w, p.Live(c))
	return err
}

// WriteFinal writes the final line to w.
func (p *Presenter) WriteFinal(w io.Writer, c RGB) error {
	_, err := fmt.Fprintln(w, p.Final(c))
	return err
}

// FormatFinal substitutes the hex form of c into template.
func FormatFinal(template string, c RGB) string {
	return strings.Replace(template, hexPlaceholder, c.String(), 1)
}
