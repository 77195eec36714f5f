package footer

import (
	"bytes"
	"fmt"

	"github.com/ppiankov/mdpolish/internal/dom"
	"github.com/ppiankov/mdpolish/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker identifies a generated footer so a page is never given two
const (
	MarkerAttr  = "data-mdpolish"
	MarkerValue = "footer"
	ClassName   = "mdpolish-footer"
)

const (
	containerStyle = "margin-top: 50px; border-top: 1px solid var(--table-border-color); padding-top: 20px; text-align: center; color: var(--fg); opacity: 0.8;"
	shareRowStyle  = "margin-bottom: 15px;"
	shareLabel     = "font-size: 0.9em; margin-right: 10px; font-weight: bold;"
	shareLinkStyle = "text-decoration: none; margin-right: 10px; color: var(--fg);"
	lastLinkStyle  = "text-decoration: none; color: var(--fg);"
	metaRowStyle   = "font-size: 0.9em;"
	metaLinkStyle  = "text-decoration: none;"
)

// Options controls the footer contents
type Options struct {
	ShareLinks bool
	Team       string
	RepoURL    string
	IssuesURL  string
}

// OptionsFromConfig converts footer config into builder options
func OptionsFromConfig(cfg model.FooterConfig) Options {
	return Options{
		ShareLinks: cfg.ShareLinks,
		Team:       cfg.Team,
		RepoURL:    cfg.RepoURL,
		IssuesURL:  cfg.IssuesURL,
	}
}

// ShareLinks builds the three share links for a page
func ShareLinks(pageURL, title string) []model.ShareLink {
	u := EncodeURIComponent(pageURL)
	t := EncodeURIComponent(title)

	return []model.ShareLink{
		{
			Platform: model.ShareTwitter,
			Label:    "𝕏 (Twitter)",
			Href:     "https://twitter.com/intent/tweet?url=" + u + "&text=" + t,
		},
		{
			Platform: model.ShareFacebook,
			Label:    "📘 Facebook",
			Href:     "https://www.facebook.com/sharer/sharer.php?u=" + u,
		},
		{
			Platform: model.ShareLinkedIn,
			Label:    "💼 LinkedIn",
			Href:     "https://www.linkedin.com/shareArticle?mini=true&url=" + u + "&title=" + t,
		},
	}
}

// Builder creates footer fragments
type Builder struct {
	opts Options
}

// NewBuilder creates a footer builder
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// ShareEnabled reports whether the builder emits share links
func (b *Builder) ShareEnabled() bool {
	return b.opts.ShareLinks
}

// Build returns a detached <footer> element. Share links are included
// only when enabled and links is non-empty.
func (b *Builder) Build(links []model.ShareLink) *html.Node {
	container := element("div", attrs("style", containerStyle))

	if b.opts.ShareLinks && len(links) > 0 {
		row := element("div", attrs("style", shareRowStyle),
			element("span", attrs("style", shareLabel), text("Share this page:")),
		)
		for i, l := range links {
			style := shareLinkStyle
			if i == len(links)-1 {
				style = lastLinkStyle
			}
			row.AppendChild(text(" "))
			row.AppendChild(element("a", attrs("href", l.Href, "target", "_blank", "style", style), text(l.Label)))
		}
		container.AppendChild(row)
	}

	if b.opts.Team != "" {
		container.AppendChild(element("p", nil,
			text("Created with ❤️ by "),
			element("strong", nil, text(b.opts.Team)),
		))
	}

	if meta := b.metaRow(); meta != nil {
		container.AppendChild(meta)
	}

	return element("footer", attrs("class", ClassName, MarkerAttr, MarkerValue), container)
}

// metaRow builds the repository / issue tracker line
func (b *Builder) metaRow() *html.Node {
	var links []*html.Node
	if b.opts.RepoURL != "" {
		links = append(links, element("a", attrs("href", b.opts.RepoURL, "target", "_blank", "style", metaLinkStyle), text("GitHub Repository")))
	}
	if b.opts.IssuesURL != "" {
		links = append(links, element("a", attrs("href", b.opts.IssuesURL, "target", "_blank", "style", metaLinkStyle), text("Report Issue")))
	}
	if len(links) == 0 {
		return nil
	}

	row := element("p", attrs("style", metaRowStyle))
	for i, l := range links {
		if i > 0 {
			row.AppendChild(text(" \u00a0•\u00a0 "))
		}
		row.AppendChild(l)
	}
	return row
}

// IsMarked reports whether n is a footer generated by this package
func IsMarked(n *html.Node) bool {
	if !dom.IsElement(n, "footer") {
		return false
	}
	v, ok := dom.Attr(n, MarkerAttr)
	return ok && v == MarkerValue
}

// FindMarked returns the first generated footer under root, if any
func FindMarked(root *html.Node) *html.Node {
	return dom.FindFirst(root, IsMarked)
}

// Render serializes a fragment node
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("render footer: %w", err)
	}
	return buf.String(), nil
}

func element(tag string, attr []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attr,
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attrs(kv ...string) []html.Attribute {
	out := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return out
}
