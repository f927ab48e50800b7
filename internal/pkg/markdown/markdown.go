package markdown

import (
	"bytes"
	"html"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const DefaultCacheSize = 2048

// Renderer turns comment markdown into sanitized HTML. Results are memoized
// by source text since the same comment is rendered on every tree read.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[string, string]
}

func NewRenderer(cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}

	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				gmhtml.WithHardWraps(),
				gmhtml.WithXHTML(),
			),
		),
		policy: policy,
		cache:  cache,
	}, nil
}

func (r *Renderer) Render(source string) string {
	if out, ok := r.cache.Get(source); ok {
		return out
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		slog.Warn("markdown conversion failed", "error", err)
		return "<p>" + html.EscapeString(source) + "</p>"
	}

	out := r.policy.Sanitize(buf.String())
	r.cache.Add(source, out)
	return out
}
