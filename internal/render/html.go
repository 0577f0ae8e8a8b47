package render

import (
	"html/template"
	"io"
	"net/url"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

// Markdown renders explanation text to HTML. Raw HTML in the input is
// dropped and only safe link and image schemes are kept.
func Markdown(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// A parser must not be reused across documents.
	p := parser.NewWithExtensions(parser.CommonExtensions &^ parser.MathJax)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.Safelink |
			mdhtml.NofollowLinks | mdhtml.NoreferrerLinks | mdhtml.HrefTargetBlank,
		RenderNodeHook: dropUnsafeImages,
	})
	return template.HTML(markdown.ToHTML([]byte(text), p, r))
}

// dropUnsafeImages skips images whose source is not http(s) or relative.
// Safelink only covers links, so image sources are checked here.
func dropUnsafeImages(_ io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	img, ok := node.(*ast.Image)
	if !ok || safeImageSource(string(img.Destination)) {
		return ast.GoToNext, false
	}
	if entering {
		return ast.SkipChildren, true
	}
	return ast.GoToNext, true
}

func safeImageSource(dest string) bool {
	u, err := url.Parse(strings.TrimSpace(dest))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	case "":
		return u.Host == "" && !strings.HasPrefix(strings.TrimSpace(dest), "//")
	default:
		return false
	}
}

// FuncMap exposes the card helpers to html/template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"cards":          NewCardViews,
		"markdown":       Markdown,
		"fileSizeKB":     FileSizeKB,
		"resultsHeading": ResultsHeading,
		"primaryGene": func(d domain.Drug) string {
			return d.PrimaryGene()
		},
	}
}
