// internal/extract/markdown.go
package extract

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// Cleanup passes applied to converter output, in order.
var (
	emptyLinkRe    = regexp.MustCompile(`\[\\?\[\s*\\?\]\]\([^)]*\)`)
	spaceRunRe     = regexp.MustCompile(` +`)
	spaceCommaRe   = regexp.MustCompile(`\s+,`)
	spacePeriodRe  = regexp.MustCompile(`\s+\.`)
	blankLineRunRe = regexp.MustCompile(`\n{3,}`)
)

// newConverter returns an ATX/fenced converter with GitHub flavoured tables
// and strikethrough, which drops anchors that have no visible text.
func newConverter() *md.Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
	})
	conv.Use(plugin.GitHubFlavored())
	conv.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			if strings.TrimSpace(selec.Text()) == "" {
				return md.String("")
			}
			// Fall through to the default link rule.
			return nil
		},
	})
	return conv
}

// cleanMarkdown tidies whitespace artifacts left by conversion.
func cleanMarkdown(s string) string {
	s = emptyLinkRe.ReplaceAllString(s, "")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = spaceCommaRe.ReplaceAllString(s, ",")
	s = spacePeriodRe.ReplaceAllString(s, ".")
	s = blankLineRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
