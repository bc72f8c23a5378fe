package textprep

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator joins the designation and the description of a listing
const Separator = " \n "

var (
	tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)
	lower        = cases.Lower(language.Und)
)

// Concat joins title and description with Separator
func Concat(title, description string) string {
	return title + Separator + description
}

// ExtractText parses s as an HTML fragment and returns its text content.
// Text nodes are concatenated without separators. Script and style bodies
// are skipped. Entities are decoded.
func ExtractText(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// html.Parse only fails on reader errors
		return s
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// Clean extracts the text of an HTML fragment and lowercases it
func Clean(s string) string {
	return lower.String(ExtractText(s))
}

// Tokenize returns the maximal runs of at least three word characters
// (letters, digits, underscore)
func Tokenize(s string) []string {
	return tokenPattern.FindAllString(s, -1)
}

// Unique drops repeated tokens, keeping the first occurrence of each
func Unique(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
