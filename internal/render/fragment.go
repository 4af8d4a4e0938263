// Package render turns message summaries into display output.
package render

import (
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"

	"github.com/aaronromeo/mailroom/internal/message"
)

var (
	doctypeRe   = regexp.MustCompile(`(?i)<!DOCTYPE[^>]*>`)
	commentRe   = regexp.MustCompile(`<!--[\s\S]*?-->`)
	bodyOpenRe  = regexp.MustCompile(`(?i)<body[^>]*>`)
	bodyCloseRe = regexp.MustCompile(`(?i)</body>`)
	headRe      = regexp.MustCompile(`(?i)<head[^>]*>[\s\S]*?</head>`)
	htmlTagRe   = regexp.MustCompile(`(?i)</?html[^>]*>`)

	quotedNameRe = regexp.MustCompile(`^"([^"]+)"\s*<[^>]+>$`)
	nameAddrRe   = regexp.MustCompile(`^([^<]+)\s*<[^>]+>$`)
	bareAddrRe   = regexp.MustCompile(`^<([^>]+)>$`)
	angleRe      = regexp.MustCompile(`<[^>]+>`)
)

// ToDisplayFragment returns the content to embed for s: the HTML body
// reduced to a fragment when there is one, otherwise the plain text body.
// The result is not sanitized; the sink that renders it must strip scripts.
func ToDisplayFragment(s message.Summary) string {
	if s.HTML == "" {
		return s.Text
	}
	return Fragment(s.HTML)
}

// Fragment extracts the embeddable part of an HTML document. The first
// <body> to the first </body> wins and any further body tags inside it are
// dropped. Without a body, an <html> document loses its head and html tags.
// Input with neither passes through.
func Fragment(content string) string {
	content = doctypeRe.ReplaceAllString(content, "")
	content = commentRe.ReplaceAllString(content, "")

	if start := strings.Index(content, "<body"); start != -1 {
		bodyStart := 0
		if gt := strings.Index(content[start:], ">"); gt != -1 {
			bodyStart = start + gt + 1
		}
		if end := strings.Index(content[bodyStart:], "</body>"); end != -1 {
			extracted := content[bodyStart : bodyStart+end]
			extracted = bodyOpenRe.ReplaceAllString(extracted, "")
			extracted = bodyCloseRe.ReplaceAllString(extracted, "")
			return strings.TrimSpace(extracted)
		}
		content = strings.TrimSpace(content[bodyStart:])
		content = bodyOpenRe.ReplaceAllString(content, "")
		return bodyCloseRe.ReplaceAllString(content, "")
	}

	if strings.Contains(content, "<html") {
		content = headRe.ReplaceAllString(content, "")
		content = htmlTagRe.ReplaceAllString(content, "")
		return strings.TrimSpace(content)
	}
	return content
}

// DisplayName picks the human part of a From value: the quoted or bare name
// before an address, or the address itself when there is no name.
func DisplayName(from string) string {
	if from == "" {
		return ""
	}
	if m := quotedNameRe.FindStringSubmatch(from); m != nil && m[1] != "" {
		return m[1]
	}
	if m := nameAddrRe.FindStringSubmatch(from); m != nil && m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	if m := bareAddrRe.FindStringSubmatch(from); m != nil && m[1] != "" {
		return m[1]
	}
	if strings.Contains(from, "@") && !strings.Contains(from, "<") {
		return from
	}

	name := strings.TrimSpace(angleRe.ReplaceAllString(from, ""))
	name = strings.TrimPrefix(name, `"`)
	name = strings.TrimSuffix(name, `"`)
	if name == "" {
		return from
	}
	return name
}

// Text renders s for a terminal. HTML content is converted to plain text;
// conversion failures fall back to the plain text body.
func Text(s message.Summary) string {
	if s.HTML == "" {
		return s.Text
	}
	out, err := html2text.FromString(Fragment(s.HTML), html2text.Options{PrettyTables: true})
	if err != nil {
		return s.Text
	}
	return out
}
