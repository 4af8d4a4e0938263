// Package message decodes raw RFC 822 messages into display summaries.
package message

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/jaytaylor/html2text"

	"github.com/aaronromeo/mailroom/internal/mailerr"
)

const (
	NoSubject     = "(No Subject)"
	UnknownSender = "Unknown"

	ParseErrorSubject = "(Parse Error)"
	ParseErrorBody    = "Failed to parse email"
)

// Summary is the parsed, display-ready view of one message.
type Summary struct {
	UID     uint32    `json:"uid"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	Date    time.Time `json:"date"`
	Text    string    `json:"body"`
	HTML    string    `json:"html,omitempty"`
}

// Placeholder stands in for a message that could not be read or parsed.
func Placeholder(uid uint32, now time.Time) Summary {
	return Summary{
		UID:     uid,
		Subject: ParseErrorSubject,
		From:    UnknownSender,
		Date:    now,
		Text:    ParseErrorBody,
	}
}

type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// Parse decodes raw into a Summary. Missing headers get defaults; a message
// whose header block cannot be read fails with mailerr.ErrParse.
func (p *Parser) Parse(raw []byte) (Summary, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return Summary{}, mailerr.Wrap(mailerr.ErrParse, "parse", err)
	}
	defer mr.Close()

	summary := Summary{
		Subject: subject(mr.Header),
		From:    sender(mr.Header),
		Date:    p.date(mr.Header),
	}

	text, html, err := bodies(mr)
	if err != nil {
		return Summary{}, mailerr.Wrap(mailerr.ErrParse, "parse", err)
	}
	summary.HTML = html
	summary.Text = text
	if summary.Text == "" && summary.HTML != "" {
		if converted, err := html2text.FromString(summary.HTML, html2text.Options{}); err == nil {
			summary.Text = converted
		}
	}
	return summary, nil
}

func subject(h mail.Header) string {
	s, err := h.Subject()
	if err != nil {
		s = h.Get("Subject")
	}
	if strings.TrimSpace(s) == "" {
		return NoSubject
	}
	return s
}

func sender(h mail.Header) string {
	addrs, err := h.AddressList("From")
	if err == nil && len(addrs) > 0 {
		parts := make([]string, 0, len(addrs))
		for _, addr := range addrs {
			if addr.Name != "" {
				parts = append(parts, addr.Name+" <"+addr.Address+">")
				continue
			}
			parts = append(parts, addr.Address)
		}
		return strings.Join(parts, ", ")
	}

	raw, err := h.Text("From")
	if err != nil {
		raw = h.Get("From")
	}
	if strings.TrimSpace(raw) == "" {
		return UnknownSender
	}
	return strings.TrimSpace(raw)
}

func (p *Parser) date(h mail.Header) time.Time {
	d, err := h.Date()
	if err != nil || d.IsZero() {
		return p.now()
	}
	return d
}

// bodies returns the first inline text/plain and text/html parts.
func bodies(mr *mail.Reader) (string, string, error) {
	var text, html string
	var haveText, haveHTML bool

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			if haveText || haveHTML {
				break
			}
			return "", "", err
		}
		if part == nil {
			continue
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, err := inline.ContentType()
		if err != nil {
			mediaType = "text/plain"
		}

		switch {
		case mediaType == "text/plain" && !haveText:
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return "", "", err
			}
			text, haveText = string(b), true
		case mediaType == "text/html" && !haveHTML:
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return "", "", err
			}
			html, haveHTML = string(b), true
		}
	}
	return text, html, nil
}
