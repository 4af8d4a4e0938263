package message

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronromeo/mailroom/internal/mailerr"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func fixedParser(now time.Time) *Parser {
	return &Parser{now: func() time.Time { return now }}
}

func TestParsePlainMessage(t *testing.T) {
	raw := crlf(
		"From: Alice Example <alice@example.com>",
		"To: bob@example.com",
		"Subject: Lunch?",
		"Date: Tue, 01 Oct 2024 12:30:00 +0000",
		"",
		"Are you free at noon?",
	)

	got, err := NewParser().Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Lunch?", got.Subject)
	assert.Equal(t, "Alice Example <alice@example.com>", got.From)
	assert.True(t, got.Date.Equal(time.Date(2024, 10, 1, 12, 30, 0, 0, time.UTC)))
	assert.Equal(t, "Are you free at noon?", got.Text)
	assert.Empty(t, got.HTML)
}

func TestParseDefaults(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	raw := crlf(
		"To: bob@example.com",
		"",
		"",
	)

	got, err := fixedParser(now).Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, NoSubject, got.Subject)
	assert.Equal(t, UnknownSender, got.From)
	assert.Equal(t, now, got.Date)
	assert.Empty(t, got.Text)
	assert.Empty(t, got.HTML)
}

func TestParseEncodedHeaders(t *testing.T) {
	raw := crlf(
		"From: =?UTF-8?B?SsO8cmdlbg==?= <jurgen@example.de>",
		"Subject: =?UTF-8?Q?Gr=C3=BC=C3=9Fe?=",
		"",
		"Hallo",
	)

	got, err := NewParser().Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Grüße", got.Subject)
	assert.Equal(t, "Jürgen <jurgen@example.de>", got.From)
}

func TestParseMultipartAlternative(t *testing.T) {
	raw := crlf(
		"From: news@example.com",
		"Subject: Weekly",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain version",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>html version</p></body></html>",
		"--b1--",
		"",
	)

	got, err := NewParser().Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "news@example.com", got.From)
	assert.Equal(t, "plain version", got.Text)
	assert.Equal(t, "<html><body><p>html version</p></body></html>", got.HTML)
}

func TestParseHTMLOnlyDerivesText(t *testing.T) {
	raw := crlf(
		"From: news@example.com",
		"Subject: Promo",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Big <b>sale</b></p>",
	)

	got, err := NewParser().Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "<p>Big <b>sale</b></p>", got.HTML)
	assert.Contains(t, got.Text, "sale")
	assert.NotContains(t, got.Text, "<b>")
}

func TestParseSkipsAttachments(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"Subject: Report",
		`Content-Type: multipart/mixed; boundary="m"`,
		"",
		"--m",
		"Content-Type: text/plain",
		"",
		"see attached",
		"--m",
		"Content-Type: text/plain",
		`Content-Disposition: attachment; filename="report.txt"`,
		"",
		"attachment body",
		"--m--",
		"",
	)

	got, err := NewParser().Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "see attached", got.Text)
}

func TestParseMalformedHeader(t *testing.T) {
	raw := crlf(
		"this is not a header line",
		"",
		"body",
	)

	_, err := NewParser().Parse(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, mailerr.ErrParse)
}

func TestPlaceholder(t *testing.T) {
	now := time.Now()
	got := Placeholder(42, now)
	assert.Equal(t, uint32(42), got.UID)
	assert.Equal(t, ParseErrorSubject, got.Subject)
	assert.Equal(t, ParseErrorBody, got.Text)
	assert.Equal(t, now, got.Date)
}
