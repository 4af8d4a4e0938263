package fetcher

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/aaronromeo/mailroom/internal/message"
)

func TestNewest(t *testing.T) {
	cases := []struct {
		name string
		seqs []uint32
		n    int
		want []uint32
	}{
		{name: "fewer than limit", seqs: []uint32{1, 2, 3}, n: 50, want: []uint32{1, 2, 3}},
		{name: "takes highest", seqs: []uint32{1, 2, 3, 4, 5}, n: 2, want: []uint32{4, 5}},
		{name: "unsorted input", seqs: []uint32{9, 3, 7, 1}, n: 3, want: []uint32{3, 7, 9}},
		{name: "empty", seqs: nil, n: 50, want: []uint32{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := newest(tc.seqs, tc.n)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLimit(t *testing.T) {
	assert.Equal(t, MaxLimit, Limit(0))
	assert.Equal(t, MaxLimit, Limit(-3))
	assert.Equal(t, MaxLimit, Limit(500))
	assert.Equal(t, 10, Limit(10))
}

func TestParse(t *testing.T) {
	now := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := &IMAPFetchManager{parser: message.NewParser(), log: log, now: func() time.Time { return now }}

	cases := []struct {
		name        string
		raw         rawMessage
		wantSubject string
		wantText    string
	}{
		{
			name:        "valid",
			raw:         rawMessage{uid: 7, raw: []byte("From: a@example.com\r\nSubject: hello\r\n\r\nbody")},
			wantSubject: "hello",
			wantText:    "body",
		},
		{
			name:        "malformed header",
			raw:         rawMessage{uid: 42, raw: []byte("this is not a header line\r\n\r\nbroken\r\n")},
			wantSubject: message.ParseErrorSubject,
			wantText:    message.ParseErrorBody,
		},
		{
			name:        "read failure",
			raw:         rawMessage{uid: 9, err: errors.New("connection reset")},
			wantSubject: message.ParseErrorSubject,
			wantText:    message.ParseErrorBody,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.parse("INBOX", tc.raw)
			assert.Equal(t, tc.raw.uid, got.UID)
			assert.Equal(t, tc.wantSubject, got.Subject)
			assert.Equal(t, tc.wantText, got.Text)
		})
	}

	placeholder := m.parse("INBOX", rawMessage{uid: 3, err: io.ErrUnexpectedEOF})
	assert.Equal(t, message.UnknownSender, placeholder.From)
	assert.True(t, placeholder.Date.Equal(now))
}
