package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/aaronromeo/mailroom/internal/mailerr"
	"github.com/aaronromeo/mailroom/internal/message"
)

// MaxLimit caps the number of messages one fetch retrieves.
const MaxLimit = 50

type Fetcher interface {
	FetchRecent(ctx context.Context, folder string, limit int) ([]message.Summary, error)
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type Option func(*IMAPFetchManager)

type IMAPFetchManager struct {
	provider func() *giimapclient.Client
	parser   *message.Parser
	log      logrus.FieldLogger
	now      func() time.Time
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(m *IMAPFetchManager) {
		m.log = log
	}
}

func WithParser(parser *message.Parser) Option {
	return func(m *IMAPFetchManager) {
		m.parser = parser
	}
}

func New(provider ClientProvider, opts ...Option) *IMAPFetchManager {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &IMAPFetchManager{
		provider: provider.IMAPClient,
		parser:   message.NewParser(),
		log:      discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Limit clamps n into 1..MaxLimit, treating zero or negative as MaxLimit.
func Limit(n int) int {
	if n <= 0 || n > MaxLimit {
		return MaxLimit
	}
	return n
}

type rawMessage struct {
	seq uint32
	uid uint32
	raw []byte
	err error
}

// FetchRecent returns the newest limit messages of folder, newest first.
// Messages that cannot be read or parsed are replaced by placeholders.
func (m *IMAPFetchManager) FetchRecent(ctx context.Context, folder string, limit int) ([]message.Summary, error) {
	if m.provider == nil || m.provider() == nil {
		return nil, mailerr.Wrap(mailerr.ErrConnection, "fetch", errors.New("IMAP client is not connected"))
	}
	if err := ctx.Err(); err != nil {
		return nil, mailerr.Wrap(mailerr.ErrFolderOpen, folder, err)
	}
	client := m.provider()

	if _, err := client.Select(folder, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, mailerr.Wrap(mailerr.ErrFolderOpen, folder, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, mailerr.Wrap(mailerr.ErrSearch, folder, err)
	}

	data, err := client.Search(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, mailerr.Wrap(mailerr.ErrSearch, folder, err)
	}
	seqs := newest(data.AllSeqNums(), Limit(limit))
	if len(seqs) == 0 {
		return []message.Summary{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, mailerr.Wrap(mailerr.ErrFetch, folder, err)
	}

	position := make(map[uint32]int, len(seqs))
	for i, seq := range seqs {
		position[seq] = i
	}

	results := make([]message.Summary, len(seqs))
	filled := make([]bool, len(seqs))
	p := pool.New().WithMaxGoroutines(len(seqs))

	fetchCmd := client.Fetch(imap.SeqSetNum(seqs...), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{{Peek: true}},
	})
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		raw := readMessage(msg)
		idx, ok := position[raw.seq]
		if !ok {
			continue
		}
		filled[idx] = true
		p.Go(func() {
			results[idx] = m.parse(folder, raw)
		})
	}
	closeErr := fetchCmd.Close()
	p.Wait()
	if closeErr != nil {
		return nil, mailerr.Wrap(mailerr.ErrFetch, folder, closeErr)
	}

	out := make([]message.Summary, 0, len(seqs))
	for i := len(results) - 1; i >= 0; i-- {
		if filled[i] {
			out = append(out, results[i])
		}
	}
	return out, nil
}

func (m *IMAPFetchManager) parse(folder string, raw rawMessage) (summary message.Summary) {
	log := m.log.WithFields(logrus.Fields{"folder": folder, "uid": raw.uid})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Warn("message parse panicked")
			summary = message.Placeholder(raw.uid, m.now())
		}
	}()

	if raw.err != nil {
		log.WithError(raw.err).Warn("message read failed")
		return message.Placeholder(raw.uid, m.now())
	}
	summary, err := m.parser.Parse(raw.raw)
	if err != nil {
		log.WithError(err).Warn("message parse failed")
		return message.Placeholder(raw.uid, m.now())
	}
	summary.UID = raw.uid
	return summary
}

// readMessage drains every item of one fetched message. The body literal
// must be consumed before the next message can be read from the stream.
func readMessage(msg *giimapclient.FetchMessageData) rawMessage {
	out := rawMessage{seq: msg.SeqNum, uid: msg.SeqNum}
	sawBody := false
	for {
		item := msg.Next()
		if item == nil {
			break
		}
		switch item := item.(type) {
		case giimapclient.FetchItemDataUID:
			out.uid = uint32(item.UID)
		case giimapclient.FetchItemDataBodySection:
			if item.Literal == nil {
				continue
			}
			b, err := io.ReadAll(item.Literal)
			if err != nil {
				out.err = err
				continue
			}
			out.raw = b
			sawBody = true
		}
	}
	if !sawBody && out.err == nil {
		out.err = errors.New("message body missing from fetch response")
	}
	return out
}

// newest returns the numerically highest n sequence numbers in ascending
// order.
func newest(seqs []uint32, n int) []uint32 {
	sorted := slices.Clone(seqs)
	slices.Sort(sorted)
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}
