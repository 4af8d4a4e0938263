package mailroom

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronromeo/mailroom/ftest"
	"github.com/aaronromeo/mailroom/internal/accounts"
	"github.com/aaronromeo/mailroom/internal/imap"
	"github.com/aaronromeo/mailroom/internal/mailerr"
	"github.com/aaronromeo/mailroom/internal/message"
	"github.com/aaronromeo/mailroom/internal/smtpsender"
	"github.com/aaronromeo/mailroom/pkg/mock"
)

type announcement struct {
	action, account, detail string
}

type recordingAnnouncer struct {
	mu   sync.Mutex
	got  []announcement
	fail error
}

func (r *recordingAnnouncer) Do(_ context.Context, action, account, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, announcement{action, account, detail})
	return r.fail
}

func (r *recordingAnnouncer) announcements() []announcement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]announcement(nil), r.got...)
}

type harness struct {
	svc       *Service
	store     *accounts.Store
	announcer *recordingAnnouncer
	accountID string
	imap      ftest.IMAPFixture
}

func endpoint(t *testing.T, addr string) accounts.Endpoint {
	host, port := ftest.SplitAddr(t, addr)
	return accounts.Endpoint{
		Host:     host,
		Port:     port,
		Username: ftest.DefaultUser,
		Password: ftest.DefaultPass,
		TLS:      accounts.Bool(false),
	}
}

func setup(t *testing.T, opts ftest.IMAPOptions, smtpAddr string) harness {
	t.Helper()
	opts.Plain = true
	fixture, cleanup := ftest.SetupIMAPServer(t, opts)
	t.Cleanup(cleanup)

	outbound := accounts.Endpoint{Host: "127.0.0.1", Port: 1}
	if smtpAddr != "" {
		outbound = endpoint(t, smtpAddr)
	}

	store := accounts.NewStore(filepath.Join(t.TempDir(), "accounts.json"))
	id, err := store.Upsert(accounts.Account{
		Name:     "Work",
		Email:    ftest.DefaultUser,
		Inbound:  endpoint(t, fixture.Addr),
		Outbound: outbound,
	})
	require.NoError(t, err)

	rec := &recordingAnnouncer{}
	svc := New(store, WithAnnouncer(rec), WithLogger(mock.SetupLogger(t)))
	return harness{svc: svc, store: store, announcer: rec, accountID: id, imap: fixture}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func threeMessages() []ftest.Message {
	return []ftest.Message{
		{From: "a@example.com", Subject: "one", Body: "first"},
		{From: "b@example.com", Subject: "two", Body: "second"},
		{From: "c@example.com", Subject: "three", Body: "third"},
	}
}

func TestFetchRecentNewestFirst(t *testing.T) {
	h := setup(t, ftest.IMAPOptions{Messages: threeMessages()}, "")

	got, err := h.svc.FetchRecent(testContext(t), h.accountID, "", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Subject)
	assert.Equal(t, "two", got[1].Subject)
	assert.Equal(t, h.imap.UIDs[2], got[0].UID)
}

func TestFetchRecentUsesConfiguredLimit(t *testing.T) {
	h := setup(t, ftest.IMAPOptions{Messages: threeMessages()}, "")
	svc := New(h.store, WithFetchLimit(1), WithLogger(mock.SetupLogger(t)))

	got, err := svc.FetchRecent(testContext(t), h.accountID, "INBOX", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "three", got[0].Subject)
}

func TestFindMessage(t *testing.T) {
	h := setup(t, ftest.IMAPOptions{Messages: threeMessages()}, "")
	ctx := testContext(t)

	got, err := h.svc.FindMessage(ctx, h.accountID, "INBOX", strconv.Itoa(int(h.imap.UIDs[0])), 50)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Subject)
	assert.Equal(t, "first", got.Text)

	_, err = h.svc.FindMessage(ctx, h.accountID, "INBOX", 999, 50)
	assert.ErrorIs(t, err, mailerr.ErrMessageNotFound)

	_, err = h.svc.FindMessage(ctx, h.accountID, "INBOX", "abc", 50)
	assert.ErrorIs(t, err, mailerr.ErrInvalidIdentifier)
}

func TestOrderedFolders(t *testing.T) {
	h := setup(t, ftest.IMAPOptions{Mailboxes: []string{"Archive", "Work"}}, "")
	ctx := testContext(t)

	live, err := h.svc.ListFolders(ctx, h.accountID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"INBOX", "Archive", "Work"}, live)

	require.NoError(t, h.svc.SaveFolderOrder(ctx, h.accountID, []string{"Work", "Gone", "Archive"}))

	ordered, err := h.svc.OrderedFolders(ctx, h.accountID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "Archive", "INBOX"}, ordered)
}

func TestDeleteMessageAnnounces(t *testing.T) {
	h := setup(t, ftest.IMAPOptions{Messages: threeMessages()}, "")
	ctx := testContext(t)

	require.NoError(t, h.svc.DeleteMessage(ctx, h.accountID, "", strconv.Itoa(int(h.imap.UIDs[1]))))

	got, err := h.svc.FetchRecent(ctx, h.accountID, "INBOX", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "one"}, subjects(got))

	announcements := h.announcer.announcements()
	require.Len(t, announcements, 1)
	assert.Equal(t, "delete", announcements[0].action)
	assert.Equal(t, "Work", announcements[0].account)
	assert.Contains(t, announcements[0].detail, "from INBOX")
}

func TestDeleteMessageAnnouncementFailureIgnored(t *testing.T) {
	h := setup(t, ftest.IMAPOptions{Messages: threeMessages()}, "")
	h.announcer.fail = errors.New("webhook down")

	assert.NoError(t, h.svc.DeleteMessage(testContext(t), h.accountID, "INBOX", h.imap.UIDs[0]))
}

func TestDeleteMessageValidatesIdentifierFirst(t *testing.T) {
	store := accounts.NewStore(filepath.Join(t.TempDir(), "accounts.json"))
	svc := New(store,
		WithLogger(mock.SetupLogger(t)),
		WithSessionFactory(func(accounts.Endpoint, logrus.FieldLogger) imap.ServerRunner {
			t.Fatal("session opened for an invalid identifier")
			return nil
		}),
	)

	for _, identifier := range []any{"abc", "0", -1, 1.5, nil} {
		err := svc.DeleteMessage(testContext(t), "missing", "INBOX", identifier)
		assert.ErrorIs(t, err, mailerr.ErrInvalidIdentifier, "identifier %v", identifier)
	}

	err := svc.DeleteMessage(testContext(t), "missing", "INBOX", "7")
	assert.ErrorIs(t, err, mailerr.ErrAccountNotFound)
}

func TestSendMessage(t *testing.T) {
	smtpFixture, cleanup := ftest.SetupSMTPServer(t, ftest.SMTPPlain)
	t.Cleanup(cleanup)
	h := setup(t, ftest.IMAPOptions{}, smtpFixture.Addr)

	err := h.svc.SendMessage(testContext(t), h.accountID, smtpsender.Outbound{
		To:      "one@example.com, two@example.com",
		Subject: "Hello",
		Body:    "body",
	})
	require.NoError(t, err)

	deliveries := smtpFixture.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, []string{"one@example.com", "two@example.com"}, deliveries[0].To)

	announcements := h.announcer.announcements()
	require.Len(t, announcements, 1)
	assert.Equal(t, "send", announcements[0].action)
	assert.Equal(t, `sent "Hello" to one@example.com, two@example.com`, announcements[0].detail)
}

func TestSendMessageFailureSkipsAnnouncement(t *testing.T) {
	h := setup(t, ftest.IMAPOptions{}, "")

	err := h.svc.SendMessage(testContext(t), h.accountID, smtpsender.Outbound{To: "a@example.com", Body: "x"})
	assert.ErrorIs(t, err, mailerr.ErrSend)
	assert.Empty(t, h.announcer.announcements())
}

func TestUnknownAccount(t *testing.T) {
	h := setup(t, ftest.IMAPOptions{}, "")
	ctx := testContext(t)

	_, err := h.svc.FetchRecent(ctx, "nope", "INBOX", 10)
	assert.ErrorIs(t, err, mailerr.ErrAccountNotFound)

	_, err = h.svc.ListFolders(ctx, "nope")
	assert.ErrorIs(t, err, mailerr.ErrAccountNotFound)

	err = h.svc.SendMessage(ctx, "nope", smtpsender.Outbound{To: "a@example.com"})
	assert.ErrorIs(t, err, mailerr.ErrAccountNotFound)
}

func TestAccountLifecycle(t *testing.T) {
	store := accounts.NewStore(filepath.Join(t.TempDir(), "accounts.json"))
	svc := New(store, WithLogger(mock.SetupLogger(t)))
	ctx := testContext(t)

	_, err := svc.UpsertAccount(ctx, accounts.Account{Name: "broken"})
	assert.ErrorIs(t, err, mailerr.ErrInvalidAccount)

	id, err := svc.UpsertAccount(ctx, accounts.Account{
		Name:     "Home",
		Email:    "me@example.com",
		Inbound:  accounts.Endpoint{Host: "imap.example.com"},
		Outbound: accounts.Endpoint{Host: "smtp.example.com"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	list, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Home", list[0].Name)

	removed, err := svc.RemoveAccount(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveAccount(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func subjects(summaries []message.Summary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.Subject)
	}
	return out
}
