package imap

import (
	"context"
	"crypto/tls"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronromeo/mailroom/ftest"
	"github.com/aaronromeo/mailroom/internal/accounts"
	"github.com/aaronromeo/mailroom/internal/imap/sessionmgr"
	"github.com/aaronromeo/mailroom/internal/mailerr"
	"github.com/aaronromeo/mailroom/internal/message"
	"github.com/aaronromeo/mailroom/pkg/mock"
)

func TestConnectFailures(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.IMAPOptions{})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	client := New(
		sessionmgr.WithAddr(fixture.Addr),
		sessionmgr.WithCreds(ftest.DefaultUser, "wrong"),
		sessionmgr.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
	)
	err := client.Connect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, mailerr.ErrAuthentication)

	cleanup()
	client = New(
		sessionmgr.WithAddr(fixture.Addr),
		sessionmgr.WithCreds(ftest.DefaultUser, ftest.DefaultPass),
		sessionmgr.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
		sessionmgr.WithDialTimeout(time.Second),
	)
	err = client.Connect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, mailerr.ErrConnection)
}

func TestListFoldersLocalServer(t *testing.T) {
	client, _, cleanup := setupTestServer(t, ftest.IMAPOptions{
		Mailboxes: []string{"Archive", "Work", "Work/Projects", "Work/Projects/2024"},
	})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	folders, err := client.ListFolders(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"INBOX", "Archive", "Work", "Work/Projects", "Work/Projects/2024"}, folders)

	index := map[string]int{}
	for i, folder := range folders {
		index[folder] = i
	}
	assert.Less(t, index["Work"], index["Work/Projects"], "parent before child")
	assert.Less(t, index["Work/Projects"], index["Work/Projects/2024"], "parent before child")
}

func TestFetchRecentEmptyFolder(t *testing.T) {
	client, _, cleanup := setupTestServer(t, ftest.IMAPOptions{})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	got, err := client.FetchRecent(ctx, "INBOX", 50)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchRecentNewestFirst(t *testing.T) {
	client, fixture, cleanup := setupTestServer(t, ftest.IMAPOptions{
		Messages: []ftest.Message{
			{From: "One <one@example.com>", Subject: "first", Body: "body one", Date: "Mon, 07 Oct 2024 09:00:00 +0000"},
			{From: "two@example.com", Subject: "second", Body: "body two"},
			{From: "Three <three@example.com>", Subject: "third", Body: "<p>three</p>", HTML: true},
		},
	})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	got, err := client.FetchRecent(ctx, "INBOX", 50)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"third", "second", "first"}, subjects(got))
	assert.Equal(t, []uint32{fixture.UIDs[2], fixture.UIDs[1], fixture.UIDs[0]}, uids(got))
	assert.Equal(t, "One <one@example.com>", got[2].From)
	assert.Equal(t, "body one", got[2].Text)
	assert.Equal(t, "<p>three</p>", got[0].HTML)
}

func TestFetchRecentLimit(t *testing.T) {
	messages := make([]ftest.Message, 0, 5)
	for _, subject := range []string{"m1", "m2", "m3", "m4", "m5"} {
		messages = append(messages, ftest.Message{From: "a@example.com", Subject: subject, Body: subject})
	}
	client, _, cleanup := setupTestServer(t, ftest.IMAPOptions{Messages: messages})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	got, err := client.FetchRecent(ctx, "INBOX", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"m5", "m4"}, subjects(got))
}

func TestFetchRecentHeaderlessMessage(t *testing.T) {
	client, fixture, cleanup := setupTestServer(t, ftest.IMAPOptions{
		Messages: []ftest.Message{
			{From: "a@example.com", Subject: "good one", Body: "ok"},
			{Raw: "this is not a header line\r\n\r\nbroken\r\n"},
			{From: "b@example.com", Subject: "good two", Body: "ok"},
		},
	})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	got, err := client.FetchRecent(ctx, "INBOX", 50)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"good two", message.NoSubject, "good one"}, subjects(got))
	assert.Equal(t, fixture.UIDs[1], got[1].UID)
	assert.Equal(t, message.UnknownSender, got[1].From)
}

func TestFetchRecentMissingFolder(t *testing.T) {
	client, _, cleanup := setupTestServer(t, ftest.IMAPOptions{})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	_, err := client.FetchRecent(ctx, "Nope", 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, mailerr.ErrFolderOpen)
}

func TestDeleteMessageLocalServer(t *testing.T) {
	cases := []struct {
		name string
		caps imap.CapSet
	}{
		{
			name: "uidplus",
			caps: imap.CapSet{
				imap.CapIMAP4rev1: {},
				imap.CapUIDPlus:   {},
			},
		},
		{
			name: "expunge",
			caps: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, fixture, cleanup := setupTestServer(t, ftest.IMAPOptions{
				Caps: tc.caps,
				Messages: []ftest.Message{
					{From: "keep@example.com", Subject: "keep", Body: "keep"},
					{From: "drop@example.com", Subject: "drop", Body: "drop"},
				},
			})
			t.Cleanup(cleanup)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			t.Cleanup(cancel)

			require.NoError(t, client.DeleteMessage(ctx, "INBOX", fixture.UIDs[1]))

			got, err := client.FetchRecent(ctx, "INBOX", 50)
			require.NoError(t, err)
			assert.Equal(t, []string{"keep"}, subjects(got))
		})
	}
}

func TestDeleteMessageMissingFolder(t *testing.T) {
	client, _, cleanup := setupTestServer(t, ftest.IMAPOptions{})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	err := client.DeleteMessage(ctx, "Nope", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, mailerr.ErrFolderOpen)
}

func TestDeleteMessageServerRefusal(t *testing.T) {
	cases := []struct {
		name    string
		opts    ftest.IMAPOptions
		wantErr error
	}{
		{
			name:    "store refused",
			opts:    ftest.IMAPOptions{FailStore: true},
			wantErr: mailerr.ErrFlag,
		},
		{
			name:    "expunge refused",
			opts:    ftest.IMAPOptions{FailExpunge: true},
			wantErr: mailerr.ErrExpunge,
		},
		{
			name: "uid expunge refused",
			opts: ftest.IMAPOptions{
				FailExpunge: true,
				Caps:        imap.CapSet{imap.CapIMAP4rev1: {}, imap.CapUIDPlus: {}},
			},
			wantErr: mailerr.ErrExpunge,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := tc.opts
			opts.Messages = []ftest.Message{
				{From: "keep@example.com", Subject: "keep", Body: "keep"},
				{From: "drop@example.com", Subject: "drop", Body: "drop"},
			}
			client, fixture, cleanup := setupTestServer(t, opts)
			t.Cleanup(cleanup)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			t.Cleanup(cancel)

			err := client.DeleteMessage(ctx, "INBOX", fixture.UIDs[1])
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)

			got, err := client.FetchRecent(ctx, "INBOX", 50)
			require.NoError(t, err)
			assert.Equal(t, []string{"drop", "keep"}, subjects(got))
		})
	}
}

func TestPlainSessionFromEndpoint(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.IMAPOptions{
		Plain:    true,
		Messages: []ftest.Message{{From: "a@example.com", Subject: "plain", Body: "x"}},
	})
	t.Cleanup(cleanup)

	host, port := ftest.SplitAddr(t, fixture.Addr)
	client := New(
		sessionmgr.WithEndpoint(accounts.Endpoint{
			Host:     host,
			Port:     port,
			Username: ftest.DefaultUser,
			Password: ftest.DefaultPass,
			TLS:      accounts.Bool(false),
		}),
		sessionmgr.WithLogger(mock.SetupLogger(t)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	got, err := sessionmgr.WithSession(ctx, client, func(ctx context.Context) ([]message.Summary, error) {
		return client.FetchRecent(ctx, "INBOX", 50)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"plain"}, subjects(got))
	assert.Nil(t, client.IMAPClient(), "session closed after use")
}

func TestCancelClosesSession(t *testing.T) {
	client, _, cleanup := setupTestServer(t, ftest.IMAPOptions{})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, client.Connect(ctx))
	cancel()

	_, err := client.FetchRecent(ctx, "INBOX", 50)
	require.Error(t, err)
}

func setupTestServer(t *testing.T, opts ftest.IMAPOptions) (*Client, ftest.IMAPFixture, func()) {
	t.Helper()

	fixture, cleanup := ftest.SetupIMAPServer(t, opts)

	client := New(
		sessionmgr.WithAddr(fixture.Addr),
		sessionmgr.WithCreds(ftest.DefaultUser, ftest.DefaultPass),
		sessionmgr.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
		sessionmgr.WithLogger(mock.SetupLogger(t)),
	)
	if err := client.Connect(context.Background()); err != nil {
		cleanup()
		t.Fatalf("connect: %v", err)
	}

	return client, fixture, func() {
		_ = client.Close()
		cleanup()
	}
}

func subjects(summaries []message.Summary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.Subject)
	}
	return out
}

func uids(summaries []message.Summary) []uint32 {
	out := make([]uint32, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.UID)
	}
	return out
}
