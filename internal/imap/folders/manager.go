package folders

import (
	"context"
	"errors"

	giimapclient "github.com/emersion/go-imap/v2/imapclient"

	"github.com/aaronromeo/mailroom/internal/mailerr"
)

type Lister interface {
	ListFolders(ctx context.Context) ([]string, error)
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPFolderManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPFolderManager {
	return &IMAPFolderManager{provider: provider.IMAPClient}
}

// ListFolders returns every mailbox path on the server in pre-order.
func (m *IMAPFolderManager) ListFolders(ctx context.Context) ([]string, error) {
	if m.provider == nil || m.provider() == nil {
		return nil, mailerr.Wrap(mailerr.ErrConnection, "list", errors.New("IMAP client is not connected"))
	}
	if err := ctx.Err(); err != nil {
		return nil, mailerr.Wrap(mailerr.ErrList, "list", err)
	}

	data, err := m.provider().List("", "*", nil).Collect()
	if err != nil {
		return nil, mailerr.Wrap(mailerr.ErrList, "list", err)
	}

	entries := make([]Entry, 0, len(data))
	for _, item := range data {
		if item == nil {
			continue
		}
		entries = append(entries, Entry{Name: item.Mailbox, Delim: item.Delim})
	}
	return Flatten(BuildTree(entries)), nil
}
