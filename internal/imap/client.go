package imap

import (
	"github.com/aaronromeo/mailroom/internal/imap/actions"
	"github.com/aaronromeo/mailroom/internal/imap/fetcher"
	"github.com/aaronromeo/mailroom/internal/imap/folders"
	"github.com/aaronromeo/mailroom/internal/imap/sessionmgr"
)

// Client encapsulates one IMAP connection and the operations run over it.
type Client struct {
	*sessionmgr.IMAPConnector
	*folders.IMAPFolderManager
	*fetcher.IMAPFetchManager
	*actions.IMAPActionManager
}

func New(opts ...sessionmgr.Option) *Client {
	session := sessionmgr.NewServerConnector(opts...)
	client := &Client{
		session,
		folders.New(session),
		fetcher.New(session, fetcher.WithLogger(session.Log)),
		actions.New(session),
	}
	return client
}
