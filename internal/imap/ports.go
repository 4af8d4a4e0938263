package imap

import (
	"github.com/aaronromeo/mailroom/internal/imap/actions"
	"github.com/aaronromeo/mailroom/internal/imap/fetcher"
	"github.com/aaronromeo/mailroom/internal/imap/folders"
	"github.com/aaronromeo/mailroom/internal/imap/sessionmgr"
)

type ServerRunner interface {
	sessionmgr.ServerConnector
	folders.Lister
	fetcher.Fetcher
	actions.Actions
}

var _ ServerRunner = (*Client)(nil)
