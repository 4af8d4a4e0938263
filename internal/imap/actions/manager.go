package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"

	"github.com/aaronromeo/mailroom/internal/mailerr"
)

type Actions interface {
	DeleteMessage(ctx context.Context, folder string, uid uint32) error
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPActionManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPActionManager {
	return &IMAPActionManager{provider: provider.IMAPClient}
}

// ParseUID accepts a message identifier as a number or a decimal string.
// Anything else, including zero, fails with mailerr.ErrInvalidIdentifier.
func ParseUID(identifier any) (uint32, error) {
	invalid := func() (uint32, error) {
		return 0, mailerr.Newf(mailerr.ErrInvalidIdentifier, "parse uid", "%v", identifier)
	}

	var n uint64
	switch v := identifier.(type) {
	case uint32:
		n = uint64(v)
	case imap.UID:
		n = uint64(v)
	case int:
		if v < 0 {
			return invalid()
		}
		n = uint64(v)
	case int64:
		if v < 0 {
			return invalid()
		}
		n = uint64(v)
	case uint64:
		n = v
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxUint32 {
			return invalid()
		}
		n = uint64(v)
	case json.Number:
		return ParseUID(v.String())
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return invalid()
		}
		n = parsed
	default:
		return invalid()
	}

	if n == 0 || n > math.MaxUint32 {
		return invalid()
	}
	return uint32(n), nil
}

// DeleteMessage flags one message as deleted and expunges it. UID EXPUNGE
// is used when the server supports UIDPLUS so that only this message is
// removed.
func (c *IMAPActionManager) DeleteMessage(ctx context.Context, folder string, uid uint32) error {
	if c.provider == nil || c.provider() == nil {
		return mailerr.Wrap(mailerr.ErrConnection, "delete", errors.New("IMAP client is not connected"))
	}
	if uid == 0 {
		return mailerr.Newf(mailerr.ErrInvalidIdentifier, "delete", "%d", uid)
	}
	if err := ctx.Err(); err != nil {
		return mailerr.Wrap(mailerr.ErrFolderOpen, folder, err)
	}
	client := c.provider()

	if _, err := client.Select(folder, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return mailerr.Wrap(mailerr.ErrFolderOpen, folder, err)
	}
	if err := ctx.Err(); err != nil {
		return mailerr.Wrap(mailerr.ErrFlag, folder, err)
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))
	store := imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}
	if err := client.Store(uidSet, &store, nil).Close(); err != nil {
		return mailerr.Wrap(mailerr.ErrFlag, fmt.Sprintf("%s uid %d", folder, uid), err)
	}
	if err := ctx.Err(); err != nil {
		return mailerr.Wrap(mailerr.ErrExpunge, folder, err)
	}

	var err error
	if client.Caps().Has(imap.CapUIDPlus) {
		_, err = client.UIDExpunge(uidSet).Collect()
	} else {
		_, err = client.Expunge().Collect()
	}
	if err != nil {
		return mailerr.Wrap(mailerr.ErrExpunge, folder, err)
	}
	return nil
}
