// Package watchrunner polls a folder and reports messages that arrive after
// the watch started.
package watchrunner

import (
	"context"
	"errors"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aaronromeo/mailroom/internal/mailerr"
	"github.com/aaronromeo/mailroom/internal/matchers"
	"github.com/aaronromeo/mailroom/internal/message"
)

const DefaultInterval = time.Minute

type Deps struct {
	Fetcher   Fetcher
	AccountID string
	Folder    string
	Limit     int
	Filter    *matchers.Filter
	Log       logrus.FieldLogger
	Announce  func(message.Summary)
}

// State tracks the highest UID already reported. The first poll only primes it.
type State struct {
	LastUID uint32
	Primed  bool
}

// Poll fetches the recent window once and announces matching messages newer
// than state.LastUID, oldest first.
func Poll(ctx context.Context, deps Deps, state *State) ([]message.Summary, error) {
	summaries, err := deps.Fetcher.FetchRecent(ctx, deps.AccountID, deps.Folder, deps.Limit)
	if err != nil {
		return nil, err
	}

	uids := make([]uint32, 0, len(summaries))
	for _, s := range summaries {
		uids = append(uids, s.UID)
	}
	if !state.Primed {
		state.Primed = true
		state.LastUID = maxUID(state.LastUID, uids)
		deps.Log.WithField("last_uid", state.LastUID).Debug("watch primed")
		return nil, nil
	}

	fresh := make([]message.Summary, 0)
	for _, s := range summaries {
		if s.UID <= state.LastUID {
			continue
		}
		ok, err := matchers.MatchesSummary(deps.Filter, s)
		if err != nil {
			return nil, err
		}
		if ok {
			fresh = append(fresh, s)
		}
	}
	slices.SortFunc(fresh, func(a, b message.Summary) int {
		return int(int64(a.UID) - int64(b.UID))
	})

	for _, s := range fresh {
		deps.Log.WithFields(logrus.Fields{"uid": s.UID, "subject": s.Subject}).Info("new message")
		if deps.Announce != nil {
			deps.Announce(s)
		}
	}
	state.LastUID = maxUID(state.LastUID, uids)
	return fresh, nil
}

// Run polls every interval until ctx is done. Transient connection failures
// are logged and retried on the next tick.
func Run(ctx context.Context, deps Deps, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	state := &State{}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := Poll(ctx, deps, state); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !IsTransient(err) {
				return err
			}
			deps.Log.WithError(err).Warn("poll failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// IsTransient reports whether a poll failure is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, mailerr.ErrConnection) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}

func maxUID(current uint32, uids []uint32) uint32 {
	max := current
	for _, uid := range uids {
		if uid > max {
			max = uid
		}
	}
	return max
}
