package watchrunner

import (
	"context"

	"github.com/aaronromeo/mailroom/internal/mailroom"
	"github.com/aaronromeo/mailroom/internal/message"
)

type Fetcher interface {
	FetchRecent(ctx context.Context, id, folder string, limit int) ([]message.Summary, error)
}

var _ Fetcher = (*mailroom.Service)(nil)
