// Package mailroom is the operation surface shared by the CLI and the HTTP
// API. Every mail operation opens its own IMAP or SMTP session and closes it
// before returning.
package mailroom

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aaronromeo/mailroom/internal/accounts"
	"github.com/aaronromeo/mailroom/internal/announcer"
	"github.com/aaronromeo/mailroom/internal/imap"
	"github.com/aaronromeo/mailroom/internal/imap/actions"
	"github.com/aaronromeo/mailroom/internal/imap/fetcher"
	"github.com/aaronromeo/mailroom/internal/imap/sessionmgr"
	"github.com/aaronromeo/mailroom/internal/mailerr"
	"github.com/aaronromeo/mailroom/internal/message"
	"github.com/aaronromeo/mailroom/internal/smtpsender"
	"github.com/aaronromeo/mailroom/internal/telemetry"
)

const DefaultFolder = "INBOX"

// AccountStore persists account definitions.
type AccountStore interface {
	List() ([]accounts.Account, error)
	Get(id string) (accounts.Account, error)
	Upsert(account accounts.Account) (string, error)
	Remove(id string) (bool, error)
	SaveFolderOrder(id string, order []string) error
}

type Sender interface {
	Send(ctx context.Context, account accounts.Account, msg smtpsender.Outbound) error
}

// SessionFactory builds an unconnected IMAP session for an inbound endpoint.
type SessionFactory func(ep accounts.Endpoint, log logrus.FieldLogger) imap.ServerRunner

type Option func(*Service)

type Service struct {
	store      AccountStore
	sessions   SessionFactory
	sender     Sender
	announcer  announcer.Service
	tracer     trace.Tracer
	log        logrus.FieldLogger
	fetchLimit int
}

func WithSessionFactory(factory SessionFactory) Option {
	return func(s *Service) {
		s.sessions = factory
	}
}

func WithSender(sender Sender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

func WithAnnouncer(a announcer.Service) Option {
	return func(s *Service) {
		s.announcer = a
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithFetchLimit sets the window used when a caller passes no limit.
func WithFetchLimit(limit int) Option {
	return func(s *Service) {
		s.fetchLimit = fetcher.Limit(limit)
	}
}

func New(store AccountStore, opts ...Option) *Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Service{
		store:      store,
		announcer:  announcer.New(),
		tracer:     telemetry.Tracer(),
		log:        discard,
		fetchLimit: fetcher.MaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = DefaultSessions
	}
	if s.sender == nil {
		s.sender = smtpsender.New(smtpsender.WithLogger(s.log))
	}
	return s
}

// DefaultSessions dials the endpoint with the security its port and TLS flag select.
func DefaultSessions(ep accounts.Endpoint, log logrus.FieldLogger) imap.ServerRunner {
	return imap.New(sessionmgr.WithEndpoint(ep), sessionmgr.WithLogger(log))
}

func (s *Service) ListAccounts(ctx context.Context) ([]accounts.Account, error) {
	_, span := s.tracer.Start(ctx, "mailroom.ListAccounts")
	defer span.End()

	list, err := s.store.List()
	return list, telemetry.RecordError(span, err)
}

// UpsertAccount stores the account and returns its id.
func (s *Service) UpsertAccount(ctx context.Context, account accounts.Account) (string, error) {
	_, span := s.tracer.Start(ctx, "mailroom.UpsertAccount")
	defer span.End()

	id, err := s.store.Upsert(account)
	if err != nil {
		return "", telemetry.RecordError(span, err)
	}
	span.SetAttributes(attribute.String("account.id", id))
	s.log.WithField("account", id).Info("account saved")
	return id, nil
}

// RemoveAccount reports whether an account was removed. Unknown ids are not an error.
func (s *Service) RemoveAccount(ctx context.Context, id string) (bool, error) {
	_, span := s.tracer.Start(ctx, "mailroom.RemoveAccount", trace.WithAttributes(attribute.String("account.id", id)))
	defer span.End()

	removed, err := s.store.Remove(id)
	if err != nil {
		return false, telemetry.RecordError(span, err)
	}
	if removed {
		s.log.WithField("account", id).Info("account removed")
	}
	return removed, nil
}

// ListFolders returns every folder path in server order.
func (s *Service) ListFolders(ctx context.Context, id string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "mailroom.ListFolders", trace.WithAttributes(attribute.String("account.id", id)))
	defer span.End()

	account, err := s.store.Get(id)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	session := s.sessions(account.Inbound, s.accountLog(account))
	folders, err := sessionmgr.WithSession(ctx, session, session.ListFolders)
	return folders, telemetry.RecordError(span, err)
}

// OrderedFolders lists the live folders and arranges them by the saved order.
func (s *Service) OrderedFolders(ctx context.Context, id string) ([]string, error) {
	account, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	live, err := s.ListFolders(ctx, id)
	if err != nil {
		return nil, err
	}
	return accounts.ReconcileFolders(live, account.FolderOrder), nil
}

func (s *Service) SaveFolderOrder(ctx context.Context, id string, order []string) error {
	_, span := s.tracer.Start(ctx, "mailroom.SaveFolderOrder", trace.WithAttributes(attribute.String("account.id", id)))
	defer span.End()

	return telemetry.RecordError(span, s.store.SaveFolderOrder(id, order))
}

// FetchRecent returns up to limit of the newest messages in folder, newest
// first. An empty folder means INBOX and a non-positive limit means the
// configured default.
func (s *Service) FetchRecent(ctx context.Context, id, folder string, limit int) ([]message.Summary, error) {
	folder = folderOrDefault(folder)
	if limit <= 0 {
		limit = s.fetchLimit
	}
	ctx, span := s.tracer.Start(ctx, "mailroom.FetchRecent", trace.WithAttributes(
		attribute.String("account.id", id),
		attribute.String("folder", folder),
		attribute.Int("limit", limit),
	))
	defer span.End()

	account, err := s.store.Get(id)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	session := s.sessions(account.Inbound, s.accountLog(account))
	summaries, err := sessionmgr.WithSession(ctx, session, func(ctx context.Context) ([]message.Summary, error) {
		return session.FetchRecent(ctx, folder, limit)
	})
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	span.SetAttributes(attribute.Int("messages", len(summaries)))
	return summaries, nil
}

// FindMessage looks up one message within the recent window of folder.
func (s *Service) FindMessage(ctx context.Context, id, folder string, identifier any, limit int) (message.Summary, error) {
	uid, err := actions.ParseUID(identifier)
	if err != nil {
		return message.Summary{}, err
	}
	summaries, err := s.FetchRecent(ctx, id, folder, limit)
	if err != nil {
		return message.Summary{}, err
	}
	for _, summary := range summaries {
		if summary.UID == uid {
			return summary, nil
		}
	}
	return message.Summary{}, mailerr.Newf(mailerr.ErrMessageNotFound, "find", "uid %d in %s", uid, folderOrDefault(folder))
}

// DeleteMessage permanently removes the message with the given UID. The
// identifier is validated before the account is looked up or a session opened.
func (s *Service) DeleteMessage(ctx context.Context, id, folder string, identifier any) error {
	uid, err := actions.ParseUID(identifier)
	if err != nil {
		return err
	}
	folder = folderOrDefault(folder)

	ctx, span := s.tracer.Start(ctx, "mailroom.DeleteMessage", trace.WithAttributes(
		attribute.String("account.id", id),
		attribute.String("folder", folder),
		attribute.Int64("uid", int64(uid)),
	))
	defer span.End()

	account, err := s.store.Get(id)
	if err != nil {
		return telemetry.RecordError(span, err)
	}
	session := s.sessions(account.Inbound, s.accountLog(account))
	_, err = sessionmgr.WithSession(ctx, session, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, session.DeleteMessage(ctx, folder, uid)
	})
	if err != nil {
		return telemetry.RecordError(span, err)
	}

	s.accountLog(account).WithFields(logrus.Fields{"folder": folder, "uid": uid}).Info("message deleted")
	s.announce(ctx, "delete", account, fmt.Sprintf("removed message %d from %s", uid, folder))
	return nil
}

// SendMessage submits msg through the account's outbound server.
func (s *Service) SendMessage(ctx context.Context, id string, msg smtpsender.Outbound) error {
	ctx, span := s.tracer.Start(ctx, "mailroom.SendMessage", trace.WithAttributes(attribute.String("account.id", id)))
	defer span.End()

	account, err := s.store.Get(id)
	if err != nil {
		return telemetry.RecordError(span, err)
	}
	if err := s.sender.Send(ctx, account, msg); err != nil {
		return telemetry.RecordError(span, err)
	}

	s.announce(ctx, "send", account, fmt.Sprintf("sent %q to %s", msg.Subject, strings.Join(smtpsender.Recipients(msg.To), ", ")))
	return nil
}

func (s *Service) announce(ctx context.Context, action string, account accounts.Account, detail string) {
	if err := s.announcer.Do(ctx, action, accountLabel(account), detail); err != nil {
		s.accountLog(account).WithError(err).WithField("action", action).Warn("announcement failed")
	}
}

func (s *Service) accountLog(account accounts.Account) logrus.FieldLogger {
	return s.log.WithField("account", account.ID)
}

func accountLabel(account accounts.Account) string {
	if name := strings.TrimSpace(account.Name); name != "" {
		return name
	}
	return account.Email
}

func folderOrDefault(folder string) string {
	if strings.TrimSpace(folder) == "" {
		return DefaultFolder
	}
	return folder
}
