package sessionmgr

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	giimapclient "github.com/emersion/go-imap/v2/imapclient"
	"github.com/sirupsen/logrus"

	"github.com/aaronromeo/mailroom/internal/accounts"
	"github.com/aaronromeo/mailroom/internal/mailerr"
)

const defaultDialTimeout = 30 * time.Second

type Option func(*IMAPConnector)

type ServerConnector interface {
	Connect(ctx context.Context) error
	Close() error

	IMAPClient() *giimapclient.Client
}

// IMAPConnector owns one authenticated IMAP connection.
type IMAPConnector struct {
	Addr        string
	Username    string
	Password    string
	Security    accounts.Security
	TLSConfig   *tls.Config
	DialTimeout time.Duration
	Log         logrus.FieldLogger

	Client *giimapclient.Client

	stop func() bool
}

func WithAddr(a string) Option {
	return func(c *IMAPConnector) {
		c.Addr = a
	}
}

func WithCreds(username string, password string) Option {
	return func(c *IMAPConnector) {
		c.Username = username
		c.Password = password
	}
}

func WithTLSConfig(config *tls.Config) Option {
	return func(c *IMAPConnector) {
		c.TLSConfig = config
	}
}

func WithSecurity(security accounts.Security) Option {
	return func(c *IMAPConnector) {
		c.Security = security
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(c *IMAPConnector) {
		c.DialTimeout = d
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *IMAPConnector) {
		c.Log = log
	}
}

// WithEndpoint configures address, credentials and transport from an
// account's inbound endpoint.
func WithEndpoint(ep accounts.Endpoint) Option {
	return func(c *IMAPConnector) {
		c.Addr = ep.Addr(accounts.DefaultInboundPort)
		c.Username = ep.Username
		c.Password = ep.Password
		c.Security = ep.Security(accounts.DefaultInboundPort)
		c.TLSConfig = ep.TLSConfig()
	}
}

func NewServerConnector(opts ...Option) *IMAPConnector {
	c := &IMAPConnector{
		Security:    accounts.SecurityImplicitTLS,
		DialTimeout: defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		c.Log = discard
	}

	return c
}

func (c *IMAPConnector) IMAPClient() *giimapclient.Client {
	return c.Client
}

// Connect dials the server and logs in. Cancelling ctx after Connect returns
// closes the connection, which fails any command in flight.
func (c *IMAPConnector) Connect(ctx context.Context) error {
	if err := validateDeps(c); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return mailerr.Wrap(mailerr.ErrConnection, "connect", err)
	}

	log := c.Log.WithFields(logrus.Fields{"addr": c.Addr, "security": c.Security.String()})

	client, err := c.dial(ctx)
	if err != nil {
		return mailerr.Wrap(mailerr.ErrConnection, "connect", err)
	}

	if err := client.Login(c.Username, c.Password).Wait(); err != nil {
		_ = client.Close()
		log.WithError(err).Warn("imap login failed")
		return mailerr.Wrap(mailerr.ErrAuthentication, "login", err)
	}

	c.Client = client
	c.stop = context.AfterFunc(ctx, func() {
		_ = client.Close()
	})
	log.Debug("imap session opened")
	return nil
}

func (c *IMAPConnector) dial(ctx context.Context) (*giimapclient.Client, error) {
	options := &giimapclient.Options{TLSConfig: c.TLSConfig}
	dialer := &net.Dialer{Timeout: c.DialTimeout}

	switch c.Security {
	case accounts.SecurityStartTLS:
		return giimapclient.DialStartTLS(c.Addr, options)
	case accounts.SecurityImplicitTLS:
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: c.TLSConfig}
		conn, err := tlsDialer.DialContext(ctx, "tcp", c.Addr)
		if err != nil {
			return nil, err
		}
		return giimapclient.New(conn, options), nil
	default:
		conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
		if err != nil {
			return nil, err
		}
		return giimapclient.New(conn, options), nil
	}
}

// Close logs out and clears the connection.
func (c *IMAPConnector) Close() error {
	if c.Client == nil {
		return nil
	}
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	err := c.Client.Logout().Wait()
	_ = c.Client.Close()
	c.Client = nil
	c.Log.WithField("addr", c.Addr).Debug("imap session closed")
	return err
}

// WithSession connects, runs fn against the live connection and closes the
// connection on every exit path. Errors from logout are ignored once fn has
// produced its result.
func WithSession[T any](ctx context.Context, connector ServerConnector, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := connector.Connect(ctx); err != nil {
		return zero, err
	}
	defer func() {
		_ = connector.Close()
	}()

	return fn(ctx)
}

func validateDeps(c *IMAPConnector) error {
	if strings.TrimSpace(c.Addr) == "" {
		return mailerr.Wrap(mailerr.ErrConnection, "connect", errors.New("IMAP address is required"))
	}
	if strings.TrimSpace(c.Username) == "" {
		return mailerr.Wrap(mailerr.ErrAuthentication, "connect", errors.New("IMAP username is required"))
	}

	return nil
}
