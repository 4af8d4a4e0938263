// Package smtpsender composes and submits outbound mail.
package smtpsender

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/sirupsen/logrus"

	"github.com/aaronromeo/mailroom/internal/accounts"
	"github.com/aaronromeo/mailroom/internal/mailerr"
)

const defaultDialTimeout = 30 * time.Second

// Outbound is one message to submit. To is a comma separated recipient list.
type Outbound struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    bool   `json:"isHtml"`
}

type Option func(*Sender)

type Sender struct {
	log         logrus.FieldLogger
	dialTimeout time.Duration
	now         func() time.Time
	tlsConfig   func(accounts.Endpoint) *tls.Config
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Sender) {
		s.log = log
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(s *Sender) {
		s.dialTimeout = d
	}
}

func New(opts ...Option) *Sender {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Sender{
		log:         discard,
		dialTimeout: defaultDialTimeout,
		now:         time.Now,
		tlsConfig:   accounts.Endpoint.TLSConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recipients splits a comma separated list into envelope addresses. Entries
// in "Name <addr>" form contribute their address; blank entries are skipped.
func Recipients(to string) []string {
	out := []string{}
	for _, addr := range addressList(to) {
		out = append(out, addr.Address)
	}
	return out
}

// addressList parses each entry of to, keeping display names. Entries that do
// not parse are kept verbatim as bare addresses.
func addressList(to string) []*mail.Address {
	out := []*mail.Address{}
	for _, part := range strings.Split(to, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if addr, err := mail.ParseAddress(part); err == nil {
			out = append(out, addr)
			continue
		}
		out = append(out, &mail.Address{Address: part})
	}
	return out
}

// Compose renders msg as a single-part RFC 822 message sent by account.
func Compose(account accounts.Account, msg Outbound, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{{Name: account.Name, Address: account.FromAddress()}})
	h.SetAddressList("To", addressList(msg.To))
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Send submits msg through the account's outbound endpoint. Every failure,
// including dial and authentication, is reported as mailerr.ErrSend.
func (s *Sender) Send(ctx context.Context, account accounts.Account, msg Outbound) error {
	rcpts := Recipients(msg.To)
	if len(rcpts) == 0 {
		return mailerr.Wrap(mailerr.ErrSend, "send", errors.New("no recipients"))
	}
	from := account.FromAddress()
	if from == "" {
		return mailerr.Wrap(mailerr.ErrSend, "send", errors.New("account has no sender address"))
	}

	data, err := Compose(account, msg, s.now())
	if err != nil {
		return mailerr.Wrap(mailerr.ErrSend, "compose", err)
	}

	ep := account.Outbound
	security := ep.Security(accounts.DefaultOutboundPort)
	log := s.log.WithFields(logrus.Fields{
		"account":  account.ID,
		"addr":     ep.Addr(accounts.DefaultOutboundPort),
		"security": security.String(),
	})

	if err := s.deliver(ctx, ep, security, from, rcpts, data); err != nil {
		log.WithError(err).Warn("smtp submission failed")
		return mailerr.Wrap(mailerr.ErrSend, "send", err)
	}
	log.WithField("recipients", len(rcpts)).Info("message sent")
	return nil
}

func (s *Sender) deliver(ctx context.Context, ep accounts.Endpoint, security accounts.Security, from string, rcpts []string, data []byte) error {
	conn, err := s.dial(ctx, ep, security)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	c, err := smtp.NewClient(conn, ep.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if security == accounts.SecurityStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("server does not support STARTTLS")
		}
		if err := c.StartTLS(s.tlsConfig(ep)); err != nil {
			return err
		}
	}

	if ep.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", ep.Username, ep.Password)); err != nil {
			return err
		}
	}
	if err := c.Mail(from, nil); err != nil {
		return err
	}
	for _, rcpt := range rcpts {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (s *Sender) dial(ctx context.Context, ep accounts.Endpoint, security accounts.Security) (net.Conn, error) {
	addr := ep.Addr(accounts.DefaultOutboundPort)
	dialer := &net.Dialer{Timeout: s.dialTimeout}
	if security == accounts.SecurityImplicitTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: s.tlsConfig(ep)}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}
