package ftest

import (
	"crypto/tls"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"testing"

	"github.com/emersion/go-smtp"
)

type SMTPMode int

const (
	SMTPPlain SMTPMode = iota
	SMTPImplicitTLS
	SMTPStartTLS
)

// Delivery is one message accepted by the capture server.
type Delivery struct {
	From string
	To   []string
	Data []byte
	TLS  bool
}

// SMTPFixture is a running capture server.
type SMTPFixture struct {
	Addr string

	mu         sync.Mutex
	deliveries []Delivery
}

func (f *SMTPFixture) Deliveries() []Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Delivery(nil), f.deliveries...)
}

func (f *SMTPFixture) record(d Delivery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, d)
}

type captureBackend struct {
	fixture *SMTPFixture
}

func (b *captureBackend) Login(state *smtp.ConnectionState, username, password string) (smtp.Session, error) {
	if username != DefaultUser || password != DefaultPass {
		return nil, errors.New("invalid credentials")
	}
	return &captureSession{fixture: b.fixture, tls: state.TLS.HandshakeComplete}, nil
}

func (b *captureBackend) AnonymousLogin(*smtp.ConnectionState) (smtp.Session, error) {
	return nil, smtp.ErrAuthRequired
}

type captureSession struct {
	fixture *SMTPFixture
	tls     bool
	current Delivery
}

func (s *captureSession) Reset() {
	s.current = Delivery{}
}

func (s *captureSession) Logout() error {
	return nil
}

func (s *captureSession) Mail(from string, _ smtp.MailOptions) error {
	s.current = Delivery{From: from, TLS: s.tls}
	return nil
}

func (s *captureSession) Rcpt(to string) error {
	s.current.To = append(s.current.To, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.Data = data
	s.fixture.record(s.current)
	return nil
}

// SetupSMTPServer starts a submission server that accepts DefaultUser and
// records every delivered message. In STARTTLS mode authentication is only
// offered after the upgrade.
func SetupSMTPServer(t *testing.T, mode SMTPMode) (*SMTPFixture, func()) {
	t.Helper()

	fixture := &SMTPFixture{}
	tlsConfig := testTLSConfig(t)

	server := smtp.NewServer(&captureBackend{fixture: fixture})
	server.Domain = "localhost"
	server.ErrorLog = log.New(io.Discard, "", 0)

	var ln net.Listener
	var err error
	switch mode {
	case SMTPImplicitTLS:
		server.TLSConfig = tlsConfig
		ln, err = tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	case SMTPStartTLS:
		server.TLSConfig = tlsConfig
		ln, err = net.Listen("tcp", "127.0.0.1:0")
	default:
		server.AllowInsecureAuth = true
		ln, err = net.Listen("tcp", "127.0.0.1:0")
	}
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	cleanup := func() {
		_ = server.Close()
		select {
		case <-errCh:
		default:
		}
	}

	fixture.Addr = ln.Addr().String()
	return fixture, cleanup
}
