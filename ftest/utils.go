package ftest

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	giimapserver "github.com/emersion/go-imap/v2/imapserver"
	giimapmemserver "github.com/emersion/go-imap/v2/imapserver/imapmemserver"
)

const (
	DefaultUser = "user@example.com"
	DefaultPass = "password"
)

// Message is a simple single-part message appended to a fixture mailbox.
type Message struct {
	Mailbox string
	From    string
	To      string
	Subject string
	Date    string
	Body    string
	HTML    bool
	Raw     string
	Time    time.Time
}

type IMAPOptions struct {
	Caps      imap.CapSet
	Mailboxes []string
	Messages  []Message
	Plain     bool

	// FailStore and FailExpunge make the server answer NO to STORE and
	// EXPUNGE commands.
	FailStore   bool
	FailExpunge bool
}

// IMAPFixture describes a running in-memory IMAP server. UIDs lists the
// UID assigned to each of IMAPOptions.Messages, in order.
type IMAPFixture struct {
	Addr string
	UIDs []uint32
}

func SetupIMAPServer(t *testing.T, opts IMAPOptions) (IMAPFixture, func()) {
	t.Helper()

	tlsConfig := testTLSConfig(t)
	mem := giimapmemserver.New()
	user := giimapmemserver.NewUser(DefaultUser, DefaultPass)
	mem.AddUser(user)

	if err := user.Create("INBOX", nil); err != nil {
		t.Fatalf("create mailbox: %v", err)
	}
	for _, mailbox := range opts.Mailboxes {
		if strings.TrimSpace(mailbox) == "" || mailbox == "INBOX" {
			continue
		}
		if err := user.Create(mailbox, nil); err != nil {
			t.Fatalf("create mailbox %q: %v", mailbox, err)
		}
	}

	fixture := IMAPFixture{}
	for _, msg := range opts.Messages {
		mailbox := strings.TrimSpace(msg.Mailbox)
		if mailbox == "" {
			mailbox = "INBOX"
		}
		appendTime := msg.Time
		if appendTime.IsZero() {
			appendTime = time.Now()
		}
		raw := msg.Raw
		if raw == "" {
			raw = SampleMessage(msg)
		}
		data, err := user.Append(mailbox, newLiteral(t, raw), &imap.AppendOptions{Time: appendTime})
		if err != nil {
			t.Fatalf("append message: %v", err)
		}
		fixture.UIDs = append(fixture.UIDs, uint32(data.UID))
	}

	serverOptions := &giimapserver.Options{
		NewSession: func(*giimapserver.Conn) (giimapserver.Session, *giimapserver.GreetingData, error) {
			sess := mem.NewSession()
			if opts.FailStore || opts.FailExpunge {
				sess = &failingSession{Session: sess, store: opts.FailStore, expunge: opts.FailExpunge}
			}
			return sess, nil, nil
		},
		Caps:         opts.Caps,
		InsecureAuth: true,
	}
	if !opts.Plain {
		serverOptions.TLSConfig = tlsConfig
	}
	server := giimapserver.New(serverOptions)

	var ln net.Listener
	var err error
	if opts.Plain {
		ln, err = net.Listen("tcp", "127.0.0.1:0")
	} else {
		ln, err = tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
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
		_ = ln.Close()
		select {
		case <-errCh:
		default:
		}
	}

	fixture.Addr = ln.Addr().String()
	return fixture, cleanup
}

type failingSession struct {
	giimapserver.Session
	store   bool
	expunge bool
}

func (s *failingSession) Store(w *giimapserver.FetchWriter, numSet imap.NumSet, flags *imap.StoreFlags, options *imap.StoreOptions) error {
	if s.store {
		return &imap.Error{Type: imap.StatusResponseTypeNo, Text: "store refused"}
	}
	return s.Session.Store(w, numSet, flags, options)
}

func (s *failingSession) Expunge(w *giimapserver.ExpungeWriter, uids *imap.UIDSet) error {
	if s.expunge {
		return &imap.Error{Type: imap.StatusResponseTypeNo, Text: "expunge refused"}
	}
	return s.Session.Expunge(w, uids)
}

// SplitAddr splits a listener address into host and port.
func SplitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return host, n
}

type literalReader struct {
	*bytes.Reader
	size int64
}

func newLiteral(t *testing.T, raw string) imap.LiteralReader {
	t.Helper()
	buf := []byte(raw)
	return &literalReader{
		Reader: bytes.NewReader(buf),
		size:   int64(len(buf)),
	}
}

func (lr *literalReader) Size() int64 {
	return lr.size
}

// SampleMessage renders msg as a minimal RFC 822 message.
func SampleMessage(msg Message) string {
	builder := &strings.Builder{}
	if msg.From != "" {
		builder.WriteString("From: ")
		builder.WriteString(msg.From)
		builder.WriteString("\r\n")
	}
	to := msg.To
	if to == "" {
		to = DefaultUser
	}
	builder.WriteString("To: ")
	builder.WriteString(to)
	builder.WriteString("\r\n")
	if msg.Subject != "" {
		builder.WriteString("Subject: ")
		builder.WriteString(msg.Subject)
		builder.WriteString("\r\n")
	}
	if msg.Date != "" {
		builder.WriteString("Date: ")
		builder.WriteString(msg.Date)
		builder.WriteString("\r\n")
	}
	if msg.HTML {
		builder.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	}
	builder.WriteString("\r\n")
	builder.WriteString(msg.Body)
	return builder.String()
}

func testTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}
