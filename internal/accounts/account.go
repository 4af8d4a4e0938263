// Package accounts holds mail account records and their persistent store.
package accounts

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/aaronromeo/mailroom/internal/mailerr"
)

const (
	DefaultInboundPort  = 993
	DefaultOutboundPort = 465
)

// Security is the transport mode used to reach an endpoint.
type Security int

const (
	SecurityPlain Security = iota
	SecurityImplicitTLS
	SecurityStartTLS
)

func (s Security) String() string {
	switch s {
	case SecurityImplicitTLS:
		return "tls"
	case SecurityStartTLS:
		return "starttls"
	default:
		return "plain"
	}
}

// Endpoint is one protocol configuration, inbound (IMAP) or outbound (SMTP).
type Endpoint struct {
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	TLS      *bool  `json:"tls,omitempty"`
}

// Account is a mail identity with its inbound and outbound endpoints.
type Account struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Inbound     Endpoint `json:"imap"`
	Outbound    Endpoint `json:"smtp"`
	FolderOrder []string `json:"folderOrder,omitempty"`
}

// Bool returns a pointer to v, for populating Endpoint.TLS.
func Bool(v bool) *bool {
	return &v
}

// UseTLS reports the TLS flag. An absent flag means TLS.
func (e Endpoint) UseTLS() bool {
	return e.TLS == nil || *e.TLS
}

// PortOr returns the configured port or def when none is set.
func (e Endpoint) PortOr(def int) int {
	if e.Port <= 0 {
		return def
	}
	return e.Port
}

// Addr returns host:port using def when the port is absent.
func (e Endpoint) Addr(def int) string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.PortOr(def)))
}

// Security picks the transport mode from the port and TLS flag:
// 465 is always implicit TLS, 587 upgrades with STARTTLS when the flag is
// set, and any other port uses implicit TLS only when the flag is set.
func (e Endpoint) Security(def int) Security {
	switch e.PortOr(def) {
	case 465:
		return SecurityImplicitTLS
	case 587:
		if e.UseTLS() {
			return SecurityStartTLS
		}
		return SecurityPlain
	}
	if e.UseTLS() {
		return SecurityImplicitTLS
	}
	return SecurityPlain
}

// TLSConfig accepts self-signed certificates; servers run by individuals
// and small providers routinely present them.
func (e Endpoint) TLSConfig() *tls.Config {
	return &tls.Config{
		ServerName:         e.Host,
		InsecureSkipVerify: true, //nolint:gosec
		MinVersion:         tls.VersionTLS12,
	}
}

// FromAddress returns the envelope sender used for outbound mail.
func (a Account) FromAddress() string {
	if strings.TrimSpace(a.Email) != "" {
		return strings.TrimSpace(a.Email)
	}
	return strings.TrimSpace(a.Outbound.Username)
}

// Validate checks that both endpoints are populated.
func (a Account) Validate() error {
	missing := []string{}
	if strings.TrimSpace(a.Inbound.Host) == "" {
		missing = append(missing, "imap.host")
	}
	if strings.TrimSpace(a.Outbound.Host) == "" {
		missing = append(missing, "smtp.host")
	}
	for name, port := range map[string]int{"imap.port": a.Inbound.Port, "smtp.port": a.Outbound.Port} {
		if port < 0 || port > 65535 {
			return mailerr.Newf(mailerr.ErrInvalidAccount, "validate", "%s out of range: %d", name, port)
		}
	}
	if len(missing) > 0 {
		return mailerr.Newf(mailerr.ErrInvalidAccount, "validate", "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Redacted returns a copy without passwords, for display and API output.
func (a Account) Redacted() Account {
	out := a
	out.Inbound.Password = ""
	out.Outbound.Password = ""
	out.FolderOrder = append([]string(nil), a.FolderOrder...)
	return out
}

func (a Account) String() string {
	return fmt.Sprintf("%s <%s> (%s)", a.Name, a.Email, a.ID)
}
