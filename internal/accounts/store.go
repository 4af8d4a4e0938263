package accounts

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aaronromeo/mailroom/internal/mailerr"
)

type Option func(*Store)

// Store persists accounts as a single JSON document. Every mutation reads
// the whole document, changes one entry and writes the whole document back
// while holding the store lock. Writers in other processes are not
// coordinated with; the last write wins.
type Store struct {
	path    string
	files   FileManager
	secrets Secrets
	newID   func() string
	log     logrus.FieldLogger

	mu sync.Mutex
}

func WithFileManager(files FileManager) Option {
	return func(s *Store) {
		s.files = files
	}
}

func WithSecrets(secrets Secrets) Option {
	return func(s *Store) {
		s.secrets = secrets
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		s.log = log
	}
}

func NewStore(path string, opts ...Option) *Store {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Store{
		path:  path,
		files: OSFileManager{},
		newID: uuid.NewString,
		log:   discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// List returns every stored account in document order.
func (s *Store) List() ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the account with the given id.
func (s *Store) Get(id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return Account{}, err
	}
	for _, account := range accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return Account{}, mailerr.Newf(mailerr.ErrAccountNotFound, "get", "%q", id)
}

// Upsert replaces the account with the same id or appends it. An account
// without an id is assigned a new one. The stored id is returned. When
// replacing, a blank endpoint password keeps the stored one.
func (s *Store) Upsert(account Account) (string, error) {
	if err := account.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return "", err
	}

	replaced := false
	if account.ID != "" {
		for i := range accounts {
			if accounts[i].ID == account.ID {
				if account.Inbound.Password == "" {
					account.Inbound.Password = accounts[i].Inbound.Password
				}
				if account.Outbound.Password == "" {
					account.Outbound.Password = accounts[i].Outbound.Password
				}
				accounts[i] = account
				replaced = true
				break
			}
		}
	}
	if !replaced {
		if account.ID == "" {
			account.ID = s.newID()
		}
		accounts = append(accounts, account)
	}

	if err := s.save(accounts); err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"account": account.ID, "replaced": replaced}).Debug("account saved")
	return account.ID, nil
}

// Remove deletes the account with the given id. Removing an unknown id is
// not an error; the returned bool reports whether anything was removed.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return false, err
	}

	kept := accounts[:0]
	removed := false
	for _, account := range accounts {
		if account.ID == id {
			removed = true
			continue
		}
		kept = append(kept, account)
	}

	if err := s.save(kept); err != nil {
		return false, err
	}
	if removed && s.secrets != nil {
		for _, key := range []string{inboundKey(id), outboundKey(id)} {
			if err := s.secrets.Remove(key); err != nil {
				return true, err
			}
		}
	}
	return removed, nil
}

// SaveFolderOrder replaces the folder order of one account.
func (s *Store) SaveFolderOrder(id string, order []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			accounts[i].FolderOrder = append([]string(nil), order...)
			return s.save(accounts)
		}
	}
	return mailerr.Newf(mailerr.ErrAccountNotFound, "save folder order", "%q", id)
}

func (s *Store) load() ([]Account, error) {
	data, err := s.files.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Account{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading accounts from %s", s.path)
	}

	accounts := []Account{}
	if len(data) == 0 {
		return accounts, nil
	}
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, errors.Wrapf(err, "decoding accounts from %s", s.path)
	}

	if s.secrets != nil {
		for i := range accounts {
			if err := s.hydrate(&accounts[i]); err != nil {
				return nil, err
			}
		}
	}
	return accounts, nil
}

func (s *Store) save(accounts []Account) error {
	doc := accounts
	if s.secrets != nil {
		doc = make([]Account, len(accounts))
		for i, account := range accounts {
			if err := s.stash(account); err != nil {
				return err
			}
			doc[i] = account
			doc[i].Inbound.Password = ""
			doc[i].Outbound.Password = ""
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding accounts")
	}

	dir := filepath.Dir(s.path)
	if err := s.files.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	tmp := s.path + ".tmp"
	if err := s.files.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := s.files.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "replacing %s", s.path)
	}
	s.log.WithFields(logrus.Fields{"path": s.path, "accounts": len(accounts)}).Debug("accounts written")
	return nil
}

func (s *Store) hydrate(account *Account) error {
	if account.ID == "" {
		return nil
	}
	if account.Inbound.Password == "" {
		pass, err := s.secrets.Get(inboundKey(account.ID))
		if err != nil {
			return err
		}
		account.Inbound.Password = pass
	}
	if account.Outbound.Password == "" {
		pass, err := s.secrets.Get(outboundKey(account.ID))
		if err != nil {
			return err
		}
		account.Outbound.Password = pass
	}
	return nil
}

func (s *Store) stash(account Account) error {
	if account.Inbound.Password != "" {
		if err := s.secrets.Set(inboundKey(account.ID), account.Inbound.Password); err != nil {
			return err
		}
	}
	if account.Outbound.Password != "" {
		if err := s.secrets.Set(outboundKey(account.ID), account.Outbound.Password); err != nil {
			return err
		}
	}
	return nil
}
