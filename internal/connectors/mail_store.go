package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"placement/internal"
	"placement/internal/storage"
)

// MailStore files raw messages under {dir}/{provider}/{sha256}.eml and
// registers them in the ledger. A message already in the ledger is left
// alone, so its status survives repeated polls.
type MailStore struct {
	db  *storage.DB
	dir string
}

func NewMailStore(db *storage.DB, dir string) *MailStore {
	return &MailStore{db: db, dir: dir}
}

// Store reports whether msg was new to the ledger.
func (s *MailStore) Store(msg internal.FetchedMailMessage) (internal.MailRow, bool, error) {
	if len(msg.Raw) == 0 {
		return internal.MailRow{}, false, fmt.Errorf("mail %s %s: empty message", msg.Provider, msg.MessageID)
	}

	known, err := s.db.GetMailByProviderMessageID(msg.Provider, msg.MessageID)
	if err != nil {
		return internal.MailRow{}, false, err
	}
	if known != nil {
		return *known, false, nil
	}

	sum := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(sum[:])
	rawPath, err := s.writeRaw(msg.Provider, hash, msg.Raw)
	if err != nil {
		return internal.MailRow{}, false, err
	}

	row, err := s.db.UpsertMail(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, MailFetched)
	return row, err == nil, err
}

func (s *MailStore) writeRaw(provider, hash string, raw []byte) (string, error) {
	dir := filepath.Join(s.dir, provider)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	rawPath := filepath.Join(dir, hash+".eml")
	if _, err := os.Stat(rawPath); err == nil {
		return rawPath, nil
	}

	tmp, err := os.CreateTemp(dir, hash+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), rawPath); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return rawPath, nil
}
