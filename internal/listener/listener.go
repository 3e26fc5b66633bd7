// Package listener polls a mailbox and runs batch mails through the intake.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"placement/internal/config"
	"placement/internal/connectors"
	gmailconnector "placement/internal/connectors/gmail"
	imapconnector "placement/internal/connectors/imap"
	"placement/internal/logging"
	"placement/internal/storage"
)

type Service struct {
	db      *storage.DB
	uploads connectors.Uploader
	cfg     config.Config
	log     *slog.Logger

	newConnector func(ctx context.Context, provider string, cfg config.Config) (connectors.MailConnector, error)
}

func NewService(db *storage.DB, uploads connectors.Uploader, cfg config.Config, log *slog.Logger) *Service {
	return &Service{db: db, uploads: uploads, cfg: cfg, log: logging.OrDiscard(log), newConnector: NewConnector}
}

// Run polls until ctx is cancelled. A failed cycle is logged and retried on
// the next tick.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.log.Error("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) (connectors.IntakeResult, error) {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	connector, err := s.newConnector(ctx, provider, s.cfg)
	if err != nil {
		return connectors.IntakeResult{}, err
	}

	intake := connectors.NewIntakeService(s.db, connector, s.uploads, s.cfg, s.log)
	res, err := intake.FetchAndProcess(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return res, err
	}

	s.log.Info("listener cycle done",
		"provider", provider,
		"fetched", res.Fetched,
		"stored", res.Stored,
		"processed", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	if err := s.db.SetMetadata("listener:"+provider+":last_cycle", time.Now().UTC().Format(time.RFC3339)); err != nil {
		s.log.Warn("listener metadata not saved", "error", err)
	}
	return res, nil
}

func NewConnector(ctx context.Context, provider string, cfg config.Config) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
