package connectors

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"placement/internal"
	"placement/internal/config"
	"placement/internal/logging"
	"placement/internal/storage"
)

// Ledger status of a mail message.
const (
	MailFetched   = "fetched"
	MailProcessed = "processed"
	MailSkipped   = "skipped"
	MailFailed    = "failed"
)

type IntakeService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStore
	uploads   Uploader
	cfg       config.Config
	log       *slog.Logger
}

type IntakeResult struct {
	Fetched   int
	Stored    int
	Processed int
	Skipped   int
	Failed    int
}

func NewIntakeService(db *storage.DB, connector MailConnector, uploads Uploader, cfg config.Config, log *slog.Logger) *IntakeService {
	return &IntakeService{
		db:        db,
		connector: connector,
		store:     NewMailStore(db, cfg.RawMailDir),
		uploads:   uploads,
		cfg:       cfg,
		log:       logging.OrDiscard(log),
	}
}

// FetchAndProcess stores new messages of label, then runs every message still
// in status "fetched". Stored counts only messages new to the ledger.
func (s *IntakeService) FetchAndProcess(ctx context.Context, label string, max int) (IntakeResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return IntakeResult{}, err
	}

	res := IntakeResult{Fetched: len(messages)}
	for _, msg := range messages {
		_, fresh, err := s.store.Store(msg)
		if err != nil {
			return res, err
		}
		if fresh {
			res.Stored++
		}
	}

	limit := s.cfg.MailListenerBatchSize
	if limit <= 0 {
		limit = 20
	}
	pending, err := s.db.ListMailByStatus(MailFetched, limit)
	if err != nil {
		return res, err
	}
	for _, mail := range pending {
		status, err := s.ProcessMail(ctx, mail)
		if err != nil {
			return res, err
		}
		switch status {
		case MailProcessed:
			res.Processed++
		case MailSkipped:
			res.Skipped++
		case MailFailed:
			res.Failed++
		}
	}
	return res, nil
}

// ProcessMail runs the upload action of one stored message and records the
// outcome. Only ledger errors are returned; a message whose raw file is gone
// or that cannot be turned into a batch is marked skipped or failed instead.
func (s *IntakeService) ProcessMail(ctx context.Context, mail internal.MailRow) (string, error) {
	log := s.log.With("provider", mail.Provider, "message", mail.MessageID)

	raw, err := os.ReadFile(mail.RawRef)
	if err != nil {
		log.Error("raw mail unreadable", "path", mail.RawRef, "error", err)
		return MailFailed, s.db.UpdateMailStatus(mail.ID, MailFailed, nil)
	}

	parsed, err := ParseBatchMail(raw, s.cfg)
	if errors.Is(err, ErrNoBatch) || (err == nil && len(parsed.Files) == 0) {
		log.Info("mail skipped", "subject", parsed.Subject, "ignored", len(parsed.Ignored))
		return MailSkipped, s.db.UpdateMailStatus(mail.ID, MailSkipped, nil)
	}
	if err != nil {
		log.Warn("mail unreadable", "error", err)
		return MailFailed, s.db.UpdateMailStatus(mail.ID, MailFailed, nil)
	}

	report, err := s.uploads.Process(ctx, internal.UploadRequest{
		Month:  parsed.Month,
		Year:   parsed.Year,
		Source: "mail:" + mail.Provider,
		Files:  parsed.Files,
	})
	if err != nil {
		log.Warn("mail upload rejected", "error", err)
		return MailFailed, s.db.UpdateMailStatus(mail.ID, MailFailed, nil)
	}

	status := MailProcessed
	if report.Succeeded() == 0 {
		status = MailFailed
	}
	log.Info("mail processed", "batch", report.BatchID, "run", report.RunID, "succeeded", report.Succeeded(), "failed", len(report.Failures()))
	return status, s.db.UpdateMailStatus(mail.ID, status, &report.RunID)
}
