package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"placement/internal"
	"placement/internal/batch"
	"placement/internal/config"
	"placement/internal/logging"
	"placement/internal/objectstore"
)

// Ledger records upload actions. *storage.DB implements it.
type Ledger interface {
	InsertRun(run internal.RunRow) error
	InsertUploads(uploads []internal.UploadRow) error
}

// UploadService runs the upload action: every slot is transformed and stored
// on its own, then the batch marker is written.
type UploadService struct {
	sink   objectstore.Sink
	ledger Ledger
	cfg    config.Config
	log    *slog.Logger
	now    func() time.Time
}

// NewUploadService wires a service. ledger may be nil to skip bookkeeping.
func NewUploadService(sink objectstore.Sink, ledger Ledger, cfg config.Config, log *slog.Logger) *UploadService {
	return &UploadService{
		sink:   sink,
		ledger: ledger,
		cfg:    cfg,
		log:    logging.OrDiscard(log),
		now:    time.Now,
	}
}

// Process validates the request, then handles the slots strictly in
// internal.Slots order. A failing slot is reported in its SlotResult and never
// stops later slots or undoes earlier ones. The marker is written once at
// least one slot succeeded. Only a ValidationError is returned as error, and
// in that case nothing has been written.
func (s *UploadService) Process(ctx context.Context, req internal.UploadRequest) (internal.UploadReport, error) {
	files, err := validateRequest(req)
	if err != nil {
		return internal.UploadReport{}, err
	}

	started := s.now().UTC()
	report := internal.UploadReport{
		RunID:   uuid.NewString(),
		BatchID: batch.Name(strings.TrimSpace(req.Month), strings.TrimSpace(req.Year)),
		Results: []internal.SlotResult{},
	}
	log := s.log.With("run", report.RunID, "batch", report.BatchID)
	log.Info("upload started", "slots", len(files), "source", req.Source)

	total := len(files)
	done := 0
	for _, slot := range internal.Slots {
		sf, ok := files[slot]
		if !ok {
			continue
		}

		keys, err := s.processSlot(ctx, report.BatchID, sf)
		report.Results = append(report.Results, internal.SlotResult{Slot: slot, Keys: keys, Err: err})
		if err != nil {
			log.Error("slot failed", "slot", slot, "file", sf.File.Name, "error", err)
			continue
		}
		log.Info("slot uploaded", "slot", slot, "keys", strings.Join(keys, ","))

		done++
		if req.Progress != nil {
			req.Progress(done, total)
		}
	}

	if report.Succeeded() > 0 {
		markerKey := batch.MarkerKey(report.BatchID)
		if err := s.sink.Put(ctx, s.cfg.MarkerBucket, markerKey, []byte(batch.MarkerBody(report.BatchID))); err != nil {
			report.MarkerErr = err
			log.Error("marker upload failed", "key", markerKey, "error", err)
		} else {
			report.MarkerKey = markerKey
			log.Info("marker uploaded", "bucket", s.cfg.MarkerBucket, "key", markerKey)
		}
	} else {
		log.Warn("no slot succeeded, marker not written")
	}

	s.record(report, req.Source, started)
	return report, nil
}

func validateRequest(req internal.UploadRequest) (map[internal.Slot]internal.SlotFile, error) {
	if strings.TrimSpace(req.Month) == "" {
		return nil, &ValidationError{Field: "month", Message: "batch month is required"}
	}
	if strings.TrimSpace(req.Year) == "" {
		return nil, &ValidationError{Field: "year", Message: "batch year is required"}
	}

	files := make(map[internal.Slot]internal.SlotFile, len(req.Files))
	for _, sf := range req.Files {
		known := false
		for _, slot := range internal.Slots {
			if slot == sf.Slot {
				known = true
				break
			}
		}
		if !known {
			return nil, &ValidationError{Field: "slot", Message: fmt.Sprintf("unknown slot %q", sf.Slot)}
		}
		if _, dup := files[sf.Slot]; dup {
			return nil, &ValidationError{Field: "slot", Message: fmt.Sprintf("slot %s given more than once", sf.Slot)}
		}
		files[sf.Slot] = sf
	}
	return files, nil
}

// processSlot returns the keys written so far even when it fails.
func (s *UploadService) processSlot(ctx context.Context, batchID string, sf internal.SlotFile) ([]string, error) {
	transformer := TransformerFor(sf.Slot)

	if !sf.Slot.IsWorkbookSlot() {
		table, err := transformer.Transform(sf.File, "")
		if err != nil {
			return nil, err
		}
		key := batch.ArtifactKey(batchID, batch.ArtifactName(sf.Slot, ""))
		if err := s.putTable(ctx, key, table); err != nil {
			return nil, err
		}
		return []string{key}, nil
	}

	// Both course sheets are decoded before anything is stored.
	sheets := []struct {
		course string
		sheet  string
	}{
		{"DAC", sf.DACSheet},
		{"DBDA", sf.DBDASheet},
	}
	tables := make([]*Table, len(sheets))
	for i, sh := range sheets {
		table, err := transformer.Transform(sf.File, strings.TrimSpace(sh.sheet))
		if err != nil {
			return nil, err
		}
		tables[i] = table
	}

	keys := []string{}
	for i, sh := range sheets {
		key := batch.ArtifactKey(batchID, batch.ArtifactName(sf.Slot, sh.course))
		if err := s.putTable(ctx, key, tables[i]); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *UploadService) putTable(ctx context.Context, key string, table *Table) error {
	body, err := EncodeCSV(table)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.sink.Put(ctx, s.cfg.DataBucket, key, body)
}

// record writes the run to the ledger. Ledger failures are logged only; the
// objects are already stored at this point.
func (s *UploadService) record(report internal.UploadReport, source string, started time.Time) {
	if s.ledger == nil {
		return
	}

	run := internal.RunRow{
		RunID:     report.RunID,
		BatchID:   report.BatchID,
		Source:    source,
		StartedAt: started.Format(time.RFC3339),
		Succeeded: report.Succeeded(),
		Failed:    len(report.Failures()),
	}
	if report.MarkerKey != "" {
		run.MarkerKey = &report.MarkerKey
	}
	if report.MarkerErr != nil {
		msg := report.MarkerErr.Error()
		run.MarkerError = &msg
	}
	if err := s.ledger.InsertRun(run); err != nil {
		s.log.Error("ledger run insert failed", "run", report.RunID, "error", err)
		return
	}

	rows := []internal.UploadRow{}
	for _, res := range report.Results {
		for _, key := range res.Keys {
			rows = append(rows, internal.UploadRow{RunID: report.RunID, BatchID: report.BatchID, Slot: string(res.Slot), ArtifactKey: &key, Status: "uploaded"})
		}
		if res.Err != nil {
			msg := res.Err.Error()
			rows = append(rows, internal.UploadRow{RunID: report.RunID, BatchID: report.BatchID, Slot: string(res.Slot), Status: "failed", Error: &msg})
		}
	}
	if err := s.ledger.InsertUploads(rows); err != nil {
		s.log.Error("ledger upload insert failed", "run", report.RunID, "error", err)
	}
}
