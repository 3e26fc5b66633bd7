package connectors

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"

	"placement/internal"
	"placement/internal/batch"
	"placement/internal/config"
)

var reBatchSubject = regexp.MustCompile(`(?i)\b(` + strings.Join(batch.Months, "|") + `)\b[\s,_/-]*(\d{4})\b`)

// attachmentPrefixes maps a lower-cased file name prefix to its slot.
var attachmentPrefixes = []struct {
	prefix string
	slot   internal.Slot
}{
	{"registration", internal.SlotRegistration},
	{"master_data", internal.SlotMasterData},
	{"master data", internal.SlotMasterData},
	{"masterdata", internal.SlotMasterData},
	{"placement", internal.SlotPlacement},
	{"dbda", internal.SlotDBDA},
	{"dac", internal.SlotDAC},
}

var ErrNoBatch = errors.New("subject does not name a batch month and year")

// BatchMail is a mail that carries one batch upload.
type BatchMail struct {
	Subject string
	Month   string
	Year    string
	Files   []internal.SlotFile
	Ignored []string
}

// SlotForAttachment resolves a slot from an attachment file name.
func SlotForAttachment(filename string) (internal.Slot, bool) {
	base := strings.ToLower(strings.TrimSpace(filepath.Base(filename)))
	for _, p := range attachmentPrefixes {
		if strings.HasPrefix(base, p.prefix) {
			return p.slot, true
		}
	}
	return "", false
}

// ParseBatchMail reads a raw RFC 5322 message. The subject names the batch
// ("Results March 2025"), attachments are assigned to slots by file name.
// Only the first attachment of a slot is used.
func ParseBatchMail(raw []byte, cfg config.Config) (BatchMail, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return BatchMail{}, fmt.Errorf("parse mail: %w", err)
	}

	out := BatchMail{Subject: env.GetHeader("Subject")}
	m := reBatchSubject.FindStringSubmatch(out.Subject)
	if m == nil {
		return out, ErrNoBatch
	}
	out.Month = canonicalMonth(m[1])
	out.Year = m[2]

	seen := map[internal.Slot]bool{}
	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, att := range parts {
		filename := strings.TrimSpace(att.FileName)
		slot, ok := SlotForAttachment(filename)
		if !ok || seen[slot] {
			if filename != "" {
				out.Ignored = append(out.Ignored, filename)
			}
			continue
		}
		seen[slot] = true

		sf := internal.SlotFile{Slot: slot, File: internal.UploadFile{Name: filename, Content: att.Content}}
		switch slot {
		case internal.SlotMasterData:
			sf.DACSheet, sf.DBDASheet = cfg.IntakeMasterDataDACSheet, cfg.IntakeMasterDataDBDASheet
		case internal.SlotPlacement:
			sf.DACSheet, sf.DBDASheet = cfg.IntakePlacementDACSheet, cfg.IntakePlacementDBDASheet
		}
		out.Files = append(out.Files, sf)
	}
	return out, nil
}

func canonicalMonth(month string) string {
	for _, m := range batch.Months {
		if strings.EqualFold(m, month) {
			return m
		}
	}
	return month
}
