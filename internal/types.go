package internal

type Slot string

const (
	SlotDAC          Slot = "DAC"
	SlotDBDA         Slot = "DBDA"
	SlotRegistration Slot = "Registration"
	SlotMasterData   Slot = "MasterData"
	SlotPlacement    Slot = "Placement"
)

// Slots is the fixed processing order of an upload action.
var Slots = []Slot{SlotDAC, SlotDBDA, SlotRegistration, SlotMasterData, SlotPlacement}

// IsResultSlot reports whether files in the slot are exam result sheets.
func (s Slot) IsResultSlot() bool {
	return s == SlotDAC || s == SlotDBDA
}

// IsWorkbookSlot reports whether the slot yields one artifact per course sheet.
func (s Slot) IsWorkbookSlot() bool {
	return s == SlotMasterData || s == SlotPlacement
}

type UploadFile struct {
	Name    string
	Content []byte
}

type SlotFile struct {
	Slot      Slot
	File      UploadFile
	DACSheet  string
	DBDASheet string
}

type UploadRequest struct {
	Month    string
	Year     string
	Source   string
	Files    []SlotFile
	Progress func(done, total int)
}

type SlotResult struct {
	Slot Slot
	Keys []string
	Err  error
}

func (r SlotResult) OK() bool {
	return r.Err == nil
}

type UploadReport struct {
	RunID     string
	BatchID   string
	Results   []SlotResult
	MarkerKey string
	MarkerErr error
}

func (r UploadReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

func (r UploadReport) Failures() []SlotResult {
	out := []SlotResult{}
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

type RunRow struct {
	ID          int
	RunID       string
	BatchID     string
	Source      string
	StartedAt   string
	Succeeded   int
	Failed      int
	MarkerKey   *string
	MarkerError *string
}

type UploadRow struct {
	ID          int
	RunID       string
	BatchID     string
	Slot        string
	ArtifactKey *string
	Status      string
	Error       *string
	CreatedAt   string
}

type MailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
	RunID      *string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
