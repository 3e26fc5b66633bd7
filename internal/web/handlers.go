package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"placement/internal"
	"placement/internal/auth"
	"placement/internal/batch"
	"placement/internal/pipeline"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid form")
		return
	}

	session, err := s.auth.Login(auth.FromContext(r.Context()), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		s.log.Warn("login rejected", "remote", r.RemoteAddr)
		respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	token, err := s.auth.IssueToken(session)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	s.setSessionCookie(w, token, session.ExpiresAt)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Login successful!"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.setSessionCookie(w, "", time.Unix(0, 0))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (s *Server) months(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"months": batch.Months})
}

type foldersResponse struct {
	Folders []string `json:"folders"`
	Error   string   `json:"error,omitempty"`
}

func (s *Server) folders(w http.ResponseWriter, r *http.Request) {
	folders, err := batch.ListFolders(r.Context(), s.sink, s.cfg.DataBucket, s.log)
	if err != nil {
		respondJSON(w, http.StatusBadGateway, foldersResponse{Folders: []string{}, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, foldersResponse{Folders: batch.FilterFolders(folders, r.URL.Query().Get("search"))})
}

type slotResponse struct {
	Slot  string   `json:"slot"`
	Keys  []string `json:"keys"`
	Error string   `json:"error,omitempty"`
}

type uploadResponse struct {
	RunID       string         `json:"runId"`
	BatchID     string         `json:"batchId"`
	Results     []slotResponse `json:"results"`
	Marker      string         `json:"marker,omitempty"`
	MarkerError string         `json:"markerError,omitempty"`
}

// formFields names the multipart file field of each slot and, for workbook
// slots, its two sheet-name fields.
var formFields = map[internal.Slot][3]string{
	internal.SlotDAC:          {"dac"},
	internal.SlotDBDA:         {"dbda"},
	internal.SlotRegistration: {"registration"},
	internal.SlotMasterData:   {"masterdata", "masterdata_dac_sheet", "masterdata_dbda_sheet"},
	internal.SlotPlacement:    {"placement", "placement_dac_sheet", "placement_dbda_sheet"},
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid upload form")
		return
	}

	month := strings.TrimSpace(r.FormValue("batch_month"))
	year := strings.TrimSpace(r.FormValue("batch_year"))
	if month != "" && !batch.IsKnownMonth(month) {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("batch month must be one of %s", strings.Join(batch.Months, ", ")))
		return
	}
	if len(year) > 4 {
		respondWithError(w, http.StatusBadRequest, "batch year must be at most 4 characters")
		return
	}

	req := internal.UploadRequest{Month: month, Year: year, Source: "web"}
	for _, slot := range internal.Slots {
		fields := formFields[slot]
		file, ok, err := readFormFile(r, fields[0])
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !ok {
			continue
		}
		sf := internal.SlotFile{Slot: slot, File: file}
		if slot.IsWorkbookSlot() {
			sf.DACSheet = r.FormValue(fields[1])
			sf.DBDASheet = r.FormValue(fields[2])
		}
		req.Files = append(req.Files, sf)
	}

	report, err := s.uploads.Process(r.Context(), req)
	var validationErr *pipeline.ValidationError
	if errors.As(err, &validationErr) {
		respondWithError(w, http.StatusBadRequest, validationErr.Error())
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, toUploadResponse(report))
}

func readFormFile(r *http.Request, field string) (internal.UploadFile, bool, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return internal.UploadFile{}, false, nil
	}
	if err != nil {
		return internal.UploadFile{}, false, fmt.Errorf("read %s: %w", field, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return internal.UploadFile{}, false, fmt.Errorf("read %s: %w", field, err)
	}
	return internal.UploadFile{Name: header.Filename, Content: content}, true, nil
}

func toUploadResponse(report internal.UploadReport) uploadResponse {
	out := uploadResponse{
		RunID:   report.RunID,
		BatchID: report.BatchID,
		Results: make([]slotResponse, 0, len(report.Results)),
		Marker:  report.MarkerKey,
	}
	for _, res := range report.Results {
		sr := slotResponse{Slot: string(res.Slot), Keys: res.Keys}
		if sr.Keys == nil {
			sr.Keys = []string{}
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
		}
		out.Results = append(out.Results, sr)
	}
	if report.MarkerErr != nil {
		out.MarkerError = report.MarkerErr.Error()
	}
	return out
}
