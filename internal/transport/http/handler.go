package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"promo-quiz-service/internal/app"
	"promo-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

// multipartMemory is how much of a multipart body is buffered in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// Handler serves the JSON API used by the page flow and the admin console.
type Handler struct {
	content        *app.ContentService
	submissions    *app.SubmissionService
	uploads        *app.UploadService
	validator      *requestValidator
	maxUploadBytes int64
	log            zerolog.Logger
}

func NewHandler(content *app.ContentService, submissions *app.SubmissionService, uploads *app.UploadService, maxUploadBytes int64, log zerolog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = app.DefaultMaxUploadBytes
	}
	return &Handler{
		content:        content,
		submissions:    submissions,
		uploads:        uploads,
		validator:      newRequestValidator(),
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "http").Logger(),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /content", h.GetContent)
	mux.HandleFunc("POST /content", h.SaveContent)
	mux.HandleFunc("POST /submit", h.Submit)
	mux.HandleFunc("GET /submissions", h.ListSubmissions)
	mux.HandleFunc("POST /submissions/reset", h.ResetSubmissions)
	mux.HandleFunc("GET /submissions/export", h.ExportSubmissions)
	mux.HandleFunc("POST /upload", h.Upload)
}

type contentRequest struct {
	VideoURL           *string            `json:"videoUrl"`
	BackgroundImageURL *string            `json:"backgroundImageUrl"`
	VideoType          *string            `json:"videoType" validate:"omitempty,oneof=upload youtube"`
	Questions          *[]domain.Question `json:"questions"`
}

type submitRequest struct {
	Name       string `json:"name" validate:"required"`
	EmployeeID string `json:"employeeId" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
	IsCorrect  bool   `json:"isCorrect"`
	QuestionID string `json:"questionId"`
}

type submitResponse struct {
	Success    bool              `json:"success"`
	Submission domain.Submission `json:"submission"`
}

type submissionsResponse struct {
	Count       int                 `json:"count"`
	Submissions []domain.Submission `json:"submissions"`
}

func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.content.Get(r.Context()))
}

func (h *Handler) SaveContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if fields := h.validator.Struct(&req); fields != nil {
		writeError(w, http.StatusBadRequest, "invalid content", fields)
		return
	}

	update := app.ContentUpdate{
		Media: domain.MediaPatch{
			VideoURL:           req.VideoURL,
			BackgroundImageURL: req.BackgroundImageURL,
		},
		Questions: req.Questions,
	}
	if req.VideoType != nil {
		vt := domain.VideoType(*req.VideoType)
		update.Media.VideoType = &vt
	}
	if err := h.content.Save(r.Context(), update); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	if fields := h.validator.Struct(&req); fields != nil {
		writeError(w, http.StatusBadRequest, "missing required fields", fields)
		return
	}

	sub, err := h.submissions.Record(r.Context(), domain.SubmissionInput{
		Name:       req.Name,
		EmployeeID: req.EmployeeID,
		QuestionID: req.QuestionID,
		Answer:     req.Answer,
		IsCorrect:  req.IsCorrect,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, Submission: sub})
}

// ListSubmissions returns the log in insertion order, or newest first with ?order=desc.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	var subs []domain.Submission
	if r.URL.Query().Get("order") == "desc" {
		subs = h.submissions.ListNewestFirst(r.Context())
	} else {
		subs = h.submissions.List(r.Context())
	}
	writeJSON(w, http.StatusOK, submissionsResponse{Count: len(subs), Submissions: subs})
}

func (h *Handler) ResetSubmissions(w http.ResponseWriter, r *http.Request) {
	h.submissions.Reset(r.Context())
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) ExportSubmissions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="quiz_submissions.csv"`)
	if err := h.submissions.ExportCSV(r.Context(), w); err != nil {
		h.log.Error().Err(err).Msg("export submissions")
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart body", nil)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded", map[string]string{"file": "is required"})
		return
	}
	defer file.Close()

	kindValue := r.FormValue("type")
	if kindValue == "" {
		kindValue = string(domain.UploadVideo)
	}
	kind, ok := domain.ParseUploadKind(kindValue)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid upload type",
			map[string]string{"type": "must be one of video, background-image, question-image"})
		return
	}

	result, err := h.uploads.Upload(r.Context(), app.UploadInput{
		Reader:      file,
		Size:        header.Size,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Kind:        kind,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	body := map[string]any{"success": true}
	switch result.Kind {
	case domain.UploadVideo:
		body["videoUrl"] = result.URL
	case domain.UploadBackgroundImage:
		body["backgroundImageUrl"] = result.URL
	default:
		body["url"] = result.URL
	}
	writeJSON(w, http.StatusOK, body)
}

// decode reads a JSON body, answering 400 itself when it cannot.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "request body is empty", nil)
		return false
	}
	writeError(w, http.StatusBadRequest, "malformed JSON body", map[string]string{"detail": err.Error()})
	return false
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, domain.ErrUnsupportedMedia):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrUploadFailed):
		h.log.Error().Err(err).Msg("upload failed")
		writeError(w, http.StatusInternalServerError, "failed to upload file", nil)
	default:
		h.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
