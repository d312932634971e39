// Package handler is the HTTP boundary around the exam-generation pipeline.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/examforge/examforge/internal/archive"
	"github.com/examforge/examforge/internal/bank"
	"github.com/examforge/examforge/internal/exam"
	"github.com/examforge/examforge/internal/handler/views"
	appI18n "github.com/examforge/examforge/internal/i18n"
	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/render"
	"github.com/examforge/examforge/internal/store"
)

// allowedExtensions is the upload allow-list, checked before the loader runs.
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	config model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, cfg model.ServerConfig) (*Handler, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data dir must be configured")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Handler{store: s, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/generate", h.handleGenerate)
	r.Get("/download/{archiveID}", h.handleDownload)
}

// BasePathMiddleware stores the configured base path in the request context
// so views can build correct URLs under sub-path deployments.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.GenerationCount()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.IndexPage(count, h.config.DefaultColumns).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// generateResponse is the JSON body returned on a successful generation.
type generateResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	PlainArchive string `json:"plain_archive"`
	KeyedArchive string `json:"keyed_archive"`
	NumVersions  int    `json:"num_versions"`
	NumDocuments int    `json:"num_documents"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		h.writeError(w, r, http.StatusBadRequest, appI18n.T(ctx, "ErrNoFile"))
		return
	}

	file, fileHeader, err := r.FormFile("excelFile")
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, appI18n.T(ctx, "ErrNoFile"))
		return
	}
	defer file.Close()

	if !allowedExtensions[strings.ToLower(filepath.Ext(fileHeader.Filename))] {
		h.writeError(w, r, http.StatusBadRequest, appI18n.T(ctx, "ErrFileType"))
		return
	}

	numQuestions, err := positiveInt(r.FormValue("numQuestions"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest,
			appI18n.Td(ctx, "ErrBadNumber", map[string]any{"Param": "numQuestions"}))
		return
	}
	numVersions, err := positiveInt(r.FormValue("numVersions"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest,
			appI18n.Td(ctx, "ErrBadNumber", map[string]any{"Param": "numVersions"}))
		return
	}

	columns := h.config.DefaultColumns
	if v := r.FormValue("columns"); v != "" {
		columns, err = positiveInt(v)
		if err != nil || (columns != 1 && columns != 2) {
			h.writeError(w, r, http.StatusBadRequest,
				appI18n.Td(ctx, "ErrBadNumber", map[string]any{"Param": "columns"}))
			return
		}
	}

	rng, err := requestRand(r.FormValue("seed"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest,
			appI18n.Td(ctx, "ErrBadNumber", map[string]any{"Param": "seed"}))
		return
	}

	questionBank, err := bank.Load(file)
	if err != nil {
		var mce *model.MissingColumnError
		var ire *model.InvalidRowError
		if errors.As(err, &mce) || errors.As(err, &ire) {
			h.writePipelineError(w, r, err)
			return
		}
		// Right extension, but the bytes are not a readable workbook.
		slog.Info("unreadable workbook", "filename", fileHeader.Filename, "error", err)
		h.writeError(w, r, http.StatusBadRequest, appI18n.T(ctx, "ErrFileType"))
		return
	}

	policy := exam.Policy{
		// Spread questions over all categories when the sheet provides them.
		CoverCategories:  len(questionBank.Categories()) > 0,
		DistinctVersions: r.FormValue("distinctVersions") != "",
	}
	versions, err := exam.Select(questionBank, numQuestions, numVersions, rng, policy)
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}

	header := model.Header{
		Title:           appI18n.T(ctx, "DefaultExamTitle"),
		Subject:         strings.TrimSpace(r.FormValue("subject")),
		ClassName:       strings.TrimSpace(r.FormValue("className")),
		VersionLabel:    appI18n.T(ctx, "VersionLabel"),
		StudentInfoLine: appI18n.T(ctx, "StudentInfoLine"),
	}
	opts := render.Options{Columns: columns}

	var plainDocs, keyedDocs []model.RenderedDocument
	for _, v := range versions {
		plain, err := render.Document(v, header, model.ModePlain, opts)
		if err != nil {
			h.writePipelineError(w, r, err)
			return
		}
		keyed, err := render.Document(v, header, model.ModeKeyed, opts)
		if err != nil {
			h.writePipelineError(w, r, err)
			return
		}
		plainDocs = append(plainDocs, plain)
		keyedDocs = append(keyedDocs, keyed)
	}

	plainID, err := h.packAndRegister(plainDocs, model.ModePlain, numQuestions, numVersions)
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}
	keyedID, err := h.packAndRegister(keyedDocs, model.ModeKeyed, numQuestions, numVersions)
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}

	if err := h.store.IncrementGenerationCount(); err != nil {
		slog.Warn("could not update generation counter", "error", err)
	}

	slog.Info("generated exam set",
		"num_questions", numQuestions,
		"num_versions", numVersions,
		"bank_size", questionBank.Len(),
		"columns", columns,
		"distinct", policy.DistinctVersions,
	)

	writeJSON(w, http.StatusOK, generateResponse{
		Success:      true,
		Message:      appI18n.T(ctx, "Success"),
		PlainArchive: h.path("/download/" + plainID),
		KeyedArchive: h.path("/download/" + keyedID),
		NumVersions:  numVersions,
		NumDocuments: len(plainDocs),
	})
}

// packAndRegister zips one mode's documents, writes the zip under the data
// dir and records it in the registry. Returns the download ID.
func (h *Handler) packAndRegister(docs []model.RenderedDocument, mode model.Mode, numQuestions, numVersions int) (string, error) {
	data, err := archive.Pack(docs)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	path := filepath.Join(h.config.DataDir, id+".zip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}

	err = h.store.InsertArchive(model.Archive{
		ID:           id,
		Filename:     archive.Filename(mode, numQuestions, numVersions),
		Path:         path,
		Mode:         mode,
		NumVersions:  numVersions,
		NumDocuments: len(docs),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("register archive: %w", err)
	}
	return id, nil
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "archiveID")

	a, err := h.store.GetArchive(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a == nil {
		http.Error(w, appI18n.T(r.Context(), "ErrNotFound"), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+a.Filename+`"`)
	http.ServeFile(w, r, a.Path)
}

// RemoveExpired deletes archives past the retention window, both the files
// and their registry rows. Called periodically by the serve command.
func (h *Handler) RemoveExpired() error {
	expired, err := h.store.ExpiredArchives(time.Now().Add(-h.config.Retention))
	if err != nil {
		return fmt.Errorf("list expired archives: %w", err)
	}
	for _, a := range expired {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", a.Path, err)
		}
		if err := h.store.DeleteArchive(a.ID); err != nil {
			return fmt.Errorf("delete archive %s: %w", a.ID, err)
		}
		slog.Info("removed expired archive", "id", a.ID, "filename", a.Filename)
	}
	return nil
}

// writePipelineError translates pipeline failures into localized messages.
// Validation failures are the user's to fix; anything else is a 500.
func (h *Handler) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var (
		mce *model.MissingColumnError
		ire *model.InvalidRowError
		iqe *model.InsufficientQuestionsError
		ipe *model.InvalidParameterError
		pe  *model.PackagingError
	)
	switch {
	case errors.As(err, &mce):
		h.writeError(w, r, http.StatusBadRequest,
			appI18n.Td(ctx, "ErrMissingColumn", map[string]any{"Sheet": mce.Sheet, "Column": mce.Column}))
	case errors.As(err, &ire):
		h.writeError(w, r, http.StatusBadRequest,
			appI18n.Td(ctx, "ErrInvalidRow", map[string]any{"Sheet": ire.Sheet, "Row": ire.Row, "Reason": ire.Reason}))
	case errors.As(err, &iqe):
		h.writeError(w, r, http.StatusBadRequest,
			appI18n.Td(ctx, "ErrInsufficient", map[string]any{"Requested": iqe.Requested, "Available": iqe.Available}))
	case errors.As(err, &ipe):
		h.writeError(w, r, http.StatusBadRequest,
			appI18n.Td(ctx, "ErrInvalidParameter", map[string]any{"Param": ipe.Parameter}))
	case errors.As(err, &pe):
		slog.Error("packaging failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, appI18n.T(ctx, "ErrPackaging"))
	default:
		slog.Error("generation failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, appI18n.T(ctx, "ErrInternal"))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value %d is not positive", n)
	}
	return n, nil
}

// requestRand builds the selector's randomness source. An explicit seed
// makes a generation reproducible; otherwise each request gets a fresh one.
func requestRand(seed string) (*rand.Rand, error) {
	if seed = strings.TrimSpace(seed); seed != "" {
		n, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return nil, err
		}
		return rand.New(rand.NewPCG(n, 0)), nil
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), nil
}
