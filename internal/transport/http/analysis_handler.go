package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"retailpulse/internal/analytics"
	apierrors "retailpulse/internal/errors"
	"retailpulse/internal/exporter"
	"retailpulse/internal/files"
	"retailpulse/internal/middleware"
	"retailpulse/internal/services"
	api "retailpulse/pkg/contracts/api/v1"
	"retailpulse/pkg/contracts/domain"
)

// multipartOverhead is allowed on top of the upload limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

// AnalysisHandler serves the dataset and analysis endpoints.
type AnalysisHandler struct {
	service      AnalysisService
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
	logger       *slog.Logger
}

// NewAnalysisHandler creates the handler. maxUpload bounds the request
// body of an upload; zero leaves it to the file validator.
func NewAnalysisHandler(service AnalysisService, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, maxUpload int64, logger *slog.Logger) *AnalysisHandler {
	if validator == nil {
		validator = middleware.NewValidator()
	}
	return &AnalysisHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
		logger:       logger.With(slog.String("component", "analysis_handler")),
	}
}

// Routes returns the routes mounted under /api.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	jsonOnly := middleware.ContentTypeValidator(h.errorHandler, "application/json")

	r.Route("/dataset", func(r chi.Router) {
		r.Get("/", h.GetDataset)
		r.Post("/upload", h.Upload)
		r.With(jsonOnly).Post("/rows", h.LoadRows)
		r.Post("/sample", h.LoadSample)
		r.With(jsonOnly).Post("/sheets", h.LoadSheet)
	})
	r.Get("/datasets", h.ListDatasets)
	r.Post("/datasets/{name}/load", h.LoadDataset)

	r.Route("/analysis", func(r chi.Router) {
		r.Get("/", h.GetResult)
		r.With(jsonOnly).Post("/", h.Analyze)
		r.Delete("/filters", h.ClearFilters)
		r.Get("/options", h.GetOptions)
		r.Post("/export", h.ExportAll)
		r.Route("/tables/{table}", func(r chi.Router) {
			r.Get("/", h.GetTable)
			r.Get("/export", h.ExportTable)
		})
	})

	r.Get("/guide", h.GetGuide)
	return r
}

// Upload handles POST /api/dataset/upload. The file is streamed from the
// "file" part of a multipart form.
func (h *AnalysisHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "a file part named \"file\" is required"))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		name := part.FileName()
		h.logger.InfoContext(r.Context(), "upload received",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("file", name))

		result, err := h.service.Upload(r.Context(), name, part)
		part.Close()
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = apierrors.ErrPayloadTooLarge
		}
		h.respondLoaded(w, r, result, err)
		return
	}
}

// LoadRows handles POST /api/dataset/rows.
func (h *AnalysisHandler) LoadRows(w http.ResponseWriter, r *http.Request) {
	var req api.RowsRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	name := req.Name
	if name == "" {
		name = "inline"
	}
	result, err := h.service.LoadRows(r.Context(), services.SourceRows, name, req.Rows)
	h.respondLoaded(w, r, result, err)
}

// LoadSample handles POST /api/dataset/sample?rows=N.
func (h *AnalysisHandler) LoadSample(w http.ResponseWriter, r *http.Request) {
	var req api.SampleRequest
	if s := r.URL.Query().Get("rows"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("rows", "rows must be a whole number"))
			return
		}
		req.Rows = n
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	result, err := h.service.LoadSample(r.Context(), req.Rows)
	h.respondLoaded(w, r, result, err)
}

// LoadSheet handles POST /api/dataset/sheets.
func (h *AnalysisHandler) LoadSheet(w http.ResponseWriter, r *http.Request) {
	var req api.SheetsRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	result, err := h.service.LoadSheet(r.Context(), req.Spreadsheet, req.Range)
	h.respondLoaded(w, r, result, err)
}

// LoadDataset handles POST /api/datasets/{name}/load.
func (h *AnalysisHandler) LoadDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.Var("name", name, "filename"); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	result, err := h.service.LoadFile(r.Context(), name)
	h.respondLoaded(w, r, result, err)
}

// respondLoaded answers a dataset load with the new dataset summary and
// the result of its first run. A run that fails on the data itself still
// leaves the dataset loaded, so the error is returned as usual.
func (h *AnalysisHandler) respondLoaded(w http.ResponseWriter, r *http.Request, result *domain.AnalysisResult, err error) {
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	summary, err := h.service.Dataset()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data": map[string]any{
			"dataset": summary,
			"result":  result,
		},
	})
}

// GetDataset handles GET /api/dataset.
func (h *AnalysisHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dataset()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"status": "success", "data": summary})
}

// ListDatasets handles GET /api/datasets.
func (h *AnalysisHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Datasets()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if found == nil {
		found = []files.FileInfo{}
	}
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   found,
		"count":  len(found),
	})
}

// Analyze handles POST /api/analysis.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	criteria, err := req.Criteria()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	result, err := h.service.Analyze(r.Context(), services.AnalyzeInput{
		Filter:      criteria,
		SellingArea: req.SellingArea,
		Traffic:     req.Traffic,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"status": "success", "data": result})
}

// GetResult handles GET /api/analysis.
func (h *AnalysisHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"status": "success", "data": result})
}

// ClearFilters handles DELETE /api/analysis/filters.
func (h *AnalysisHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ClearFilters(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"status": "success", "data": result})
}

// GetOptions handles GET /api/analysis/options.
func (h *AnalysisHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"status": "success", "data": opts})
}

// GetTable handles GET /api/analysis/tables/{table}?sort=Field&dir=asc.
// Without dir, naming the current sort field flips its direction.
func (h *AnalysisHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	req := api.TableRequest{
		Sort: r.URL.Query().Get("sort"),
		Dir:  r.URL.Query().Get("dir"),
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	view, err := h.service.Table(services.TableQuery{
		Table: analytics.TableID(chi.URLParam(r, "table")),
		Sort:  req.Sort,
		Dir:   req.Dir,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"status": "success", "data": view})
}

// ExportTable handles GET /api/analysis/tables/{table}/export?format=csv.
// The table is exported in its current order.
func (h *AnalysisHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	format, ok := h.exportFormat(w, r)
	if !ok {
		return
	}
	table := analytics.TableID(chi.URLParam(r, "table"))

	var buf bytes.Buffer
	if err := h.service.ExportTable(r.Context(), &buf, table, format); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exporter.TableFileName(table, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed",
			slog.String("table", string(table)),
			slog.String("error", err.Error()))
	}
}

// ExportAll handles POST /api/analysis/export?format=xlsx and writes every
// table into the export directory.
func (h *AnalysisHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	format, ok := h.exportFormat(w, r)
	if !ok {
		return
	}
	paths, err := h.service.ExportAll(r.Context(), format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   names,
		"count":  len(names),
	})
}

func (h *AnalysisHandler) exportFormat(w http.ResponseWriter, r *http.Request) (exporter.Format, bool) {
	req := api.ExportRequest{Format: r.URL.Query().Get("format")}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return "", false
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return "", false
	}
	return format, true
}

// GetGuide handles GET /api/guide.
func (h *AnalysisHandler) GetGuide(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"status": "success", "data": h.service.Guide()})
}
