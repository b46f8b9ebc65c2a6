package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/workouttracker/internal/telemetry/metrics"
	"github.com/2beens/workouttracker/internal/telemetry/tracing"
	"github.com/2beens/workouttracker/internal/workout"
	"github.com/2beens/workouttracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=export_test

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"

	maxImportSize = 32 << 20
)

type bundleRepo interface {
	Export(ctx context.Context) (*workout.Bundle, error)
	Import(ctx context.Context, data []byte) ([]string, error)
}

type ImportResponse struct {
	Imported []string `json:"imported"`
}

type Handler struct {
	repo           bundleRepo
	xlsxWriter     *XlsxWriter
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(repo bundleRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		xlsxWriter:     NewXlsxWriter(),
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// FileName is the download / backup file name for the given day, e.g. workout-tracker-backup-2024-01-10.json.
func FileName(t time.Time, format string) string {
	return fmt.Sprintf("workout-tracker-backup-%s.%s", workout.DateKey(t), format)
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/export", handler.handleExportJSON).Methods("GET", "OPTIONS").Name("export-json")
	router.HandleFunc("/export/xlsx", handler.handleExportXLSX).Methods("GET", "OPTIONS").Name("export-xlsx")
	router.HandleFunc("/import", handler.handleImport).Methods("POST", "OPTIONS").Name("import")
}

func attachment(w http.ResponseWriter, fileName string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
}

func (handler *Handler) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.export.json")
	defer span.End()

	bundle, err := handler.repo.Export(ctx)
	if err != nil {
		log.Errorf("export json: %s", err)
		http.Error(w, "error, failed to export data", http.StatusInternalServerError)
		return
	}

	bundleJson, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		log.Errorf("export json, marshal: %s", err)
		http.Error(w, "error, failed to export data", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterExports.WithLabelValues(FormatJSON).Inc()
	attachment(w, FileName(handler.now(), FormatJSON))
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, bundleJson)
}

func (handler *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.export.xlsx")
	defer span.End()

	bundle, err := handler.repo.Export(ctx)
	if err != nil {
		log.Errorf("export xlsx: %s", err)
		http.Error(w, "error, failed to export data", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := handler.xlsxWriter.Write(&buf, bundle); err != nil {
		log.Errorf("export xlsx, write workbook: %s", err)
		http.Error(w, "error, failed to export data", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterExports.WithLabelValues(FormatXLSX).Inc()
	attachment(w, FileName(handler.now(), FormatXLSX))
	pkg.WriteResponseBytesOK(w, pkg.ContentType.XLSX, buf.Bytes())
}

func (handler *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.import")
	defer span.End()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		log.Tracef("import, read body: %s", err)
		http.Error(w, "import failed, invalid file", http.StatusBadRequest)
		return
	}

	imported, err := handler.repo.Import(ctx, data)
	if err != nil {
		if errors.Is(err, workout.ErrInvalidImport) {
			log.Tracef("import: %s", err)
			http.Error(w, "import failed, invalid file", http.StatusBadRequest)
			return
		}
		log.Errorf("import: %s", err)
		http.Error(w, "error, failed to import data", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterImports.Inc()

	respJson, err := json.Marshal(ImportResponse{Imported: imported})
	if err != nil {
		log.Errorf("import, marshal response: %s", err)
		http.Error(w, "error, failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
