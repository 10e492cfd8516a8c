package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
)

// exportLimit caps a single export. The list query applies its own small
// default when given zero, so the cap must be explicit here.
const exportLimit = 10000

// csvHeader lists the flattened record columns in export order. The nested
// metric groups are free-form maps and stay out of the CSV shape.
var csvHeader = []string{
	"registration", "make", "model", "variant", "description", "color",
	"fuel_type", "transmission", "engine_size", "body_style", "year",
	"tax_expiry", "tax_days_left", "mot_expiry", "mot_days_left",
	"registration_date", "last_v5c_issue_date", "total_keepers",
	"v5c_certificate_count", "source", "scraped_at",
}

// ExportHandler streams the cached vehicle store as CSV or JSON.
type ExportHandler struct {
	vehicles database.VehicleRepositoryInterface
	log      logger.Interface
}

// NewExportHandler creates an export handler.
func NewExportHandler(vehicles database.VehicleRepositoryInterface, log logger.Interface) *ExportHandler {
	return &ExportHandler{
		vehicles: vehicles,
		log:      log,
	}
}

// ExportCSV handles GET /api/v1/export/csv.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	records, err := h.vehicles.List(c.Request.Context(), exportLimit)
	if err != nil {
		h.log.Error("export failed", "format", "csv", "error", err)
		respondInternalError(c, "failed to export vehicles")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="vehicles.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(csvHeader); err != nil {
		h.log.Error("csv write failed", "error", err)
		return
	}
	for _, record := range records {
		if err := w.Write(csvRow(record)); err != nil {
			h.log.Error("csv write failed", "registration", record.Registration, "error", err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.Error("csv flush failed", "error", err)
	}
}

// ExportJSON handles GET /api/v1/export/json.
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	records, err := h.vehicles.List(c.Request.Context(), exportLimit)
	if err != nil {
		h.log.Error("export failed", "format", "json", "error", err)
		respondInternalError(c, "failed to export vehicles")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="vehicles.json"`)
	c.JSON(http.StatusOK, gin.H{
		"vehicles": records,
		"count":    len(records),
	})
}

func csvRow(v *domain.VehicleRecord) []string {
	return []string{
		v.Registration, v.Make, v.Model, v.Variant, v.Description, v.Color,
		v.FuelType, v.Transmission, v.EngineSize, v.BodyStyle, intPtrField(v.Year),
		datePtrField(v.TaxExpiry), intPtrField(v.TaxDaysLeft),
		datePtrField(v.MOTExpiry), intPtrField(v.MOTDaysLeft),
		v.RegistrationDate, v.LastV5CIssueDate, intPtrField(v.TotalKeepers),
		intPtrField(v.V5CCertificateCount), v.Source,
		v.ScrapedAt.UTC().Format(time.RFC3339),
	}
}

func intPtrField(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func datePtrField(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.UTC().Format("2006-01-02")
}
