package exports

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves roster export endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new export handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ExportLeadsCSV handles GET /exports/leads.csv.
// Filters: status (comma separated), tag, highQuality, from, to (YYYY-MM-DD, inclusive), q.
func (h *Handler) ExportLeadsCSV(c *gin.Context) {
	predicate, err := parseFilters(c, h.svc.Location())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}

	// Buffer so that a failing column never leaves a half-written attachment.
	var buf bytes.Buffer
	filename, _, err := h.svc.WriteBackup(c.Request.Context(), &buf, predicate)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Attachment(c, filename, csvContentType)
	c.Data(http.StatusOK, csvContentType, buf.Bytes())
}

// CreateArchive handles POST /exports/archives.
func (h *Handler) CreateArchive(c *gin.Context) {
	result, err := h.svc.Archive(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// ListArchives handles GET /exports/archives.
func (h *Handler) ListArchives(c *gin.Context) {
	items, err := h.svc.ListArchives(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

// ArchiveDownloadURL handles GET /exports/archives/download?key=.
func (h *Handler) ArchiveDownloadURL(c *gin.Context) {
	url, err := h.svc.ArchiveDownloadURL(c.Request.Context(), strings.TrimSpace(c.Query("key")))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, url)
}

func parseFilters(c *gin.Context, loc *time.Location) (Predicate, error) {
	predicates := make([]Predicate, 0, 5)

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		statuses := make([]domain.Status, 0)
		for _, part := range strings.Split(raw, ",") {
			status, ok := domain.ParseStatus(part)
			if !ok {
				return nil, fmt.Errorf("unknown status %q", strings.TrimSpace(part))
			}
			statuses = append(statuses, status)
		}
		predicates = append(predicates, ByStatus(statuses...))
	}
	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		predicates = append(predicates, ByTag(tag))
	}
	if parseBool(c.Query("highQuality")) {
		predicates = append(predicates, HighQualityOnly)
	}

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"), loc)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() || !to.IsZero() {
		predicates = append(predicates, ActiveBetween(from, to))
	}

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		predicates = append(predicates, NameContains(q))
	}

	return And(predicates...), nil
}

// parseDateRange turns optional calendar dates into instants; the upper bound
// covers the whole "to" day.
func parseDateRange(fromStr, toStr string, loc *time.Location) (time.Time, time.Time, error) {
	var from, to time.Time

	if fromStr = strings.TrimSpace(fromStr); fromStr != "" {
		parsed, err := time.ParseInLocation(dateLayout, fromStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %w", err)
		}
		from = parsed
	}
	if toStr = strings.TrimSpace(toStr); toStr != "" {
		parsed, err := time.ParseInLocation(dateLayout, toStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %w", err)
		}
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to before from")
	}
	return from, to, nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
