package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/mwhitfield/clientpulse/internal/query"
	"github.com/mwhitfield/clientpulse/pkg/models"
	"github.com/xuri/excelize/v2"
)

var statsExportHeader = []string{
	"Date",
	"Page Views",
	"Unique Visitors",
	"Top Pages",
	"Top Referrers",
}

// NewExportStatsHandler returns an http.HandlerFunc for
// GET /api/v1/stats/export, which streams the range as an xlsx workbook.
func NewExportStatsHandler(svc StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing identity", nil)
			return
		}

		tenantID, err := targetTenant(r, identity)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		from, to, err := dateRange(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		stats, err := svc.DailyStats(r.Context(), identity, tenantID, from, to)
		if err != nil {
			if errors.Is(err, query.ErrUnauthorized) {
				response.Error(w, http.StatusForbidden, "FORBIDDEN",
					"Cannot read another tenant's data", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load stats", nil)
			return
		}

		book, err := buildStatsWorkbook(stats)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to build export", nil)
			return
		}

		filename := fmt.Sprintf("daily-stats_%s_%s.xlsx",
			from.Format(dateLayout), to.Format(dateLayout))
		w.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		book.Write(w)
	}
}

func buildStatsWorkbook(stats []*models.DailyStat) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Daily Stats"

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for col, title := range statsExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for i, stat := range stats {
		row := []any{
			stat.StatDate.Format(dateLayout),
			stat.PageViewsCount,
			stat.UniqueVisitorsCount,
			joinPages(stat.TopPages),
			joinReferrers(stat.TopReferrers),
		}
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func joinPages(pages []models.PageCount) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, fmt.Sprintf("%s (%d)", p.URL, p.Count))
	}
	return strings.Join(parts, ", ")
}

func joinReferrers(refs []models.ReferrerCount) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		parts = append(parts, fmt.Sprintf("%s (%d)", r.Referrer, r.Count))
	}
	return strings.Join(parts, ", ")
}
