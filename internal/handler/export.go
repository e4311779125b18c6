package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/figure-timeline/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{"item_id", "item_name", "item_description", "start", "what"}

// exportRow is the JSON shape of a domain.ExportRow. Entry fields are
// omitted for items without a timeline.
type exportRow struct {
	ItemID          int64  `json:"item_id"`
	ItemName        string `json:"item_name"`
	ItemDescription string `json:"item_description"`
	Start           string `json:"start,omitempty"`
	What            string `json:"what,omitempty"`
}

// GetExport handles GET /export.
// It returns a flat table of every item and timeline entry.
// Use ?format=csv to receive CSV; the default (or ?format=json) is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		badRequest(w, "invalid format: "+err.Error())
		return
	}
	wantCSV := false
	if format != nil {
		switch *format {
		case "csv":
			wantCSV = true
		case "json":
		default:
			badRequest(w, "format must be json or csv")
			return
		}
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	if wantCSV {
		writeCSV(w, rows)
		return
	}
	out := make([]exportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, exportRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes rows as CSV with a header line.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// bytes.Buffer writes never fail; csv errors surface on Flush.
	_ = cw.Write(csvHeaders)
	for _, r := range rows {
		_ = cw.Write([]string{
			strconv.FormatInt(r.ItemID, 10),
			r.ItemName,
			r.ItemDescription,
			r.Start,
			r.What,
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="timeline-export.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
