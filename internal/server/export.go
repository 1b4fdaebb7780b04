package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// exportRow - строка выгрузки в терминах таблицы бэкенда
type exportRow struct {
	ID          int64    `json:"id"`
	PostURL     string   `json:"post_url"`
	AuthorName  string   `json:"author_name"`
	AuthorURL   string   `json:"author_url"`
	TextContent string   `json:"text_content"`
	Reactions   *int64   `json:"reactions"`
	Comments    *int64   `json:"comments"`
	CreatedAt   string   `json:"created_at"`
	GroupID     string   `json:"group_id"`
	ContentType string   `json:"content_type"`
	ImageURLs   []string `json:"image_urls"`
	VideoURLs   []string `json:"video_urls"`
}

func toExportRows(posts []PostFixture) []exportRow {
	rows := make([]exportRow, 0, len(posts))
	for _, p := range posts {
		r := exportRow{
			ID:          p.ID,
			PostURL:     p.PostURL,
			AuthorName:  p.AuthorName,
			AuthorURL:   p.AuthorURL,
			TextContent: p.TextContent,
			Reactions:   p.Reactions,
			Comments:    p.Comments,
			GroupID:     p.GroupID,
			ContentType: string(p.contentType()),
			ImageURLs:   nonNil(p.ImageURLs),
			VideoURLs:   nonNil(p.VideoURLs),
		}
		if !p.CreatedAt.IsZero() {
			r.CreatedAt = isoformat(p.CreatedAt)
		}
		rows = append(rows, r)
	}
	return rows
}

func (s *Server) exportPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fq, err := parseQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// выгрузка всегда от новых к старым, без пагинации
	fq.sortBy, fq.order = "created_at", "desc"
	rows := toExportRows(s.data.find(fq))

	stamp := s.now().Format("20060102_150405")
	var (
		body  []byte
		ctype string
		ext   string
	)
	switch strings.ToLower(q.Get("format")) {
	case "csv":
		body, err = encodeCSV(rows)
		ctype, ext = "text/csv", "csv"
	case "xls", "xlsx":
		body, err = encodeXLSX(rows)
		ctype, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
	default:
		body, err = json.MarshalIndent(rows, "", "  ")
		ctype, ext = "application/json", "json"
	}
	if err != nil {
		slog.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to export posts")
		return
	}

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", "attachment; filename=posts_export_"+stamp+"."+ext)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if _, err := w.Write(body); err != nil {
		slog.Warn("failed to write export", "error", err)
	}
}

var csvHeader = []string{
	"id", "post_url", "author_name", "author_url", "text_content",
	"reactions", "comments", "created_at", "group_id", "content_type",
	"image_urls", "video_urls",
}

func optional(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func encodeCSV(rows []exportRow) ([]byte, error) {
	var buf bytes.Buffer
	if len(rows) == 0 {
		return buf.Bytes(), nil
	}
	cw := csv.NewWriter(&buf)
	if err := cw.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10), r.PostURL, r.AuthorName, r.AuthorURL, r.TextContent,
			optional(r.Reactions), optional(r.Comments), r.CreatedAt, r.GroupID, r.ContentType,
			strings.Join(r.ImageURLs, ", "), strings.Join(r.VideoURLs, ", "),
		}
		if err := cw.Write(rec); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}
