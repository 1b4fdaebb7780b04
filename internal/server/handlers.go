package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/ButyrinIA/postboard/internal/models"
)

const maxPerPage = 100

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, ok := s.data.userByEmail(body.Email)
	switch {
	case !ok:
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case !user.active():
		writeError(w, http.StatusForbidden, "Account is disabled")
		return
	case !user.IsAdmin:
		writeError(w, http.StatusForbidden, "Access denied. Admin privileges required.")
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.hash, []byte(body.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := generateToken(s.secret, user.Email, s.now())
	if err != nil {
		slog.Error("failed to sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	m := user.model()
	m.CreatedAt = ""
	writeJSON(w, http.StatusOK, models.LoginResponse{AccessToken: token, User: m})
}

func intParam(q url.Values, key string, def int) int {
	v, err := strconv.Atoi(q.Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// parseDate принимает дату или дату со временем. Для date_to голая дата
// означает конец дня.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("bad date " + strconv.Quote(s))
}

func parseQuery(q url.Values) (query, error) {
	out := query{
		author:  q.Get("author"),
		keyword: q.Get("keyword"),
		groupID: q.Get("group_id"),
		sortBy:  q.Get("sort_by"),
		order:   q.Get("order"),
	}
	switch out.sortBy {
	case "created_at", "reactions", "comments", "shares":
	default:
		out.sortBy = "created_at"
	}
	if out.order != "asc" {
		out.order = "desc"
	}

	var err error
	if out.from, err = parseDate(q.Get("date_from"), false); err != nil {
		return out, err
	}
	if out.to, err = parseDate(q.Get("date_to"), true); err != nil {
		return out, err
	}
	return out, nil
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q, "page", 1)
	perPage := min(intParam(q, "per_page", 20), maxPerPage)

	fq, err := parseQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	found := s.data.find(fq)
	total := len(found)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	posts := make([]models.Post, 0, end-start)
	for _, p := range found[start:end] {
		posts = append(posts, p.model())
	}

	writeJSON(w, http.StatusOK, models.PostPage{
		Posts: posts,
		Pagination: models.Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   (total + perPage - 1) / perPage,
		},
	})
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post id")
		return
	}
	p, ok := s.data.postByURL(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, p.model())
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]models.Group{"groups": s.data.groups()})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.stats(s.now()))
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := s.data.userByEmail(identity(r.Context()))
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user.model())
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.TrimSpace(body.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	current := identity(r.Context())
	user, ok, err := s.data.updateUser(current, email, strings.TrimSpace(body.Name))
	switch {
	case errors.Is(err, errEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already exists")
		return
	case !ok:
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	changed := email != current
	msg := "Profile updated successfully"
	if changed {
		msg += " - Please login again with your new email"
	}
	m := user.model()
	m.CreatedAt = ""
	writeJSON(w, http.StatusOK, models.ProfileUpdate{User: m, EmailChanged: changed, Message: msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "memory"})
}

// imageProxy перенаправляет на исходный URL: стенд не скачивает картинки.
func (s *Server) imageProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}
	http.Redirect(w, r, u.String(), http.StatusFound)
}
