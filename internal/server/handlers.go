package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/caret"
	"github.com/yaklabco/mdsync/pkg/cursorsync"
	"github.com/yaklabco/mdsync/pkg/preview"
	"github.com/yaklabco/mdsync/pkg/resolve"
	"github.com/yaklabco/mdsync/pkg/sourcemap"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.page)
	r.Get("/fragment", s.fragment)
	r.Get("/sourcemap", s.sourceMap)
	r.Get("/caret", s.caretBox)
	r.Get("/hit", s.hit)
	r.Get("/events", s.events)

	// Remote control for the in-memory editor and preview.
	r.Post("/cursor", s.setCursor)
	r.Post("/click", s.click)
	r.Post("/scroll", s.scroll)
	r.Post("/key", s.key)

	return r
}

// requestLogger logs each request at debug level with its status.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				logging.FieldMethod, r.Method,
				logging.FieldRoute, r.URL.Path,
				logging.FieldStatus, ww.Status(),
				logging.FieldRequestID, middleware.GetReqID(r.Context()),
				"duration", time.Since(start),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("json encode failed", logging.FieldError, err)
	}
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("preview client connected", logging.FieldClients, s.broker.ClientCount()+1)
	s.broker.ServeHTTP(w, r)
}

type errResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errResponse{Error: err.Error()})
}

// withPane runs fn against the displayed preview, answering 503 once the
// controller has stopped.
func (s *Server) withPane(w http.ResponseWriter, fn func(p *preview.Pane)) bool {
	if err := s.ctrl.WithPane(fn); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return false
	}
	return true
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, errors.New("missing query parameter " + strconv.Quote(name))
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("query parameter " + strconv.Quote(name) + " must be an integer")
	}
	return n, nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; }
#preview { position: relative; box-sizing: border-box; width: {{.Width}}px; padding: {{.Margin}}px; font: {{.FontSize}}px/{{.LineHeight}} "Go", sans-serif; }
.mdsync-highlight { background: rgba(255, 230, 0, 0.15); }
{{.Caret}}
{{.Code}}
</style>
</head>
<body>
<div id="preview">{{.Fragment}}</div>
{{.CaretMarkup}}
<script>
(function () {
  const preview = document.getElementById("preview");
  const mark = document.querySelector(".mdsync-caret");
  let highlighted = null;
  function place(box, visible) {
    mark.style.top = box.top + "px";
    mark.style.left = box.left + "px";
    mark.style.height = box.height + "px";
    mark.style.display = visible ? "block" : "none";
  }
  function highlight(id) {
    if (highlighted) highlighted.classList.remove("mdsync-highlight");
    highlighted = null;
    const parts = id.split("-");
    if (parts.length < 2) return;
    highlighted = preview.querySelector(parts[0] + '[data-source-start="' + parts[1] + '"]');
    if (highlighted) highlighted.classList.add("mdsync-highlight");
  }
  const events = new EventSource("/events");
  events.addEventListener("preview.updated", () => {
    fetch("/fragment").then((r) => r.text()).then((html) => { preview.innerHTML = html; });
  });
  events.addEventListener("caret.show", (e) => place(JSON.parse(e.data), true));
  events.addEventListener("caret.move", (e) => place(JSON.parse(e.data), true));
  events.addEventListener("caret.hide", () => { mark.style.display = "none"; });
  events.addEventListener("highlight", (e) => highlight(JSON.parse(e.data).id));
  window.addEventListener("scroll", () => {
    fetch("/scroll?top=" + Math.round(window.scrollY), { method: "POST" });
  });
})();
</script>
</body>
</html>
`))

type pageData struct {
	Title       string
	Width       int
	Margin      int
	FontSize    float64
	LineHeight  float64
	Caret       template.CSS
	Code        template.CSS
	CaretMarkup template.HTML
	Fragment    template.HTML
}

func (s *Server) page(w http.ResponseWriter, _ *http.Request) {
	css, err := s.renderer.StyleSheet()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	st, err := s.ctrl.State()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	data := pageData{
		Title:       s.opts.Path,
		Caret:       template.CSS(caret.CSS),
		Code:        template.CSS(css),
		CaretMarkup: template.HTML(caret.Markup(st.CaretBox, st.Caret == caret.Visible)),
	}
	if !s.withPane(w, func(p *preview.Pane) {
		lay := p.Layout().Options()
		data.Width = lay.Width
		data.Margin = lay.Margin
		data.FontSize = lay.FontSize
		data.LineHeight = lay.LineHeight
		data.Fragment = template.HTML(p.Result().HTML)
	}) {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("page render failed", logging.FieldError, err)
	}
}

func (s *Server) fragment(w http.ResponseWriter, _ *http.Request) {
	var html string
	var gen uint64
	if !s.withPane(w, func(p *preview.Pane) {
		html = p.Result().HTML
		gen = p.Result().Generation
	}) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Mdsync-Generation", strconv.FormatUint(gen, 10))
	_, _ = w.Write([]byte(html))
}

type sourceMapResponse struct {
	Generation uint64            `json:"generation"`
	Entries    []sourcemap.Entry `json:"entries"`
}

func (s *Server) sourceMap(w http.ResponseWriter, _ *http.Request) {
	var resp sourceMapResponse
	if !s.withPane(w, func(p *preview.Pane) {
		resp.Generation = p.Result().Generation
		entries := p.SourceMap().Entries()
		resp.Entries = make([]sourcemap.Entry, 0, len(entries))
		for _, e := range entries {
			resp.Entries = append(resp.Entries, *e)
		}
	}) {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type caretResponse struct {
	Offset int       `json:"offset"`
	Box    caret.Box `json:"box"`
}

func (s *Server) caretBox(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var box caret.Box
	var ok bool
	if !s.withPane(w, func(p *preview.Pane) { box, ok = p.Resolver().ResolveOffset(offset) }) {
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, resolve.ErrNoCaret)
		return
	}
	writeJSON(w, http.StatusOK, caretResponse{Offset: offset, Box: box})
}

type hitResponse struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (s *Server) hit(w http.ResponseWriter, r *http.Request) {
	pt, err := queryPoint(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var offset int
	var ok bool
	if !s.withPane(w, func(p *preview.Pane) { offset, ok = p.Resolver().ResolveClick(pt) }) {
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, resolve.ErrNoElement)
		return
	}
	line, col := s.buf.LineCol(offset)
	writeJSON(w, http.StatusOK, hitResponse{Offset: offset, Line: line, Column: col})
}

func queryPoint(r *http.Request) (image.Point, error) {
	x, err := queryInt(r, "x")
	if err != nil {
		return image.Point{}, err
	}
	y, err := queryInt(r, "y")
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}

func (s *Server) accepted(w http.ResponseWriter, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, cursorsync.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) setCursor(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.buf.SetCursorOffset(offset)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	pt, err := queryPoint(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.accepted(w, s.ctrl.Click(pt))
}

func (s *Server) scroll(w http.ResponseWriter, r *http.Request) {
	top, err := queryInt(r, "top")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.accepted(w, s.ctrl.PreviewScroll(top))
}

func (s *Server) key(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	forwarded, err := s.ctrl.PreviewKey(key)
	if err != nil {
		s.accepted(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"forwarded": forwarded})
}
