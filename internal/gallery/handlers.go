package gallery

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Artifact is one file listed by the gallery.
type Artifact struct {
	Name  string `json:"name"`
	Job   string `json:"job,omitempty"`
	Title string `json:"title,omitempty"`
	Kind  string `json:"kind"`
	URL   string `json:"url"`
}

type indexData struct {
	RunID     string
	Completed string
	Artifacts []Artifact
	Failures  []*core.JobOutcome
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Olist charts</title>
<style>
body{font-family:sans-serif;margin:2rem;background:#fafafa;color:#222}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(480px,1fr));gap:1.5rem}
figure{margin:0;background:#fff;border:1px solid #ddd;padding:1rem}
figure img,figure iframe{width:100%;border:0}
figure iframe{height:520px}
.muted{color:#777}
.failed{color:#b00020}
</style>
</head>
<body>
<h1>Olist charts</h1>
{{if .RunID}}<p class="muted">Run {{.RunID}} completed {{.Completed}}</p>{{end}}
{{range .Failures}}<p class="failed">{{.ID}} {{.Status}}: {{.Error}}</p>{{end}}
<div class="grid">
{{range .Artifacts}}<figure>
<figcaption>{{if .Title}}{{.Title}}{{else}}{{.Name}}{{end}} <a class="muted" href="{{.URL}}">{{.Name}}</a></figcaption>
{{if eq .Kind "html"}}<iframe src="{{.URL}}" loading="lazy"></iframe>{{else}}<img src="{{.URL}}" alt="{{.Name}}">{{end}}
</figure>
{{else}}<p class="muted">No artifacts yet.</p>
{{end}}</div>
<script>
const es = new EventSource("/events");
es.addEventListener("run", () => window.location.reload());
</script>
</body>
</html>
`))

type handlers struct {
	server *Server
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	arts, err := h.server.Artifacts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := indexData{Artifacts: arts}
	if rep := h.server.Report(); rep != nil {
		data.RunID = rep.ID
		data.Completed = rep.CompletedAt.Local().Format(time.DateTime)
		for _, o := range rep.Jobs {
			if o.Status != core.JobSucceeded {
				data.Failures = append(data.Failures, o)
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		h.server.logger.Error("failed to render index", "error", err)
	}
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (h *handlers) reportJSON(w http.ResponseWriter, _ *http.Request) {
	rep := h.server.Report()
	if rep == nil {
		http.Error(w, "no run completed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, rep)
}

func (h *handlers) artifactsJSON(w http.ResponseWriter, _ *http.Request) {
	arts, err := h.server.Artifacts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if arts == nil {
		arts = []Artifact{}
	}
	writeJSON(w, arts)
}

// events streams a "run" event carrying the run id after each completed run.
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ch := h.server.notifier.Subscribe()
	defer h.server.notifier.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case id, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: run\ndata: %s\n\n", id); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Artifacts lists the files to show. With a report, artifacts follow job
// order; without one, every chart file in the directory is listed by name.
func (s *Server) Artifacts() ([]Artifact, error) {
	if rep := s.Report(); rep != nil {
		var arts []Artifact
		for _, o := range rep.Jobs {
			for _, path := range o.Artifacts {
				a := newArtifact(filepath.Base(path))
				a.Job, a.Title = o.ID, o.Title
				arts = append(arts, a)
			}
		}
		return arts, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	var arts []Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".html":
			arts = append(arts, newArtifact(e.Name()))
		}
	}
	slices.SortFunc(arts, func(a, b Artifact) int { return strings.Compare(a.Name, b.Name) })
	return arts, nil
}

func newArtifact(name string) Artifact {
	return Artifact{
		Name: name,
		Kind: strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		URL:  "/artifacts/" + name,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
