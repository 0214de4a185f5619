// Package report renders parsed investigations into a self-contained HTML5
// report bundle: a single page with the readable metadata tables plus
// graph.json, the stable node/edge serialization consumed by viewers.
package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/itmat/isareport/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer renders HTML reports from finished graphs. It implements
// domain.ReportRenderer.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{tmpl: template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))}
}

type nodeGroup struct {
	Category string
	Nodes    []domain.Node
}

type reportData struct {
	Title      string
	Accession  string
	Inv        domain.Investigation
	Graph      domain.Graph
	NodeGroups []nodeGroup
	GraphJSON  template.JS
}

func (r *Renderer) Render(w io.Writer, inv domain.Investigation, graph domain.Graph) error {
	raw, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("serialize graph: %w", err)
	}

	title := inv.Title()
	if title == "" {
		title = "ISA-TAB report"
	}

	data := reportData{
		Title:      title,
		Accession:  inv.Accession(),
		Inv:        inv,
		Graph:      graph,
		NodeGroups: groupNodes(graph.Nodes),
		GraphJSON:  template.JS(raw),
	}
	return r.tmpl.ExecuteTemplate(w, "report.html.tmpl", data)
}

func (r *Renderer) RenderIndex(w io.Writer, entries []domain.ArchiveEntry) error {
	return r.tmpl.ExecuteTemplate(w, "index.html.tmpl", entries)
}

// groupNodes buckets nodes by category in first-seen order.
func groupNodes(nodes []domain.Node) []nodeGroup {
	var groups []nodeGroup
	index := make(map[string]int)
	for _, n := range nodes {
		i, ok := index[n.Category]
		if !ok {
			groups = append(groups, nodeGroup{Category: n.Category})
			i = len(groups) - 1
			index[n.Category] = i
		}
		groups[i].Nodes = append(groups[i].Nodes, n)
	}
	return groups
}

// WriteBundle writes the report bundle into dir: index.html plus graph.json.
func WriteBundle(dir string, inv domain.Investigation, graph domain.Graph) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return err
	}
	if err := NewRenderer().Render(f, inv, graph); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize graph: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "graph.json"), raw, 0o644)
}
