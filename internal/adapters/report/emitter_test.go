package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itmat/isareport/internal/domain"
)

func testData() (domain.Investigation, domain.Graph) {
	var inv domain.Investigation
	inv.Metadata.Set("Investigation Identifier", "BII-I-1")
	inv.Metadata.Set("Investigation Title", "Growth control <of> the cell")

	var study domain.Study
	study.Metadata.Set("Study Identifier", "BII-S-1")
	study.Metadata.Set("Study Title", "Flux study")
	inv.Studies = []domain.Study{study}

	nodes := []domain.Node{
		{ID: "src1", Kind: domain.KindEntity, Category: "source", Label: "src1", Attributes: []domain.Attribute{
			{Name: "Characteristics", Term: "organism", Value: "Homo sapiens", TermSource: "NCBITaxon", TermAccession: "9606"},
		}},
		{ID: "smp1", Kind: domain.KindEntity, Category: "sample", Label: "smp1"},
		{ID: "smp1.raw", Kind: domain.KindFile, Category: "raw-data", Label: "smp1.raw"},
	}
	edges := []domain.Edge{
		{SourceID: "src1", TargetID: "smp1", Relation: "derives"},
		{SourceID: "smp1", TargetID: "smp1.raw", Relation: "produces"},
	}
	graph := domain.Graph{Nodes: nodes, Edges: edges}
	graph.Stats = domain.ComputeStats(nodes, edges)
	return inv, graph
}

func TestRenderReport(t *testing.T) {
	inv, graph := testData()
	var buf bytes.Buffer
	if err := NewRenderer().Render(&buf, inv, graph); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, "<!DOCTYPE html>") {
		t.Fatalf("missing doctype")
	}
	if !strings.Contains(html, "Growth control &lt;of&gt; the cell") {
		t.Fatalf("title was not escaped:\n%s", html)
	}
	if !strings.Contains(html, "BII-I-1") || !strings.Contains(html, "BII-S-1") {
		t.Fatalf("identifiers missing from report")
	}
	if !strings.Contains(html, "smp1.raw") {
		t.Fatalf("file node missing from report")
	}
	if !strings.Contains(html, "NCBITaxon") {
		t.Fatalf("annotation qualifier missing from report")
	}
	if !strings.Contains(html, `&#34;node_count&#34;:3`) && !strings.Contains(html, `"node_count":3`) {
		t.Fatalf("embedded graph JSON missing from report")
	}
}

func TestRenderEmptyTitleFallsBack(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer().Render(&buf, domain.Investigation{}, domain.Graph{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "ISA-TAB report") {
		t.Fatalf("expected fallback title")
	}
}

func TestRenderIndex(t *testing.T) {
	entries := []domain.ArchiveEntry{
		{ID: 7, Accession: "BII-I-1", Title: "Growth control", NodeCount: 3, EdgeCount: 2, CreatedAt: time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	if err := NewRenderer().RenderIndex(&buf, entries); err != nil {
		t.Fatalf("render index: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, `href="/reports/7"`) {
		t.Fatalf("missing report link:\n%s", html)
	}
	if !strings.Contains(html, "2024-05-02 10:30") {
		t.Fatalf("missing import time")
	}

	buf.Reset()
	if err := NewRenderer().RenderIndex(&buf, nil); err != nil {
		t.Fatalf("render empty index: %v", err)
	}
	if !strings.Contains(buf.String(), "No investigations imported yet") {
		t.Fatalf("expected empty state message")
	}
}

func TestWriteBundle(t *testing.T) {
	inv, graph := testData()
	dir := filepath.Join(t.TempDir(), "out")

	if err := WriteBundle(dir, inv, graph); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	page, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatalf("read index.html: %v", err)
	}
	if !strings.Contains(string(page), "BII-I-1") {
		t.Fatalf("index.html does not mention the investigation")
	}

	raw, err := os.ReadFile(filepath.Join(dir, "graph.json"))
	if err != nil {
		t.Fatalf("read graph.json: %v", err)
	}
	var decoded domain.Graph
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode graph.json: %v", err)
	}
	if len(decoded.Nodes) != 3 || len(decoded.Edges) != 2 {
		t.Fatalf("unexpected bundle graph: %d nodes, %d edges", len(decoded.Nodes), len(decoded.Edges))
	}
	if decoded.Nodes[0].ID != "src1" {
		t.Fatalf("node order changed in bundle: %+v", decoded.Nodes)
	}
}
