package application

import (
	"errors"
	"strings"
	"testing"

	"github.com/itmat/isareport/internal/domain"
)

func sampleNode(id, value string) domain.Node {
	return domain.Node{
		ID:       id,
		Kind:     domain.KindEntity,
		Category: "sample",
		Label:    id,
		Attributes: []domain.Attribute{
			{Name: "Characteristics", Term: "material", Value: value},
		},
	}
}

func investigationWith(study domain.NodeTable, assay domain.NodeTable) domain.Investigation {
	return domain.Investigation{
		Studies: []domain.Study{{
			Table:  study,
			Assays: []domain.Assay{{Table: assay}},
		}},
	}
}

func TestBuildGraphMergesStudyAndAssayTables(t *testing.T) {
	study := domain.NodeTable{
		File: "s_test.txt",
		Nodes: []domain.Node{
			{ID: "src1", Kind: domain.KindEntity, Category: "source", Label: "src1"},
			sampleNode("smp1", "pellet"),
		},
		Edges: []domain.Edge{{SourceID: "src1", TargetID: "smp1", Relation: "derives"}},
	}
	assay := domain.NodeTable{
		File: "a_test.txt",
		Nodes: []domain.Node{
			sampleNode("smp1", "pellet"),
			{ID: "smp1.raw", Kind: domain.KindFile, Category: "raw-data", Label: "smp1.raw"},
		},
		Edges: []domain.Edge{{SourceID: "smp1", TargetID: "smp1.raw", Relation: "produces"}},
	}

	service := NewReportService(nil)
	graph, warnings, err := service.BuildGraph(investigationWith(study, assay), domain.MergeKeepLast)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}

	if graph.Stats.NodeCount != 3 || graph.Stats.EdgeCount != 2 {
		t.Fatalf("unexpected stats: %+v", graph.Stats)
	}
	if graph.Stats.NodesByKind["file"] != 1 || graph.Stats.NodesByCategory["sample"] != 1 {
		t.Fatalf("unexpected stat breakdown: %+v", graph.Stats)
	}

	// smp1 appears in both tables but must stay a single node.
	seen := make(map[string]bool)
	for _, n := range graph.Nodes {
		if seen[n.ID] {
			t.Fatalf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	if graph.Nodes[0].ID != "src1" || graph.Nodes[1].ID != "smp1" || graph.Nodes[2].ID != "smp1.raw" {
		t.Fatalf("unexpected node order: %+v", graph.Nodes)
	}
}

func TestBuildGraphConflictPolicies(t *testing.T) {
	study := domain.NodeTable{
		File:  "s_test.txt",
		Nodes: []domain.Node{sampleNode("smp1", "pellet")},
	}
	assay := domain.NodeTable{
		File:  "a_test.txt",
		Nodes: []domain.Node{sampleNode("smp1", "supernatant")},
	}
	inv := investigationWith(study, assay)
	service := NewReportService(nil)

	graph, warnings, err := service.BuildGraph(inv, domain.MergeKeepLast)
	if err != nil {
		t.Fatalf("keep-last: %v", err)
	}
	attr, _ := graph.Nodes[0].Attribute("Characteristics", "material")
	if attr.Value != "supernatant" {
		t.Fatalf("keep-last kept %q", attr.Value)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "keeping last") {
		t.Fatalf("keep-last warnings: %+v", warnings)
	}

	graph, warnings, err = service.BuildGraph(inv, domain.MergeKeepFirst)
	if err != nil {
		t.Fatalf("keep-first: %v", err)
	}
	attr, _ = graph.Nodes[0].Attribute("Characteristics", "material")
	if attr.Value != "pellet" {
		t.Fatalf("keep-first kept %q", attr.Value)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "keeping first") {
		t.Fatalf("keep-first warnings: %+v", warnings)
	}

	_, _, err = service.BuildGraph(inv, domain.MergeReject)
	var integrityErr *domain.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("reject: expected IntegrityError, got %v", err)
	}
	if integrityErr.NodeID != "smp1" {
		t.Fatalf("reject: unexpected node %q", integrityErr.NodeID)
	}
}

func TestBuildGraphEqualDuplicateFillsQualifiers(t *testing.T) {
	study := domain.NodeTable{
		File:  "s_test.txt",
		Nodes: []domain.Node{sampleNode("smp1", "pellet")},
	}
	enriched := sampleNode("smp1", "pellet")
	enriched.Attributes[0].TermSource = "OBI"
	assay := domain.NodeTable{File: "a_test.txt", Nodes: []domain.Node{enriched}}

	service := NewReportService(nil)
	graph, warnings, err := service.BuildGraph(investigationWith(study, assay), domain.MergeReject)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("equal values must not warn: %+v", warnings)
	}
	attr, _ := graph.Nodes[0].Attribute("Characteristics", "material")
	if attr.TermSource != "OBI" {
		t.Fatalf("qualifier was not filled in: %+v", attr)
	}
}

func TestBuildGraphRejectsUnresolvedAssaySample(t *testing.T) {
	study := domain.NodeTable{
		File:  "s_test.txt",
		Nodes: []domain.Node{sampleNode("smp1", "pellet")},
	}
	assay := domain.NodeTable{
		File:  "a_test.txt",
		Nodes: []domain.Node{sampleNode("smp-unknown", "pellet")},
	}

	service := NewReportService(nil)
	_, _, err := service.BuildGraph(investigationWith(study, assay), domain.MergeKeepLast)
	var integrityErr *domain.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if integrityErr.NodeID != "smp-unknown" {
		t.Fatalf("unexpected node %q", integrityErr.NodeID)
	}
}

func TestBuildGraphRejectsDanglingEdge(t *testing.T) {
	study := domain.NodeTable{
		File:  "s_test.txt",
		Nodes: []domain.Node{sampleNode("smp1", "pellet")},
		Edges: []domain.Edge{{SourceID: "smp1", TargetID: "ghost", Relation: "derives"}},
	}

	service := NewReportService(nil)
	_, _, err := service.BuildGraph(investigationWith(study, domain.NodeTable{}), domain.MergeKeepLast)
	var integrityErr *domain.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if integrityErr.NodeID != "ghost" {
		t.Fatalf("unexpected node %q", integrityErr.NodeID)
	}
}

func TestBuildGraphKindMismatchKeepsFirst(t *testing.T) {
	study := domain.NodeTable{
		File: "s_test.txt",
		Nodes: []domain.Node{
			{ID: "x1", Kind: domain.KindEntity, Category: "sample", Label: "x1"},
		},
	}
	assay := domain.NodeTable{
		File: "a_test.txt",
		Nodes: []domain.Node{
			{ID: "x1", Kind: domain.KindFile, Category: "raw-data", Label: "x1"},
		},
	}

	service := NewReportService(nil)
	graph, warnings, err := service.BuildGraph(investigationWith(study, assay), domain.MergeKeepLast)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	if graph.Nodes[0].Kind != domain.KindEntity {
		t.Fatalf("first declaration should win, got %q", graph.Nodes[0].Kind)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "duplicate identifier") {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}

	_, _, err = service.BuildGraph(investigationWith(study, assay), domain.MergeReject)
	var integrityErr *domain.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("reject: expected IntegrityError, got %v", err)
	}
}
