package domain

import (
	"strings"
	"testing"
)

func TestRelationBetween(t *testing.T) {
	entity := Node{Kind: KindEntity}
	file := Node{Kind: KindFile}
	ref := Node{Kind: KindReference}

	if got := RelationBetween(entity, file); got != "produces" {
		t.Fatalf("entity->file = %q", got)
	}
	if got := RelationBetween(entity, ref); got != "applies" {
		t.Fatalf("entity->ref = %q", got)
	}
	if got := RelationBetween(ref, entity); got != "yields" {
		t.Fatalf("ref->entity = %q", got)
	}
	if got := RelationBetween(entity, entity); got != "derives" {
		t.Fatalf("entity->entity = %q", got)
	}
}

func TestParseMergePolicy(t *testing.T) {
	if p, err := ParseMergePolicy(""); err != nil || p != MergeKeepLast {
		t.Fatalf("empty policy = %v, %v", p, err)
	}
	if p, err := ParseMergePolicy("keep-first"); err != nil || p != MergeKeepFirst {
		t.Fatalf("keep-first = %v, %v", p, err)
	}
	if p, err := ParseMergePolicy("reject"); err != nil || p != MergeReject {
		t.Fatalf("reject = %v, %v", p, err)
	}
	if _, err := ParseMergePolicy("yolo"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestInvestigationAccessionFallsBackToStudy(t *testing.T) {
	var inv Investigation
	if inv.Accession() != "" {
		t.Fatalf("empty investigation should have empty accession")
	}

	var study Study
	study.Metadata.Set("Study Identifier", "BII-S-1")
	study.Metadata.Set("Study Title", "Flux study")
	inv.Studies = []Study{study}
	if got := inv.Accession(); got != "BII-S-1" {
		t.Fatalf("accession fallback = %q", got)
	}
	if got := inv.Title(); got != "Flux study" {
		t.Fatalf("title fallback = %q", got)
	}

	inv.Metadata.Set("Investigation Identifier", "BII-I-1")
	if got := inv.Accession(); got != "BII-I-1" {
		t.Fatalf("own accession = %q", got)
	}
}

func TestWarningString(t *testing.T) {
	w := Warning{File: "s_test.txt", NodeID: "smp1", Message: "duplicate"}
	if got := w.String(); !strings.Contains(got, "s_test.txt") || !strings.Contains(got, "smp1") {
		t.Fatalf("warning string = %q", got)
	}
	bare := Warning{Message: "just text"}
	if bare.String() != "just text" {
		t.Fatalf("bare warning string = %q", bare.String())
	}
}

func TestFieldsPreserveOrder(t *testing.T) {
	var f Fields
	f.Set("b", "2")
	f.Set("a", "1")
	f.Set("b", "3")

	if len(f) != 2 || f[0].Key != "b" || f[1].Key != "a" {
		t.Fatalf("unexpected field order: %+v", f)
	}
	if f.Get("b") != "3" {
		t.Fatalf("Set did not replace: %q", f.Get("b"))
	}
	if !f.Has("a") || f.Has("z") {
		t.Fatalf("Has misbehaved")
	}
}
