package isatab

import (
	"errors"
	"strings"
	"testing"

	"github.com/itmat/isareport/internal/domain"
)

const investigationInput = `ONTOLOGY SOURCE REFERENCE
Term Source Name	OBI	UO
Term Source Description	Biomedical Investigations	Unit Ontology
INVESTIGATION
Investigation Identifier	BII-I-1
Investigation Title	Growth control of the eukaryote cell
INVESTIGATION CONTACTS
Investigation Person Last Name	Oliver	Castrillo
Investigation Person Email	sgo@example.org
STUDY
Study Identifier	BII-S-1
Study Title	Flux study
Study File Name	s_BII-S-1.txt
STUDY FACTORS
Study Factor Name	limiting nutrient	rate
Study Factor Type	chemical entity	rate
STUDY ASSAYS
Study Assay File Name	a_metabolome.txt	a_proteome.txt
Study Assay Measurement Type	metabolite profiling	protein expression profiling
STUDY
Study Identifier	BII-S-2
Study File Name	s_BII-S-2.txt
`

func TestParseInvestigationSections(t *testing.T) {
	inv, err := ParseInvestigation(strings.NewReader(investigationInput), "i_investigation.txt")
	if err != nil {
		t.Fatalf("parse investigation: %v", err)
	}

	if got := inv.Accession(); got != "BII-I-1" {
		t.Fatalf("accession = %q", got)
	}
	if got := inv.Title(); got != "Growth control of the eukaryote cell" {
		t.Fatalf("title = %q", got)
	}

	if len(inv.OntologyRefs) != 2 {
		t.Fatalf("expected 2 ontology refs, got %d", len(inv.OntologyRefs))
	}
	if got := inv.OntologyRefs[1].Get("Term Source Name"); got != "UO" {
		t.Fatalf("second ontology ref name = %q", got)
	}

	if len(inv.Contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(inv.Contacts))
	}
	if got := inv.Contacts[0].Get("Investigation Person Email"); got != "sgo@example.org" {
		t.Fatalf("first contact email = %q", got)
	}
	if got := inv.Contacts[1].Get("Investigation Person Last Name"); got != "Castrillo" {
		t.Fatalf("second contact last name = %q", got)
	}

	if len(inv.Studies) != 2 {
		t.Fatalf("expected 2 studies, got %d", len(inv.Studies))
	}
	study := inv.Studies[0]
	if study.Identifier() != "BII-S-1" || study.File() != "s_BII-S-1.txt" {
		t.Fatalf("unexpected first study: %q %q", study.Identifier(), study.File())
	}
	if len(study.Factors) != 2 {
		t.Fatalf("expected 2 factors, got %d", len(study.Factors))
	}
	if got := study.Factors[0].Get("Study Factor Name"); got != "limiting nutrient" {
		t.Fatalf("first factor = %q", got)
	}
	if len(study.Assays) != 2 {
		t.Fatalf("expected 2 assays, got %d", len(study.Assays))
	}
	if got := study.Assays[1].File(); got != "a_proteome.txt" {
		t.Fatalf("second assay file = %q", got)
	}

	if inv.Studies[1].Identifier() != "BII-S-2" {
		t.Fatalf("second study identifier = %q", inv.Studies[1].Identifier())
	}
}

func TestParseInvestigationSDRFYieldsSyntheticStudy(t *testing.T) {
	input := "Investigation Title\tAn expression atlas\nSDRF File\tsdrf.txt\n"
	inv, err := ParseInvestigation(strings.NewReader(input), "atlas.idf.txt")
	if err != nil {
		t.Fatalf("parse idf: %v", err)
	}
	if len(inv.Studies) != 1 {
		t.Fatalf("expected 1 synthetic study, got %d", len(inv.Studies))
	}
	if got := inv.Studies[0].File(); got != "sdrf.txt" {
		t.Fatalf("synthetic study file = %q", got)
	}
	if got := inv.Title(); got != "An expression atlas" {
		t.Fatalf("title = %q", got)
	}
}

func TestParseInvestigationRejectsUnknownSection(t *testing.T) {
	input := "Investigation Identifier\tX-1\nNOT A REAL SECTION\nSome Key\tvalue\n"
	_, err := ParseInvestigation(strings.NewReader(input), "i_bad.txt")
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for unknown section, got %v", err)
	}
}
