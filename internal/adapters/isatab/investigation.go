package isatab

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/itmat/isareport/internal/domain"
)

// Investigation file sections, per the ISA-TAB v1 specification. A section
// header is a line whose first cell is all uppercase with nothing after it;
// the key/value lines that follow belong to the most recent header.
const (
	sectionOntologyRefs      = "ONTOLOGY SOURCE REFERENCE"
	sectionInvestigation     = "INVESTIGATION"
	sectionInvPublications   = "INVESTIGATION PUBLICATIONS"
	sectionInvContacts       = "INVESTIGATION CONTACTS"
	sectionStudy             = "STUDY"
	sectionStudyDesign       = "STUDY DESIGN DESCRIPTORS"
	sectionStudyPublications = "STUDY PUBLICATIONS"
	sectionStudyFactors      = "STUDY FACTORS"
	sectionStudyAssays       = "STUDY ASSAYS"
	sectionStudyProtocols    = "STUDY PROTOCOLS"
	sectionStudyContacts     = "STUDY CONTACTS"
)

// lineIterator reads an investigation file line by line, skipping blank
// lines and collapsing section headers to a single cell.
type lineIterator struct {
	file   string
	reader *csv.Reader
}

func newLineIterator(r io.Reader, file string) *lineIterator {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &lineIterator{file: file, reader: cr}
}

func (it *lineIterator) next() ([]string, error) {
	for {
		line, err := it.reader.Read()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 || line[0] == "" {
			continue
		}
		if isSectionHeader(line) {
			return []string{line[0]}, nil
		}
		return line, nil
	}
}

func isSectionHeader(line []string) bool {
	if strings.ToUpper(line[0]) != line[0] {
		return false
	}
	for _, v := range line[1:] {
		if v != "" {
			return false
		}
	}
	return true
}

// parseKeyvals accumulates key/value lines until the next section header,
// one Fields per value column. Returns the terminating section name, or ""
// at end of file. The column count is fixed by the first line of the block,
// trimmed of trailing blanks; shorter lines are padded.
func parseKeyvals(it *lineIterator) ([]domain.Fields, string, error) {
	var out []domain.Fields
	for {
		line, err := it.next()
		if errors.Is(err, io.EOF) {
			return out, "", nil
		}
		if err != nil {
			return nil, "", asParseError(it.file, err)
		}
		if len(line) == 1 && strings.ToUpper(line[0]) == line[0] {
			return out, line[0], nil
		}
		if out == nil {
			width := len(line)
			for width > 1 && line[width-1] == "" {
				width--
			}
			out = make([]domain.Fields, width-1)
		}
		for len(line) < len(out)+1 {
			line = append(line, "")
		}
		for i := range out {
			out[i].Set(line[0], strings.TrimSpace(line[i+1]))
		}
	}
}

type investigationParser struct {
	it *lineIterator
}

// ParseInvestigation parses an investigation file into its structured record.
// Study and assay tables are not resolved here; Parse does that.
func ParseInvestigation(r io.Reader, file string) (domain.Investigation, error) {
	p := &investigationParser{it: newLineIterator(r, file)}
	return p.parse()
}

func (p *investigationParser) parse() (domain.Investigation, error) {
	var inv domain.Investigation

	section, _, err := p.parseRegion(func(section string, cols []domain.Fields) error {
		return p.assignInvestigation(&inv, section, cols)
	})
	if err != nil {
		return inv, err
	}

	for section == sectionStudy {
		var study domain.Study
		var had bool
		section, had, err = p.parseRegion(func(section string, cols []domain.Fields) error {
			return p.assignStudy(&study, section, cols)
		})
		if err != nil {
			return inv, err
		}
		if had {
			inv.Studies = append(inv.Studies, study)
		}
	}

	// MAGE-TAB IDF files point at a single SDRF table instead of declaring
	// studies; expose it as one synthetic study.
	if sdrf := inv.Metadata.Get("SDRF File"); sdrf != "" {
		var study domain.Study
		study.Metadata.Set("Study File Name", sdrf)
		inv.Studies = append(inv.Studies, study)
	}

	return inv, nil
}

// parseRegion reads one region: the leading key/value block is the region
// metadata (section ""), followed by named sections up to the next STUDY
// header or end of file. Reports whether the region carried any data.
func (p *investigationParser) parseRegion(assign func(section string, cols []domain.Fields) error) (string, bool, error) {
	cols, section, err := parseKeyvals(p.it)
	if err != nil {
		return "", false, err
	}
	had := len(cols) > 0
	if err := assign("", cols); err != nil {
		return "", false, err
	}

	for section != "" && section != sectionStudy {
		var next string
		cols, next, err = parseKeyvals(p.it)
		if err != nil {
			return "", false, err
		}
		if err := assign(section, cols); err != nil {
			return "", false, err
		}
		had = true
		section = next
	}
	return section, had, nil
}

func (p *investigationParser) assignInvestigation(inv *domain.Investigation, section string, cols []domain.Fields) error {
	switch section {
	case "", sectionInvestigation:
		if len(cols) > 0 {
			inv.Metadata = cols[0]
		}
	case sectionOntologyRefs:
		inv.OntologyRefs = cols
	case sectionInvPublications:
		inv.Publications = cols
	case sectionInvContacts:
		inv.Contacts = cols
	default:
		return domain.NewParseError(p.it.file, 0, "unexpected section %q in investigation block", section)
	}
	return nil
}

func (p *investigationParser) assignStudy(study *domain.Study, section string, cols []domain.Fields) error {
	switch section {
	case "":
		if len(cols) > 0 {
			study.Metadata = cols[0]
		}
	case sectionStudyDesign:
		study.DesignDescriptors = cols
	case sectionStudyPublications:
		study.Publications = cols
	case sectionStudyFactors:
		study.Factors = cols
	case sectionStudyProtocols:
		study.Protocols = cols
	case sectionStudyContacts:
		study.Contacts = cols
	case sectionStudyAssays:
		assays := make([]domain.Assay, 0, len(cols))
		for _, f := range cols {
			assays = append(assays, domain.Assay{Metadata: f})
		}
		study.Assays = assays
	default:
		return domain.NewParseError(p.it.file, 0, "unexpected section %q in study block", section)
	}
	return nil
}
