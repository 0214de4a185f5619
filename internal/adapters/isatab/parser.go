// Package isatab parses ISA-TAB archives: an investigation file describing
// studies and assays, plus the tab-delimited tables those declare. Rows are
// collapsed into typed nodes and adjacency edges ready for graph assembly.
package isatab

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/itmat/isareport/internal/domain"
)

// Parse reads an ISA-TAB archive. path may be the archive directory, in
// which case the investigation file is located by its conventional name
// (i_*.txt, or *.idf.txt for MAGE-TAB), or the investigation file itself.
// Studies whose table file is missing are skipped with a warning; a missing
// assay table leaves the assay empty with a warning.
func Parse(path string) (domain.Investigation, []domain.Warning, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Investigation{}, nil, fmt.Errorf("isatab input: %w", err)
	}

	invPath := path
	if info.IsDir() {
		invPath, err = findInvestigationFile(path)
		if err != nil {
			return domain.Investigation{}, nil, err
		}
	}

	f, err := os.Open(invPath)
	if err != nil {
		return domain.Investigation{}, nil, fmt.Errorf("open investigation file: %w", err)
	}
	defer func() { _ = f.Close() }()

	inv, err := ParseInvestigation(f, filepath.Base(invPath))
	if err != nil {
		return inv, nil, err
	}
	inv.SourcePath = invPath

	dir := filepath.Dir(invPath)
	var warnings []domain.Warning
	kept := make([]domain.Study, 0, len(inv.Studies))

	for _, study := range inv.Studies {
		fname := study.File()
		if fname == "" {
			warnings = append(warnings, domain.Warning{
				File:    filepath.Base(invPath),
				Message: fmt.Sprintf("study %q declares no table file; study skipped", study.Identifier()),
			})
			continue
		}

		table, ws, err := parseTableFile(filepath.Join(dir, fname), fname)
		if errors.Is(err, fs.ErrNotExist) {
			warnings = append(warnings, domain.Warning{
				File:    fname,
				Message: "study table file not found; study skipped",
			})
			continue
		}
		if err != nil {
			return inv, warnings, err
		}
		study.Table = table
		warnings = append(warnings, ws...)

		for ai := range study.Assays {
			aname := study.Assays[ai].File()
			if aname == "" {
				continue
			}
			atable, aws, err := parseTableFile(filepath.Join(dir, aname), aname)
			if errors.Is(err, fs.ErrNotExist) {
				warnings = append(warnings, domain.Warning{
					File:    aname,
					Message: "assay table file not found; assay left empty",
				})
				continue
			}
			if err != nil {
				return inv, warnings, err
			}
			study.Assays[ai].Table = atable
			warnings = append(warnings, aws...)
		}

		kept = append(kept, study)
	}

	inv.Studies = kept
	return inv, warnings, nil
}

func findInvestigationFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "i_*.txt"))
	if err != nil {
		return "", err
	}
	idf, err := filepath.Glob(filepath.Join(dir, "*.idf.txt"))
	if err != nil {
		return "", err
	}
	matches = append(matches, idf...)
	if len(matches) != 1 {
		return "", fmt.Errorf("expected exactly one investigation file in %s, found %d", dir, len(matches))
	}
	return matches[0], nil
}

func parseTableFile(path, name string) (domain.NodeTable, []domain.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.NodeTable{}, nil, err
	}
	defer func() { _ = f.Close() }()

	tr, err := NewTableReader(f, name)
	if err != nil {
		return domain.NodeTable{}, nil, err
	}
	return collapseTable(tr, name)
}
