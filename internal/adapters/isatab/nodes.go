package isatab

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/itmat/isareport/internal/domain"
)

var (
	// Node columns end in Name, File or REF: "Sample Name", "Raw Data File",
	// "Protocol REF". Qualifier columns refine the preceding attribute and
	// must be tested first, since "Term Source REF" also looks like a node
	// column.
	nodeColumnRE      = regexp.MustCompile(`^(.+)\s(Name|File|REF)$`)
	attributeColumnRE = regexp.MustCompile(`^([^\[]+)\[?([^\]]*)\]?`)
	qualifierColumnRE = regexp.MustCompile(`^(Unit|Term Accession Number|Term Source REF)`)
)

// Slug normalizes a cell label into a node identifier: lowercased, with
// every rune outside [0-9a-z._-] replaced by a dash.
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func kindForSuffix(suffix string) domain.Kind {
	switch suffix {
	case "File":
		return domain.KindFile
	case "REF":
		return domain.KindReference
	default:
		return domain.KindEntity
	}
}

// collapseTable folds table rows into nodes and adjacency edges. Within a
// row, consecutive node columns link parent to child; a node recurring
// across rows is reused, with later attribute values overwriting earlier
// ones under a warning. REF node identifiers are prefixed with their parent
// so the same protocol applied on different branches stays distinct.
func collapseTable(tr *TableReader, fileName string) (domain.NodeTable, []domain.Warning, error) {
	header := tr.Header()
	table := domain.NodeTable{File: fileName}
	index := make(map[string]int)
	edgeSeen := make(map[[2]string]struct{})
	var warnings []domain.Warning

	for {
		rec, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table, warnings, err
		}

		lastNode := -1
		lastAttr := -1
		for i, col := range header {
			cell := strings.TrimSpace(rec.Values[i])

			if m := qualifierColumnRE.FindStringSubmatch(col); m != nil {
				if cell == "" || lastNode < 0 || lastAttr < 0 {
					continue
				}
				attr := &table.Nodes[lastNode].Attributes[lastAttr]
				switch m[1] {
				case "Unit":
					attr.Unit = cell
				case "Term Source REF":
					attr.TermSource = cell
				case "Term Accession Number":
					attr.TermAccession = cell
				}
				continue
			}

			if m := nodeColumnRE.FindStringSubmatch(col); m != nil {
				if cell == "" {
					continue
				}
				id := Slug(cell)
				if m[2] == "REF" && lastNode >= 0 {
					id = table.Nodes[lastNode].ID + "-ref-" + id
				}
				pos, ok := index[id]
				if !ok {
					table.Nodes = append(table.Nodes, domain.Node{
						ID:       id,
						Kind:     kindForSuffix(m[2]),
						Category: Slug(m[1]),
						Label:    cell,
					})
					pos = len(table.Nodes) - 1
					index[id] = pos
				}
				if lastNode >= 0 && lastNode != pos {
					key := [2]string{table.Nodes[lastNode].ID, id}
					if _, dup := edgeSeen[key]; !dup {
						edgeSeen[key] = struct{}{}
						table.Edges = append(table.Edges, domain.Edge{
							SourceID: key[0],
							TargetID: id,
							Relation: domain.RelationBetween(table.Nodes[lastNode], table.Nodes[pos]),
						})
					}
				}
				lastNode = pos
				lastAttr = -1
				continue
			}

			m := attributeColumnRE.FindStringSubmatch(col)
			if m == nil || lastNode < 0 || cell == "" {
				continue
			}
			name := strings.TrimSpace(m[1])
			term := m[2]
			node := &table.Nodes[lastNode]

			found := -1
			for ai, a := range node.Attributes {
				if a.Name == name && a.Term == term {
					found = ai
					break
				}
			}
			if found >= 0 {
				if prev := node.Attributes[found].Value; prev != cell {
					warnings = append(warnings, domain.Warning{
						File:    fileName,
						NodeID:  node.ID,
						Message: fmt.Sprintf("attribute %s overwritten: %q -> %q", attrDisplay(name, term), prev, cell),
					})
					node.Attributes[found].Value = cell
				}
				lastAttr = found
			} else {
				node.Attributes = append(node.Attributes, domain.Attribute{Name: name, Term: term, Value: cell})
				lastAttr = len(node.Attributes) - 1
			}
		}
	}

	return table, warnings, nil
}

func attrDisplay(name, term string) string {
	if term == "" {
		return name
	}
	return fmt.Sprintf("%s[%s]", name, term)
}
