package application

import (
	"fmt"

	"github.com/itmat/isareport/internal/domain"
)

type graphBuilder struct {
	policy   domain.MergePolicy
	nodes    []domain.Node
	edges    []domain.Edge
	index    map[string]int
	edgeSeen map[[2]string]struct{}
	warnings []domain.Warning
}

func newGraphBuilder(policy domain.MergePolicy) *graphBuilder {
	return &graphBuilder{
		policy:   policy,
		index:    make(map[string]int),
		edgeSeen: make(map[[2]string]struct{}),
	}
}

// addTable merges one collapsed table into the graph. upstream, when
// non-empty, is the set of sample identifiers declared by the owning study:
// an assay-table sample outside that set is an unresolved upstream reference.
func (b *graphBuilder) addTable(table domain.NodeTable, upstream map[string]struct{}) error {
	for _, n := range table.Nodes {
		if len(upstream) > 0 && n.Kind == domain.KindEntity && n.Category == "sample" {
			if _, ok := upstream[n.ID]; !ok {
				return &domain.IntegrityError{
					NodeID: n.ID,
					Detail: fmt.Sprintf("sample in %s does not resolve against the study table", table.File),
				}
			}
		}
		if err := b.addNode(n, table.File); err != nil {
			return err
		}
	}
	for _, e := range table.Edges {
		b.addEdge(e)
	}
	return nil
}

func (b *graphBuilder) addNode(n domain.Node, file string) error {
	pos, ok := b.index[n.ID]
	if !ok {
		n.Attributes = append([]domain.Attribute(nil), n.Attributes...)
		b.nodes = append(b.nodes, n)
		b.index[n.ID] = len(b.nodes) - 1
		return nil
	}

	dst := &b.nodes[pos]
	if dst.Kind != n.Kind || dst.Category != n.Category {
		detail := fmt.Sprintf("duplicate identifier declared as %s/%s and %s/%s",
			dst.Kind, dst.Category, n.Kind, n.Category)
		if b.policy == domain.MergeReject {
			return &domain.IntegrityError{NodeID: n.ID, Detail: detail}
		}
		b.warn(file, n.ID, detail+"; keeping first")
	}

	for _, a := range n.Attributes {
		if err := b.mergeAttribute(dst, a, file); err != nil {
			return err
		}
	}
	return nil
}

func (b *graphBuilder) mergeAttribute(dst *domain.Node, a domain.Attribute, file string) error {
	for i := range dst.Attributes {
		have := &dst.Attributes[i]
		if have.Name != a.Name || have.Term != a.Term {
			continue
		}
		if have.Value == a.Value {
			// Same value seen again; qualifiers may fill in.
			if have.Unit == "" {
				have.Unit = a.Unit
			}
			if have.TermSource == "" {
				have.TermSource = a.TermSource
			}
			if have.TermAccession == "" {
				have.TermAccession = a.TermAccession
			}
			return nil
		}

		detail := fmt.Sprintf("conflicting values for %s: %q vs %q", attrDisplay(a), have.Value, a.Value)
		switch b.policy {
		case domain.MergeReject:
			return &domain.IntegrityError{NodeID: dst.ID, Detail: detail}
		case domain.MergeKeepFirst:
			b.warn(file, dst.ID, detail+"; keeping first")
		default:
			b.warn(file, dst.ID, detail+"; keeping last")
			have.Value = a.Value
			have.Unit = a.Unit
			have.TermSource = a.TermSource
			have.TermAccession = a.TermAccession
		}
		return nil
	}

	dst.Attributes = append(dst.Attributes, a)
	return nil
}

func (b *graphBuilder) addEdge(e domain.Edge) {
	key := [2]string{e.SourceID, e.TargetID}
	if _, dup := b.edgeSeen[key]; dup {
		return
	}
	b.edgeSeen[key] = struct{}{}
	b.edges = append(b.edges, e)
}

// checkEdges enforces the no-dangling-edges invariant over the finished
// node set.
func (b *graphBuilder) checkEdges() error {
	for _, e := range b.edges {
		if _, ok := b.index[e.SourceID]; !ok {
			return &domain.IntegrityError{NodeID: e.SourceID, Detail: fmt.Sprintf("edge %s -> %s has no source node", e.SourceID, e.TargetID)}
		}
		if _, ok := b.index[e.TargetID]; !ok {
			return &domain.IntegrityError{NodeID: e.TargetID, Detail: fmt.Sprintf("edge %s -> %s has no target node", e.SourceID, e.TargetID)}
		}
	}
	return nil
}

func (b *graphBuilder) warn(file, nodeID, message string) {
	b.warnings = append(b.warnings, domain.Warning{File: file, NodeID: nodeID, Message: message})
}

func sampleIDs(table domain.NodeTable) map[string]struct{} {
	out := make(map[string]struct{})
	for _, n := range table.Nodes {
		if n.Kind == domain.KindEntity && n.Category == "sample" {
			out[n.ID] = struct{}{}
		}
	}
	return out
}

func attrDisplay(a domain.Attribute) string {
	if a.Term == "" {
		return a.Name
	}
	return fmt.Sprintf("%s[%s]", a.Name, a.Term)
}
