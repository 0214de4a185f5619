package domain

import (
	"fmt"
	"time"
)

// Kind classifies a graph node by the header suffix that declared it:
// "X Name" columns yield entities, "X File" columns yield files and
// "X REF" columns yield references (protocol applications and the like).
type Kind string

const (
	KindEntity    Kind = "entity"
	KindFile      Kind = "file"
	KindReference Kind = "reference"
)

// Attribute is one annotation attached to a node, in column order.
// Term holds the bracketed qualifier of headers like "Characteristics[organism]".
// Unit, TermSource and TermAccession come from trailing qualifier columns.
type Attribute struct {
	Name          string `json:"name"`
	Term          string `json:"term,omitempty"`
	Value         string `json:"value"`
	Unit          string `json:"unit,omitempty"`
	TermSource    string `json:"term_source,omitempty"`
	TermAccession string `json:"term_accession,omitempty"`
}

// Node is a typed vertex of the annotation graph. ID is a slug unique within
// a graph; Label preserves the original cell text.
type Node struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"kind"`
	Category   string      `json:"category"`
	Label      string      `json:"label"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// Attribute returns the node attribute with the given name and term.
func (n Node) Attribute(name, term string) (Attribute, bool) {
	for _, a := range n.Attributes {
		if a.Name == name && a.Term == term {
			return a, true
		}
	}
	return Attribute{}, false
}

// Edge is a directed relationship between two nodes, identified by slug.
type Edge struct {
	SourceID string `json:"source"`
	TargetID string `json:"target"`
	Relation string `json:"relation"`
}

// RelationBetween derives the relation label for an edge from its endpoint
// kinds: material flowing into a file "produces" it, into a protocol
// application "applies" it; a protocol application "yields" what follows it;
// everything else "derives".
func RelationBetween(src, dst Node) string {
	switch {
	case dst.Kind == KindFile:
		return "produces"
	case dst.Kind == KindReference:
		return "applies"
	case src.Kind == KindReference:
		return "yields"
	default:
		return "derives"
	}
}

// Stats summarizes a graph for listings and the report header.
type Stats struct {
	NodeCount       int            `json:"node_count"`
	EdgeCount       int            `json:"edge_count"`
	NodesByKind     map[string]int `json:"nodes_by_kind,omitempty"`
	NodesByCategory map[string]int `json:"nodes_by_category,omitempty"`
}

// Graph is the assembled annotation graph. Nodes and Edges keep first-seen
// order so that re-parsing the same input yields an identical graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Stats  `json:"stats"`
}

// Node returns the node with the given ID.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasNode reports whether a node with the given ID exists.
func (g Graph) HasNode(id string) bool {
	_, ok := g.Node(id)
	return ok
}

// ComputeStats derives graph statistics from node and edge lists.
func ComputeStats(nodes []Node, edges []Edge) Stats {
	s := Stats{
		NodeCount:       len(nodes),
		EdgeCount:       len(edges),
		NodesByKind:     make(map[string]int),
		NodesByCategory: make(map[string]int),
	}
	for _, n := range nodes {
		s.NodesByKind[string(n.Kind)]++
		s.NodesByCategory[n.Category]++
	}
	return s
}

// Field is one key/value pair of an investigation section.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Fields is an order-preserving key/value mapping. Investigation sections are
// column oriented, so a section describing three contacts parses into three
// Fields, one per column.
type Fields []Field

// Get returns the value for key, or "" when absent.
func (f Fields) Get(key string) string {
	for _, kv := range f {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// Has reports whether key is present, even with an empty value.
func (f Fields) Has(key string) bool {
	for _, kv := range f {
		if kv.Key == key {
			return true
		}
	}
	return false
}

// Set replaces the value for key, appending the key when new.
func (f *Fields) Set(key, value string) {
	for i, kv := range *f {
		if kv.Key == key {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Field{Key: key, Value: value})
}

// NodeTable holds the collapsed row data of one study or assay file: the
// nodes declared by its columns and the adjacency edges between them.
type NodeTable struct {
	File  string `json:"file"`
	Nodes []Node `json:"nodes,omitempty"`
	Edges []Edge `json:"edges,omitempty"`
}

// Assay is one assay declared by a study, with the key/value metadata from
// the STUDY ASSAYS section and the collapsed rows of its table file.
type Assay struct {
	Metadata Fields    `json:"metadata"`
	Table    NodeTable `json:"table"`
}

// File returns the assay table file name declared in the investigation.
func (a Assay) File() string { return a.Metadata.Get("Study Assay File Name") }

// Study is one study of an investigation.
type Study struct {
	Metadata          Fields    `json:"metadata"`
	DesignDescriptors []Fields  `json:"design_descriptors,omitempty"`
	Publications      []Fields  `json:"publications,omitempty"`
	Factors           []Fields  `json:"factors,omitempty"`
	Protocols         []Fields  `json:"protocols,omitempty"`
	Contacts          []Fields  `json:"contacts,omitempty"`
	Assays            []Assay   `json:"assays,omitempty"`
	Table             NodeTable `json:"table"`
}

// Identifier returns the declared study identifier.
func (s Study) Identifier() string { return s.Metadata.Get("Study Identifier") }

// Title returns the declared study title.
func (s Study) Title() string { return s.Metadata.Get("Study Title") }

// File returns the study table file name declared in the investigation.
func (s Study) File() string { return s.Metadata.Get("Study File Name") }

// Investigation is the parsed form of one ISA-TAB archive.
type Investigation struct {
	SourcePath   string   `json:"source_path"`
	Metadata     Fields   `json:"metadata"`
	OntologyRefs []Fields `json:"ontology_refs,omitempty"`
	Publications []Fields `json:"publications,omitempty"`
	Contacts     []Fields `json:"contacts,omitempty"`
	Studies      []Study  `json:"studies,omitempty"`
}

// Accession returns the investigation identifier, falling back to the first
// study identifier when the investigation block does not declare one.
func (inv Investigation) Accession() string {
	if id := inv.Metadata.Get("Investigation Identifier"); id != "" {
		return id
	}
	for _, s := range inv.Studies {
		if id := s.Identifier(); id != "" {
			return id
		}
	}
	return ""
}

// Title returns the investigation title, falling back to the first study title.
func (inv Investigation) Title() string {
	if t := inv.Metadata.Get("Investigation Title"); t != "" {
		return t
	}
	for _, s := range inv.Studies {
		if t := s.Title(); t != "" {
			return t
		}
	}
	return ""
}

// Warning is a non-fatal condition surfaced to the user: a skipped study
// file, a merged duplicate, an overwritten attribute.
type Warning struct {
	File    string `json:"file,omitempty"`
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.File != "" && w.NodeID != "":
		return fmt.Sprintf("%s: node %s: %s", w.File, w.NodeID, w.Message)
	case w.File != "":
		return fmt.Sprintf("%s: %s", w.File, w.Message)
	case w.NodeID != "":
		return fmt.Sprintf("node %s: %s", w.NodeID, w.Message)
	default:
		return w.Message
	}
}

// MergePolicy selects how the graph builder reconciles a recurring node ID
// whose attributes conflict.
type MergePolicy int

const (
	// MergeKeepLast overwrites with the newest value and records a warning.
	MergeKeepLast MergePolicy = iota
	// MergeKeepFirst keeps the original value and records a warning.
	MergeKeepFirst
	// MergeReject fails the build on the first conflicting duplicate.
	MergeReject
)

func (p MergePolicy) String() string {
	switch p {
	case MergeKeepLast:
		return "keep-last"
	case MergeKeepFirst:
		return "keep-first"
	case MergeReject:
		return "reject"
	default:
		return fmt.Sprintf("merge-policy(%d)", int(p))
	}
}

// ParseMergePolicy parses the CLI spelling of a merge policy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "", "keep-last":
		return MergeKeepLast, nil
	case "keep-first":
		return MergeKeepFirst, nil
	case "reject":
		return MergeReject, nil
	default:
		return MergeKeepLast, fmt.Errorf("unknown merge policy %q (valid: keep-last, keep-first, reject)", s)
	}
}

// ArchiveEntry is a stored investigation as listed by the archive.
type ArchiveEntry struct {
	ID         uint      `json:"id"`
	Accession  string    `json:"accession"`
	Title      string    `json:"title"`
	SourcePath string    `json:"source_path"`
	NodeCount  int       `json:"node_count"`
	EdgeCount  int       `json:"edge_count"`
	CreatedAt  time.Time `json:"created_at"`
}
