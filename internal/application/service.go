package application

import (
	"context"
	"errors"

	"github.com/itmat/isareport/internal/domain"
)

// ReportService drives the parse -> build -> emit pipeline and fronts the
// graph archive with validation. The archive may be nil for stateless use
// (render and inspect work without one).
type ReportService struct {
	archive domain.GraphArchive
}

func NewReportService(archive domain.GraphArchive) *ReportService {
	return &ReportService{archive: archive}
}

// BuildGraph merges every study and assay node table of an investigation
// into one graph. Node and edge order is first-seen, so the same input
// always yields the same graph. Recurring identifiers are reconciled under
// the given merge policy; a dangling edge or an assay sample that does not
// resolve against its study is an IntegrityError.
func (s *ReportService) BuildGraph(inv domain.Investigation, policy domain.MergePolicy) (domain.Graph, []domain.Warning, error) {
	b := newGraphBuilder(policy)

	for si := range inv.Studies {
		study := &inv.Studies[si]
		if err := b.addTable(study.Table, nil); err != nil {
			return domain.Graph{}, b.warnings, err
		}
		upstream := sampleIDs(study.Table)
		for ai := range study.Assays {
			if err := b.addTable(study.Assays[ai].Table, upstream); err != nil {
				return domain.Graph{}, b.warnings, err
			}
		}
	}

	if err := b.checkEdges(); err != nil {
		return domain.Graph{}, b.warnings, err
	}

	g := domain.Graph{Nodes: b.nodes, Edges: b.edges}
	g.Stats = domain.ComputeStats(g.Nodes, g.Edges)
	return g, b.warnings, nil
}

var errNoArchive = errors.New("archive is not configured")

func (s *ReportService) ImportInvestigation(ctx context.Context, inv domain.Investigation, graph domain.Graph) (domain.ArchiveEntry, error) {
	if s.archive == nil {
		return domain.ArchiveEntry{}, errNoArchive
	}
	if len(graph.Nodes) == 0 {
		return domain.ArchiveEntry{}, errors.New("refusing to archive an empty graph")
	}
	return s.archive.SaveInvestigation(ctx, inv, graph)
}

func (s *ReportService) ListInvestigations(ctx context.Context, query string, limit int) ([]domain.ArchiveEntry, error) {
	if s.archive == nil {
		return nil, errNoArchive
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.archive.ListInvestigations(ctx, query, limit)
}

func (s *ReportService) GetEntry(ctx context.Context, id uint) (domain.ArchiveEntry, error) {
	if s.archive == nil {
		return domain.ArchiveEntry{}, errNoArchive
	}
	if id == 0 {
		return domain.ArchiveEntry{}, errors.New("id is required")
	}
	return s.archive.GetEntry(ctx, id)
}

func (s *ReportService) GetInvestigation(ctx context.Context, id uint) (domain.Investigation, error) {
	if s.archive == nil {
		return domain.Investigation{}, errNoArchive
	}
	if id == 0 {
		return domain.Investigation{}, errors.New("id is required")
	}
	return s.archive.GetInvestigation(ctx, id)
}

func (s *ReportService) GetGraph(ctx context.Context, id uint) (domain.Graph, error) {
	if s.archive == nil {
		return domain.Graph{}, errNoArchive
	}
	if id == 0 {
		return domain.Graph{}, errors.New("id is required")
	}
	return s.archive.GetGraph(ctx, id)
}

func (s *ReportService) DeleteInvestigation(ctx context.Context, id uint) error {
	if s.archive == nil {
		return errNoArchive
	}
	if id == 0 {
		return errors.New("id is required")
	}
	return s.archive.DeleteInvestigation(ctx, id)
}
