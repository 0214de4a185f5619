package domain

import (
	"context"
	"io"
)

// GraphArchive stores parsed investigations and their graphs.
type GraphArchive interface {
	SaveInvestigation(ctx context.Context, inv Investigation, graph Graph) (ArchiveEntry, error)
	ListInvestigations(ctx context.Context, query string, limit int) ([]ArchiveEntry, error)
	GetEntry(ctx context.Context, id uint) (ArchiveEntry, error)
	GetInvestigation(ctx context.Context, id uint) (Investigation, error)
	GetGraph(ctx context.Context, id uint) (Graph, error)
	DeleteInvestigation(ctx context.Context, id uint) error
}

// ReportRenderer turns a finished graph into the HTML report.
type ReportRenderer interface {
	Render(w io.Writer, inv Investigation, graph Graph) error
	RenderIndex(w io.Writer, entries []ArchiveEntry) error
}
