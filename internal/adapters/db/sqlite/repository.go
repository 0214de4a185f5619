package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itmat/isareport/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// ArchiveRepository persists investigations and their graphs in a local
// sqlite database. It implements domain.GraphArchive.
type ArchiveRepository struct {
	db *gorm.DB
}

func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
}

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

func (r *ArchiveRepository) SaveInvestigation(ctx context.Context, inv domain.Investigation, graph domain.Graph) (domain.ArchiveEntry, error) {
	doc, err := json.Marshal(stripTables(inv))
	if err != nil {
		return domain.ArchiveEntry{}, fmt.Errorf("serialize investigation: %w", err)
	}

	m := InvestigationModel{
		Accession:  inv.Accession(),
		Title:      inv.Title(),
		SourcePath: inv.SourcePath,
		Document:   string(doc),
		NodeCount:  len(graph.Nodes),
		EdgeCount:  len(graph.Edges),
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		for i, n := range graph.Nodes {
			nm := NodeModel{
				InvestigationID: m.ID,
				NodeID:          n.ID,
				Kind:            string(n.Kind),
				Category:        n.Category,
				Label:           n.Label,
				Position:        i,
			}
			if err := tx.Create(&nm).Error; err != nil {
				return err
			}
			for j, a := range n.Attributes {
				am := NodeAttributeModel{
					NodeRowID:     nm.ID,
					Name:          a.Name,
					Term:          a.Term,
					Value:         a.Value,
					Unit:          a.Unit,
					TermSource:    a.TermSource,
					TermAccession: a.TermAccession,
					Position:      j,
				}
				if err := tx.Create(&am).Error; err != nil {
					return err
				}
			}
		}
		for i, e := range graph.Edges {
			em := EdgeModel{
				InvestigationID: m.ID,
				SourceID:        e.SourceID,
				TargetID:        e.TargetID,
				Relation:        e.Relation,
				Position:        i,
			}
			if err := tx.Create(&em).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ArchiveEntry{}, err
	}

	return entryFromModel(m), nil
}

func (r *ArchiveRepository) ListInvestigations(ctx context.Context, query string, limit int) ([]domain.ArchiveEntry, error) {
	q := r.db.WithContext(ctx).Model(&InvestigationModel{})
	if strings.TrimSpace(query) != "" {
		like := "%" + strings.TrimSpace(query) + "%"
		q = q.Where("title LIKE ? OR accession LIKE ?", like, like)
	}
	rows := make([]InvestigationModel, 0)
	if err := q.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ArchiveEntry, 0, len(rows))
	for _, m := range rows {
		result = append(result, entryFromModel(m))
	}
	return result, nil
}

func (r *ArchiveRepository) GetEntry(ctx context.Context, id uint) (domain.ArchiveEntry, error) {
	m, err := r.investigationByID(ctx, id)
	if err != nil {
		return domain.ArchiveEntry{}, err
	}
	return entryFromModel(m), nil
}

func (r *ArchiveRepository) GetInvestigation(ctx context.Context, id uint) (domain.Investigation, error) {
	m, err := r.investigationByID(ctx, id)
	if err != nil {
		return domain.Investigation{}, err
	}
	var inv domain.Investigation
	if err := json.Unmarshal([]byte(m.Document), &inv); err != nil {
		return domain.Investigation{}, fmt.Errorf("decode investigation %d: %w", id, err)
	}
	return inv, nil
}

func (r *ArchiveRepository) GetGraph(ctx context.Context, id uint) (domain.Graph, error) {
	if _, err := r.investigationByID(ctx, id); err != nil {
		return domain.Graph{}, err
	}

	nodeRows := make([]NodeModel, 0)
	if err := r.db.WithContext(ctx).
		Where("investigation_id = ?", id).
		Order("position ASC").
		Find(&nodeRows).Error; err != nil {
		return domain.Graph{}, err
	}

	rowIDs := make([]uint, 0, len(nodeRows))
	for _, nm := range nodeRows {
		rowIDs = append(rowIDs, nm.ID)
	}
	attrRows := make([]NodeAttributeModel, 0)
	if len(rowIDs) > 0 {
		if err := r.db.WithContext(ctx).
			Where("node_row_id IN ?", rowIDs).
			Order("node_row_id ASC, position ASC").
			Find(&attrRows).Error; err != nil {
			return domain.Graph{}, err
		}
	}
	attrsByRow := make(map[uint][]domain.Attribute, len(nodeRows))
	for _, am := range attrRows {
		attrsByRow[am.NodeRowID] = append(attrsByRow[am.NodeRowID], domain.Attribute{
			Name:          am.Name,
			Term:          am.Term,
			Value:         am.Value,
			Unit:          am.Unit,
			TermSource:    am.TermSource,
			TermAccession: am.TermAccession,
		})
	}

	nodes := make([]domain.Node, 0, len(nodeRows))
	for _, nm := range nodeRows {
		nodes = append(nodes, domain.Node{
			ID:         nm.NodeID,
			Kind:       domain.Kind(nm.Kind),
			Category:   nm.Category,
			Label:      nm.Label,
			Attributes: attrsByRow[nm.ID],
		})
	}

	edgeRows := make([]EdgeModel, 0)
	if err := r.db.WithContext(ctx).
		Where("investigation_id = ?", id).
		Order("position ASC").
		Find(&edgeRows).Error; err != nil {
		return domain.Graph{}, err
	}
	edges := make([]domain.Edge, 0, len(edgeRows))
	for _, em := range edgeRows {
		edges = append(edges, domain.Edge{SourceID: em.SourceID, TargetID: em.TargetID, Relation: em.Relation})
	}

	g := domain.Graph{Nodes: nodes, Edges: edges}
	g.Stats = domain.ComputeStats(nodes, edges)
	return g, nil
}

func (r *ArchiveRepository) DeleteInvestigation(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&NodeModel{}).Select("id").Where("investigation_id = ?", id)
		if err := tx.Where("node_row_id IN (?)", sub).Delete(&NodeAttributeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("investigation_id = ?", id).Delete(&NodeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("investigation_id = ?", id).Delete(&EdgeModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&InvestigationModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("investigation %d: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

func (r *ArchiveRepository) investigationByID(ctx context.Context, id uint) (InvestigationModel, error) {
	var m InvestigationModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvestigationModel{}, fmt.Errorf("investigation %d: %w", id, domain.ErrNotFound)
		}
		return InvestigationModel{}, err
	}
	return m, nil
}

func entryFromModel(m InvestigationModel) domain.ArchiveEntry {
	return domain.ArchiveEntry{
		ID:         m.ID,
		Accession:  m.Accession,
		Title:      m.Title,
		SourcePath: m.SourcePath,
		NodeCount:  m.NodeCount,
		EdgeCount:  m.EdgeCount,
		CreatedAt:  m.CreatedAt,
	}
}

// stripTables copies the investigation with node tables removed; the graph
// rows are stored relationally, so the document only carries metadata.
func stripTables(inv domain.Investigation) domain.Investigation {
	inv.Studies = append([]domain.Study(nil), inv.Studies...)
	for i := range inv.Studies {
		inv.Studies[i].Table = domain.NodeTable{File: inv.Studies[i].Table.File}
		inv.Studies[i].Assays = append([]domain.Assay(nil), inv.Studies[i].Assays...)
		for j := range inv.Studies[i].Assays {
			inv.Studies[i].Assays[j].Table = domain.NodeTable{File: inv.Studies[i].Assays[j].Table.File}
		}
	}
	return inv
}
