package sqlite

import "time"

type InvestigationModel struct {
	ID         uint   `gorm:"primaryKey"`
	Accession  string `gorm:"index"`
	Title      string
	SourcePath string
	// Document is the investigation record (metadata, studies, assays)
	// serialized as JSON, without the node tables.
	Document  string
	NodeCount int
	EdgeCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (InvestigationModel) TableName() string { return "investigations" }

type NodeModel struct {
	ID              uint   `gorm:"primaryKey"`
	InvestigationID uint   `gorm:"not null;index"`
	NodeID          string `gorm:"not null;index"`
	Kind            string `gorm:"not null"`
	Category        string `gorm:"not null"`
	Label           string `gorm:"not null"`
	Position        int    `gorm:"not null"`
	CreatedAt       time.Time
}

func (NodeModel) TableName() string { return "graph_nodes" }

type NodeAttributeModel struct {
	ID            uint `gorm:"primaryKey"`
	NodeRowID     uint `gorm:"not null;index"`
	Name          string
	Term          string
	Value         string
	Unit          string
	TermSource    string
	TermAccession string
	Position      int `gorm:"not null"`
}

func (NodeAttributeModel) TableName() string { return "node_attributes" }

type EdgeModel struct {
	ID              uint   `gorm:"primaryKey"`
	InvestigationID uint   `gorm:"not null;index"`
	SourceID        string `gorm:"not null"`
	TargetID        string `gorm:"not null"`
	Relation        string `gorm:"not null"`
	Position        int    `gorm:"not null"`
	CreatedAt       time.Time
}

func (EdgeModel) TableName() string { return "graph_edges" }
