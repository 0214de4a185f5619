package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/itmat/isareport/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// printWarnings writes non-fatal parse and merge warnings to stderr so they
// never pollute piped JSON output.
func printWarnings(warnings []domain.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func printEntry(entry domain.ArchiveEntry) {
	printKV([][2]string{
		{"id", strconv.FormatUint(uint64(entry.ID), 10)},
		{"accession", entry.Accession},
		{"title", entry.Title},
		{"source", entry.SourcePath},
		{"nodes", strconv.Itoa(entry.NodeCount)},
		{"edges", strconv.Itoa(entry.EdgeCount)},
		{"imported_at", formatTime(entry.CreatedAt)},
	})
}

func printEntries(entries []domain.ArchiveEntry) {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(entry.ID), 10),
			entry.Accession,
			entry.Title,
			strconv.Itoa(entry.NodeCount),
			strconv.Itoa(entry.EdgeCount),
			formatTime(entry.CreatedAt),
		})
	}
	printTable([]string{"ID", "ACCESSION", "TITLE", "NODES", "EDGES", "IMPORTED_AT"}, rows)
}

func printInvestigation(inv domain.Investigation) {
	printKV([][2]string{
		{"accession", inv.Accession()},
		{"title", inv.Title()},
		{"source", inv.SourcePath},
		{"studies", strconv.Itoa(len(inv.Studies))},
	})
	for _, study := range inv.Studies {
		fmt.Println()
		rows := [][2]string{
			{"study", study.Identifier()},
			{"title", study.Title()},
			{"file", study.File()},
			{"factors", strconv.Itoa(len(study.Factors))},
			{"protocols", strconv.Itoa(len(study.Protocols))},
		}
		for _, assay := range study.Assays {
			rows = append(rows, [2]string{"assay", assay.File()})
		}
		printKV(rows)
	}
}

func printGraph(graph domain.Graph) {
	printKV([][2]string{
		{"nodes", strconv.Itoa(graph.Stats.NodeCount)},
		{"edges", strconv.Itoa(graph.Stats.EdgeCount)},
	})
	fmt.Println()

	rows := make([][]string, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		rows = append(rows, []string{n.ID, string(n.Kind), n.Category, n.Label})
	}
	printTable([]string{"ID", "KIND", "CATEGORY", "LABEL"}, rows)

	if len(graph.Edges) == 0 {
		return
	}
	fmt.Println()
	edgeRows := make([][]string, 0, len(graph.Edges))
	for _, e := range graph.Edges {
		edgeRows = append(edgeRows, []string{e.SourceID, e.Relation, e.TargetID})
	}
	printTable([]string{"SOURCE", "RELATION", "TARGET"}, edgeRows)
}
