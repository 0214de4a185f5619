package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sqliteadapter "github.com/itmat/isareport/internal/adapters/db/sqlite"
	httpadapter "github.com/itmat/isareport/internal/adapters/http"
	"github.com/itmat/isareport/internal/adapters/isatab"
	"github.com/itmat/isareport/internal/adapters/report"
	rpcadapter "github.com/itmat/isareport/internal/adapters/rpcjson"
	"github.com/itmat/isareport/internal/application"
	"github.com/itmat/isareport/internal/domain"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "isareport",
		Usage: "ISA-TAB report generator, graph builder and archive",
		Commands: []*cli.Command{
			renderCommand(),
			inspectCommand(),
			graphCommand(),
			archiveCommand(),
			serveCommand(),
			queryCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.SetFlags(0)
		log.Print(err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error families onto distinct process exit codes so that
// pipelines can tell malformed input apart from an incoherent graph.
func exitCode(err error) int {
	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) {
		return 2
	}
	var integrityErr *domain.IntegrityError
	if errors.As(err, &integrityErr) {
		return 3
	}
	return 1
}

// parseAndBuild runs the full pipeline against an ISA-TAB directory.
func parseAndBuild(path, onConflict string) (domain.Investigation, domain.Graph, error) {
	policy, err := domain.ParseMergePolicy(onConflict)
	if err != nil {
		return domain.Investigation{}, domain.Graph{}, err
	}
	inv, warnings, err := isatab.Parse(path)
	if err != nil {
		return domain.Investigation{}, domain.Graph{}, err
	}
	service := application.NewReportService(nil)
	graph, buildWarnings, err := service.BuildGraph(inv, policy)
	printWarnings(append(warnings, buildWarnings...))
	if err != nil {
		return domain.Investigation{}, domain.Graph{}, err
	}
	return inv, graph, nil
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Parse an ISA-TAB directory and write an HTML report bundle",
		ArgsUsage: "<isatab-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "report", Usage: "output directory for the bundle"},
			&cli.StringFlag{Name: "on-conflict", Value: "keep-last", Usage: "merge policy: keep-last, keep-first, reject"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return errors.New("isatab directory argument is required")
			}
			inv, graph, err := parseAndBuild(path, c.String("on-conflict"))
			if err != nil {
				return err
			}
			out := c.String("out")
			if err := report.WriteBundle(out, inv, graph); err != nil {
				return err
			}
			fmt.Printf("wrote %s and %s\n", filepath.Join(out, "index.html"), filepath.Join(out, "graph.json"))
			return nil
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Parse an ISA-TAB directory and print its metadata",
		ArgsUsage: "<isatab-dir>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return errors.New("isatab directory argument is required")
			}
			inv, warnings, err := isatab.Parse(path)
			printWarnings(warnings)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(inv)
			}
			printInvestigation(inv)
			return nil
		},
	}
}

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "Parse an ISA-TAB directory and print the assembled graph",
		ArgsUsage: "<isatab-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "on-conflict", Value: "keep-last", Usage: "merge policy: keep-last, keep-first, reject"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return errors.New("isatab directory argument is required")
			}
			_, graph, err := parseAndBuild(path, c.String("on-conflict"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(graph)
			}
			printGraph(graph)
			return nil
		},
	}
}

func archiveCommand() *cli.Command {
	dbFlag := &cli.StringFlag{Name: "db-path", Value: "isareport.db", Usage: "SQLite database path"}
	return &cli.Command{
		Name:  "archive",
		Usage: "Manage the local investigation archive",
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Parse an ISA-TAB directory and store it in the archive",
				ArgsUsage: "<isatab-dir>",
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{Name: "on-conflict", Value: "keep-last", Usage: "merge policy: keep-last, keep-first, reject"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					path := c.Args().First()
					if path == "" {
						return errors.New("isatab directory argument is required")
					}
					inv, graph, err := parseAndBuild(path, c.String("on-conflict"))
					if err != nil {
						return err
					}
					service, err := openArchiveService(ctx, c.String("db-path"))
					if err != nil {
						return err
					}
					entry, err := service.ImportInvestigation(ctx, inv, graph)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(entry)
					}
					printEntry(entry)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List archived investigations",
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{Name: "q", Usage: "filter by title or accession"},
					&cli.IntFlag{Name: "limit", Value: 100},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					service, err := openArchiveService(ctx, c.String("db-path"))
					if err != nil {
						return err
					}
					entries, err := service.ListInvestigations(ctx, c.String("q"), int(c.Int("limit")))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(entries)
					}
					printEntries(entries)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Show one archived investigation",
				Flags: []cli.Flag{
					dbFlag,
					&cli.UintFlag{Name: "id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					service, err := openArchiveService(ctx, c.String("db-path"))
					if err != nil {
						return err
					}
					inv, err := service.GetInvestigation(ctx, uint(c.Uint("id")))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(inv)
					}
					printInvestigation(inv)
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "Render an archived investigation into an HTML report bundle",
				Flags: []cli.Flag{
					dbFlag,
					&cli.UintFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "out", Value: "report", Usage: "output directory for the bundle"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					service, err := openArchiveService(ctx, c.String("db-path"))
					if err != nil {
						return err
					}
					id := uint(c.Uint("id"))
					inv, err := service.GetInvestigation(ctx, id)
					if err != nil {
						return err
					}
					graph, err := service.GetGraph(ctx, id)
					if err != nil {
						return err
					}
					out := c.String("out")
					if err := report.WriteBundle(out, inv, graph); err != nil {
						return err
					}
					fmt.Printf("wrote %s and %s\n", filepath.Join(out, "index.html"), filepath.Join(out, "graph.json"))
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete an archived investigation",
				Flags: []cli.Flag{
					dbFlag,
					&cli.UintFlag{Name: "id", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					service, err := openArchiveService(ctx, c.String("db-path"))
					if err != nil {
						return err
					}
					if err := service.DeleteInvestigation(ctx, uint(c.Uint("id"))); err != nil {
						return err
					}
					fmt.Printf("deleted investigation %d\n", uint(c.Uint("id")))
					return nil
				},
			},
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP and JSON-RPC servers over the archive",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "rpc-socket", Value: "/tmp/isareport.sock", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "db-path", Value: "isareport.db", Usage: "SQLite database path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, c.String("addr"), c.String("rpc-socket"), c.String("db-path"))
		},
	}
}

func runServer(ctx context.Context, addr, rpcSocket, dbPath string) error {
	service, err := openArchiveService(ctx, dbPath)
	if err != nil {
		return err
	}

	router := httpadapter.NewRouter(service, report.NewRenderer())
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(rpcSocket, service)
	if err != nil {
		return err
	}

	defer func() {
		_ = rpcSrv.Close()
	}()
	log.Printf("json-rpc listening on unix://%s", rpcSocket)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openArchiveService(ctx context.Context, dbPath string) (*application.ReportService, error) {
	db, err := sqliteadapter.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return nil, err
	}
	return application.NewReportService(sqliteadapter.NewArchiveRepository(db)), nil
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Query a running server",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Store the transport settings used by query commands",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds", Usage: "uds or http"},
					&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8080"},
					&cli.StringFlag{Name: "socket", Value: "/tmp/isareport.sock"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					transport := c.String("transport")
					if transport != "uds" && transport != "http" {
						return fmt.Errorf("unknown transport %q (valid: uds, http)", transport)
					}
					cfg := cliConfig{Transport: transport, Server: c.String("server"), Socket: c.String("socket")}
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("config saved")
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List archived investigations on the server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q"},
					&cli.IntFlag{Name: "limit", Value: 100},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.ArchiveEntry
					if err := doArchiveList(ctx, cfg, c.String("q"), int(c.Int("limit")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printEntries(out)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Show one archived investigation from the server",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Investigation
					if err := doArchiveShow(ctx, cfg, uint(c.Uint("id")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printInvestigation(out)
					return nil
				},
			},
			{
				Name:  "graph",
				Usage: "Fetch the graph of one archived investigation from the server",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Graph
					if err := doArchiveGraph(ctx, cfg, uint(c.Uint("id")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printGraph(out)
					return nil
				},
			},
		},
	}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
