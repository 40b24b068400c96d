// Command domesday imports the PASE Domesday landholders CSV export into a
// local SQLite database and queries the result.
//
// Usage:
//
//	domesday import <csv-file>
//	domesday search <query>
//	domesday query <sql>
//	domesday export [-o file]
//	domesday stats
//	domesday serve
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/opendomesday/domesday/internal/config"
	"github.com/opendomesday/domesday/internal/loader"
	"github.com/opendomesday/domesday/internal/logging"
	"github.com/opendomesday/domesday/internal/store"
	"github.com/opendomesday/domesday/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := run(cfg, st, os.Args[1], os.Args[2:]); err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, st *store.Store, cmd string, args []string) error {
	switch cmd {
	case "import":
		return runImport(cfg, st, args)
	case "search":
		return runSearch(st, args)
	case "query":
		return runQuery(st, args)
	case "export":
		return runExport(st, args)
	case "stats":
		return runStats(st, args)
	case "serve":
		return runServe(cfg, st)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: domesday <command> [arguments]

commands:
  import <csv-file>   import a landholders CSV export
  search <query>      full-text search over names and descriptions
  query <sql>         run a read query against the database
  export [-o file]    write all records as CSV
  stats               aggregate hide statistics
  serve               start the local HTTP API`)
}

func runImport(cfg *config.Config, st *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("import takes exactly one CSV file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Import.Timeout)
	defer cancel()

	res, err := loader.New(st).Load(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("imported %d of %d rows from %s in %s\n",
		res.Imported, res.TotalRows, res.Source, res.Duration.Round(time.Millisecond))
	for _, f := range res.Failed {
		fmt.Printf("  record %d skipped: %s\n", f.Record, f.Reason)
	}
	return nil
}

func runSearch(st *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("search takes exactly one query")
	}

	hits, err := st.Search(context.Background(), args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PASE NAME\tNAME\tDESCRIPTION")
	for _, h := range hits {
		name := ""
		if h.Name != nil {
			name = *h.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", h.PASEName, name, h.Description)
	}
	return tw.Flush()
}

func runQuery(st *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("query takes exactly one SQL statement")
	}

	res, err := st.Query(context.Background(), args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, col := range res.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)
	for _, row := range res.Rows {
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprintf(tw, "%v", v)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func runExport(st *store.Store, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	frame, err := st.Export(context.Background())
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return frame.WriteCSV(w)
}

func runStats(st *store.Store, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	gender := fs.String("gender", "", "restrict to one gender")
	if err := fs.Parse(args); err != nil {
		return err
	}

	frame, err := st.Export(context.Background())
	if err != nil {
		return err
	}
	if *gender != "" {
		frame = frame.FilterGender(*gender)
	}

	fmt.Printf("%d records\n", frame.Len())
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tSUM\tMEAN\tMIN\tMAX")
	for _, a := range frame.Aggregates() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Column, a.Sum, a.Mean, a.Min, a.Max)
	}
	return tw.Flush()
}

func runServe(cfg *config.Config, st *store.Store) error {
	server := web.NewServer(st, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr(), "db", cfg.Database.Path)
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
