package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ruslano69/dataselector/pkg/config"
	"github.com/ruslano69/dataselector/pkg/session"

	_ "github.com/ruslano69/dataselector/pkg/database/mssql"
	_ "github.com/ruslano69/dataselector/pkg/database/mysql"
	_ "github.com/ruslano69/dataselector/pkg/database/odbc"
	_ "github.com/ruslano69/dataselector/pkg/database/postgres"
	_ "github.com/ruslano69/dataselector/pkg/database/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Parse flags
	flags := ParseFlags()

	// Handle version
	if *flags.Version {
		PrintVersion()
		os.Exit(0)
	}

	// Handle help
	if *flags.Help {
		PrintHelp()
		os.Exit(0)
	}

	// Handle config creation
	if *flags.CreateConfig != "" {
		createConfigTemplate(*flags.CreateConfig)
		return
	}

	if !commandWasSpecified(flags) {
		PrintHelp()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*flags.Config)
	if err != nil {
		fatal("Failed to load config: %v", err)
	}

	s, err := session.Open(ctx, cfg, log.Printf)
	if err != nil {
		fatal("Failed to open session: %v", err)
	}

	err = execute(ctx, s, flags)
	if cerr := s.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Warning: close: %v\n", cerr)
	}
	if err != nil {
		fatal("%v", err)
	}
}

// execute runs the requested actions in a fixed order: procedures, catalog,
// query assembly, save, inspection, run.
func execute(ctx context.Context, s *session.Session, flags *Flags) error {
	if *flags.ClearProc {
		if err := s.ClearSelectionProcedure(ctx); err != nil {
			return err
		}
		fmt.Println("✓ Selection cleared")
	}
	if *flags.SelectProc {
		if err := s.RunSelectionProcedure(ctx); err != nil {
			return err
		}
		fmt.Println("✓ Selection procedure completed")
	}

	if *flags.List {
		printList("table", s.Tables(ctx))
	}
	if *flags.Columns != "" {
		printList("column", s.Columns(ctx, *flags.Columns))
	}

	if *flags.Load != "" {
		if err := s.LoadQuery(ctx, *flags.Load); err != nil {
			return err
		}
		fmt.Printf("✓ Loaded query %s\n", s.DisplayName())
	}

	spec, err := ApplyQueryFlags(s.Spec(), flags, func(name string) (string, bool) {
		return s.ResolveTable(ctx, name)
	})
	if err != nil {
		return err
	}
	s.SetSpec(spec)

	if *flags.Save != "" {
		path := *flags.Save
		if path == "-" {
			path = ""
		}
		saved, err := s.SaveQuery(ctx, path)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Saved query to %s\n", saved)
	}

	if *flags.SQL {
		fmt.Println(s.SQL())
	}

	if *flags.Verify {
		if err := s.Verify(ctx); err != nil {
			return err
		}
		fmt.Println("✓ SQL is valid")
	}

	if *flags.Run {
		report, err := s.Run(ctx, *flags.Output)
		if report != nil && report.PublishErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: result log: %v\n", report.PublishErr)
		}
		if err != nil {
			return err
		}
		printReport(report)
	}

	return nil
}

func printList(kind string, items []string) {
	if len(items) == 0 {
		fmt.Printf("No %ss found\n", kind)
		return
	}
	fmt.Printf("Found %d %s(s):\n", len(items), kind)
	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, item)
	}
}

func printReport(report *session.RunReport) {
	res := report.Export
	fmt.Printf("✓ Exported %d row(s) as %s to %s\n", res.Rows, res.Format, res.Path)
	if res.NullGeometries > 0 {
		fmt.Printf("  %d row(s) written without geometry\n", res.NullGeometries)
	}
	for _, f := range res.Files[1:] {
		fmt.Printf("  + %s\n", f)
	}
	fmt.Printf("  XXH3: %s\n", res.Checksum)
	for _, loc := range report.Locations {
		fmt.Printf("✓ Uploaded %s\n", loc)
	}
}

// createConfigTemplate creates a sample configuration file
func createConfigTemplate(dbType string) {
	cfg := config.CreateSample(dbType)

	if err := config.Save("config.yaml", cfg); err != nil {
		fatal("Failed to save config: %v", err)
	}

	fmt.Printf("✓ Created sample %s config: config.yaml\n", dbType)
	fmt.Println("Edit the file with your connection settings and run:")
	fmt.Printf("  dataselector --list --config config.yaml\n")
}

// commandWasSpecified checks if any action was requested
func commandWasSpecified(flags *Flags) bool {
	return *flags.List ||
		*flags.Columns != "" ||
		*flags.Load != "" ||
		*flags.Save != "" ||
		*flags.SQL ||
		*flags.Verify ||
		*flags.Run ||
		*flags.SelectProc ||
		*flags.ClearProc
}

// fatal prints error and exits
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
