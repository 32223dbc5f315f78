package main

import "flag"

// Flags holds all command-line flags
type Flags struct {
	// Catalog
	List    *bool
	Columns *string

	// Query parts
	Fields  *string
	Table   *string
	Where   *string
	GroupBy *string
	OrderBy *string
	Format  *string

	// Query files
	Load *string
	Save *string

	// Actions
	SQL        *bool
	Verify     *bool
	Run        *bool
	SelectProc *bool
	ClearProc  *bool

	// Options
	Config *string
	Output *string

	// Config Creation
	CreateConfig *string

	// Misc
	Version *bool
	Help    *bool

	// set records which flags appeared on the command line
	set map[string]bool
}

// ParseFlags defines and parses all command-line flags
func ParseFlags() *Flags {
	f := defineFlags(flag.CommandLine)
	flag.Parse()
	f.collectSet(flag.CommandLine)
	return f
}

func defineFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}

	// Catalog
	f.List = fs.Bool("list", false, "List selectable tables")
	f.Columns = fs.String("columns", "", "List selectable columns of a table")

	// Query parts
	f.Fields = fs.String("fields", "", "Comma separated column list (empty: *)")
	f.Table = fs.String("table", "", "Source table")
	f.Where = fs.String("where", "", "WHERE clause text")
	f.GroupBy = fs.String("group-by", "", "GROUP BY clause text")
	f.OrderBy = fs.String("order-by", "", "ORDER BY clause text")
	f.Format = fs.String("format", "", "Output format: CSV, TXT, SHP, XLSX")

	// Query files
	f.Load = fs.String("load", "", "Load query from .qsf file")
	f.Save = fs.String("save", "", "Save query to .qsf file (\"-\" uses default_query_path)")

	// Actions
	f.SQL = fs.Bool("sql", false, "Print the SQL statement")
	f.Verify = fs.Bool("verify", false, "Check SQL syntax against the database")
	f.Run = fs.Bool("run", false, "Execute the query and export the result")
	f.SelectProc = fs.Bool("select-proc", false, "Run the configured selection procedure")
	f.ClearProc = fs.Bool("clear-proc", false, "Run the configured clear procedure")

	// Options
	f.Config = fs.String("config", "config.yaml", "Configuration file path (.yaml or legacy .xml)")
	f.Output = fs.String("output", "", "Export destination (default: default_extract_path/<name>.<ext>)")

	// Config Creation
	f.CreateConfig = fs.String("create-config", "", "Create sample config.yaml for a database type")

	// Misc
	f.Version = fs.Bool("version", false, "Show version information")
	f.Help = fs.Bool("help", false, "Show detailed help")

	return f
}

func (f *Flags) collectSet(fs *flag.FlagSet) {
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
}

// IsSet reports whether name was given on the command line.
func (f *Flags) IsSet(name string) bool {
	return f.set[name]
}
