package main

import "fmt"

const version = "1.0.0"

// PrintVersion prints version information
func PrintVersion() {
	fmt.Printf("dataselector version %s\n", version)
	fmt.Println("DataSelector - GIS query authoring and export")
}

// PrintHelp prints comprehensive help information
func PrintHelp() {
	fmt.Println("DataSelector - compose SELECT queries over GIS tables and export the results")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Println("USAGE:")
	fmt.Println("  dataselector [options] [actions]")
	fmt.Println()

	fmt.Println("CATALOG:")
	fmt.Println("    --list                     List selectable tables (objects_table, wildcards applied)")
	fmt.Println("    --columns <table>          List columns of a table (geometry and style columns hidden)")
	fmt.Println()

	fmt.Println("QUERY:")
	fmt.Println("    --load <file.qsf>          Load a saved query; other query flags override it")
	fmt.Println("    --fields <list>            Column list (default: *)")
	fmt.Println("    --table <name>             Source table")
	fmt.Println("    --where <text>             WHERE clause")
	fmt.Println("    --group-by <text>          GROUP BY clause")
	fmt.Println("    --order-by <text>          ORDER BY clause")
	fmt.Println("    --format <CSV|TXT|SHP|XLSX> Output format (default: default_format)")
	fmt.Println("    --save <file.qsf>          Save the query (\"-\" saves under default_query_path)")
	fmt.Println()

	fmt.Println("ACTIONS:")
	fmt.Println("    --sql                      Print the SQL statement")
	fmt.Println("    --verify                   Check SQL syntax without running it")
	fmt.Println("    --run                      Execute and export")
	fmt.Println("    --output <path>            Export destination for --run")
	fmt.Println("    --clear-proc               Run clear_procedure")
	fmt.Println("    --select-proc              Run select_procedure")
	fmt.Println()

	fmt.Println("CONFIGURATION:")
	fmt.Println("    --config <file>            config.yaml or legacy DataSelector.xml (default: config.yaml)")
	fmt.Println("    --create-config <type>     Write sample config.yaml: mssql, odbc, postgres, mysql, sqlite")
	fmt.Println()

	fmt.Println("EXAMPLES:")
	fmt.Println("  dataselector --list")
	fmt.Println("  dataselector --table Parcels --where \"Area > 100\" --format SHP --run")
	fmt.Println("  dataselector --load queries/parcels.qsf --sql --verify")
	fmt.Println("  dataselector --table Roads --fields \"ID, Name\" --save -")
}
