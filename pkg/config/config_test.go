package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ruslano69/dataselector/pkg/query"
	"github.com/ruslano69/dataselector/pkg/retry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "dataselector.yaml", `
log_file_path: logs/ds.log
database:
  type: sqlite
  connection: gis.db
objects_table: SelectableObjects
default_format: shp
exclude_wildcard: "TMP_*|BAK_*"
validate_sql: true
load_columns_vertically: true
result_log:
  enabled: true
  address: localhost:6379
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Type != "sqlite" || cfg.Database.Connection != "gis.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.DefaultFormat != query.FormatSHP {
		t.Errorf("DefaultFormat = %v, want SHP", cfg.DefaultFormat)
	}
	if cfg.ExcludeWildcard != "TMP_*|BAK_*" || !cfg.ValidateSQL || !cfg.LoadColumnsVertically {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SQLTimeout != DefaultSQLTimeout {
		t.Errorf("SQLTimeout = %d, want default %d", cfg.SQLTimeout, DefaultSQLTimeout)
	}
	if cfg.Export.CompressLevel != 3 {
		t.Errorf("CompressLevel = %d, want default 3", cfg.Export.CompressLevel)
	}
	if !cfg.ResultLog.Enabled || cfg.ResultLog.Address != "localhost:6379" {
		t.Errorf("ResultLog = %+v", cfg.ResultLog)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_YAMLRetry(t *testing.T) {
	path := writeFile(t, "dataselector.yaml", `
database:
  type: mssql
  connection: sqlserver://localhost
objects_table: dbo.Objects
retry:
  enabled: true
  max_attempts: 5
  initial_delay: 250ms
  max_delay: 5s
  backoff: linear
  retryable_errors: ["timeout", "connection refused"]
  dead_letter_file: out/dead.json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	r := cfg.Retry
	if !r.Enabled || r.MaxAttempts != 5 || r.InitialDelay != 250*time.Millisecond || r.MaxDelay != 5*time.Second {
		t.Errorf("Retry = %+v", r)
	}
	if r.BackoffStrategy != "linear" || len(r.RetryableErrors) != 2 || r.DeadLetterFile != "out/dead.json" {
		t.Errorf("Retry = %+v", r)
	}
	// keys left out keep their defaults
	if r.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want default 2.0", r.BackoffMultiplier)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_YAMLUnknownFormat(t *testing.T) {
	path := writeFile(t, "bad.yaml", "default_format: PDF\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() with unknown default_format expected error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_LegacyXML(t *testing.T) {
	path := writeFile(t, "DataSelector.xml", `<?xml version="1.0" encoding="utf-8"?>
<Configuration>
  <DataSelector>
    <LogFilePath>C:\Logs\DataSelector.log</LogFilePath>
    <SQLConnection>DRIVER={SQL Server};SERVER=gis01;DATABASE=Cadastre</SQLConnection>
    <SelectStoredProcedure>dbo.usp_Select</SelectStoredProcedure>
    <ClearStoredProcedure>dbo.usp_Clear</ClearStoredProcedure>
    <DefaultExtractPath>C:\Extracts</DefaultExtractPath>
    <DefaultQueryPath>C:\Queries</DefaultQueryPath>
    <DefaultFormat>TXT</DefaultFormat>
    <DatabaseSchema>dbo</DatabaseSchema>
    <ObjectsTable>dbo.SelectableObjects</ObjectsTable>
    <IncludeWildcard>*</IncludeWildcard>
    <ExcludeWildcard>TMP_*</ExcludeWildcard>
    <LayerLocation>Extracts</LayerLocation>
    <DefaultClearLogFile>Y</DefaultClearLogFile>
    <DefaultOpenLogFile>No</DefaultOpenLogFile>
    <ValidateSQL>yes</ValidateSQL>
    <SQLTimeout>120</SQLTimeout>
    <LoadColumnsVertically>YES</LoadColumnsVertically>
  </DataSelector>
</Configuration>`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Type != LegacyDatabaseType {
		t.Errorf("Database.Type = %q", cfg.Database.Type)
	}
	if !strings.Contains(cfg.Database.Connection, "DATABASE=Cadastre") {
		t.Errorf("Connection = %q", cfg.Database.Connection)
	}
	if cfg.SelectProcedure != "dbo.usp_Select" || cfg.ClearProcedure != "dbo.usp_Clear" {
		t.Errorf("procedures = %q, %q", cfg.SelectProcedure, cfg.ClearProcedure)
	}
	if cfg.DefaultFormat != query.FormatTXT {
		t.Errorf("DefaultFormat = %v", cfg.DefaultFormat)
	}
	if cfg.ObjectsTable != "dbo.SelectableObjects" || cfg.DatabaseSchema != "dbo" {
		t.Errorf("ObjectsTable = %q schema = %q", cfg.ObjectsTable, cfg.DatabaseSchema)
	}
	if !cfg.ClearLogFile || cfg.OpenLogFile || !cfg.ValidateSQL || !cfg.LoadColumnsVertically {
		t.Errorf("flags = clear:%v open:%v validate:%v vertical:%v",
			cfg.ClearLogFile, cfg.OpenLogFile, cfg.ValidateSQL, cfg.LoadColumnsVertically)
	}
	if cfg.Timeout() != 120*time.Second {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
}

func TestParseXML_RootElement(t *testing.T) {
	cfg, err := ParseXML([]byte(`<DataSelector>
  <SQLConnection>dsn</SQLConnection>
  <ObjectsTable>Objects</ObjectsTable>
  <SQLTimeout>soon</SQLTimeout>
  <DefaultFormat>PDF</DefaultFormat>
</DataSelector>`))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}

	if cfg.Database.Connection != "dsn" || cfg.ObjectsTable != "Objects" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SQLTimeout != DefaultSQLTimeout {
		t.Errorf("unreadable SQLTimeout = %d, want %d", cfg.SQLTimeout, DefaultSQLTimeout)
	}
	if cfg.DefaultFormat != query.FormatUnset {
		t.Errorf("unknown DefaultFormat = %v, want unset", cfg.DefaultFormat)
	}
	if cfg.ValidateSQL || cfg.ClearLogFile {
		t.Error("missing flags must default to false")
	}
}

func TestParseXML_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "<DataSelector><SQLConnection>"},
		{"wrong root", "<Settings><Other/></Settings>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseXML([]byte(tt.data)); err == nil {
				t.Error("ParseXML() expected error")
			}
		})
	}
}

func TestYesNo(t *testing.T) {
	tests := map[string]bool{
		"Yes": true, "y": true, " YES ": true, "Y": true,
		"No": false, "n": false, "true": false, "": false, "1": false,
	}
	for in, want := range tests {
		if got := yesNo(in); got != want {
			t.Errorf("yesNo(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "dataselector.yaml")
	cfg := CreateSample("mssql")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "default_format: CSV") {
		t.Errorf("saved config should carry the format label:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Database != cfg.Database || loaded.ObjectsTable != cfg.ObjectsTable ||
		loaded.DefaultFormat != cfg.DefaultFormat || loaded.SelectProcedure != cfg.SelectProcedure {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestCreateSample(t *testing.T) {
	for _, dbType := range []string{"mssql", "sqlserver", "odbc", "postgres", "mysql", "sqlite"} {
		t.Run(dbType, func(t *testing.T) {
			cfg := CreateSample(dbType)
			if cfg.Database.Type != dbType {
				t.Errorf("Type = %q", cfg.Database.Type)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("sample config invalid: %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Defaults()
		cfg.Database = DatabaseConfig{Type: "sqlite", Connection: "x.db"}
		cfg.ObjectsTable = "Objects"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no type", func(c *Config) { c.Database.Type = "" }, "database.type"},
		{"no connection", func(c *Config) { c.Database.Connection = "" }, "database.connection"},
		{"no objects table", func(c *Config) { c.ObjectsTable = "" }, "objects_table"},
		{"negative timeout", func(c *Config) { c.SQLTimeout = -1 }, "sql_timeout"},
		{"result log without address", func(c *Config) { c.ResultLog.Enabled = true }, "result_log.address"},
		{"storage without url", func(c *Config) { c.Storage.Enabled = true }, "storage.url"},
		{"retry without attempts", func(c *Config) { c.Retry = retry.Config{Enabled: true} }, "max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	cfg := Defaults()
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("default Timeout() = %v", cfg.Timeout())
	}
	cfg.SQLTimeout = 0
	if cfg.Timeout() != 0 {
		t.Errorf("Timeout() with 0 = %v, want no deadline", cfg.Timeout())
	}
}
