package config

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/ruslano69/dataselector/pkg/query"
)

// LegacyDatabaseType is assumed for DataSelector.xml, whose SQLConnection is an ODBC string.
const LegacyDatabaseType = "odbc"

// legacySettings mirrors the <DataSelector> element.
type legacySettings struct {
	LogFilePath           string `xml:"LogFilePath"`
	SQLConnection         string `xml:"SQLConnection"`
	SelectStoredProcedure string `xml:"SelectStoredProcedure"`
	ClearStoredProcedure  string `xml:"ClearStoredProcedure"`
	DefaultExtractPath    string `xml:"DefaultExtractPath"`
	DefaultQueryPath      string `xml:"DefaultQueryPath"`
	DefaultFormat         string `xml:"DefaultFormat"`
	DatabaseSchema        string `xml:"DatabaseSchema"`
	ObjectsTable          string `xml:"ObjectsTable"`
	IncludeWildcard       string `xml:"IncludeWildcard"`
	ExcludeWildcard       string `xml:"ExcludeWildcard"`
	LayerLocation         string `xml:"LayerLocation"`
	DefaultClearLogFile   string `xml:"DefaultClearLogFile"`
	DefaultOpenLogFile    string `xml:"DefaultOpenLogFile"`
	ValidateSQL           string `xml:"ValidateSQL"`
	SQLTimeout            string `xml:"SQLTimeout"`
	LoadColumnsVertically string `xml:"LoadColumnsVertically"`
}

// legacyDocument is any root element wrapping <DataSelector>.
type legacyDocument struct {
	DataSelector *legacySettings `xml:"DataSelector"`
}

// ParseXML reads the legacy DataSelector.xml layout. The <DataSelector>
// element may be the document root or a direct child of it.
func ParseXML(data []byte) (*Config, error) {
	var doc legacyDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := doc.DataSelector
	if settings == nil {
		var root struct {
			XMLName xml.Name
			legacySettings
		}
		if err := xml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if root.XMLName.Local != "DataSelector" {
			return nil, fmt.Errorf("failed to parse config file: no DataSelector element")
		}
		settings = &root.legacySettings
	}

	return settings.toConfig(), nil
}

func (s *legacySettings) toConfig() *Config {
	config := Defaults()
	config.LogFilePath = strings.TrimSpace(s.LogFilePath)
	config.Database = DatabaseConfig{
		Type:       LegacyDatabaseType,
		Connection: strings.TrimSpace(s.SQLConnection),
	}
	config.SelectProcedure = strings.TrimSpace(s.SelectStoredProcedure)
	config.ClearProcedure = strings.TrimSpace(s.ClearStoredProcedure)
	config.DefaultExtractPath = strings.TrimSpace(s.DefaultExtractPath)
	config.DefaultQueryPath = strings.TrimSpace(s.DefaultQueryPath)
	config.DefaultFormat, _ = query.ParseFormat(s.DefaultFormat)
	config.DatabaseSchema = strings.TrimSpace(s.DatabaseSchema)
	config.ObjectsTable = strings.TrimSpace(s.ObjectsTable)
	config.IncludeWildcard = strings.TrimSpace(s.IncludeWildcard)
	config.ExcludeWildcard = strings.TrimSpace(s.ExcludeWildcard)
	config.LayerLocation = strings.TrimSpace(s.LayerLocation)
	config.ClearLogFile = yesNo(s.DefaultClearLogFile)
	config.OpenLogFile = yesNo(s.DefaultOpenLogFile)
	config.ValidateSQL = yesNo(s.ValidateSQL)
	config.LoadColumnsVertically = yesNo(s.LoadColumnsVertically)

	if timeout, err := strconv.Atoi(strings.TrimSpace(s.SQLTimeout)); err == nil {
		config.SQLTimeout = timeout
	}

	return config
}

// yesNo accepts "Yes" and "Y" in any case; everything else is false.
func yesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true
	}
	return false
}
