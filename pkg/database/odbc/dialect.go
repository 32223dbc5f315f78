// Package odbc registers SQL Server access through an ODBC connection string,
// e.g. "DRIVER={ODBC Driver 18 for SQL Server};SERVER=gis01;DATABASE=GIS;Trusted_Connection=yes".
package odbc

import (
	_ "github.com/alexbrainman/odbc" // ODBC driver

	"github.com/ruslano69/dataselector/pkg/database"
	"github.com/ruslano69/dataselector/pkg/database/mssql"
)

// AdapterType is the registered type name.
const AdapterType = "odbc"

func init() {
	database.Register(AdapterType, mssql.NewDialect("odbc"))
}
