// Package session holds the state of one query editing session and runs its operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruslano69/dataselector/pkg/audit"
	"github.com/ruslano69/dataselector/pkg/catalog"
	"github.com/ruslano69/dataselector/pkg/config"
	"github.com/ruslano69/dataselector/pkg/database"
	"github.com/ruslano69/dataselector/pkg/export"
	"github.com/ruslano69/dataselector/pkg/qsf"
	"github.com/ruslano69/dataselector/pkg/query"
	"github.com/ruslano69/dataselector/pkg/resultlog"
	"github.com/ruslano69/dataselector/pkg/retry"
	"github.com/ruslano69/dataselector/pkg/storage"
)

var (
	// ErrNoRows is returned by Run when the query produced no data; nothing is exported.
	ErrNoRows = errors.New("no data returned")
	// ErrNoProcedure is returned when the requested stored procedure is not configured.
	ErrNoProcedure = errors.New("stored procedure not configured")
)

// DefaultExportName is the file name used when neither a query name nor a table is known.
const DefaultExportName = "query"

// Publisher receives the outcome of every run.
type Publisher interface {
	Publish(ctx context.Context, result resultlog.RunResult) error
	Close() error
}

// Uploader copies exported files to remote storage.
type Uploader interface {
	Upload(ctx context.Context, files []string) ([]string, error)
}

// Options wires optional collaborators into a Session.
type Options struct {
	Logger    audit.Logger
	Publisher Publisher
	Uploader  Uploader
	// Retryer repeats uploads and result publication; nil runs them once.
	Retryer *retry.Retryer
	// Logf receives export warnings such as unparsable geometry.
	Logf func(format string, args ...any)
}

// Session is the explicit state behind the query editor: the current query,
// its display name and the connection it runs against.
type Session struct {
	cfg       *config.Config
	db        database.Database
	catalog   *catalog.Catalog
	logger    audit.Logger
	exporter  *export.Exporter
	publisher Publisher
	uploader  Uploader
	retryer   *retry.Retryer

	spec   query.Spec
	tables []string
	now    func() time.Time

	// catalogErr is the last failure reported by the catalog
	catalogErr error
}

// New creates a session over an open database.
func New(cfg *config.Config, db database.Database, opts Options) *Session {
	if cfg == nil {
		cfg = config.Defaults()
	}
	logger := opts.Logger
	if logger == nil {
		logger = audit.NewNullLogger()
	}

	s := &Session{
		cfg:       cfg,
		db:        db,
		catalog:   catalog.New(db),
		logger:    logger,
		publisher: opts.Publisher,
		uploader:  opts.Uploader,
		retryer:   opts.Retryer,
		now:       time.Now,
		exporter: export.New(export.Options{
			Compress:         cfg.Export.Compress,
			CompressionLevel: cfg.Export.CompressLevel,
			Logf:             opts.Logf,
		}),
	}
	s.catalog.OnError = func(op string, err error) {
		s.catalogErr = err
	}
	s.spec = s.emptySpec()
	return s
}

// Open connects to the configured database and builds the optional collaborators
// (session log file, Redis result log, S3 storage) from cfg.
func Open(ctx context.Context, cfg *config.Config, logf func(string, ...any)) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var appenders []audit.Appender
	if cfg.LogFilePath != "" {
		fa, err := audit.NewFileAppender(audit.FileAppenderConfig{
			FilePath: cfg.LogFilePath,
			Truncate: cfg.ClearLogFile,
		})
		if err != nil {
			return nil, err
		}
		appenders = append(appenders, fa)
	}
	appenders = append(appenders, audit.NewErrorAppender(os.Stderr))
	logger := audit.NewLogger(audit.LoggerConfig{DefaultUser: currentUser()}, appenders...)

	if logf == nil {
		logf = log.Printf
	}
	retryCfg := cfg.Retry
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logf("attempt %d failed: %v (retrying in %v)", attempt, err, delay)
	}
	retryer, err := retry.NewRetryer(retryCfg)
	if err != nil {
		logger.Close()
		return nil, err
	}

	var db *database.DB
	err = retryer.Do(ctx, func(ctx context.Context) error {
		var openErr error
		db, openErr = database.Open(ctx, database.Config{Type: cfg.Database.Type, DSN: cfg.Database.Connection})
		return openErr
	})
	if err != nil {
		logger.Close()
		return nil, err
	}

	opts := Options{Logger: logger, Retryer: retryer, Logf: logf}

	if cfg.Storage.Enabled {
		up, err := storage.NewS3Uploader(ctx, cfg.Storage)
		if err != nil {
			db.Close()
			logger.Close()
			return nil, err
		}
		opts.Uploader = up
	}
	if cfg.ResultLog.Enabled {
		opts.Publisher = resultlog.NewRedisPublisher(cfg.ResultLog)
	}

	return New(cfg, db, opts), nil
}

// Close releases the database, the result log and the session log.
func (s *Session) Close() error {
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	errs = append(errs, s.logger.Close())
	return errors.Join(errs...)
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Spec returns a copy of the current query.
func (s *Session) Spec() query.Spec {
	return s.spec
}

// SetSpec replaces the current query.
func (s *Session) SetSpec(spec query.Spec) {
	s.spec = spec
}

// DisplayName is the name of the last saved or loaded query file.
func (s *Session) DisplayName() string {
	return s.spec.DisplayName
}

// LogPath is the session log file, if any.
func (s *Session) LogPath() string {
	return s.cfg.LogFilePath
}

// SQL renders the current query.
func (s *Session) SQL() string {
	return s.spec.ToSQL()
}

func (s *Session) emptySpec() query.Spec {
	return query.Spec{Format: s.cfg.DefaultFormat}
}

// Clear resets every query part and the display name.
func (s *Session) Clear(ctx context.Context) {
	s.spec = s.emptySpec()
	s.log(ctx, audit.NewEntry(audit.OpClear, audit.StatusSuccess))
}

// Tables lists the selectable tables. An empty list may mean the database failed;
// the failure is in the session log.
func (s *Session) Tables(ctx context.Context) []string {
	s.catalogErr = nil
	tables := s.catalog.ListTables(ctx, s.cfg.ObjectsTable, s.cfg.IncludeWildcard, s.cfg.ExcludeWildcard, s.cfg.DatabaseSchema)
	s.tables = tables
	s.log(ctx, audit.NewEntry(audit.OpListTables, audit.StatusSuccess).
		WithResource(s.cfg.ObjectsTable).
		WithRows(len(tables)).
		WithError(s.catalogErr))
	return tables
}

// ResolveTable matches name against the selectable tables, case-insensitively,
// and returns its catalog spelling. The list is fetched on first use.
func (s *Session) ResolveTable(ctx context.Context, name string) (string, bool) {
	if s.tables == nil {
		s.Tables(ctx)
	}
	return qsf.MatchTables(s.tables)(name)
}

// Columns lists the selectable columns of table.
func (s *Session) Columns(ctx context.Context, table string) []string {
	s.catalogErr = nil
	columns := s.catalog.ListColumns(ctx, table)
	s.log(ctx, audit.NewEntry(audit.OpListColumns, audit.StatusSuccess).
		WithResource(table).
		WithRows(len(columns)).
		WithError(s.catalogErr))
	return columns
}

// ColumnsText renders the columns of table for the Fields box.
func (s *Session) ColumnsText(ctx context.Context, table string) string {
	return catalog.JoinColumns(s.Columns(ctx, table), s.cfg.LoadColumnsVertically)
}

// SaveQuery writes the current query to path. An empty path saves under
// default_query_path using the display name. Returns the written path.
func (s *Session) SaveQuery(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = s.DefaultQueryPath()
	}

	saved, err := qsf.SaveFile(path, s.spec)
	entry := audit.NewEntry(audit.OpSave, audit.StatusSuccess).WithResource(path).WithError(err)
	s.log(ctx, entry)
	if err != nil {
		return "", err
	}

	s.spec.DisplayName = qsf.DisplayName(saved)
	return saved, nil
}

// LoadQuery reads a .qsf file into the current query. Parts missing from the
// file keep their current values; the table is resolved against the catalog.
func (s *Session) LoadQuery(ctx context.Context, path string) error {
	spec := s.spec
	err := qsf.LoadFile(path, &spec, qsf.Options{ResolveTable: func(name string) (string, bool) {
		return s.ResolveTable(ctx, name)
	}})
	s.log(ctx, audit.NewEntry(audit.OpLoad, audit.StatusSuccess).WithResource(path).WithError(err))
	if err != nil {
		return err
	}

	s.spec = spec
	return nil
}

// Verify checks the current query against the database without running it.
func (s *Session) Verify(ctx context.Context) error {
	if err := s.spec.Validate(); err != nil {
		return err
	}

	statement := s.SQL()
	start := s.now()
	err := s.db.ValidateSyntax(ctx, statement, s.cfg.Timeout())
	s.log(ctx, audit.NewEntry(audit.OpValidate, audit.StatusSuccess).
		WithResource(s.spec.SourceTable()).
		WithStatement(statement).
		WithDuration(s.now().Sub(start)).
		WithError(err))
	if err != nil {
		return fmt.Errorf("SQL is not valid: %w", err)
	}
	return nil
}

// RunSelectionProcedure executes select_procedure.
func (s *Session) RunSelectionProcedure(ctx context.Context) error {
	return s.runProcedure(ctx, s.cfg.SelectProcedure, "select")
}

// ClearSelectionProcedure executes clear_procedure.
func (s *Session) ClearSelectionProcedure(ctx context.Context) error {
	return s.runProcedure(ctx, s.cfg.ClearProcedure, "clear")
}

func (s *Session) runProcedure(ctx context.Context, name, kind string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s procedure", ErrNoProcedure, kind)
	}

	start := s.now()
	err := s.db.RunProcedure(ctx, name)
	s.log(ctx, audit.NewEntry(audit.OpProcedure, audit.StatusSuccess).
		WithResource(name).
		WithDuration(s.now().Sub(start)).
		WithError(err))
	if err != nil {
		return fmt.Errorf("%s procedure %s failed: %w", kind, name, err)
	}
	return nil
}

// DefaultQueryPath is where SaveQuery writes when no path is given.
func (s *Session) DefaultQueryPath() string {
	return filepath.Join(s.cfg.DefaultQueryPath, s.baseName()+qsf.Extension)
}

// DefaultExportPath is where Run writes when no destination is given.
func (s *Session) DefaultExportPath(format query.Format) string {
	return filepath.Join(s.cfg.DefaultExtractPath, s.baseName()+format.Extension())
}

// baseName picks the display name, then the table, with illegal characters replaced.
func (s *Session) baseName() string {
	name := s.spec.DisplayName
	if name == "" {
		name = s.spec.SourceTable()
	}
	if name == "" {
		name = DefaultExportName
	}
	return export.SanitizeName(name)
}

func (s *Session) log(ctx context.Context, entry *audit.Entry) {
	// журнал не должен прерывать операцию
	_ = s.logger.Log(ctx, entry)
}

func currentUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(key); u != "" {
			return u
		}
	}
	return ""
}
