package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ruslano69/dataselector/pkg/audit"
	"github.com/ruslano69/dataselector/pkg/export"
	"github.com/ruslano69/dataselector/pkg/query"
	"github.com/ruslano69/dataselector/pkg/resultlog"
)

// ErrNoFormat is returned by Run when neither the query nor the configuration names a format.
var ErrNoFormat = errors.New("no output format selected")

// RunReport is the outcome of a successful Run.
type RunReport struct {
	Statement string
	Export    *export.Result
	// Locations are the s3:// addresses of uploaded files.
	Locations []string
	// PublishErr is set when the result log could not be written; the run itself succeeded.
	PublishErr error
}

// Run executes the current query and exports its result to dest, or to
// DefaultExportPath when dest is empty. The outcome is published to the
// result log whether or not the run succeeded.
func (s *Session) Run(ctx context.Context, dest string) (*RunReport, error) {
	result := resultlog.RunResult{
		Query:     s.queryName(),
		Table:     s.spec.SourceTable(),
		Statement: s.SQL(),
		StartedAt: s.now(),
	}

	report, err := s.run(ctx, dest, &result)

	result.FinishedAt = s.now()
	result.DurationMs = result.FinishedAt.Sub(result.StartedAt).Milliseconds()
	result.SetError(err)

	if perr := s.publish(ctx, result); perr != nil && report != nil {
		report.PublishErr = perr
	}
	return report, err
}

func (s *Session) run(ctx context.Context, dest string, result *resultlog.RunResult) (*RunReport, error) {
	if err := s.spec.Validate(); err != nil {
		return nil, err
	}

	format := s.FormatOf()
	if !format.IsValid() {
		return nil, ErrNoFormat
	}
	result.Format = format.Label()

	if s.cfg.ValidateSQL {
		if err := s.Verify(ctx); err != nil {
			return nil, err
		}
	}

	statement := s.SQL()
	start := s.now()
	data, err := s.db.Execute(ctx, statement)
	s.log(ctx, audit.NewEntry(audit.OpExecute, audit.StatusSuccess).
		WithResource(s.spec.SourceTable()).
		WithStatement(statement).
		WithRows(data.RowCount()).
		WithDuration(s.now().Sub(start)).
		WithError(err))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if data.RowCount() == 0 {
		return nil, ErrNoRows
	}

	if strings.TrimSpace(dest) == "" {
		dest = s.DefaultExportPath(format)
	}

	start = s.now()
	res, err := s.exporter.Export(format, data.Headers, data.Rows, dest)
	entry := audit.NewEntry(audit.OpExport, audit.StatusSuccess).
		WithResource(dest).
		WithMetadata("format", format.Label()).
		WithDuration(s.now().Sub(start)).
		WithError(err)
	if res != nil {
		entry.WithResource(res.Path).WithRows(res.Rows).WithMetadata("checksum", res.Checksum)
		if res.NullGeometries > 0 {
			entry.Status = audit.StatusPartial
			entry.WithMetadata("null_geometries", fmt.Sprint(res.NullGeometries))
		}
	}
	s.log(ctx, entry)
	if err != nil {
		return nil, err
	}

	result.Rows = res.Rows
	result.Files = res.Files
	result.Checksum = res.Checksum
	report := &RunReport{Statement: statement, Export: res}

	if s.uploader != nil {
		var locations []string
		err := s.retryer.Do(ctx, func(ctx context.Context) error {
			var err error
			locations, err = s.uploader.Upload(ctx, res.Files)
			return err
		})
		s.log(ctx, audit.NewEntry(audit.OpUpload, audit.StatusSuccess).
			WithResource(res.Path).
			WithRows(len(locations)).
			WithError(err))
		if err != nil {
			return report, fmt.Errorf("upload failed: %w", err)
		}
		report.Locations = locations
		if len(locations) > 0 {
			result.Location = locations[0]
		}
	}

	return report, nil
}

func (s *Session) publish(ctx context.Context, result resultlog.RunResult) error {
	if s.publisher == nil {
		return nil
	}
	err := s.retryer.DoWithData(ctx, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, result)
	}, result)
	s.log(ctx, audit.NewEntry(audit.OpPublish, audit.StatusSuccess).
		WithResource(result.Query).
		WithError(err))
	return err
}

// queryName identifies the query in the result log.
func (s *Session) queryName() string {
	if s.spec.DisplayName != "" {
		return s.spec.DisplayName
	}
	if t := s.spec.SourceTable(); t != "" {
		return t
	}
	return DefaultExportName
}

// FormatOf returns the format Run would use.
func (s *Session) FormatOf() query.Format {
	if s.spec.Format.IsValid() {
		return s.spec.Format
	}
	return s.cfg.DefaultFormat
}
