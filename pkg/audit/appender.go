package audit

import (
	"context"
	"errors"
)

// Appender - интерфейс для записи лога
type Appender interface {
	// Append - записать entry
	Append(ctx context.Context, entry *Entry) error

	// Close - закрыть appender
	Close() error
}

// MultiAppender - запись в несколько appenders
type MultiAppender struct {
	appenders []Appender
}

// NewMultiAppender - создать multi appender
func NewMultiAppender(appenders ...Appender) *MultiAppender {
	return &MultiAppender{
		appenders: appenders,
	}
}

// Append - записать во все appenders, ошибки собираются
func (ma *MultiAppender) Append(ctx context.Context, entry *Entry) error {
	var errs []error

	for _, appender := range ma.appenders {
		if err := appender.Append(ctx, entry); err != nil {
			// Продолжаем записывать в остальные appenders
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close - закрыть все appenders
func (ma *MultiAppender) Close() error {
	var errs []error

	for _, appender := range ma.appenders {
		if err := appender.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Add - добавить appender
func (ma *MultiAppender) Add(appender Appender) {
	ma.appenders = append(ma.appenders, appender)
}
