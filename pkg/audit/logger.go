package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Logger - интерфейс журнала сессии
type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	Close() error
}

// AuditLogger - синхронный журнал сессии.
// Сессия выполняет одну операцию за раз, поэтому записи пишутся сразу.
type AuditLogger struct {
	mu        sync.RWMutex
	appenders []Appender
	config    LoggerConfig
	closed    bool
}

// LoggerConfig - конфигурация логгера
type LoggerConfig struct {
	// DefaultUser - пользователь по умолчанию (если не указан в entry)
	DefaultUser string

	// Now - источник времени (для тестов)
	Now func() time.Time

	// OnError - callback при ошибке записи
	OnError func(error)
}

// NewLogger - создать новый logger
func NewLogger(config LoggerConfig, appenders ...Appender) *AuditLogger {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &AuditLogger{
		appenders: appenders,
		config:    config,
	}
}

// Log - записать entry во все appenders
func (l *AuditLogger) Log(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry is nil")
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return fmt.Errorf("logger is closed")
	}

	// Устанавливаем timestamp если не установлен
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.config.Now()
	}
	if entry.User == "" {
		entry.User = l.config.DefaultUser
	}

	var errs []error
	for _, appender := range l.appenders {
		if err := appender.Append(ctx, entry); err != nil {
			errs = append(errs, err)
			l.handleError(fmt.Errorf("appender failed: %w", err))
		}
	}

	return errors.Join(errs...)
}

// LogSuccess - записать успешную операцию над ресурсом
func (l *AuditLogger) LogSuccess(ctx context.Context, operation Operation, resource string) *Entry {
	entry := &Entry{Operation: operation, Status: StatusSuccess, Resource: resource}
	l.Log(ctx, entry)
	return entry
}

// LogFailure - записать неудачную операцию над ресурсом
func (l *AuditLogger) LogFailure(ctx context.Context, operation Operation, resource string, err error) *Entry {
	entry := (&Entry{Operation: operation, Status: StatusFailure, Resource: resource}).WithError(err)
	l.Log(ctx, entry)
	return entry
}

// Flush - сбросить буферы appenders, которые это поддерживают
func (l *AuditLogger) Flush() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var errs []error
	for _, appender := range l.appenders {
		if flusher, ok := appender.(interface{ Flush() error }); ok {
			if err := flusher.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close - закрыть logger и все appenders
func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	for _, appender := range l.appenders {
		if err := appender.Close(); err != nil {
			errs = append(errs, err)
			l.handleError(fmt.Errorf("close failed: %w", err))
		}
	}
	return errors.Join(errs...)
}

// AddAppender - добавить appender
func (l *AuditLogger) AddAppender(appender Appender) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.appenders = append(l.appenders, appender)
}

// handleError - обработка ошибки
func (l *AuditLogger) handleError(err error) {
	if l.config.OnError != nil {
		l.config.OnError(err)
	}
}

// NullLogger - пустой logger (для тестов)
type NullLogger struct{}

// NewNullLogger - создать null logger
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

// Log - ничего не делает
func (nl *NullLogger) Log(ctx context.Context, entry *Entry) error {
	return nil
}

// Close - ничего не делает
func (nl *NullLogger) Close() error {
	return nil
}
