package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileAppender - запись лога сессии в файл
type FileAppender struct {
	mu         sync.Mutex
	file       *os.File
	filePath   string
	formatJSON bool
}

// FileAppenderConfig - конфигурация file appender
type FileAppenderConfig struct {
	FilePath string

	// Truncate - очистить файл при открытии (clear_log_file)
	Truncate bool

	// FormatJSON - JSON строки вместо текста
	FormatJSON bool
}

// NewFileAppender - создать file appender
func NewFileAppender(config FileAppenderConfig) (*FileAppender, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("log file path is empty")
	}

	// Создаем директорию если не существует
	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if config.Truncate {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(config.FilePath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &FileAppender{
		file:       file,
		filePath:   config.FilePath,
		formatJSON: config.FormatJSON,
	}, nil
}

// Append - записать entry в файл
func (fa *FileAppender) Append(ctx context.Context, entry *Entry) error {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.file == nil {
		return fmt.Errorf("log file %s is closed", fa.filePath)
	}

	data, err := render(entry, fa.formatJSON)
	if err != nil {
		return err
	}

	if _, err := fa.file.Write(data); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

// Close - закрыть файл
func (fa *FileAppender) Close() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.file == nil {
		return nil
	}
	err := fa.file.Close()
	fa.file = nil
	return err
}

// Flush - сбросить данные на диск
func (fa *FileAppender) Flush() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.file != nil {
		return fa.file.Sync()
	}
	return nil
}

// FilePath - путь к файлу
func (fa *FileAppender) FilePath() string {
	return fa.filePath
}

// WriterAppender - запись в io.Writer (консоль, буфер в тестах)
type WriterAppender struct {
	mu         sync.Mutex
	w          io.Writer
	formatJSON bool
	onlyErrors bool
}

// NewWriterAppender - создать writer appender
func NewWriterAppender(w io.Writer, formatJSON bool) *WriterAppender {
	return &WriterAppender{w: w, formatJSON: formatJSON}
}

// NewErrorAppender - writer appender только для неудачных операций
func NewErrorAppender(w io.Writer) *WriterAppender {
	return &WriterAppender{w: w, onlyErrors: true}
}

// Append - записать entry
func (wa *WriterAppender) Append(ctx context.Context, entry *Entry) error {
	if wa.onlyErrors && entry.Status != StatusFailure {
		return nil
	}

	data, err := render(entry, wa.formatJSON)
	if err != nil {
		return err
	}

	wa.mu.Lock()
	defer wa.mu.Unlock()
	_, err = wa.w.Write(data)
	return err
}

// Close - writer принадлежит вызывающему, ничего не закрываем
func (wa *WriterAppender) Close() error {
	return nil
}

// NullAppender - пустой appender (для тестов)
type NullAppender struct{}

// NewNullAppender - создать null appender
func NewNullAppender() *NullAppender {
	return &NullAppender{}
}

// Append - ничего не делает
func (na *NullAppender) Append(ctx context.Context, entry *Entry) error {
	return nil
}

// Close - ничего не делает
func (na *NullAppender) Close() error {
	return nil
}

func render(entry *Entry, formatJSON bool) ([]byte, error) {
	if formatJSON {
		data, err := entry.ToJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entry: %w", err)
		}
		return append(data, '\n'), nil
	}
	return []byte(entry.String() + "\n"), nil
}
