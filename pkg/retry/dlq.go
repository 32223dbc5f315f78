package retry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DLQEntry - запись о неудавшейся операции
type DLQEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error"`
	FailureType string    `json:"failure_type"` // max_attempts_exceeded, non_retryable, context_cancelled, failed
	Data        any       `json:"data,omitempty"`
}

// DLQ - файл с результатами, которые не удалось опубликовать.
// Записи переживают перезапуск и могут быть отправлены повторно.
type DLQ struct {
	mu      sync.Mutex
	path    string
	entries []DLQEntry
	counter int
}

// NewDLQ открывает dead letter файл, загружая существующие записи
func NewDLQ(path string) (*DLQ, error) {
	dlq := &DLQ{path: path}

	if _, err := os.Stat(path); err == nil {
		if err := dlq.load(); err != nil {
			return nil, err
		}
	}

	return dlq, nil
}

// Add добавляет запись и сразу сохраняет файл
func (d *DLQ) Add(entry DLQEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.counter++
	entry.ID = fmt.Sprintf("dlq-%d-%d", entry.Timestamp.Unix(), d.counter)
	d.entries = append(d.entries, entry)

	return d.saveUnsafe()
}

// Get возвращает копию всех записей
func (d *DLQ) Get() []DLQEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make([]DLQEntry, len(d.entries))
	copy(result, d.entries)
	return result
}

// Size возвращает количество записей
func (d *DLQ) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Clear очищает файл
func (d *DLQ) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = nil
	return d.saveUnsafe()
}

// Path - путь к файлу
func (d *DLQ) Path() string {
	return d.path
}

func (d *DLQ) saveUnsafe() error {
	entries := d.entries
	if entries == nil {
		entries = []DLQEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dead letters: %w", err)
	}

	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(d.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dead letter file: %w", err)
	}

	return nil
}

func (d *DLQ) load() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("failed to read dead letter file: %w", err)
	}

	var entries []DLQEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to unmarshal dead letters: %w", err)
	}

	d.entries = entries
	d.counter = len(entries)
	return nil
}
