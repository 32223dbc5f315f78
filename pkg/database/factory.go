package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
)

// Dialect - поведение конкретной СУБД поверх database/sql
type Dialect interface {
	// DriverName - имя драйвера для sql.Open
	DriverName() string

	// ColumnsQuery - запрос списка колонок с одним параметром (имя таблицы)
	ColumnsQuery() string

	// ValidateStatement - проверка синтаксиса без выполнения на закрепленном соединении
	ValidateStatement(ctx context.Context, conn *sql.Conn, statement string) error

	// ProcedureStatement - SQL для вызова хранимой процедуры
	ProcedureStatement(name string) (string, error)
}

// Registry - реестр диалектов по типу СУБД
type Registry struct {
	dialects map[string]Dialect
	mu       sync.RWMutex
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		dialects: make(map[string]Dialect),
	}
}

// Register регистрирует диалект для типа СУБД
func (r *Registry) Register(dbType string, dialect Dialect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialects[dbType] = dialect
}

// Lookup возвращает диалект по типу СУБД
func (r *Registry) Lookup(dbType string) (Dialect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dialects[dbType]
	return d, ok
}

// Types возвращает отсортированный список зарегистрированных типов
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.dialects))
	for dbType := range r.dialects {
		types = append(types, dbType)
	}
	sort.Strings(types)
	return types
}

// Open открывает и проверяет подключение по конфигурации
func (r *Registry) Open(ctx context.Context, cfg Config) (*DB, error) {
	dialect, ok := r.Lookup(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("unknown database type: %s (available types: %v)", cfg.Type, r.Types())
	}

	db, err := sql.Open(dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Одно переиспользуемое соединение на сессию
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}

	return &DB{db: db, dialect: dialect, dbType: cfg.Type}, nil
}

// ========== Глобальный реестр ==========

var globalRegistry = NewRegistry()

// Register регистрирует диалект в глобальном реестре.
// Обычно вызывается из init() пакета диалекта.
func Register(dbType string, dialect Dialect) {
	globalRegistry.Register(dbType, dialect)
}

// RegisteredTypes возвращает типы из глобального реестра
func RegisteredTypes() []string {
	return globalRegistry.Types()
}

// Open открывает подключение через глобальный реестр
func Open(ctx context.Context, cfg Config) (*DB, error) {
	return globalRegistry.Open(ctx, cfg)
}
