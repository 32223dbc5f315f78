package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Operation - тип операции сессии
type Operation string

const (
	OpLoad        Operation = "load"         // Загрузка .qsf
	OpSave        Operation = "save"         // Сохранение .qsf
	OpClear       Operation = "clear"        // Очистка запроса
	OpValidate    Operation = "validate"     // Проверка синтаксиса SQL
	OpExecute     Operation = "execute"      // Выполнение SELECT
	OpExport      Operation = "export"       // Запись результата в файл
	OpProcedure   Operation = "procedure"    // Вызов хранимой процедуры
	OpListTables  Operation = "list_tables"  // Чтение каталога таблиц
	OpListColumns Operation = "list_columns" // Чтение колонок таблицы
	OpUpload      Operation = "upload"       // Загрузка файлов в S3
	OpPublish     Operation = "publish"      // Публикация результата в Redis
)

// Status - статус выполнения операции
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusPartial Status = "partial"
)

// TimeLayout - формат времени в текстовом логе
const TimeLayout = "2006-01-02 15:04:05"

// Entry - запись в логе сессии
type Entry struct {
	// Timestamp - время операции
	Timestamp time.Time `json:"timestamp"`

	// Operation - тип операции
	Operation Operation `json:"operation"`

	// Status - статус выполнения
	Status Status `json:"status"`

	// User - пользователь
	User string `json:"user,omitempty"`

	// Resource - таблица, файл или процедура
	Resource string `json:"resource,omitempty"`

	// Statement - SQL текст
	Statement string `json:"statement,omitempty"`

	// Rows - количество строк
	Rows int64 `json:"rows,omitempty"`

	// Duration - длительность операции
	Duration time.Duration `json:"duration,omitempty"`

	// ErrorMessage - сообщение об ошибке
	ErrorMessage string `json:"error_message,omitempty"`

	// Metadata - дополнительные поля
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewEntry - создать новую запись
func NewEntry(operation Operation, status Status) *Entry {
	return &Entry{
		Timestamp: time.Now(),
		Operation: operation,
		Status:    status,
	}
}

// WithResource - установить ресурс
func (e *Entry) WithResource(resource string) *Entry {
	e.Resource = resource
	return e
}

// WithStatement - установить SQL текст
func (e *Entry) WithStatement(statement string) *Entry {
	e.Statement = statement
	return e
}

// WithRows - установить количество строк
func (e *Entry) WithRows(rows int) *Entry {
	e.Rows = int64(rows)
	return e
}

// WithDuration - установить длительность
func (e *Entry) WithDuration(duration time.Duration) *Entry {
	e.Duration = duration
	return e
}

// WithError - установить ошибку (статус меняется на failure)
func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.ErrorMessage = err.Error()
		e.Status = StatusFailure
	}
	return e
}

// WithMetadata - добавить поле
func (e *Entry) WithMetadata(key, value string) *Entry {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// ToJSON - преобразовать в JSON
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// String - строка текстового лога
//
//	2024-03-05 14:07:09 execute success resource=Parcels rows=12 duration=41ms
//	    SELECT * FROM Parcels
func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", e.Timestamp.Format(TimeLayout), e.Operation, e.Status)

	if e.User != "" {
		fmt.Fprintf(&b, " user=%s", e.User)
	}
	if e.Resource != "" {
		fmt.Fprintf(&b, " resource=%s", e.Resource)
	}
	if e.Rows > 0 {
		fmt.Fprintf(&b, " rows=%d", e.Rows)
	}
	if e.Duration > 0 {
		fmt.Fprintf(&b, " duration=%v", e.Duration.Round(time.Millisecond))
	}

	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, e.Metadata[k])
	}

	if e.ErrorMessage != "" {
		fmt.Fprintf(&b, " error=%q", e.ErrorMessage)
	}

	// SQL пишется с отступом, многострочный текст сохраняется как есть
	if e.Statement != "" {
		for _, line := range strings.Split(e.Statement, "\n") {
			b.WriteString("\n    ")
			b.WriteString(strings.TrimRight(line, "\r"))
		}
	}

	return b.String()
}
