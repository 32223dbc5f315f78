// Package retry повторяет операции сессии, которые зависят от сети:
// подключение к БД, загрузку файлов и публикацию результата.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// RetryableFunc - функция которую можно повторить
type RetryableFunc func(ctx context.Context) error

// Retryer выполняет retry логику
type Retryer struct {
	config Config
	dlq    *DLQ
}

// NewRetryer создает новый Retryer
func NewRetryer(config Config) (*Retryer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	var dlq *DLQ
	if config.DeadLetterFile != "" {
		var err error
		dlq, err = NewDLQ(config.DeadLetterFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create dead letter file: %w", err)
		}
	}

	return &Retryer{
		config: config,
		dlq:    dlq,
	}, nil
}

// Do выполняет функцию с повторами
func (r *Retryer) Do(ctx context.Context, fn RetryableFunc) error {
	return r.do(ctx, fn, nil)
}

// DoWithData выполняет функцию с повторами и сохраняет data в dead letter файл при сбое
func (r *Retryer) DoWithData(ctx context.Context, fn RetryableFunc, data any) error {
	return r.do(ctx, fn, data)
}

func (r *Retryer) do(ctx context.Context, fn RetryableFunc, data any) error {
	if r == nil {
		return fn(ctx)
	}

	attempts := 0
	for {
		attempts++

		err := fn(ctx)
		if err == nil {
			return nil
		}

		failure := ""
		switch {
		case !r.config.Enabled:
			failure = "failed"
		case !r.isRetryableError(err):
			failure = "non_retryable"
			err = fmt.Errorf("non-retryable error: %w", err)
		case attempts >= r.config.MaxAttempts:
			failure = "max_attempts_exceeded"
			err = fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, err)
		case ctx.Err() != nil:
			failure = "context_cancelled"
			err = fmt.Errorf("context cancelled: %w", errors.Join(ctx.Err(), err))
		}
		if failure != "" {
			r.deadLetter(attempts, failure, err, data)
			return err
		}

		delay := r.calculateDelay(attempts)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempts, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			err = fmt.Errorf("context cancelled during retry: %w", errors.Join(ctx.Err(), err))
			r.deadLetter(attempts, "context_cancelled", err, data)
			return err
		}
	}
}

func (r *Retryer) deadLetter(attempts int, failure string, err error, data any) {
	if r.dlq == nil || data == nil {
		return
	}
	r.dlq.Add(DLQEntry{
		Timestamp:   time.Now(),
		Attempts:    attempts,
		LastError:   err.Error(),
		FailureType: failure,
		Data:        data,
	})
}

// calculateDelay вычисляет задержку для текущей попытки
func (r *Retryer) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.BackoffStrategy {
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)

	case BackoffExponential:
		multiplier := math.Pow(r.config.BackoffMultiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * multiplier)

	default:
		delay = r.config.InitialDelay
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter > 0 {
		jitter := time.Duration(float64(delay) * r.config.Jitter * (rand.Float64()*2 - 1))
		delay += jitter
		if delay < 0 {
			delay = r.config.InitialDelay
		}
	}

	return delay
}

// isRetryableError проверяет нужен ли повтор для ошибки
func (r *Retryer) isRetryableError(err error) bool {
	if len(r.config.RetryableErrors) == 0 {
		return true
	}

	errStr := err.Error()
	for _, pattern := range r.config.RetryableErrors {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// DeadLetters возвращает dead letter файл если он настроен
func (r *Retryer) DeadLetters() *DLQ {
	if r == nil {
		return nil
	}
	return r.dlq
}
