package catalog

import (
	"errors"
	"fmt"
)

// Kind классифицирует причину неудачной загрузки каталога.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindUnavailable
	KindMalformed
)

var (
	// ErrNetwork соответствует сбою транспорта: таймаут, DNS, разрыв соединения.
	ErrNetwork = errors.New("network failure")
	// ErrUnavailable соответствует ответу сервиса с кодом вне диапазона 2xx.
	ErrUnavailable = errors.New("catalog service unavailable")
	// ErrMalformed соответствует ответу, который не удалось разобрать в список вариантов.
	ErrMalformed = errors.New("malformed catalog response")
)

// FetchError описывает ошибку загрузки каталога.
type FetchError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindUnavailable:
		return fmt.Sprintf("%s: status %d", ErrUnavailable, e.StatusCode)
	case KindNetwork:
		return fmt.Sprintf("%s: %v", ErrNetwork, e.Err)
	default:
		return fmt.Sprintf("%s: %v", ErrMalformed, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is позволяет сопоставлять ошибку с ErrNetwork, ErrUnavailable и ErrMalformed.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}
