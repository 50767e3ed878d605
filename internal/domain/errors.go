package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrMalformedUpload   = errors.New("archivo inválido")
)

// ValidationError error de validación asociado a un campo concreto.
// Err es ErrInvalidInput o ErrInsufficientStock; errors.Is funciona con ambos.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidInput
	}
	return e.Err
}

// Invalid construye un error de validación sobre field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message, Err: ErrInvalidInput}
}

// Insufficient construye un error de stock insuficiente sobre field.
func Insufficient(field, message string) error {
	return &ValidationError{Field: field, Message: message, Err: ErrInsufficientStock}
}

// Malformed marca un upload ilegible; se rechaza antes de procesar filas.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedUpload, fmt.Sprintf(format, args...))
}

// AsValidation extrae el ValidationError de la cadena, si existe.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
