package domain

import "errors"

var (
	// ErrSourceUnavailable: la consulta de precios falló (red, timeout, respuesta vacía o mal formada).
	ErrSourceUnavailable = errors.New("price source unavailable")

	// ErrInvalidAmount: el operador envió un monto que no es un decimal positivo.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidNumber: el operador envió un valor de configuración inválido.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrLedgerUnreadable: el ledger persistido falta o está corrupto. Se trata como ledger vacío.
	ErrLedgerUnreadable = errors.New("ledger unreadable")
)
