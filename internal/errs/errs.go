package errs

import "errors"

// Доменные ошибки. Хендлеры транслируют их в HTTP-ответы, сервисы и стор —
// только возвращают.
var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrInvalidTicketID = errors.New("invalid ticket ID format")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrLogNotFound     = errors.New("log entry not found")
)
