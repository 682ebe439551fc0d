package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда личность вызывающего не установлена
	// или у аккаунта нет прав на ресурс (чужой приватный банк, не участник класса).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется для действий, закрытых ролью
	// (административные операции).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных
	// (размер выборки больше банка, недостаточно дистракторов для типа вопроса).
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния игры
	// (старт не из created, повторный join после завершения записи).
	ErrConflict = errors.New("resource state conflict")

	// ErrTimeExpired используется, когда ответ пришел после персонального
	// лимита времени (record.Created + game.Duration).
	ErrTimeExpired = errors.New("time limit expired")
)
