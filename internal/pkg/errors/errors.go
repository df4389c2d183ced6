package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, неверный пароль).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidArgument используется для неизвестных значений перечислений
	// (например, тип рейтинга). Проверяется до любого обращения к БД.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrExpiredToken используется, когда токен доступа истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (дубликат пользователя, нехватка монет).
	ErrConflict = errors.New("resource state conflict")
)
