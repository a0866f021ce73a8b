package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound возвращается, если сущность отсутствует или помечена удалённой.
	ErrNotFound = errors.New("not found")
	// ErrNoSuchID сигнализирует, что внешний идентификатор не разрешился при создании.
	ErrNoSuchID = errors.New("no such id")
	// ErrNullID возвращается, если обязательный внешний идентификатор не передан.
	ErrNullID = errors.New("id is required")
	// ErrOwnershipMismatch: операция над адресом/заказом/тикетом вне контекста владельца.
	ErrOwnershipMismatch = errors.New("ownership mismatch")
	// ErrAlreadyExists: у пользователя уже есть живой клиент или у заказа живой тикет.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotForSale: позиция ссылается на товар, недоступный для продажи.
	ErrNotForSale = errors.New("not for sale")
	// ErrUnexpected оборачивает инфраструктурные сбои.
	ErrUnexpected = errors.New("unexpected error")
	// ErrInvalidArgument: payload не прошёл валидацию.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidCode: неизвестный код перечисления.
	ErrInvalidCode = errors.New("invalid enumeration code")
	// ErrOutboxPublish: ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// NotFoundError несёт тип сущности и идентификатор, который не удалось найти.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound создаёт ошибку отсутствующей сущности.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// NoSuchIDError описывает один или несколько неразрешённых внешних идентификаторов.
// Entities и IDs идут парами: Entities[i] <-> IDs[i].
type NoSuchIDError struct {
	Entities []string
	IDs      []int64
}

func (e *NoSuchIDError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("no value for id of %s: %s", strings.Join(e.Entities, "/"), strings.Join(ids, "/"))
}

func (e *NoSuchIDError) Is(target error) bool { return target == ErrNoSuchID }

// NoSuchID создаёт ошибку неразрешённого идентификатора одной сущности.
func NoSuchID(entity string, id int64) error {
	return &NoSuchIDError{Entities: []string{entity}, IDs: []int64{id}}
}

// NoSuchIDs создаёт составную ошибку для двух сущностей (например, клиент и адрес).
func NoSuchIDs(first, second string, firstID, secondID int64) error {
	return &NoSuchIDError{Entities: []string{first, second}, IDs: []int64{firstID, secondID}}
}

// NullIDError: обязательный идентификатор не задан.
type NullIDError struct {
	Entity string
}

func (e *NullIDError) Error() string {
	return fmt.Sprintf("id of %s must not be null", e.Entity)
}

func (e *NullIDError) Is(target error) bool { return target == ErrNullID }

// NullID создаёт ошибку отсутствующего идентификатора.
func NullID(entity string) error {
	return &NullIDError{Entity: entity}
}

// OwnershipError несёт человекочитаемое описание нарушения владения.
type OwnershipError struct {
	Message string
}

func (e *OwnershipError) Error() string { return e.Message }

func (e *OwnershipError) Is(target error) bool { return target == ErrOwnershipMismatch }

// OwnershipMismatch создаёт ошибку нарушения владения.
func OwnershipMismatch(message string) error {
	return &OwnershipError{Message: message}
}

// AlreadyExistsError: попытка создать второго живого клиента для пользователя
// (UserID) или второй живой тикет для заказа (OrderID).
type AlreadyExistsError struct {
	Entity  string
	UserID  int64
	OrderID int64
}

func (e *AlreadyExistsError) Error() string {
	if e.OrderID != 0 {
		return fmt.Sprintf("%s already exists for order %d", e.Entity, e.OrderID)
	}
	return fmt.Sprintf("%s already exists for user %d", e.Entity, e.UserID)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// NotForSaleError указывает товар, который нельзя продать.
type NotForSaleError struct {
	EntryID int64
}

func (e *NotForSaleError) Error() string {
	return fmt.Sprintf("catalog entry %d is not for sale", e.EntryID)
}

func (e *NotForSaleError) Is(target error) bool { return target == ErrNotForSale }

// NotForSale создаёт ошибку недоступного для продажи товара.
func NotForSale(entryID int64) error {
	return &NotForSaleError{EntryID: entryID}
}

// UnexpectedError оборачивает инфраструктурный сбой с исходным сообщением.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

func (e *UnexpectedError) Is(target error) bool { return target == ErrUnexpected }

// ValidationError перечисляет поля payload, не прошедшие проверку.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return "invalid argument: " + e.Reason
	}
	return "invalid argument: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// CodeError: неизвестный целочисленный код перечисления.
type CodeError struct {
	Enum string
	Code int
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("invalid %s code: %d", e.Enum, e.Code)
}

func (e *CodeError) Is(target error) bool { return target == ErrInvalidCode }

var domainKinds = []error{
	ErrNotFound,
	ErrNoSuchID,
	ErrNullID,
	ErrOwnershipMismatch,
	ErrAlreadyExists,
	ErrNotForSale,
	ErrInvalidArgument,
	ErrInvalidCode,
	ErrUnexpected,
}

// IsDomainError сообщает, относится ли ошибка к одному из доменных видов.
func IsDomainError(err error) bool {
	for _, kind := range domainKinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Unexpected оборачивает инфраструктурную ошибку. Доменные ошибки возвращаются без изменений,
// чтобы более точный вид не терялся при пробросе наверх.
func Unexpected(err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &UnexpectedError{Err: err}
}

// ErrorKind возвращает стабильную метку вида ошибки для метрик и логов.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoSuchID):
		return "no_such_id"
	case errors.Is(err, ErrNullID):
		return "null_id"
	case errors.Is(err, ErrOwnershipMismatch):
		return "ownership_mismatch"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotForSale):
		return "not_for_sale"
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrInvalidCode):
		return "invalid_argument"
	default:
		return "unexpected"
	}
}
