package domain

import "github.com/shopspring/decimal"

// EntityCatalogEntry: имя сущности в ошибках.
const EntityCatalogEntry = "ProductOffering"

// CatalogEntry: товарное предложение, на которое ссылаются позиции заказа.
// Отдельного флага удаления нет: удаление снимает товар с продажи.
type CatalogEntry struct {
	ID           int64
	Name         string `validate:"notblank"`
	UnitPrice    decimal.Decimal
	SaleEligible bool
	State        CatalogState `validate:"known"`
}

// Validate проверяет payload товара перед созданием или обновлением.
func (e CatalogEntry) Validate() error {
	var extra []string
	if !e.UnitPrice.IsPositive() {
		extra = append(extra, "UnitPrice")
	}
	return validateStruct(e, extra...)
}

// Withdraw снимает товар с продажи. Используется как soft-delete.
func (e *CatalogEntry) Withdraw() {
	e.SaleEligible = false
}

// Overwrite переносит все изменяемые поля из payload.
func (e *CatalogEntry) Overwrite(src CatalogEntry) {
	e.Name = src.Name
	e.UnitPrice = src.UnitPrice
	e.SaleEligible = src.SaleEligible
	e.State = src.State
}

// SalesRow: строка отчёта о продажах по товару.
type SalesRow struct {
	EntryID  int64
	Name     string
	Quantity int64
}
