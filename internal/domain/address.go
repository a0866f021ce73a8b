package domain

// EntityAddress: имя сущности в ошибках.
const EntityAddress = "Address"

// Address: почтовый адрес, принадлежащий ровно одному клиенту.
type Address struct {
	ID           int64
	Street       string      `validate:"notblank"`
	HouseNumber  int         `validate:"gt=0"`
	Neighborhood string      `validate:"notblank"`
	ZipCode      int         `validate:"gt=0"`
	Country      string      `validate:"notblank"`
	Type         AddressType `validate:"known"`
	CustomerID   int64
	Deleted      bool
}

// Validate проверяет поля адреса.
func (a Address) Validate() error {
	return validateStruct(a)
}

// Visible сообщает, виден ли адрес обычным запросам.
func (a Address) Visible() bool { return !a.Deleted }

// MarkDeleted: единственный переход в удалённое состояние.
func (a *Address) MarkDeleted() {
	a.Deleted = true
}

// Overwrite перезаписывает все изменяемые поля, без частичного слияния.
func (a *Address) Overwrite(src Address) {
	a.Street = src.Street
	a.HouseNumber = src.HouseNumber
	a.Neighborhood = src.Neighborhood
	a.ZipCode = src.ZipCode
	a.Country = src.Country
	a.Type = src.Type
}
