package domain

// CustomerType классифицирует клиента. Коды совпадают с хранимыми значениями.
type CustomerType int

const (
	CustomerTypeLegalPerson     CustomerType = 1
	CustomerTypeNaturalPerson   CustomerType = 2
	CustomerTypeTechnical       CustomerType = 3
	CustomerTypeDeletedCustomer CustomerType = 4
)

var customerTypeNames = map[CustomerType]string{
	CustomerTypeLegalPerson:     "LegalPerson",
	CustomerTypeNaturalPerson:   "NaturalPerson",
	CustomerTypeTechnical:       "Technical",
	CustomerTypeDeletedCustomer: "DeletedCustomer",
}

// CustomerTypeFromCode декодирует код типа клиента.
func CustomerTypeFromCode(code int) (CustomerType, error) {
	t := CustomerType(code)
	if !t.Valid() {
		return 0, &CodeError{Enum: "customer type", Code: code}
	}
	return t, nil
}

func (t CustomerType) Code() int { return int(t) }

func (t CustomerType) Valid() bool {
	_, ok := customerTypeNames[t]
	return ok
}

func (t CustomerType) String() string {
	if name, ok := customerTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// AddressType различает домашний адрес и адрес доставки.
type AddressType int

const (
	AddressTypeHome     AddressType = 1
	AddressTypeShipping AddressType = 2
)

var addressTypeNames = map[AddressType]string{
	AddressTypeHome:     "HomeAddress",
	AddressTypeShipping: "ShippingAddress",
}

// AddressTypeFromCode декодирует код типа адреса.
func AddressTypeFromCode(code int) (AddressType, error) {
	t := AddressType(code)
	if !t.Valid() {
		return 0, &CodeError{Enum: "address type", Code: code}
	}
	return t, nil
}

func (t AddressType) Code() int { return int(t) }

func (t AddressType) Valid() bool {
	_, ok := addressTypeNames[t]
	return ok
}

func (t AddressType) String() string {
	if name, ok := addressTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// CatalogState: жизненный цикл товарного предложения, независимый от флага продажи.
type CatalogState int

const (
	CatalogStateActive     CatalogState = 1
	CatalogStateTechnical  CatalogState = 2
	CatalogStateDefinition CatalogState = 3
)

var catalogStateNames = map[CatalogState]string{
	CatalogStateActive:     "Active",
	CatalogStateTechnical:  "Technical",
	CatalogStateDefinition: "Definition",
}

// CatalogStateFromCode декодирует код состояния товара.
func CatalogStateFromCode(code int) (CatalogState, error) {
	s := CatalogState(code)
	if !s.Valid() {
		return 0, &CodeError{Enum: "catalog state", Code: code}
	}
	return s, nil
}

func (s CatalogState) Code() int { return int(s) }

func (s CatalogState) Valid() bool {
	_, ok := catalogStateNames[s]
	return ok
}

func (s CatalogState) String() string {
	if name, ok := catalogStateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Authority: роль внешнего пользователя.
type Authority int

const (
	AuthorityOperator Authority = 1
	AuthorityAdmin    Authority = 2
)

var authorityNames = map[Authority]string{
	AuthorityOperator: "Operator",
	AuthorityAdmin:    "Admin",
}

// AuthorityFromCode декодирует код роли.
func AuthorityFromCode(code int) (Authority, error) {
	a := Authority(code)
	if !a.Valid() {
		return 0, &CodeError{Enum: "authority", Code: code}
	}
	return a, nil
}

func (a Authority) Code() int { return int(a) }

func (a Authority) Valid() bool {
	_, ok := authorityNames[a]
	return ok
}

func (a Authority) String() string {
	if name, ok := authorityNames[a]; ok {
		return name
	}
	return "Unknown"
}
