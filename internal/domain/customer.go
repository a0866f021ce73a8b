package domain

import "time"

const (
	// EntityCustomer: имя сущности в ошибках.
	EntityCustomer = "Customer"
	// EntityUser: имя внешней учётной записи в ошибках.
	EntityUser = "User"

	// CustomerStatusActive выставляется новому и реактивированному клиенту.
	CustomerStatusActive = "Active Customer"
	// CustomerStatusDeleted: статус-метка удалённого клиента.
	CustomerStatusDeleted = "isDeleted"
	// scrubbedPassword заменяет хэш пароля при удалении.
	scrubbedPassword = "null"
)

// Customer объединяет адреса и заказы одного аккаунта.
// Адреса и заказы не хранятся в записи: это обратные ссылки, получаемые запросами ListByCustomer.
type Customer struct {
	ID           int64
	Name         string       `validate:"notblank"`
	Document     int64        `validate:"gt=0"`
	Status       string       `validate:"notblank"`
	Type         CustomerType `validate:"known"`
	CreditScore  string       `validate:"notblank"`
	PasswordHash string
	UserID       int64
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate проверяет состояние клиента перед сохранением.
func (c Customer) Validate() error {
	return validateStruct(c)
}

// Visible сообщает, виден ли клиент обычным запросам.
func (c Customer) Visible() bool { return !c.Deleted }

// MarkDeleted атомарно переводит клиента в удалённое состояние:
// флаг, статус-метка, тип DeletedCustomer и затёртый пароль.
func (c *Customer) MarkDeleted() {
	c.Deleted = true
	c.Status = CustomerStatusDeleted
	c.Type = CustomerTypeDeletedCustomer
	c.PasswordHash = scrubbedPassword
}

// Reactivate возвращает удалённого клиента в живое состояние перед слиянием payload.
func (c *Customer) Reactivate(passwordHash string) {
	c.Deleted = false
	c.Status = CustomerStatusActive
	c.PasswordHash = passwordHash
}

// CustomerSignup: payload регистрации клиента для существующего пользователя.
type CustomerSignup struct {
	UserID      int64
	Name        string       `validate:"notblank"`
	Document    int64        `validate:"gt=0"`
	Type        CustomerType `validate:"known"`
	CreditScore string       `validate:"notblank"`
	Addresses   []Address
}

// Validate проверяет payload регистрации.
func (s CustomerSignup) Validate() error {
	return validateStruct(s)
}

// Patch превращает регистрацию в частичное обновление для реактивации.
func (s CustomerSignup) Patch() CustomerPatch {
	name, document, typ, score := s.Name, s.Document, s.Type, s.CreditScore
	return CustomerPatch{
		Name:        &name,
		Document:    &document,
		Type:        &typ,
		CreditScore: &score,
		Addresses:   s.Addresses,
	}
}

// CustomerPatch: частичное обновление: nil-поля не трогают сохранённое значение.
// Addresses добавляются к адресам клиента, а не заменяют их.
type CustomerPatch struct {
	Name        *string
	Document    *int64
	Status      *string
	Type        *CustomerType
	CreditScore *string
	Addresses   []Address
}

// Apply сливает ненулевые поля патча в клиента.
func (p CustomerPatch) Apply(c *Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Document != nil {
		c.Document = *p.Document
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.CreditScore != nil {
		c.CreditScore = *p.CreditScore
	}
}

// User: внешняя учётная запись, к которой привязан клиент один-к-одному.
type User struct {
	ID           int64
	Email        string `validate:"required,email"`
	PasswordHash string
	Authorities  []Authority `validate:"dive,known"`
	CustomerID   int64
	Deleted      bool
}

// Validate проверяет учётную запись.
func (u User) Validate() error {
	return validateStruct(u)
}

// MarkDeleted удаляет учётную запись и затирает пароль.
func (u *User) MarkDeleted() {
	u.Deleted = true
	u.PasswordHash = scrubbedPassword
}
