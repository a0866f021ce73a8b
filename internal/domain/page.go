package domain

import "math"

// DefaultPageSize используется, когда размер страницы не задан.
const DefaultPageSize = 10

// Page: пагинация с нумерацией страниц с нуля.
type Page struct {
	Number int
	Size   int
}

// NewPage создаёт страницу с проверкой номера.
func NewPage(number, size int) (Page, error) {
	p := Page{Number: number, Size: size}
	if err := p.Validate(); err != nil {
		return Page{}, err
	}
	return p, nil
}

// Validate отклоняет отрицательный номер и размер, а также номер,
// при котором смещение не помещается в int.
func (p Page) Validate() error {
	var fields []string
	if p.Number < 0 || p.Number > math.MaxInt/p.Limit() {
		fields = append(fields, "Number")
	}
	if p.Size < 0 {
		fields = append(fields, "Size")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Limit возвращает размер страницы с учётом значения по умолчанию.
func (p Page) Limit() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

// Offset возвращает число пропускаемых записей.
func (p Page) Offset() int {
	return p.Number * p.Limit()
}

// WithDefaultSize подставляет size, если размер не задан явно.
func (p Page) WithDefaultSize(size int) Page {
	if p.Size <= 0 {
		p.Size = size
	}
	return p
}
