package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

// paginate сортирует записи по ID и вырезает страницу.
func paginate[T any](items []T, id func(T) int64, desc bool, page domain.Page) []T {
	sort.Slice(items, func(i, j int) bool {
		if desc {
			return id(items[i]) > id(items[j])
		}
		return id(items[i]) < id(items[j])
	})

	offset := page.Offset()
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + page.Limit()
	if end < offset || end > len(items) {
		end = len(items)
	}
	result := make([]T, end-offset)
	copy(result, items[offset:end])
	return result
}
