// Package query реализует чистую фильтрацию и сортировку коллекции жалоб.
// Функции не изменяют входной срез и не имеют побочных эффектов.
package query

import (
	"sort"
	"strings"

	"complaints-service/internal/domain"
)

// Фильтры статуса и приоритета принимают FilterAll как «без фильтра».
const FilterAll = "all"

// Ключи сортировки.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortStatus   = "status"
	SortPriority = "priority"
)

// Spec описывает комбинацию поиска, фильтров и ключа сортировки.
type Spec struct {
	Search   string
	Status   string
	Priority string
	SortBy   string
}

// Apply возвращает новый срез жалоб, удовлетворяющих спецификации,
// в заданном порядке. Предикаты объединяются по И; пустой поиск
// пропускает всё. Сортировка стабильна: при равных ключах исходный
// относительный порядок сохраняется.
func Apply(complaints []domain.Complaint, spec Spec) []domain.Complaint {
	search := strings.ToLower(strings.TrimSpace(spec.Search))
	out := make([]domain.Complaint, 0, len(complaints))
	for _, c := range complaints {
		if !matchesSearch(c, search) {
			continue
		}
		if spec.Status != "" && spec.Status != FilterAll && string(c.Status) != spec.Status {
			continue
		}
		if spec.Priority != "" && spec.Priority != FilterAll && string(c.Priority) != spec.Priority {
			continue
		}
		out = append(out, c)
	}
	sortComplaints(out, spec.SortBy)
	return out
}

func matchesSearch(c domain.Complaint, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), search) ||
		strings.Contains(strings.ToLower(c.Description), search) ||
		strings.Contains(strings.ToLower(c.ID), search)
}

func sortComplaints(list []domain.Complaint, sortBy string) {
	switch sortBy {
	case SortOldest:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
	case SortStatus:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Status < list[j].Status
		})
	case SortPriority:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority.Weight() > list[j].Priority.Weight()
		})
	default: // newest
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
	}
}

// Pending возвращает жалобы в работе: pending и in-progress.
// Производные выборки строятся по полной коллекции, а не по
// отфильтрованному отображению.
func Pending(complaints []domain.Complaint) []domain.Complaint {
	return filter(complaints, func(c domain.Complaint) bool {
		return c.Status == domain.StatusPending || c.Status == domain.StatusInProgress
	})
}

// Resolved возвращает решённые жалобы.
func Resolved(complaints []domain.Complaint) []domain.Complaint {
	return filter(complaints, func(c domain.Complaint) bool {
		return c.Status == domain.StatusResolved
	})
}

// HighPriority возвращает жалобы с высоким приоритетом.
func HighPriority(complaints []domain.Complaint) []domain.Complaint {
	return filter(complaints, func(c domain.Complaint) bool {
		return c.Priority == domain.PriorityHigh
	})
}

// ForUser возвращает жалобы конкретного пользователя.
func ForUser(complaints []domain.Complaint, userID string) []domain.Complaint {
	return filter(complaints, func(c domain.Complaint) bool {
		return c.UserID == userID
	})
}

func filter(complaints []domain.Complaint, keep func(domain.Complaint) bool) []domain.Complaint {
	out := make([]domain.Complaint, 0, len(complaints))
	for _, c := range complaints {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Counters содержит счётчики для административной сводки.
type Counters struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Resolved     int `json:"resolved"`
	HighPriority int `json:"high_priority"`
}

// Summary считает сводку по полной коллекции.
func Summary(complaints []domain.Complaint) Counters {
	return Counters{
		Total:        len(complaints),
		Pending:      len(Pending(complaints)),
		Resolved:     len(Resolved(complaints)),
		HighPriority: len(HighPriority(complaints)),
	}
}
