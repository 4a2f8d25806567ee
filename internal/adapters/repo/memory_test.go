package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"complaints-service/internal/domain"
)

func seedComplaints() []domain.Complaint {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Complaint{
		{ID: "1", UserID: "u1", Title: "Первая", Description: "описание", Status: domain.StatusPending, Priority: domain.PriorityLow, CreatedAt: base, UpdatedAt: base},
		{ID: "2", UserID: "u2", Title: "Вторая", Description: "описание", Status: domain.StatusResolved, Priority: domain.PriorityHigh, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(seedComplaints())

	before, err := store.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	status := domain.StatusClosed
	updated, err := store.Update(ctx, "1", domain.ComplaintPatch{Status: &status})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	got, err := store.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Status != domain.StatusClosed {
		t.Fatalf("ожидали статус closed, получили %s", got.Status)
	}
	if !got.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("UpdatedAt должен строго вырасти: %v -> %v", before.UpdatedAt, got.UpdatedAt)
	}
	if got.UpdatedAt != updated.UpdatedAt {
		t.Fatal("Update и GetByID должны видеть одно состояние")
	}
}

func TestUpdateNotFound(t *testing.T) {
	store := NewMemory(nil)
	status := domain.StatusClosed
	_, err := store.Update(context.Background(), "missing", domain.ComplaintPatch{Status: &status})
	if !errors.Is(err, domain.ErrComplaintNotFound) {
		t.Fatalf("ожидали ErrComplaintNotFound, получили %v", err)
	}
}

func TestUpdateIsVisibleToGetAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(seedComplaints())
	resp := "работаем над этим"
	if _, err := store.Update(ctx, "1", domain.ComplaintPatch{AdminResponse: &resp}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	var found bool
	for _, c := range all {
		if c.ID == "1" && c.AdminResponse == resp {
			found = true
		}
	}
	if !found {
		t.Fatal("мутация должна быть видна последующему GetAll")
	}
}

func TestGetAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(seedComplaints())
	all, _ := store.GetAll(ctx)
	all[0].Title = "подменили"
	again, _ := store.GetAll(ctx)
	if again[0].Title == "подменили" {
		t.Fatal("GetAll должен возвращать копию, а не алиас хранилища")
	}
}

func TestAddFeedbackRequiresResolved(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(seedComplaints())

	// жалоба 1 в статусе pending: оценка и владелец корректны, но отказ
	_, err := store.AddFeedback(ctx, domain.Feedback{ComplaintID: "1", UserID: "u1", Rating: 5})
	if !domain.IsValidation(err) {
		t.Fatalf("ожидали ошибку валидации, получили %v", err)
	}

	if _, err := store.AddFeedback(ctx, domain.Feedback{ComplaintID: "2", UserID: "u2", Rating: 4}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	list, err := store.ListFeedback(ctx, "2")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(list) != 1 || list[0].Rating != 4 {
		t.Fatalf("ожидали один отзыв с оценкой 4, получили %+v", list)
	}
}

func TestAddFeedbackRatingOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(seedComplaints())
	// диапазон проверяется до статуса: отказ даже для решённой жалобы
	for _, rating := range []int{0, 6, -1} {
		_, err := store.AddFeedback(ctx, domain.Feedback{ComplaintID: "2", UserID: "u2", Rating: rating})
		if !domain.IsValidation(err) {
			t.Fatalf("оценка %d: ожидали ошибку валидации, получили %v", rating, err)
		}
	}
	list, _ := store.ListFeedback(ctx, "2")
	if len(list) != 0 {
		t.Fatal("частичных записей быть не должно")
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(seedComplaints())
	_, err := store.Create(ctx, domain.Complaint{ID: "1", UserID: "u9", Title: "Дубль", Description: "x"})
	if !domain.IsValidation(err) {
		t.Fatalf("ожидали ошибку валидации, получили %v", err)
	}
}
