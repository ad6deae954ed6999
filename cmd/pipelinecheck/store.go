package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aura-lectures/backend/internal/models"
)

type statusChange struct {
	status models.LectureStatus
	at     time.Time
}

// memoryStore is a pipeline.RecordStore that keeps every status write.
type memoryStore struct {
	mu       sync.Mutex
	lectures map[uuid.UUID]*models.Lecture
	changes  map[uuid.UUID][]statusChange
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		lectures: make(map[uuid.UUID]*models.Lecture),
		changes:  make(map[uuid.UUID][]statusChange),
	}
}

func (s *memoryStore) seed(courseCode string) models.Lecture {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	l := &models.Lecture{
		ID:         uuid.New(),
		CourseID:   uuid.New(),
		CourseCode: courseCode,
		Title:      "Machine learning fundamentals",
		AudioPath:  "sample",
		Status:     models.LectureStatusUploaded,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.lectures[l.ID] = l
	return *l
}

func (s *memoryStore) UpdateLecture(_ context.Context, id uuid.UUID, u models.LectureUpdate) (*models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lectures[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u.Apply(l)
	l.UpdatedAt = time.Now()
	s.changes[id] = append(s.changes[id], statusChange{status: u.Status, at: l.UpdatedAt})
	cp := *l
	return &cp, nil
}

func (s *memoryStore) get(id uuid.UUID) models.Lecture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.lectures[id]
}

func (s *memoryStore) history(id uuid.UUID) []statusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]statusChange(nil), s.changes[id]...)
}
