package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/repository"
	"github.com/stemsi/sgpa-planner/internal/semester"
)

// ── Mock StudentStore ──

type mockStudentStore struct {
	mu       sync.Mutex
	students map[int]*model.Student
	nextID   int
}

func newMockStudentStore() *mockStudentStore {
	return &mockStudentStore{students: make(map[int]*model.Student), nextID: 1}
}

func (m *mockStudentStore) Create(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.students {
		if existing.StudentNumber == s.StudentNumber {
			return repository.ErrDuplicateStudentNumber
		}
	}
	s.ID = m.nextID
	m.nextID++
	cp := *s
	m.students[s.ID] = &cp
	return nil
}

func (m *mockStudentStore) GetByID(_ context.Context, id int) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, repository.ErrStudentNotFound
}

func (m *mockStudentStore) GetByStudentNumber(_ context.Context, number string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.StudentNumber == number {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrStudentNotFound
}

// ── Mock SemesterStore ──

type sheetKey struct{ student, number int }

type mockSemesterStore struct {
	mu     sync.Mutex
	sheets map[sheetKey]semester.Rows
	err    error
}

func newMockSemesterStore() *mockSemesterStore {
	return &mockSemesterStore{sheets: make(map[sheetKey]semester.Rows)}
}

func (m *mockSemesterStore) GetRows(_ context.Context, studentID, number int) (semester.Rows, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	rows, ok := m.sheets[sheetKey{studentID, number}]
	return rows.Clone(), ok, nil
}

func (m *mockSemesterStore) ListNumbers(_ context.Context, studentID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []int
	for k := range m.sheets {
		if k.student == studentID {
			out = append(out, k.number)
		}
	}
	return out, nil
}

func (m *mockSemesterStore) ReplaceRows(_ context.Context, studentID, number int, rows semester.Rows, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheetKey{studentID, number}] = rows.Clone()
	return true, nil
}

// ── Mock StateCache ──

type mockStateCache struct {
	mu        sync.Mutex
	sheets    map[sheetKey]semester.Rows
	jobs      []model.SemesterPersistJob
	events    []model.PlannerEvent
	saveErr   error
	loadErr   error
	publishOK bool
}

func newMockStateCache() *mockStateCache {
	return &mockStateCache{sheets: make(map[sheetKey]semester.Rows), publishOK: true}
}

func (m *mockStateCache) Load(_ context.Context, studentID, number int) (semester.Rows, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	rows, ok := m.sheets[sheetKey{studentID, number}]
	return rows.Clone(), ok, nil
}

func (m *mockStateCache) Save(_ context.Context, studentID, number int, rows semester.Rows) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sheets[sheetKey{studentID, number}] = rows.Clone()
	return nil
}

func (m *mockStateCache) Numbers(_ context.Context, studentID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for k := range m.sheets {
		if k.student == studentID {
			out = append(out, k.number)
		}
	}
	return out, nil
}

func (m *mockStateCache) EnqueuePersist(_ context.Context, job model.SemesterPersistJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockStateCache) Publish(_ context.Context, _ int, event model.PlannerEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.publishOK {
		return errors.New("publish failed")
	}
	m.events = append(m.events, event)
	return nil
}
