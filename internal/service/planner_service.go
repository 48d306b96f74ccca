package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/semester"
)

// Planner errors.
var (
	ErrInvalidSemester = errors.New("semester number out of range")
	ErrTooManyRows     = errors.New("semester row limit reached")
)

// SemesterStore is the durable side of the planner state.
type SemesterStore interface {
	GetRows(ctx context.Context, studentID, number int) (semester.Rows, bool, error)
	ListNumbers(ctx context.Context, studentID int) ([]int, error)
}

// StateCache is the live side of the planner state plus its fan-out.
type StateCache interface {
	Load(ctx context.Context, studentID, number int) (semester.Rows, bool, error)
	Save(ctx context.Context, studentID, number int, rows semester.Rows) error
	Numbers(ctx context.Context, studentID int) ([]int, error)
	EnqueuePersist(ctx context.Context, job model.SemesterPersistJob) error
	Publish(ctx context.Context, studentID int, event model.PlannerEvent) error
}

// PlannerService owns one semester sheet per (student, semester) and is the
// owner the semester calculator reports its edits to.
type PlannerService struct {
	store        SemesterStore
	cache        StateCache
	maxSemesters int
	maxRows      int
	log          zerolog.Logger
	now          func() time.Time

	// locks serializes edits per sheet.
	locks sync.Map
}

// NewPlannerService creates a new PlannerService.
func NewPlannerService(store SemesterStore, cache StateCache, maxSemesters, maxRows int, log zerolog.Logger) *PlannerService {
	return &PlannerService{
		store:        store,
		cache:        cache,
		maxSemesters: maxSemesters,
		maxRows:      maxRows,
		log:          log.With().Str("component", "planner_service").Logger(),
		now:          time.Now,
	}
}

// MaxSemesters is the highest accepted semester number.
func (s *PlannerService) MaxSemesters() int { return s.maxSemesters }

func (s *PlannerService) checkNumber(number int) error {
	if number < 1 || number > s.maxSemesters {
		return ErrInvalidSemester
	}
	return nil
}

func (s *PlannerService) lock(studentID, number int) func() {
	key := fmt.Sprintf("%d:%d", studentID, number)
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// load reads a sheet from the cache, then storage, falling back to a single
// blank row. Storage hits are written back to the cache.
func (s *PlannerService) load(ctx context.Context, studentID, number int) (semester.Rows, error) {
	rows, found, err := s.cache.Load(ctx, studentID, number)
	if err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Int("number", number).Msg("State cache read failed")
	} else if found {
		return rows.Normalize(), nil
	}

	rows, found, err = s.store.GetRows(ctx, studentID, number)
	if err != nil {
		return nil, fmt.Errorf("load semester: %w", err)
	}
	if !found {
		return semester.DefaultRows(), nil
	}

	rows = rows.Normalize()
	if err := s.cache.Save(ctx, studentID, number, rows); err != nil {
		s.log.Warn().Err(err).Msg("State cache backfill failed")
	}
	return rows, nil
}

// GetSemester returns the current sheet of one semester.
func (s *PlannerService) GetSemester(ctx context.Context, studentID, number int) (model.SemesterView, error) {
	if err := s.checkNumber(number); err != nil {
		return model.SemesterView{}, err
	}
	rows, err := s.load(ctx, studentID, number)
	if err != nil {
		return model.SemesterView{}, err
	}
	return model.NewSemesterView(number, rows, false), nil
}

// Apply runs one edit against a semester sheet. origin tags the published
// event so live connections can skip their own echoes; it may be empty.
func (s *PlannerService) Apply(ctx context.Context, studentID, number int, cmd semester.Command, origin string) (model.SemesterView, error) {
	if err := s.checkNumber(number); err != nil {
		return model.SemesterView{}, err
	}

	unlock := s.lock(studentID, number)
	defer unlock()

	current, err := s.load(ctx, studentID, number)
	if err != nil {
		return model.SemesterView{}, err
	}

	if _, adding := cmd.(semester.AddRowCommand); adding && len(current) >= s.maxRows {
		return model.SemesterView{}, ErrTooManyRows
	}

	var (
		next    semester.Rows
		changed bool
	)
	calc := semester.NewCalculator(number, current,
		func(rows semester.Rows) {
			next, changed = rows, true
		},
		func() {
			next, changed = semester.DefaultRows(), true
		},
	)
	calc.Dispatch(cmd)

	if !changed {
		return model.NewSemesterView(number, current, false), nil
	}

	view := model.NewSemesterView(number, next, true)
	if err := s.commit(ctx, studentID, view, origin); err != nil {
		return model.SemesterView{}, err
	}
	return view, nil
}

// ResetSemester replaces a sheet with a single blank row.
func (s *PlannerService) ResetSemester(ctx context.Context, studentID, number int, origin string) (model.SemesterView, error) {
	return s.Apply(ctx, studentID, number, semester.ResetCommand{}, origin)
}

// commit stores the new rows, queues them for PostgreSQL and notifies live
// connections. Only the cache write is fatal.
func (s *PlannerService) commit(ctx context.Context, studentID int, view model.SemesterView, origin string) error {
	if err := s.cache.Save(ctx, studentID, view.Number, view.Rows); err != nil {
		return fmt.Errorf("save semester: %w", err)
	}

	job := model.SemesterPersistJob{
		StudentID: studentID,
		Number:    view.Number,
		Rows:      view.Rows,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.cache.EnqueuePersist(ctx, job); err != nil {
		s.log.Error().Err(err).
			Int("student_id", studentID).
			Int("number", view.Number).
			Msg("Failed to queue semester for persistence")
	}

	if err := s.cache.Publish(ctx, studentID, model.PlannerEvent{Origin: origin, View: view}); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Failed to publish planner event")
	}
	return nil
}

// Overview lists every semester a student has touched with its SGPA and the
// cumulative GPA across all of them.
func (s *PlannerService) Overview(ctx context.Context, studentID int) (*model.PlannerOverview, map[int]semester.Rows, error) {
	numbers, err := s.numbers(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}

	sheets := make(map[int]semester.Rows, len(numbers))
	all := make([]semester.Rows, 0, len(numbers))
	overview := &model.PlannerOverview{Semesters: make([]model.SemesterSummary, 0, len(numbers))}

	for _, n := range numbers {
		rows, err := s.load(ctx, studentID, n)
		if err != nil {
			return nil, nil, err
		}
		sheets[n] = rows
		all = append(all, rows)
		overview.Semesters = append(overview.Semesters, model.SemesterSummary{
			Number:       n,
			SGPA:         semester.ComputeSGPA(rows),
			TotalCredits: rows.TotalCredits(),
			RowCount:     len(rows),
		})
		overview.TotalCredits += rows.TotalCredits()
	}

	overview.CGPA = semester.ComputeCGPA(all)
	return overview, sheets, nil
}

// numbers merges the saved and cached semester numbers in ascending order,
// dropping anything outside the configured range.
func (s *PlannerService) numbers(ctx context.Context, studentID int) ([]int, error) {
	stored, err := s.store.ListNumbers(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}

	cached, err := s.cache.Numbers(ctx, studentID)
	if err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("State cache index read failed")
	}

	seen := make(map[int]struct{}, len(stored)+len(cached))
	out := make([]int, 0, len(stored)+len(cached))
	for _, n := range append(stored, cached...) {
		if _, dup := seen[n]; dup || s.checkNumber(n) != nil {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
