package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/yigit/knowledgemap/internal/app/hierarchy"
	"github.com/yigit/knowledgemap/internal/app/models"
	"github.com/yigit/knowledgemap/internal/pkg/apperrors"
)

// memoryState is one immutable-once-published snapshot of the store
type memoryState struct {
	nextID        int64
	courses       map[int64]*models.Course
	names         map[string]int64
	prerequisites map[int64]map[int64]struct{}
}

func newMemoryState() *memoryState {
	return &memoryState{
		nextID:        1,
		courses:       map[int64]*models.Course{},
		names:         map[string]int64{},
		prerequisites: map[int64]map[int64]struct{}{},
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		nextID:        s.nextID,
		courses:       make(map[int64]*models.Course, len(s.courses)),
		names:         make(map[string]int64, len(s.names)),
		prerequisites: make(map[int64]map[int64]struct{}, len(s.prerequisites)),
	}
	for id, course := range s.courses {
		c.courses[id] = course.Clone()
	}
	for name, id := range s.names {
		c.names[name] = id
	}
	for id, edges := range s.prerequisites {
		copied := make(map[int64]struct{}, len(edges))
		for p := range edges {
			copied[p] = struct{}{}
		}
		c.prerequisites[id] = copied
	}
	return c
}

// GetByID lets hierarchy validation read the state being mutated
func (s *memoryState) GetByID(_ context.Context, id int64) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return course.Clone(), nil
}

// ChildrenOf lets hierarchy validation measure subtrees of the state being mutated
func (s *memoryState) ChildrenOf(_ context.Context, parentID int64) ([]*models.Course, error) {
	return s.sorted(func(c *models.Course) bool {
		return c.ParentID != nil && *c.ParentID == parentID
	}), nil
}

func (s *memoryState) sorted(filter func(*models.Course) bool) []*models.Course {
	out := []*models.Course{}
	for _, course := range s.courses {
		if filter == nil || filter(course) {
			out = append(out, course.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

// MemoryCourseRepository keeps courses in process memory.
// Writers work on a copy of the state that replaces the shared one on success,
// so a failed unit of work leaves nothing behind.
type MemoryCourseRepository struct {
	store  *memoryStore
	tx     *memoryState
	engine *hierarchy.Engine
}

// NewMemoryCourseRepository creates an empty in-memory repository
func NewMemoryCourseRepository(engine *hierarchy.Engine) *MemoryCourseRepository {
	if engine == nil {
		engine = hierarchy.NewEngine(hierarchy.DefaultMaxDepth)
	}
	return &MemoryCourseRepository{
		store:  &memoryStore{state: newMemoryState()},
		engine: engine,
	}
}

// Transaction runs fn against a private copy and publishes it when fn succeeds
func (r *MemoryCourseRepository) Transaction(ctx context.Context, fn func(ctx context.Context, tx CourseRepository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	working := r.store.state.clone()
	txRepo := &MemoryCourseRepository{store: r.store, tx: working, engine: r.engine}
	if err := fn(ctx, txRepo); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.state = working
	return nil
}

func (r *MemoryCourseRepository) read(fn func(s *memoryState) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return fn(r.store.state)
}

func (r *MemoryCourseRepository) write(ctx context.Context, fn func(s *memoryState) error) error {
	return r.Transaction(ctx, func(ctx context.Context, tx CourseRepository) error {
		return fn(tx.(*MemoryCourseRepository).tx)
	})
}

// Ping always succeeds for the in-memory store
func (r *MemoryCourseRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Insert creates a course
func (r *MemoryCourseRepository) Insert(ctx context.Context, name string, parentID *int64) (*models.Course, error) {
	var created *models.Course
	err := r.write(ctx, func(s *memoryState) error {
		if _, taken := s.names[name]; taken {
			return apperrors.ErrDuplicateName
		}
		if parentID != nil {
			if err := r.engine.ValidateNewChild(ctx, s, *parentID); err != nil {
				return err
			}
		}

		course := &models.Course{ID: s.nextID, Name: name}
		if parentID != nil {
			id := *parentID
			course.ParentID = &id
		}
		s.nextID++
		s.courses[course.ID] = course
		s.names[name] = course.ID
		created = course.Clone()
		return nil
	})
	return created, err
}

// GetByID retrieves a course by ID
func (r *MemoryCourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	var course *models.Course
	err := r.read(func(s *memoryState) error {
		var err error
		course, err = s.GetByID(ctx, id)
		return err
	})
	return course, err
}

// LockByID is GetByID; transactions already hold the store lock
func (r *MemoryCourseRepository) LockByID(ctx context.Context, id int64) (*models.Course, error) {
	return r.GetByID(ctx, id)
}

// GetByIDs retrieves the known courses among ids
func (r *MemoryCourseRepository) GetByIDs(_ context.Context, ids []int64) ([]*models.Course, error) {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	var courses []*models.Course
	err := r.read(func(s *memoryState) error {
		courses = s.sorted(func(c *models.Course) bool {
			_, ok := want[c.ID]
			return ok
		})
		return nil
	})
	return courses, err
}

// GetByName retrieves a course by its exact name
func (r *MemoryCourseRepository) GetByName(ctx context.Context, name string) (*models.Course, error) {
	var course *models.Course
	err := r.read(func(s *memoryState) error {
		id, ok := s.names[name]
		if !ok {
			return apperrors.ErrCourseNotFound
		}
		var err error
		course, err = s.GetByID(ctx, id)
		return err
	})
	return course, err
}

// List retrieves courses in insertion order
func (r *MemoryCourseRepository) List(_ context.Context, offset, limit int) ([]*models.Course, error) {
	var page []*models.Course
	err := r.read(func(s *memoryState) error {
		all := s.sorted(nil)
		if offset < 0 {
			offset = 0
		}
		if offset >= len(all) {
			page = []*models.Course{}
			return nil
		}
		end := len(all)
		if limit > 0 && offset+limit < end {
			end = offset + limit
		}
		page = all[offset:end]
		return nil
	})
	return page, err
}

// Update renames and re-parents a course
func (r *MemoryCourseRepository) Update(ctx context.Context, id int64, name string, parentID *int64) (*models.Course, error) {
	var updated *models.Course
	err := r.write(ctx, func(s *memoryState) error {
		course, ok := s.courses[id]
		if !ok {
			return apperrors.ErrCourseNotFound
		}
		if owner, taken := s.names[name]; taken && owner != id {
			return apperrors.ErrDuplicateName
		}
		if parentID != nil && !sameParent(course.ParentID, parentID) {
			if err := r.engine.ValidateParent(ctx, s, id, *parentID); err != nil {
				return err
			}
		}

		delete(s.names, course.Name)
		course.Name = name
		s.names[name] = id
		course.ParentID = nil
		if parentID != nil {
			pid := *parentID
			course.ParentID = &pid
		}
		updated = course.Clone()
		return nil
	})
	return updated, err
}

// Delete removes a course, nulls its children's parent and drops its edges
func (r *MemoryCourseRepository) Delete(ctx context.Context, id int64) (*models.Course, error) {
	var removed *models.Course
	err := r.write(ctx, func(s *memoryState) error {
		course, ok := s.courses[id]
		if !ok {
			return apperrors.ErrCourseNotFound
		}

		for _, other := range s.courses {
			if other.ParentID != nil && *other.ParentID == id {
				other.ParentID = nil
			}
		}
		delete(s.prerequisites, id)
		for _, edges := range s.prerequisites {
			delete(edges, id)
		}
		delete(s.names, course.Name)
		delete(s.courses, id)

		removed = course.Clone()
		return nil
	})
	return removed, err
}

// ChildrenOf retrieves the direct children of a course
func (r *MemoryCourseRepository) ChildrenOf(ctx context.Context, parentID int64) ([]*models.Course, error) {
	var children []*models.Course
	err := r.read(func(s *memoryState) error {
		var err error
		children, err = s.ChildrenOf(ctx, parentID)
		return err
	})
	return children, err
}

// AddPrerequisite records that prerequisiteID should precede courseID
func (r *MemoryCourseRepository) AddPrerequisite(ctx context.Context, courseID, prerequisiteID int64) error {
	if courseID == prerequisiteID {
		return apperrors.ErrSelfPrerequisite
	}
	return r.write(ctx, func(s *memoryState) error {
		if _, ok := s.courses[courseID]; !ok {
			return apperrors.ErrCourseNotFound
		}
		if _, ok := s.courses[prerequisiteID]; !ok {
			return apperrors.ErrCourseNotFound
		}
		edges, ok := s.prerequisites[courseID]
		if !ok {
			edges = map[int64]struct{}{}
			s.prerequisites[courseID] = edges
		}
		edges[prerequisiteID] = struct{}{}
		return nil
	})
}

// RemovePrerequisite deletes an edge and reports whether it existed
func (r *MemoryCourseRepository) RemovePrerequisite(ctx context.Context, courseID, prerequisiteID int64) (bool, error) {
	removed := false
	err := r.write(ctx, func(s *memoryState) error {
		edges := s.prerequisites[courseID]
		if _, ok := edges[prerequisiteID]; ok {
			delete(edges, prerequisiteID)
			removed = true
		}
		return nil
	})
	return removed, err
}

// PrerequisitesOf lists the direct prerequisites of a course
func (r *MemoryCourseRepository) PrerequisitesOf(_ context.Context, courseID int64) ([]*models.Course, error) {
	var prerequisites []*models.Course
	err := r.read(func(s *memoryState) error {
		edges := s.prerequisites[courseID]
		prerequisites = s.sorted(func(c *models.Course) bool {
			_, ok := edges[c.ID]
			return ok
		})
		return nil
	})
	return prerequisites, err
}
