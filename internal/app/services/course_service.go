package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yigit/knowledgemap/internal/app/hierarchy"
	"github.com/yigit/knowledgemap/internal/app/models"
	"github.com/yigit/knowledgemap/internal/app/repositories"
	"github.com/yigit/knowledgemap/internal/pkg/apperrors"
	"github.com/yigit/knowledgemap/internal/pkg/helpers"
	"github.com/yigit/knowledgemap/internal/pkg/logger"
	"github.com/yigit/knowledgemap/internal/pkg/validation"
)

// MaxNameLength is the longest accepted course name, in characters
const MaxNameLength = validation.NameMaxLength

// CourseInput carries the client-supplied fields of a create or update.
// A nil or blank ParentName means the course has no parent.
type CourseInput struct {
	Name       string
	ParentName *string
}

// CourseService defines the interface for course operations.
// GetCourse, UpdateCourse and DeleteCourse return a nil view when the course does not exist.
type CourseService interface {
	CreateCourse(ctx context.Context, input CourseInput) (*models.CourseView, error)
	GetCourse(ctx context.Context, id int64) (*models.CourseView, error)
	ListCourses(ctx context.Context, skip, limit int) ([]*models.CourseView, error)
	UpdateCourse(ctx context.Context, id int64, input CourseInput) (*models.CourseView, error)
	DeleteCourse(ctx context.Context, id int64) (*models.CourseView, error)
	GetAncestors(ctx context.Context, id int64) ([]*models.CourseView, error)
	GetChildren(ctx context.Context, parentID int64) ([]*models.CourseView, error)

	AddPrerequisite(ctx context.Context, id int64, prerequisiteName string) ([]*models.CourseView, error)
	RemovePrerequisite(ctx context.Context, id, prerequisiteID int64) ([]*models.CourseView, error)
	ListPrerequisites(ctx context.Context, id int64) ([]*models.CourseView, error)
}

// courseServiceImpl implements CourseService
type courseServiceImpl struct {
	repo   repositories.CourseRepository
	engine *hierarchy.Engine
}

// NewCourseService creates a new course service
func NewCourseService(repo repositories.CourseRepository, engine *hierarchy.Engine) CourseService {
	if engine == nil {
		engine = hierarchy.NewEngine(hierarchy.DefaultMaxDepth)
	}
	return &courseServiceImpl{
		repo:   repo,
		engine: engine,
	}
}

// normalizeName trims and validates a course name
func normalizeName(field, name string) (string, error) {
	if err := validation.CourseName(name); err != nil {
		return "", apperrors.NewCustomError(apperrors.ErrValidationFailed, fmt.Sprintf("%s %v", field, err)).
			WithDetails(map[string]interface{}{"field": field})
	}
	return strings.TrimSpace(name), nil
}

func normalizeInput(input CourseInput) (name string, parentName *string, err error) {
	name, err = normalizeName("name", input.Name)
	if err != nil {
		return "", nil, err
	}
	if input.ParentName != nil {
		if err := validation.ParentName(*input.ParentName); err != nil {
			return "", nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, fmt.Sprintf("parent_name %v", err)).
				WithDetails(map[string]interface{}{"field": "parent_name"})
		}
		if trimmed := strings.TrimSpace(*input.ParentName); trimmed != "" {
			parentName = &trimmed
		}
	}
	return name, parentName, nil
}

func duplicateNameError(name string) error {
	return apperrors.NewCustomError(apperrors.ErrDuplicateName, fmt.Sprintf("Course with name '%s' already exists", name))
}

// ensureNameFree fails when another course than selfID already uses name
func ensureNameFree(ctx context.Context, repo repositories.CourseRepository, name string, selfID int64) error {
	existing, err := repo.GetByName(ctx, name)
	if errors.Is(err, apperrors.ErrCourseNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return duplicateNameError(name)
	}
	return nil
}

// resolveParent turns a parent name into the parent course
func resolveParent(ctx context.Context, repo repositories.CourseRepository, parentName *string) (*models.Course, error) {
	if parentName == nil {
		return nil, nil
	}
	parent, err := repo.GetByName(ctx, *parentName)
	if errors.Is(err, apperrors.ErrCourseNotFound) {
		return nil, apperrors.NewCustomError(apperrors.ErrParentNotFound, fmt.Sprintf("Parent course '%s' not found", *parentName))
	}
	if err != nil {
		return nil, err
	}
	return parent, nil
}

func parentIDOf(parent *models.Course) *int64 {
	if parent == nil {
		return nil
	}
	id := parent.ID
	return &id
}

// toViews maps courses to views, fetching the parents not in known with one batched lookup
func toViews(ctx context.Context, repo repositories.CourseRepository, courses []*models.Course, known ...*models.Course) ([]*models.CourseView, error) {
	parents := make(map[int64]*models.Course, len(known))
	for _, c := range known {
		if c != nil {
			parents[c.ID] = c
		}
	}

	var missing []int64
	seen := map[int64]struct{}{}
	for _, c := range courses {
		if c.ParentID == nil {
			continue
		}
		pid := *c.ParentID
		if _, ok := parents[pid]; ok {
			continue
		}
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		missing = append(missing, pid)
	}

	if len(missing) > 0 {
		fetched, err := repo.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range fetched {
			parents[p.ID] = p
		}
	}

	return models.NewCourseViews(courses, parents), nil
}

// viewOf builds the view of a single course, looking its parent up when needed
func viewOf(ctx context.Context, repo repositories.CourseRepository, course *models.Course) (*models.CourseView, error) {
	views, err := toViews(ctx, repo, []*models.Course{course})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// CreateCourse creates a course, resolving its parent by name
func (s *courseServiceImpl) CreateCourse(ctx context.Context, input CourseInput) (*models.CourseView, error) {
	name, parentName, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	var view *models.CourseView
	err = s.repo.Transaction(ctx, func(ctx context.Context, tx repositories.CourseRepository) error {
		if err := ensureNameFree(ctx, tx, name, 0); err != nil {
			return err
		}

		parent, err := resolveParent(ctx, tx, parentName)
		if err != nil {
			return err
		}

		course, err := tx.Insert(ctx, name, parentIDOf(parent))
		if errors.Is(err, apperrors.ErrDuplicateName) {
			return duplicateNameError(name)
		}
		if err != nil {
			return err
		}

		view = models.NewCourseView(course, parent)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("courseID", view.ID).Str("name", view.Name).Msg("Course created")
	return view, nil
}

// GetCourse returns the course view, or nil when the course does not exist
func (s *courseServiceImpl) GetCourse(ctx context.Context, id int64) (*models.CourseView, error) {
	course, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrCourseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return viewOf(ctx, s.repo, course)
}

// ListCourses returns a page of courses in insertion order
func (s *courseServiceImpl) ListCourses(ctx context.Context, skip, limit int) ([]*models.CourseView, error) {
	skip, limit = helpers.NormalizeSkipLimit(skip, limit)

	courses, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	return toViews(ctx, s.repo, courses, courses...)
}

// UpdateCourse replaces the name and parent of a course
func (s *courseServiceImpl) UpdateCourse(ctx context.Context, id int64, input CourseInput) (*models.CourseView, error) {
	name, parentName, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	var view *models.CourseView
	err = s.repo.Transaction(ctx, func(ctx context.Context, tx repositories.CourseRepository) error {
		current, err := tx.LockByID(ctx, id)
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if name != current.Name {
			if err := ensureNameFree(ctx, tx, name, id); err != nil {
				return err
			}
		}

		parent, err := resolveParent(ctx, tx, parentName)
		if err != nil {
			return err
		}

		updated, err := tx.Update(ctx, id, name, parentIDOf(parent))
		if errors.Is(err, apperrors.ErrDuplicateName) {
			return duplicateNameError(name)
		}
		if err != nil {
			return err
		}

		view = models.NewCourseView(updated, parent)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if view != nil {
		logger.Info().Int64("courseID", view.ID).Msg("Course updated")
	}
	return view, nil
}

// DeleteCourse removes a course and returns its state before removal
func (s *courseServiceImpl) DeleteCourse(ctx context.Context, id int64) (*models.CourseView, error) {
	var view *models.CourseView
	err := s.repo.Transaction(ctx, func(ctx context.Context, tx repositories.CourseRepository) error {
		current, err := tx.LockByID(ctx, id)
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if view, err = viewOf(ctx, tx, current); err != nil {
			return err
		}

		_, err = tx.Delete(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if view != nil {
		logger.Info().Int64("courseID", view.ID).Msg("Course deleted")
	}
	return view, nil
}

// GetAncestors returns the ancestor chain of a course, nearest first
func (s *courseServiceImpl) GetAncestors(ctx context.Context, id int64) ([]*models.CourseView, error) {
	ancestors, err := s.engine.Ancestors(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return toViews(ctx, s.repo, ancestors, ancestors...)
}

// GetChildren returns the direct children of an existing course
func (s *courseServiceImpl) GetChildren(ctx context.Context, parentID int64) ([]*models.CourseView, error) {
	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	children, err := s.repo.ChildrenOf(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return models.NewCourseViews(children, map[int64]*models.Course{parent.ID: parent}), nil
}

// AddPrerequisite links the named course as a prerequisite and returns the updated list
func (s *courseServiceImpl) AddPrerequisite(ctx context.Context, id int64, prerequisiteName string) ([]*models.CourseView, error) {
	name, err := normalizeName("prerequisite_name", prerequisiteName)
	if err != nil {
		return nil, err
	}

	var views []*models.CourseView
	err = s.repo.Transaction(ctx, func(ctx context.Context, tx repositories.CourseRepository) error {
		if _, err := tx.LockByID(ctx, id); err != nil {
			return err
		}

		prerequisite, err := tx.GetByName(ctx, name)
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return apperrors.NewCustomError(apperrors.ErrPrerequisiteNotFound, fmt.Sprintf("Prerequisite course '%s' not found", name))
		}
		if err != nil {
			return err
		}

		if prerequisite.ID == id {
			return apperrors.ErrSelfPrerequisite
		}
		if err := tx.AddPrerequisite(ctx, id, prerequisite.ID); err != nil {
			return err
		}

		views, err = prerequisitesOf(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("courseID", id).Str("prerequisite", name).Msg("Prerequisite added")
	return views, nil
}

// RemovePrerequisite unlinks a prerequisite and returns the remaining list
func (s *courseServiceImpl) RemovePrerequisite(ctx context.Context, id, prerequisiteID int64) ([]*models.CourseView, error) {
	var views []*models.CourseView
	err := s.repo.Transaction(ctx, func(ctx context.Context, tx repositories.CourseRepository) error {
		if _, err := tx.LockByID(ctx, id); err != nil {
			return err
		}

		removed, err := tx.RemovePrerequisite(ctx, id, prerequisiteID)
		if err != nil {
			return err
		}
		if !removed {
			return apperrors.NewCustomError(apperrors.ErrPrerequisiteNotFound,
				fmt.Sprintf("Course %d is not a prerequisite of course %d", prerequisiteID, id))
		}

		views, err = prerequisitesOf(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("courseID", id).Int64("prerequisiteID", prerequisiteID).Msg("Prerequisite removed")
	return views, nil
}

// ListPrerequisites returns the direct prerequisites of an existing course
func (s *courseServiceImpl) ListPrerequisites(ctx context.Context, id int64) ([]*models.CourseView, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return prerequisitesOf(ctx, s.repo, id)
}

func prerequisitesOf(ctx context.Context, repo repositories.CourseRepository, id int64) ([]*models.CourseView, error) {
	prerequisites, err := repo.PrerequisitesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return toViews(ctx, repo, prerequisites)
}
