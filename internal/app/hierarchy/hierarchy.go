// Package hierarchy walks the parent chain of courses.
//
// Traversal happens in process, one lookup per hop, with a visited set and a
// depth cap so corrupted data can never make a query loop forever.
package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/knowledgemap/internal/app/models"
	"github.com/yigit/knowledgemap/internal/pkg/apperrors"
)

// DefaultMaxDepth bounds ancestor chains when no limit is configured.
// Writes that would exceed it are rejected, so stored chains stay readable.
const DefaultMaxDepth = 64

// Lookup resolves a course by id.
// Implementations return apperrors.ErrCourseNotFound for unknown ids.
type Lookup interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
}

// ChildLister lists the direct children of a course
type ChildLister interface {
	ChildrenOf(ctx context.Context, parentID int64) ([]*models.Course, error)
}

// Tree is the read access needed to move a course with its subtree
type Tree interface {
	Lookup
	ChildLister
}

// Engine answers ancestor queries and validates parent assignments
type Engine struct {
	MaxDepth int
}

// NewEngine creates an Engine, falling back to DefaultMaxDepth for non-positive limits
func NewEngine(maxDepth int) *Engine {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Engine{MaxDepth: maxDepth}
}

func (e *Engine) maxDepth() int {
	if e == nil || e.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return e.MaxDepth
}

// Ancestors returns the strict ancestors of id, nearest first.
// A dangling parent reference ends the chain.
func (e *Engine) Ancestors(ctx context.Context, lookup Lookup, id int64) ([]*models.Course, error) {
	start, err := lookup.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ancestors := make([]*models.Course, 0)
	visited := map[int64]struct{}{start.ID: {}}
	current := start

	for current.ParentID != nil {
		parentID := *current.ParentID
		if _, seen := visited[parentID]; seen {
			return nil, fmt.Errorf("%w: course %d is reachable from itself", apperrors.ErrCycleDetected, parentID)
		}

		parent, err := lookup.GetByID(ctx, parentID)
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(ancestors) >= e.maxDepth() {
			return nil, fmt.Errorf("%w: more than %d ancestors above course %d", apperrors.ErrHierarchyTooDeep, e.maxDepth(), id)
		}

		ancestors = append(ancestors, parent)
		visited[parentID] = struct{}{}
		current = parent
	}

	return ancestors, nil
}

// ValidateNewChild checks that a new course may be created under parentID
func (e *Engine) ValidateNewChild(ctx context.Context, lookup Lookup, parentID int64) error {
	_, err := e.chainDepth(ctx, lookup, 0, parentID)
	return err
}

// ValidateParent checks that courseID, together with its subtree, may be nested under parentID
func (e *Engine) ValidateParent(ctx context.Context, tree Tree, courseID, parentID int64) error {
	if courseID == parentID {
		return fmt.Errorf("%w: course %d cannot be its own parent", apperrors.ErrCycleDetected, courseID)
	}

	depth, err := e.chainDepth(ctx, tree, courseID, parentID)
	if err != nil {
		return err
	}

	height, err := e.SubtreeHeight(ctx, tree, courseID)
	if err != nil {
		return err
	}
	if depth+height > e.maxDepth() {
		return fmt.Errorf("%w: moving course %d would put its descendants %d levels deep", apperrors.ErrHierarchyTooDeep, courseID, depth+height)
	}
	return nil
}

// chainDepth counts the ancestors a child of parentID would have.
// courseID is the course being placed; 0 for a course not yet stored.
func (e *Engine) chainDepth(ctx context.Context, lookup Lookup, courseID, parentID int64) (int, error) {
	parent, err := lookup.GetByID(ctx, parentID)
	if errors.Is(err, apperrors.ErrCourseNotFound) {
		return 0, apperrors.ErrParentNotFound
	}
	if err != nil {
		return 0, err
	}

	depth := 1
	visited := map[int64]struct{}{parent.ID: {}}
	current := parent

	for {
		if depth > e.maxDepth() {
			return 0, fmt.Errorf("%w: course under %d would have more than %d ancestors", apperrors.ErrHierarchyTooDeep, parentID, e.maxDepth())
		}
		if current.ParentID == nil {
			return depth, nil
		}

		nextID := *current.ParentID
		if courseID != 0 && nextID == courseID {
			return 0, fmt.Errorf("%w: course %d is an ancestor of course %d", apperrors.ErrCycleDetected, courseID, parentID)
		}
		if _, seen := visited[nextID]; seen {
			return 0, fmt.Errorf("%w: existing cycle above course %d", apperrors.ErrCycleDetected, parentID)
		}

		next, err := lookup.GetByID(ctx, nextID)
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return depth, nil
		}
		if err != nil {
			return 0, err
		}

		visited[nextID] = struct{}{}
		current = next
		depth++
	}
}

// SubtreeHeight returns the number of levels below id, 0 for a leaf.
// The walk is breadth first, one ChildrenOf call per course, and stops past MaxDepth.
func (e *Engine) SubtreeHeight(ctx context.Context, children ChildLister, id int64) (int, error) {
	height := 0
	level := []int64{id}
	visited := map[int64]struct{}{id: {}}

	for {
		var next []int64
		for _, parentID := range level {
			kids, err := children.ChildrenOf(ctx, parentID)
			if err != nil {
				return 0, err
			}
			for _, kid := range kids {
				if _, seen := visited[kid.ID]; seen {
					return 0, fmt.Errorf("%w: course %d is reachable from itself", apperrors.ErrCycleDetected, kid.ID)
				}
				visited[kid.ID] = struct{}{}
				next = append(next, kid.ID)
			}
		}

		if len(next) == 0 {
			return height, nil
		}
		height++
		if height > e.maxDepth() {
			return 0, fmt.Errorf("%w: course %d has more than %d levels below it", apperrors.ErrHierarchyTooDeep, id, e.maxDepth())
		}
		level = next
	}
}
