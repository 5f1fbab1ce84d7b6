package repositories

import (
	"context"

	"github.com/yigit/knowledgemap/internal/app/models"
)

// CourseRepository persists courses, their parent links and prerequisite edges.
// Missing records are reported with apperrors.ErrCourseNotFound.
type CourseRepository interface {
	Insert(ctx context.Context, name string, parentID *int64) (*models.Course, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	// GetByIDs skips unknown ids and returns the rest ordered by id
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Course, error)
	GetByName(ctx context.Context, name string) (*models.Course, error)
	// LockByID reads a course and holds a row lock on it until the transaction ends
	LockByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, offset, limit int) ([]*models.Course, error)
	Update(ctx context.Context, id int64, name string, parentID *int64) (*models.Course, error)
	// Delete removes a course, detaches its children and drops every edge touching it
	Delete(ctx context.Context, id int64) (*models.Course, error)
	ChildrenOf(ctx context.Context, parentID int64) ([]*models.Course, error)

	AddPrerequisite(ctx context.Context, courseID, prerequisiteID int64) error
	RemovePrerequisite(ctx context.Context, courseID, prerequisiteID int64) (bool, error)
	PrerequisitesOf(ctx context.Context, courseID int64) ([]*models.Course, error)

	Ping(ctx context.Context) error

	// Transaction runs fn as one unit of work. Nested calls join the outer transaction.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx CourseRepository) error) error
}

// Repositories holds all the repository instances
type Repositories struct {
	CourseRepository CourseRepository
}

// NewRepositories groups the repository instances used by the services
func NewRepositories(courses CourseRepository) *Repositories {
	return &Repositories{
		CourseRepository: courses,
	}
}
