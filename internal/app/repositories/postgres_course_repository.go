package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/knowledgemap/internal/app/hierarchy"
	"github.com/yigit/knowledgemap/internal/app/models"
	"github.com/yigit/knowledgemap/internal/db"
	"github.com/yigit/knowledgemap/internal/pkg/apperrors"
	"github.com/yigit/knowledgemap/internal/pkg/dberrors"
	"github.com/yigit/knowledgemap/internal/pkg/logger"
)

// Constraint names created by the courses migration
const (
	constraintCourseName          = "courses_name_key"
	constraintCourseParent        = "courses_parent_id_fkey"
	constraintCourseParentNotSelf = "courses_parent_not_self"
	constraintPrereqCourse        = "course_prerequisites_course_id_fkey"
	constraintPrereqTarget        = "course_prerequisites_prerequisite_id_fkey"
	constraintPrereqNotSelf       = "course_prerequisites_not_self"
)

// hierarchyLockKey serializes transactions that attach courses to a parent
const hierarchyLockKey int64 = 0x6b6d6170

var courseColumns = []string{"id", "name", "parent_id"}

// DBTX is the subset of pgx shared by pools and transactions
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCourseRepository handles course database operations
type PostgresCourseRepository struct {
	database *db.PostgresDB
	q        DBTX
	inTx     bool
	sb       squirrel.StatementBuilderType
	engine   *hierarchy.Engine
}

// NewPostgresCourseRepository creates a new PostgresCourseRepository
func NewPostgresCourseRepository(database *db.PostgresDB, engine *hierarchy.Engine) *PostgresCourseRepository {
	if engine == nil {
		engine = hierarchy.NewEngine(hierarchy.DefaultMaxDepth)
	}
	return &PostgresCourseRepository{
		database: database,
		q:        database.Pool,
		sb:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		engine:   engine,
	}
}

func (r *PostgresCourseRepository) withTx(tx pgx.Tx) *PostgresCourseRepository {
	return &PostgresCourseRepository{
		database: r.database,
		q:        tx,
		inTx:     true,
		sb:       r.sb,
		engine:   r.engine,
	}
}

// Transaction runs fn inside a database transaction
func (r *PostgresCourseRepository) Transaction(ctx context.Context, fn func(ctx context.Context, tx CourseRepository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, r.withTx(tx))
	})
}

// Ping checks database connectivity
func (r *PostgresCourseRepository) Ping(ctx context.Context) error {
	return r.database.Ping(ctx)
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	if err := row.Scan(&course.ID, &course.Name, &course.ParentID); err != nil {
		return nil, err
	}
	return course, nil
}

func (r *PostgresCourseRepository) queryCourses(ctx context.Context, query squirrel.Sqlizer, op string) ([]*models.Course, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error building course SQL")
		return nil, fmt.Errorf("failed to build %s query: %w", op, err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error executing course query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			logger.Error().Err(err).Str("op", op).Msg("Error scanning course row")
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error iterating course rows")
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, nil
}

func (r *PostgresCourseRepository) queryCourse(ctx context.Context, query squirrel.Sqlizer, op string) (*models.Course, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("Error building course SQL")
		return nil, fmt.Errorf("failed to build %s query: %w", op, err)
	}

	course, err := scanCourse(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, translateCourseError(err, op)
	}
	return course, nil
}

// translateCourseError maps constraint violations to domain errors
func translateCourseError(err error, op string) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, constraintCourseName):
		return apperrors.ErrDuplicateName
	case dberrors.IsForeignKeyViolation(err, constraintCourseParent):
		return apperrors.ErrParentNotFound
	case dberrors.IsCheckViolation(err, constraintCourseParentNotSelf):
		return apperrors.ErrCycleDetected
	case dberrors.IsForeignKeyViolation(err, constraintPrereqCourse),
		dberrors.IsForeignKeyViolation(err, constraintPrereqTarget):
		return apperrors.ErrCourseNotFound
	case dberrors.IsCheckViolation(err, constraintPrereqNotSelf):
		return apperrors.ErrSelfPrerequisite
	}
	logger.Error().Err(err).Str("op", op).Msg("Error executing course statement")
	return fmt.Errorf("error executing %s: %w", op, err)
}

// Insert creates a course
func (r *PostgresCourseRepository) Insert(ctx context.Context, name string, parentID *int64) (*models.Course, error) {
	query := r.sb.Insert("courses").
		Columns("name", "parent_id").
		Values(name, parentID).
		Suffix("RETURNING id, name, parent_id")
	if parentID == nil {
		return r.queryCourse(ctx, query, "insert course")
	}

	var created *models.Course
	err := r.Transaction(ctx, func(ctx context.Context, txRepo CourseRepository) error {
		tx := txRepo.(*PostgresCourseRepository)
		if err := tx.lockHierarchy(ctx); err != nil {
			return err
		}
		if err := tx.engine.ValidateNewChild(ctx, tx, *parentID); err != nil {
			return err
		}

		var err error
		created, err = tx.queryCourse(ctx, query, "insert course")
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// lockHierarchy takes the transaction-scoped lock guarding parent assignments
func (r *PostgresCourseRepository) lockHierarchy(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hierarchyLockKey); err != nil {
		return fmt.Errorf("failed to acquire hierarchy lock: %w", err)
	}
	return nil
}

// GetByID retrieves a course by ID
func (r *PostgresCourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	query := r.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"id": id}).
		Limit(1)
	return r.queryCourse(ctx, query, "get course by id")
}

// GetByIDs retrieves the courses with the given IDs
func (r *PostgresCourseRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Course, error) {
	if len(ids) == 0 {
		return []*models.Course{}, nil
	}
	query := r.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id ASC")
	return r.queryCourses(ctx, query, "get courses by ids")
}

// GetByName retrieves a course by its exact name
func (r *PostgresCourseRepository) GetByName(ctx context.Context, name string) (*models.Course, error) {
	query := r.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"name": name}).
		Limit(1)
	return r.queryCourse(ctx, query, "get course by name")
}

// LockByID retrieves a course and row-locks it.
// FOR NO KEY UPDATE still lets other transactions reference the row as a parent.
func (r *PostgresCourseRepository) LockByID(ctx context.Context, id int64) (*models.Course, error) {
	query := r.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR NO KEY UPDATE")
	return r.queryCourse(ctx, query, "lock course")
}

// List retrieves courses in insertion order
func (r *PostgresCourseRepository) List(ctx context.Context, offset, limit int) ([]*models.Course, error) {
	if offset < 0 {
		offset = 0
	}
	query := r.sb.Select(courseColumns...).
		From("courses").
		OrderBy("id ASC").
		Offset(uint64(offset))
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return r.queryCourses(ctx, query, "list courses")
}

// Update renames and re-parents a course
func (r *PostgresCourseRepository) Update(ctx context.Context, id int64, name string, parentID *int64) (*models.Course, error) {
	var updated *models.Course
	err := r.Transaction(ctx, func(ctx context.Context, txRepo CourseRepository) error {
		tx := txRepo.(*PostgresCourseRepository)

		if parentID != nil {
			if err := tx.lockHierarchy(ctx); err != nil {
				return err
			}
		}

		current, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}

		if parentID != nil && !sameParent(current.ParentID, parentID) {
			if err := tx.engine.ValidateParent(ctx, tx, id, *parentID); err != nil {
				return err
			}
		}

		query := tx.sb.Update("courses").
			SetMap(map[string]interface{}{
				"name":      name,
				"parent_id": parentID,
			}).
			Where(squirrel.Eq{"id": id}).
			Suffix("RETURNING id, name, parent_id")

		updated, err = tx.queryCourse(ctx, query, "update course")
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a course; the schema detaches children and drops edges
func (r *PostgresCourseRepository) Delete(ctx context.Context, id int64) (*models.Course, error) {
	query := r.sb.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, name, parent_id")
	return r.queryCourse(ctx, query, "delete course")
}

// ChildrenOf retrieves the direct children of a course
func (r *PostgresCourseRepository) ChildrenOf(ctx context.Context, parentID int64) ([]*models.Course, error) {
	query := r.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"parent_id": parentID}).
		OrderBy("id ASC")
	return r.queryCourses(ctx, query, "list children")
}

// AddPrerequisite records that prerequisiteID should precede courseID
func (r *PostgresCourseRepository) AddPrerequisite(ctx context.Context, courseID, prerequisiteID int64) error {
	if courseID == prerequisiteID {
		return apperrors.ErrSelfPrerequisite
	}

	sql, args, err := r.sb.Insert("course_prerequisites").
		Columns("course_id", "prerequisite_id").
		Values(courseID, prerequisiteID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add prerequisite query: %w", err)
	}

	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return translateCourseError(err, "add prerequisite")
	}
	return nil
}

// RemovePrerequisite deletes an edge and reports whether it existed
func (r *PostgresCourseRepository) RemovePrerequisite(ctx context.Context, courseID, prerequisiteID int64) (bool, error) {
	sql, args, err := r.sb.Delete("course_prerequisites").
		Where(squirrel.Eq{"course_id": courseID, "prerequisite_id": prerequisiteID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build remove prerequisite query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return false, translateCourseError(err, "remove prerequisite")
	}
	return tag.RowsAffected() > 0, nil
}

// PrerequisitesOf lists the direct prerequisites of a course
func (r *PostgresCourseRepository) PrerequisitesOf(ctx context.Context, courseID int64) ([]*models.Course, error) {
	query := r.sb.Select("c.id", "c.name", "c.parent_id").
		From("courses c").
		Join("course_prerequisites p ON p.prerequisite_id = c.id").
		Where(squirrel.Eq{"p.course_id": courseID}).
		OrderBy("c.id ASC")
	return r.queryCourses(ctx, query, "list prerequisites")
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
