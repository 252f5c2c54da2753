package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	"github.com/pathfinder-edu/pathfinder-api/pkg/database"
)

const courseColumns = "id, course_code, course_name, credits, difficulty, prerequisites, description, created_at"

// CourseRepository manages persistence for course records.
type CourseRepository struct {
	db *database.Cassandra
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *database.Cassandra) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns the course with the given id, or nil when absent.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", courseColumns, r.db.Table("courses"))
	return r.scanOne(ctx, stmt, id)
}

// FindByCode returns the course with the given course code, or nil when
// absent. Served by the secondary index on course_code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE course_code = ?", courseColumns, r.db.Table("courses"))
	return r.scanOne(ctx, stmt, code)
}

// FindByIDs resolves a batch of course ids in a single round trip. Missing
// ids are simply absent from the result; that is not an error.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE id IN ?", courseColumns, r.db.Table("courses"))
	q, err := r.db.Query(ctx, stmt, ids)
	if err != nil {
		return nil, err
	}

	iter := q.Iter()
	var courses []models.Course
	var c models.Course
	for iter.Scan(&c.ID, &c.CourseCode, &c.CourseName, &c.Credits, &c.Difficulty, &c.Prerequisites, &c.Description, &c.CreatedAt) {
		courses = append(courses, c)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("find courses by ids: %w", err)
	}
	return courses, nil
}

// Insert writes a new course row.
func (r *CourseRepository) Insert(ctx context.Context, c *models.Course) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.db.Table("courses"), courseColumns)
	q, err := r.db.Query(ctx, stmt,
		c.ID, c.CourseCode, c.CourseName, c.Credits, c.Difficulty, c.Prerequisites, c.Description, c.CreatedAt)
	if err != nil {
		return err
	}
	if err := q.Exec(); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

func (r *CourseRepository) scanOne(ctx context.Context, stmt string, arg interface{}) (*models.Course, error) {
	q, err := r.db.Query(ctx, stmt, arg)
	if err != nil {
		return nil, err
	}

	var c models.Course
	if err := q.Scan(&c.ID, &c.CourseCode, &c.CourseName, &c.Credits, &c.Difficulty, &c.Prerequisites, &c.Description, &c.CreatedAt); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &c, nil
}
