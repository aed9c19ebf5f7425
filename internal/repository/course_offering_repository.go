package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusforge/scheduler/internal/models"
)

// CourseOfferingRepository manages persistence for course offerings: one
// course's teaching load against one section within one term.
type CourseOfferingRepository struct {
	db *sqlx.DB
}

// NewCourseOfferingRepository constructs a new course offering repository.
func NewCourseOfferingRepository(db *sqlx.DB) *CourseOfferingRepository {
	return &CourseOfferingRepository{db: db}
}

// List returns course offerings matching filter criteria, joined against
// classes so department/semester can be filtered without denormalizing
// them onto the offering row.
func (r *CourseOfferingRepository) List(ctx context.Context, filter models.CourseOfferingFilter) ([]models.CourseOffering, int, error) {
	base := "FROM course_offerings co JOIN classes c ON c.id = co.section_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("co.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("c.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Semester != 0 {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.IsElective != nil {
		conditions = append(conditions, fmt.Sprintf("co.is_elective = $%d", len(args)+1))
		args = append(args, *filter.IsElective)
	}
	if filter.IsCombined != nil {
		conditions = append(conditions, fmt.Sprintf("co.is_combined = $%d", len(args)+1))
		args = append(args, *filter.IsCombined)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT co.id, co.term_id, co.course_code, co.section_id, co.faculty_ids, co.l_hours, co.t_hours, co.p_hours, co.credits, co.enrollment, co.is_combined, co.is_elective, co.basket_id, co.fixed_room_id, co.created_at, co.updated_at %s ORDER BY co.course_code ASC LIMIT %d OFFSET %d`, base, size, offset)
	var offerings []models.CourseOffering
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course offerings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course offerings: %w", err)
	}
	return offerings, total, nil
}

// ListForTerm returns every offering for a term, unpaginated, in the form
// the generation service feeds into the placement engine.
func (r *CourseOfferingRepository) ListForTerm(ctx context.Context, termID string) ([]models.CourseOffering, error) {
	const query = `SELECT id, term_id, course_code, section_id, faculty_ids, l_hours, t_hours, p_hours, credits, enrollment, is_combined, is_elective, basket_id, fixed_room_id, created_at, updated_at FROM course_offerings WHERE term_id = $1 ORDER BY course_code ASC`
	var offerings []models.CourseOffering
	if err := r.db.SelectContext(ctx, &offerings, query, termID); err != nil {
		return nil, fmt.Errorf("list course offerings for term: %w", err)
	}
	return offerings, nil
}

// FindByID returns a course offering record by ID.
func (r *CourseOfferingRepository) FindByID(ctx context.Context, id string) (*models.CourseOffering, error) {
	const query = `SELECT id, term_id, course_code, section_id, faculty_ids, l_hours, t_hours, p_hours, credits, enrollment, is_combined, is_elective, basket_id, fixed_room_id, created_at, updated_at FROM course_offerings WHERE id = $1`
	var offering models.CourseOffering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// Create persists a course offering record.
func (r *CourseOfferingRepository) Create(ctx context.Context, offering *models.CourseOffering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = now
	}
	offering.UpdatedAt = now

	const query = `INSERT INTO course_offerings (id, term_id, course_code, section_id, faculty_ids, l_hours, t_hours, p_hours, credits, enrollment, is_combined, is_elective, basket_id, fixed_room_id, created_at, updated_at) VALUES (:id, :term_id, :course_code, :section_id, :faculty_ids, :l_hours, :t_hours, :p_hours, :credits, :enrollment, :is_combined, :is_elective, :basket_id, :fixed_room_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create course offering: %w", err)
	}
	return nil
}

// Update modifies a course offering record.
func (r *CourseOfferingRepository) Update(ctx context.Context, offering *models.CourseOffering) error {
	offering.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_offerings SET course_code = :course_code, section_id = :section_id, faculty_ids = :faculty_ids, l_hours = :l_hours, t_hours = :t_hours, p_hours = :p_hours, credits = :credits, enrollment = :enrollment, is_combined = :is_combined, is_elective = :is_elective, basket_id = :basket_id, fixed_room_id = :fixed_room_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("update course offering: %w", err)
	}
	return nil
}

// Delete removes a course offering record.
func (r *CourseOfferingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_offerings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course offering: %w", err)
	}
	return nil
}
