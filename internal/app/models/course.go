package models

// Course represents a course node in the knowledge map.
// ParentID is nil for root courses.
type Course struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	ParentID *int64 `json:"parent_id" db:"parent_id"`
}

// HasParent reports whether the course is nested under another course
func (c *Course) HasParent() bool {
	return c.ParentID != nil
}

// Clone returns a deep copy of the course
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	clone := *c
	if c.ParentID != nil {
		parentID := *c.ParentID
		clone.ParentID = &parentID
	}
	return &clone
}

// CourseView is the read model returned to API clients.
// ParentName is resolved from the parent course and is nil for roots.
type CourseView struct {
	ID         int64   `json:"id" example:"2"`
	Name       string  `json:"name" example:"Data Structures"`
	ParentID   *int64  `json:"parent_id" example:"1"`
	ParentName *string `json:"parent_name" example:"Introduction to Programming"`
}

// NewCourseView builds a view of course, enriched with the parent's name when
// parent is the course referenced by course.ParentID.
func NewCourseView(course, parent *Course) *CourseView {
	if course == nil {
		return nil
	}

	view := &CourseView{
		ID:   course.ID,
		Name: course.Name,
	}
	if course.ParentID != nil {
		parentID := *course.ParentID
		view.ParentID = &parentID
		if parent != nil && parent.ID == parentID {
			parentName := parent.Name
			view.ParentName = &parentName
		}
	}
	return view
}

// NewCourseViews maps courses to views, looking parents up in parents by id
func NewCourseViews(courses []*Course, parents map[int64]*Course) []*CourseView {
	views := make([]*CourseView, 0, len(courses))
	for _, course := range courses {
		var parent *Course
		if course.ParentID != nil {
			parent = parents[*course.ParentID]
		}
		views = append(views, NewCourseView(course, parent))
	}
	return views
}
