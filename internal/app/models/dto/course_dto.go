package dto

// CourseRequest is the body of course create and update requests.
// An empty or null parent_name means the course has no parent.
type CourseRequest struct {
	Name       string  `json:"name" binding:"required,coursename" example:"Data Structures"`
	ParentName *string `json:"parent_name" binding:"omitempty,parentname" example:"Introduction to Programming"`
}

// PrerequisiteRequest is the body of add-prerequisite requests
type PrerequisiteRequest struct {
	PrerequisiteName string `json:"prerequisite_name" binding:"required,coursename" example:"Introduction to Programming"`
}

// HealthResponse reports service and storage health
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Storage string `json:"storage" example:"postgres"`
}
