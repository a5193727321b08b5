package dto

// AddChoiceRequest adds one course to the student's preference list
type AddChoiceRequest struct {
	CourseID int64 `json:"courseId" binding:"required,gt=0" example:"42"`
}

// ReorderEntry assigns a new preference order to one choice
type ReorderEntry struct {
	ChoiceID        int64 `json:"choiceId" binding:"required,gt=0"`
	PreferenceOrder int   `json:"preferenceOrder" binding:"required,gt=0"`
}

// ReorderChoicesRequest reorders the whole preference list before submission
type ReorderChoicesRequest struct {
	Choices []ReorderEntry `json:"choices" binding:"required,min=1,dive"`
}

// ChoiceListResponse is the student's preference list with its limits
type ChoiceListResponse struct {
	Choices      interface{} `json:"choices"`
	TotalChoices int         `json:"totalChoices"`
	MaxChoices   int         `json:"maxChoices"`
	Submitted    bool        `json:"submitted"`
}

// EligibleCoursesResponse groups eligible courses by college
type EligibleCoursesResponse struct {
	Colleges      interface{} `json:"colleges"`
	TotalColleges int         `json:"totalColleges"`
	TotalCourses  int         `json:"totalCourses"`
}
