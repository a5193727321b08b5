package models

// RoleType defines the portal role carried in JWT claims
type RoleType string

const (
	RoleStudent RoleType = "STUDENT"
	RoleAdmin   RoleType = "ADMIN"
)

// Category defines the reservation category of a student or seat pool
type Category string

const (
	CategoryGeneral Category = "General"
	CategoryOBC     Category = "OBC"
	CategorySC      Category = "SC"
	CategoryST      Category = "ST"
	CategoryEWS     Category = "EWS"
)

// Categories lists all categories in a fixed order.
// Order matters wherever the ledger or a snapshot is serialized.
var Categories = []Category{CategoryGeneral, CategoryOBC, CategorySC, CategoryST, CategoryEWS}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneral, CategoryOBC, CategorySC, CategoryST, CategoryEWS:
		return true
	}
	return false
}

// ExamType defines the entrance examination a rank belongs to
type ExamType string

const (
	ExamKCET   ExamType = "KCET"
	ExamCOMEDK ExamType = "COMEDK"
	ExamOther  ExamType = "Other"
)

// IsValid reports whether e is a known exam type
func (e ExamType) IsValid() bool {
	switch e {
	case ExamKCET, ExamCOMEDK, ExamOther:
		return true
	}
	return false
}
