package models

// School is one entry of the schools.json directory dump.
type School struct {
	SchoolName string `json:"school_name" validate:"required"`
	Location   string `json:"location"`
}

// SchoolDocument is the Firestore shape of a school. SchoolNameOnly is the
// name with its regional prefix removed, used for search.
type SchoolDocument struct {
	SchoolName     string `firestore:"school_name"`
	SchoolNameOnly string `firestore:"school_name_only"`
	Location       string `firestore:"location"`
}
