package model

// ContactSubject is the category a contact form message is filed under.
type ContactSubject string

const (
	ContactSubjectGeneral         ContactSubject = "General"
	ContactSubjectIssues          ContactSubject = "Issues"
	ContactSubjectFeatureRequest  ContactSubject = "FeatureRequest"
	ContactSubjectRoleApplication ContactSubject = "RoleApplication"
)

// Valid reports whether s is a known contact subject.
func (s ContactSubject) Valid() bool {
	switch s {
	case ContactSubjectGeneral, ContactSubjectIssues, ContactSubjectFeatureRequest, ContactSubjectRoleApplication:
		return true
	}
	return false
}

// Email is a plain-text message handed to the Mailer.
type Email struct {
	From     string
	FromName string
	ReplyTo  string
	To       string
	Subject  string
	Body     string
}
