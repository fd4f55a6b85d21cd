package domain

// User and Vehicle are owned by the account collaborator; the engine only
// reads them to validate booking requests.
type User struct {
	ID       string
	Email    string
	FullName string
}

type Vehicle struct {
	ID     string
	UserID string
	Plate  string
}
