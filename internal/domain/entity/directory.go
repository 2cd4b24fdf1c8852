package entity

// Contact is an addressable party resolved from the directory
type Contact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
