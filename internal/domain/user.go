package domain

// User es el usuario autenticado tal como lo devuelve el backend.
type User struct {
	ID       string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
