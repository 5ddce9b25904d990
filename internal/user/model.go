package user

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // только bcrypt-хэш
	APIKey       string `json:"api_key"`
}
