package outbound

type PasswordService interface {
	HashPassword(password string) (string, error)
	// VerifyPassword reports a mismatch as (false, nil); an error means the hash itself is unusable.
	VerifyPassword(password, hash string) (bool, error)
}
