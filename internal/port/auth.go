package port

// TokenSigner issues the credentials a client presents to the chat provider.
type TokenSigner interface {
	// CreateToken returns a signed token whose subject is exactly userID.
	CreateToken(userID string) (string, error)

	// VerifyToken checks a token issued by CreateToken and returns its subject.
	VerifyToken(token string) (string, error)
}
