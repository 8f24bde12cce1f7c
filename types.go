package vigil

import (
	"context"
	"strconv"
)

// Principal is the engine's view of an account. ID is the stable subject
// identifier carried in token sub claims; Username is echoed into access
// and refresh claims for display.
type Principal struct {
	ID       int64
	Username string
	Email    string
	Active   bool
	Verified bool
}

// SubjectID renders the principal's ID the way it appears in sub claims.
func (p Principal) SubjectID() string {
	return strconv.FormatInt(p.ID, 10)
}

// PrincipalStore is the caller-supplied account backend. The engine never
// creates principals; it resolves them by the subject carried in tokens
// and writes back verification and credential changes.
type PrincipalStore interface {
	// FindByID resolves a subject ID. found=false with a nil error means
	// the account does not exist; an error means the backend failed.
	FindByID(ctx context.Context, id int64) (Principal, bool, error)
	// SetVerified flips the account's verified flag.
	SetVerified(ctx context.Context, id int64, verified bool) error
	// SetPasswordHash replaces the account's credential hash.
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}

// TokenPair is the result of session issuance and refresh exchange.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

const tokenTypeBearer = "Bearer"

func parseSubject(subject string) (int64, error) {
	return strconv.ParseInt(subject, 10, 64)
}

// Session is the verified identity attached to an authenticated request.
type Session struct {
	Principal Principal
	// TokenID is the jti claim of the access token.
	TokenID string
}
