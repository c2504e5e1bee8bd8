package jwt

import "time"

// Kind discriminates the token variants. It travels in the "kind" claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindVerify  Kind = "verify"
	KindReset   Kind = "reset"
)

// Payload is the sealed set of token bodies: *Access, *Refresh and *Purpose.
type Payload interface {
	Kind() Kind
	Subject() string
	payload()
}

// Access is the short-lived, stateless credential presented on every request.
type Access struct {
	UserID    string
	Email     string
	Role      string
	OrgID     string
	ExpiresAt time.Time
}

func (*Access) Kind() Kind { return KindAccess }
func (a *Access) Subject() string { return a.UserID }
func (*Access) payload() {}

// Refresh is backed 1:1 by a session row keyed by TokenID.
type Refresh struct {
	UserID    string
	TokenID   string
	FamilyID  string
	ExpiresAt time.Time
}

func (*Refresh) Kind() Kind { return KindRefresh }
func (r *Refresh) Subject() string { return r.UserID }
func (*Refresh) payload() {}

// Purpose is a single-use token for email verification or password reset.
// Purpose must be KindVerify or KindReset.
type Purpose struct {
	UserID    string
	Purpose   Kind
	TokenID   string
	ExpiresAt time.Time
}

func (p *Purpose) Kind() Kind { return p.Purpose }
func (p *Purpose) Subject() string { return p.UserID }
func (*Purpose) payload() {}

func isPurpose(k Kind) bool {
	return k == KindVerify || k == KindReset
}
