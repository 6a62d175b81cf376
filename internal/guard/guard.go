package guard

import (
	"context"

	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/internal/token"
	apperrors "github.com/clinreport/portal-api/pkg/errors"
)

// State is the outcome of a single page-render admission check.
type State int

const (
	Anonymous State = iota
	SessionAuthenticated
	LinkPending
	LinkAuthenticated
	Denied
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "session_authenticated"
	case LinkPending:
		return "link_pending"
	case LinkAuthenticated:
		return "link_authenticated"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// LinkResolver resolves a link credential to an approved account.
type LinkResolver interface {
	ResolveLink(ctx context.Context, linkToken string) (*model.Account, error)
}

// Decision is what a page render acts on: the admission state, a denial
// reason when applicable, and an optional redirect target. The guard runs
// once per navigation and keeps no state beyond what the cookie and query
// string already carry.
type Decision struct {
	State    State
	Reason   apperrors.Code
	Redirect string
	Claims   *model.TokenClaims
	Account  *model.Account
}

type Guard struct {
	resolver LinkResolver
}

func New(resolver LinkResolver) *Guard {
	return &Guard{resolver: resolver}
}

// LoginPath returns the login page for a portal.
func LoginPath(role model.Role) string {
	if role == model.RoleAdmin {
		return "/admin/login"
	}
	return "/doctor/login"
}

// HomePath returns the landing page for a portal.
func HomePath(role model.Role) string {
	if role == model.RoleAdmin {
		return "/admin"
	}
	return "/doctor"
}

func loginRedirect(role model.Role, reason apperrors.Code) string {
	return LoginPath(role) + "?error=" + string(reason)
}

// EvaluatePage gates a portal page. A cookie decoding to the wrong role
// or failing to decode is an explicit denial, never a silent fall-through
// to anonymous: an admin holding a stale cookie on the doctor portal must
// be told what happened.
func (g *Guard) EvaluatePage(ctx context.Context, cookie, queryToken string, required model.Role) Decision {
	if cookie != "" {
		claims := token.Decode(cookie)
		if claims == nil {
			return Decision{
				State:    Denied,
				Reason:   apperrors.CodeInvalidToken,
				Redirect: loginRedirect(required, apperrors.CodeInvalidToken),
			}
		}
		if claims.Role != required {
			reason := apperrors.CodeWrongPortal
			if claims.Role == model.RoleAdmin && required == model.RoleDoctor {
				reason = apperrors.CodeAdminDetected
			}
			return Decision{
				State:    Denied,
				Reason:   apperrors.CodeWrongPortal,
				Redirect: loginRedirect(claims.Role, reason),
			}
		}
		return Decision{State: SessionAuthenticated, Claims: claims}
	}

	if queryToken != "" {
		account, err := g.resolver.ResolveLink(ctx, queryToken)
		if err != nil {
			reason := apperrors.CodeOf(err)
			return Decision{
				State:    Denied,
				Reason:   reason,
				Redirect: loginRedirect(required, reason),
			}
		}
		if account.Role != required {
			return Decision{
				State:    Denied,
				Reason:   apperrors.CodeWrongPortal,
				Redirect: loginRedirect(required, apperrors.CodeWrongPortal),
			}
		}
		return Decision{State: LinkAuthenticated, Account: account}
	}

	return Decision{State: Anonymous, Redirect: LoginPath(required)}
}

// EvaluateLoginPage gates a login form. An already-authenticated visitor
// is redirected forward to their portal home instead of being shown the
// form again; a visitor carrying the other portal's credential is sent to
// that portal's login with an explanatory error. A cookie that does not
// decode at all just shows the form.
func (g *Guard) EvaluateLoginPage(cookie string, required model.Role) Decision {
	if cookie == "" {
		return Decision{State: Anonymous}
	}

	claims := token.Decode(cookie)
	if claims == nil {
		return Decision{State: Anonymous}
	}

	if claims.Role == required {
		return Decision{
			State:    SessionAuthenticated,
			Claims:   claims,
			Redirect: HomePath(required),
		}
	}

	reason := apperrors.CodeWrongPortal
	if claims.Role == model.RoleAdmin && required == model.RoleDoctor {
		reason = apperrors.CodeAdminDetected
	}
	return Decision{
		State:    Denied,
		Reason:   apperrors.CodeWrongPortal,
		Claims:   claims,
		Redirect: loginRedirect(claims.Role, reason),
	}
}
