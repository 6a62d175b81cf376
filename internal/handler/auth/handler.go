package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/clinreport/portal-api/internal/guard"
	"github.com/clinreport/portal-api/internal/model"
	accountService "github.com/clinreport/portal-api/internal/service/account"
	authService "github.com/clinreport/portal-api/internal/service/auth"
	"github.com/clinreport/portal-api/internal/token"
	"github.com/clinreport/portal-api/pkg/httputil"
)

// CookieConfig describes the session credential cookie. The credential's
// expiry is enforced by the remote issuer; the cookie lifetime only
// bounds how long the browser keeps presenting it.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:   "auth_token",
		MaxAge: 7 * 24 * time.Hour,
	}
}

type Handler struct {
	svc      *authService.Service
	accounts *accountService.Service
	guard    *guard.Guard
	cookie   CookieConfig
}

func NewHandler(svc *authService.Service, accounts *accountService.Service, g *guard.Guard, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie = DefaultCookieConfig()
	}
	return &Handler{svc: svc, accounts: accounts, guard: g, cookie: cookie}
}

// RegisterRoutes wires the portal-facing auth surface.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/login", h.loginPage(model.RoleAdmin))
		admin.POST("/login", h.login(model.RoleAdmin))
	}

	doctor := r.Group("/doctor")
	{
		doctor.GET("/login", h.loginPage(model.RoleDoctor))
		doctor.POST("/login", h.login(model.RoleDoctor))
		doctor.GET("/register", h.registerPage)
		doctor.POST("/register", h.preregister)
	}

	r.POST("/logout", h.logout)
}

// login authenticates against the remote API for one portal. A credential
// minted for the other portal is rejected without ever being written to a
// cookie.
func (h *Handler) login(required model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httputil.Response{
				Success: false,
				Error:   &httputil.Error{Code: "validation_failed", Message: err.Error()},
			})
			return
		}

		result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, required)
		if err != nil {
			log.Warn().Err(err).Str("portal", string(required)).Msg("login rejected")
			httputil.RespondWithError(c, err)
			return
		}

		h.setSessionCookie(c, result.Token)
		httputil.RespondWithSuccess(c, result)
	}
}

// loginPage applies the idempotent re-entry rule: an authenticated
// visitor is moved forward to their portal, a visitor holding the other
// portal's credential is moved to that portal's login with an error.
func (h *Handler) loginPage(required model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(h.cookie.Name)
		decision := h.guard.EvaluateLoginPage(cookie, required)

		if decision.Redirect != "" {
			c.Redirect(http.StatusFound, decision.Redirect)
			return
		}

		httputil.RespondWithSuccess(c, gin.H{
			"state":  decision.State.String(),
			"portal": required,
			"error":  c.Query("error"),
		})
	}
}

func (h *Handler) registerPage(c *gin.Context) {
	cookie, _ := c.Cookie(h.cookie.Name)
	decision := h.guard.EvaluateLoginPage(cookie, model.RoleDoctor)
	if decision.Redirect != "" {
		c.Redirect(http.StatusFound, decision.Redirect)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"state": decision.State.String()})
}

// preregister creates a pending doctor account. No credential is issued;
// the applicant waits for admin approval.
func (h *Handler) preregister(c *gin.Context) {
	var req model.PreregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: "validation_failed", Message: err.Error()},
		})
		return
	}

	account, err := h.accounts.Preregister(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httputil.Response{Success: true, Data: account})
}

// logout deletes the session cookie and bounces the visitor to the login
// page of whichever portal the credential belonged to.
func (h *Handler) logout(c *gin.Context) {
	cookie, _ := c.Cookie(h.cookie.Name)

	target := guard.LoginPath(model.RoleDoctor)
	if claims := token.Decode(cookie); claims != nil {
		target = guard.LoginPath(claims.Role)
	}

	h.clearSessionCookie(c)
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) setSessionCookie(c *gin.Context, credential string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, credential, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
