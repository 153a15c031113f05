package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const adminSessionKey = "admin_logged_in"

// IsAdmin reports whether the request carries an admin session.
func IsAdmin(c *gin.Context) bool {
	v, _ := sessions.Default(c).Get(adminSessionKey).(bool)
	return v
}

// AuthRequired aborts requests without an admin session. API calls get a
// 403 with requires_auth set; page requests are sent to the login form.
func AuthRequired(c *gin.Context) {
	if IsAdmin(c) {
		c.Next()
		return
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(http.StatusForbidden, Response{
			Success:      false,
			Error:        "admin access required",
			RequiresAuth: true,
		})
		return
	}
	c.Redirect(http.StatusFound, "/admin")
	c.Abort()
}

// AuthHandler checks the admin password. Only its SHA-256 digest is kept.
type AuthHandler struct {
	passwordHash [sha256.Size]byte
}

func NewAuthHandler(password string) *AuthHandler {
	return &AuthHandler{passwordHash: sha256.Sum256([]byte(password))}
}

func (h *AuthHandler) checkPassword(password string) bool {
	sum := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(sum[:], h.passwordHash[:]) == 1
}

func (h *AuthHandler) grant(c *gin.Context) error {
	session := sessions.Default(c)
	session.Set(adminSessionKey, true)
	return session.Save()
}

// Status reports whether the caller is logged in as admin.
func (h *AuthHandler) Status(c *gin.Context) {
	admin := IsAdmin(c)
	c.JSON(http.StatusOK, gin.H{"authenticated": admin, "admin": admin})
}

// APILogin accepts {"password": "..."}.
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSONBody(c, &req); err != nil {
		badRequest(c, "[AuthHandler] APILogin", "invalid JSON body")
		return
	}

	if !h.checkPassword(req.Password) {
		log.Printf("[AuthHandler] APILogin failed: wrong password from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "wrong password"})
		return
	}
	if err := h.grant(c); err != nil {
		respondError(c, "[AuthHandler] APILogin", err)
		return
	}

	log.Printf("[AuthHandler] APILogin completed: client=%s", c.ClientIP())
	c.JSON(http.StatusOK, Response{Success: true, Message: "logged in"})
}

// FormLogin handles the login form post and redirects on success.
func (h *AuthHandler) FormLogin(c *gin.Context) {
	if !h.checkPassword(c.PostForm("password")) {
		log.Printf("[AuthHandler] FormLogin failed: wrong password from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "wrong password"})
		return
	}
	if err := h.grant(c); err != nil {
		respondError(c, "[AuthHandler] FormLogin", err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(adminSessionKey)
	if err := session.Save(); err != nil {
		log.Printf("[AuthHandler] Logout failed: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}
