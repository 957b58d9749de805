package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// TokenHandler issues admin JWTs after checking the configured credential.
// This is deliberately a single fixed admin account; full user management is
// out of scope for this service.
type TokenHandler struct {
	cfg       JWTConfig
	adminUser string
	passHash  []byte
}

func NewTokenHandler(cfg JWTConfig, adminUser, adminPassHash string) *TokenHandler {
	return &TokenHandler{cfg: cfg, adminUser: adminUser, passHash: []byte(adminPassHash)}
}

func (h *TokenHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/token", h.IssueToken)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *TokenHandler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	if req.Username != h.adminUser ||
		bcrypt.CompareHashAndPassword(h.passHash, []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := IssueToken(h.cfg, req.Username, []string{"admin"})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not sign token")
	}

	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer"})
}
