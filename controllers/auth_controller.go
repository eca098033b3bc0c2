package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medportal/medportalbackend/dto"
	"github.com/medportal/medportalbackend/middleware"
	"github.com/medportal/medportalbackend/models"
	"github.com/medportal/medportalbackend/services"
	"github.com/rs/zerolog"
)

// CookieOptions controls the session cookie set on login. A zero TTL gives
// a browser-session cookie.
type CookieOptions struct {
	Name   string
	Domain string
	Secure bool
	TTL    time.Duration
}

func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the Medical Portal Backend!")
	}
}

func Ping() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	}
}

// POST /signup
func Signup(auth *services.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.SignupDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "Invalid signup request")
			return
		}

		_, err := auth.Signup(c.Request.Context(), services.SignupInput{
			Username:     body.Username,
			Password:     body.Password,
			Role:         models.Role(body.Role),
			Organisation: body.Organisation,
			NationalID:   body.NationalID,
		})
		if errors.Is(err, models.ErrValidation) {
			c.String(http.StatusBadRequest, "Invalid signup request")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("signup failed")
			c.String(http.StatusInternalServerError, "Error creating account")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":     "Account created successfully",
			"redirectUrl": "/login",
		})
	}
}

// POST /login
func Login(auth *services.AuthService, cookie CookieOptions, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "Invalid username or password")
			return
		}

		res, err := auth.Login(c.Request.Context(), body.Username, body.Password)
		if errors.Is(err, models.ErrInvalidCredentials) {
			c.String(http.StatusBadRequest, "Invalid username or password")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("login failed")
			c.String(http.StatusInternalServerError, "Error logging in")
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     cookie.Name,
			Value:    res.Token,
			Path:     "/",
			Domain:   cookie.Domain,
			MaxAge:   int(cookie.TTL.Seconds()),
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		c.JSON(http.StatusOK, gin.H{"redirectUrl": res.RedirectURL})
	}
}

// GET /api/session
func Session(auth *services.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, role, ok := middleware.CurrentAccount(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
			return
		}

		account, err := auth.Account(c.Request.Context(), id)
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("account_id", id).Msg("session account lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"userId":   id,
			"role":     role,
			"username": account.Username,
		})
	}
}
