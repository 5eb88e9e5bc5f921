package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stationlab/weatherapi/auth"
	"github.com/stationlab/weatherapi/dto"
	"github.com/stationlab/weatherapi/middleware"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func internalError(c *gin.Context, what string, err error) {
	log.Printf("[%s] %s: %v", middleware.RequestID(c), what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func parseObjectID(c *gin.Context, label string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + label + " id"})
		return bson.NilObjectID, false
	}
	return id, true
}

// POST /users/register
func Register(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CredentialsDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := authn.Register(c.Request.Context(), strings.TrimSpace(body.Email), body.Password)
		if errors.Is(err, auth.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "field": "email"})
			return
		}
		if errors.Is(err, auth.ErrPasswordTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at most 72 bytes", "field": "password"})
			return
		}
		if err != nil {
			internalError(c, "register", err)
			return
		}

		c.JSON(http.StatusCreated, user)
	}
}

// POST /users/login
func Login(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CredentialsDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		token, err := authn.Authenticate(c.Request.Context(), strings.TrimSpace(body.Email), body.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			internalError(c, "login", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// POST /users/logout
func Logout(authn *auth.Authenticator, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := authn.Invalidate(c.Request.Context(), middleware.TokenFromHeader(c, header))
		if errors.Is(err, auth.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		if err != nil {
			internalError(c, "logout", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GET /users/me
func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// POST /users/me/password
func ChangeMyPassword(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ChangeMyPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		err := authn.ChangePassword(c.Request.Context(), user, body.CurrentPassword, body.NewPassword)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		case errors.Is(err, auth.ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at most 72 bytes", "field": "newPassword"})
		case errors.Is(err, auth.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case err != nil:
			internalError(c, "change password", err)
		default:
			c.JSON(http.StatusOK, gin.H{"ok": true})
		}
	}
}
