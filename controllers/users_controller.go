package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stationlab/weatherapi/database"
	"github.com/stationlab/weatherapi/dto"
	"github.com/stationlab/weatherapi/middleware"
	"github.com/stationlab/weatherapi/models"
	"github.com/stationlab/weatherapi/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GET /users
func ListUsers(users database.UserStore, limits utils.QueryLimits) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := limits.Page(c.Query("page"), c.Query("limit"))

		var filter database.UserFilter
		if role := strings.TrimSpace(c.Query("role")); role != "" {
			filter.Role = models.Role(role)
			if !filter.Role.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
				return
			}
		}

		items, total, err := users.List(c.Request.Context(), filter, page, limit)
		if err != nil {
			internalError(c, "list users", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items": items,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// GET /users/:id
func GetUser(users database.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseObjectID(c, "user")
		if !ok {
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			internalError(c, "get user", err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// PUT /users/:id
func ReplaceUser(users database.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := parseObjectID(c, "user")
		if !ok {
			return
		}

		var body dto.ReplaceUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		email := strings.TrimSpace(body.Email)

		existing, err := users.FindByID(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			internalError(c, "get user", err)
			return
		}

		if email != existing.Email {
			other, err := users.FindByEmail(ctx, email)
			if err == nil && other.ID != id {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "field": "email"})
				return
			}
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				internalError(c, "find user by email", err)
				return
			}
		}

		updated := *existing
		updated.Email = email
		updated.Role = models.Role(body.Role)
		if body.Password != "" {
			hash, err := utils.HashPassword(body.Password)
			if errors.Is(err, utils.ErrPasswordTooLong) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at most 72 bytes", "field": "password"})
				return
			}
			if err != nil {
				internalError(c, "hash password", err)
				return
			}
			updated.PasswordHash = hash
			updated.AuthToken = nil
		}

		matched, err := users.Replace(ctx, id, &updated)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "field": "email"})
				return
			}
			internalError(c, "replace user", err)
			return
		}
		if matched == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// PATCH /users/roles
func UpdateRoles(users database.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateRolesDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		modified, err := users.SetRoleCreatedBetween(c.Request.Context(), body.From.UTC(), body.To.UTC(), models.Role(body.Role))
		if err != nil {
			internalError(c, "update roles", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"modified": modified})
	}
}

// archiveUser writes the changelog copy. A failure is logged and reported
// back but does not stop the delete that follows.
func archiveUser(c *gin.Context, changelog database.Archiver, user models.User) bool {
	entry := models.NewUserDeletion(user, time.Now().UTC())
	if err := changelog.Archive(c.Request.Context(), entry); err != nil {
		log.Printf("[%s] archive user %s: %v", middleware.RequestID(c), user.ID.Hex(), err)
		return false
	}
	return true
}

// DELETE /users/:id
func DeleteUser(users database.UserStore, changelog database.Archiver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := parseObjectID(c, "user")
		if !ok {
			return
		}

		user, err := users.FindByID(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			internalError(c, "get user", err)
			return
		}

		archived := archiveUser(c, changelog, *user)

		deleted, err := users.Delete(ctx, id)
		if err != nil {
			internalError(c, "delete user", err)
			return
		}
		if deleted == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "archived": archived})
	}
}

// DELETE /users?from=&to=
// Removes every student whose last login falls in the range.
func DeleteInactiveStudents(users database.UserStore, changelog database.Archiver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		from, to, ok := requiredRange(c)
		if !ok {
			return
		}

		students, err := users.FindStudentsLastLoginBetween(ctx, from, to)
		if err != nil {
			internalError(c, "find students", err)
			return
		}

		ids := make([]bson.ObjectID, 0, len(students))
		archived := 0
		for _, s := range students {
			if archiveUser(c, changelog, s) {
				archived++
			}
			ids = append(ids, s.ID)
		}

		deleted, err := users.DeleteMany(ctx, ids)
		if err != nil {
			internalError(c, "delete students", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": deleted, "archived": archived})
	}
}

// requiredRange reads the mandatory from/to query pair.
func requiredRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, errFrom := utils.ParseTimeQuery(c.Query("from"))
	to, errTo := utils.ParseTimeQuery(c.Query("to"))
	if errFrom != nil || errTo != nil || from == nil || to == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC 3339 timestamps"})
		return time.Time{}, time.Time{}, false
	}
	if from.After(*to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return time.Time{}, time.Time{}, false
	}
	return *from, *to, true
}
