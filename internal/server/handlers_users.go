package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boardmates/boardmates/internal/auth"
	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/users"
	"github.com/boardmates/boardmates/pkg/models"
)

func (s *Server) handleCreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewInvalidUser("body", "malformed JSON request"))
		return
	}

	n := users.NewUser{Email: req.Email, Name: req.Name}
	if req.Role != "" {
		role, err := users.ParseRole(req.Role)
		if err != nil {
			s.respondError(c, err)
			return
		}
		n.Role = role
	}
	if req.Status != "" {
		status, err := users.ParseStatus(req.Status)
		if err != nil {
			s.respondError(c, err)
			return
		}
		n.Status = status
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.respondError(c, err)
			return
		}
		n.PasswordHash = hash
	}

	u, err := s.users.Create(c.Request.Context(), &n)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Set(ctxKeySubject, u.ID)
	c.JSON(http.StatusCreated, userInfo(u))
}

// handleListUsers lists all users, or looks a single user up when an
// email query parameter is present.
func (s *Server) handleListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	if email := c.Query("email"); email != "" {
		normalized := users.NormalizeEmail(email)
		c.Set(ctxKeySubject, normalized)

		u, err := s.users.GetByEmail(ctx, normalized)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if u == nil {
			s.respondError(c, errors.NewUserNotFound(normalized))
			return
		}
		c.JSON(http.StatusOK, userInfo(u))
		return
	}

	list, err := s.users.List(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]models.UserInfo, 0, len(list))
	for _, u := range list {
		out = append(out, userInfo(u))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetUser(c *gin.Context) {
	id := c.Param("id")

	u, err := s.users.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if u == nil {
		s.respondError(c, errors.NewUserNotFound(id))
		return
	}
	c.JSON(http.StatusOK, userInfo(u))
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewInvalidUser("body", "malformed JSON request"))
		return
	}

	upd := users.Update{Email: req.Email, Name: req.Name}
	if req.Role != nil {
		role, err := users.ParseRole(*req.Role)
		if err != nil {
			s.respondError(c, err)
			return
		}
		upd.Role = &role
	}
	if req.Status != nil {
		status, err := users.ParseStatus(*req.Status)
		if err != nil {
			s.respondError(c, err)
			return
		}
		upd.Status = &status
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.respondError(c, err)
			return
		}
		upd.PasswordHash = &hash
	}

	u, err := s.users.Update(c.Request.Context(), id, &upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if u == nil {
		s.respondError(c, errors.NewUserNotFound(id))
		return
	}
	c.JSON(http.StatusOK, userInfo(u))
}

// handleDeleteUser removes a user. Deleting an absent user succeeds,
// so repeated deletes are safe.
func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleListMemberships lists the organizations a user belongs to.
// An unknown user has no memberships, so the result is an empty list
// rather than an error.
func (s *Server) handleListMemberships(c *gin.Context) {
	memberships, err := s.orgs.ListMemberships(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]models.MembershipInfo, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, membershipInfo(m))
	}
	c.JSON(http.StatusOK, out)
}
