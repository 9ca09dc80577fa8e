package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/organizations"
	"github.com/boardmates/boardmates/pkg/models"
)

func (s *Server) handleCreateOrganization(c *gin.Context) {
	var req models.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewInvalidOrganization("body", "malformed JSON request"))
		return
	}

	o, err := s.orgs.Create(c.Request.Context(), &organizations.NewOrganization{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Set(ctxKeySubject, o.ID)
	c.JSON(http.StatusCreated, organizationInfo(o))
}

// handleListOrganizations lists all organizations, or looks a single
// organization up when a slug query parameter is present.
func (s *Server) handleListOrganizations(c *gin.Context) {
	ctx := c.Request.Context()

	if slug := c.Query("slug"); slug != "" {
		normalized := organizations.NormalizeSlug(slug)
		c.Set(ctxKeySubject, normalized)

		o, err := s.orgs.GetBySlug(ctx, normalized)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if o == nil {
			s.respondError(c, errors.NewOrganizationNotFound(normalized))
			return
		}
		c.JSON(http.StatusOK, organizationInfo(o))
		return
	}

	list, err := s.orgs.List(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]models.OrganizationInfo, 0, len(list))
	for _, o := range list {
		out = append(out, organizationInfo(o))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetOrganization(c *gin.Context) {
	id := c.Param("id")

	o, err := s.orgs.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if o == nil {
		s.respondError(c, errors.NewOrganizationNotFound(id))
		return
	}
	c.JSON(http.StatusOK, organizationInfo(o))
}

// handleDeleteOrganization removes an organization and its memberships.
// Deleting an absent organization succeeds.
func (s *Server) handleDeleteOrganization(c *gin.Context) {
	if err := s.orgs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleListMembers lists the users in an organization together with
// their membership roles. An unknown organization has no members, so
// the result is an empty list rather than an error.
func (s *Server) handleListMembers(c *gin.Context) {
	members, err := s.users.ListByOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]models.MemberInfo, 0, len(members))
	for _, m := range members {
		out = append(out, memberInfo(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAddMember(c *gin.Context) {
	orgID := c.Param("id")

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewInvalidOrganization("body", "malformed JSON request"))
		return
	}
	if req.UserID == "" {
		s.respondError(c, errors.NewInvalidOrganization("user_id", "cannot be empty"))
		return
	}
	c.Set(ctxKeySubject, orgID+"/"+req.UserID)

	role := organizations.MemberRole(req.Role)
	if err := s.orgs.AddMember(c.Request.Context(), orgID, req.UserID, role); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleUpdateMemberRole(c *gin.Context) {
	orgID := c.Param("id")
	userID := c.Param("userID")

	var req models.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewInvalidOrganization("body", "malformed JSON request"))
		return
	}
	role, err := organizations.ParseMemberRole(req.Role)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.orgs.UpdateMemberRole(c.Request.Context(), orgID, userID, role); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleRemoveMember unlinks a user from an organization. Removing an
// absent membership succeeds.
func (s *Server) handleRemoveMember(c *gin.Context) {
	if err := s.orgs.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userID")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
