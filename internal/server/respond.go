package server

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	berrors "github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/observability"
	"github.com/boardmates/boardmates/internal/organizations"
	"github.com/boardmates/boardmates/internal/users"
	"github.com/boardmates/boardmates/pkg/models"
)

// respondError translates an error into an HTTP status and wire error
// body, records it on the gin context for the audit trail, and aborts
// the handler chain. Raw internal errors are never echoed verbatim.
func (s *Server) respondError(c *gin.Context, err error) {
	c.Error(err)

	resp := models.ErrorResponse{Code: int(berrors.CodeOf(err))}
	if b, ok := berrors.AsBoardError(err); ok {
		resp.Error = b.Message
		resp.Reason = b.Reason
		resp.Suggestion = b.Suggestion
	} else {
		resp.Error = "internal error"
	}

	c.AbortWithStatusJSON(statusFor(err), resp)
}

func statusFor(err error) int {
	var (
		userNotFound      *berrors.ErrUserNotFound
		orgNotFound       *berrors.ErrOrganizationNotFound
		memberNotFound    *berrors.ErrMemberNotFound
		duplicateEmail    *berrors.ErrDuplicateEmail
		duplicateSlug     *berrors.ErrDuplicateSlug
		duplicateMember   *berrors.ErrDuplicateMember
		invalidUser       *berrors.ErrInvalidUser
		invalidOrg        *berrors.ErrInvalidOrganization
		authFailed        *berrors.ErrAuthFailed
		permissionDenied  *berrors.ErrPermissionDenied
		dbUnavailable     *berrors.ErrDatabaseUnavailable
		serverUnavailable *berrors.ErrServerUnavailable
	)

	switch {
	case stderrors.As(err, &userNotFound),
		stderrors.As(err, &orgNotFound),
		stderrors.As(err, &memberNotFound):
		return http.StatusNotFound
	case stderrors.As(err, &duplicateEmail),
		stderrors.As(err, &duplicateSlug),
		stderrors.As(err, &duplicateMember):
		return http.StatusConflict
	case stderrors.As(err, &invalidUser),
		stderrors.As(err, &invalidOrg):
		return http.StatusBadRequest
	case stderrors.As(err, &authFailed):
		return http.StatusUnauthorized
	case stderrors.As(err, &permissionDenied):
		return http.StatusForbidden
	case stderrors.As(err, &dbUnavailable),
		stderrors.As(err, &serverUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func userInfo(u *users.User) models.UserInfo {
	return models.UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role.String(),
		Status:    u.Status.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func organizationInfo(o *organizations.Organization) models.OrganizationInfo {
	return models.OrganizationInfo{
		ID:        o.ID,
		Name:      o.Name,
		Slug:      o.Slug,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func memberInfo(m *organizations.Member) models.MemberInfo {
	return models.MemberInfo{
		User:     userInfo(&m.User),
		Role:     m.Role.String(),
		JoinedAt: m.JoinedAt,
	}
}

func membershipInfo(m *organizations.Membership) models.MembershipInfo {
	return models.MembershipInfo{
		Organization: organizationInfo(&m.Organization),
		Role:         m.Role.String(),
		JoinedAt:     m.JoinedAt,
	}
}

func auditSummaryResponse(sum *observability.AuditSummary) models.AuditSummaryResponse {
	resp := models.AuditSummaryResponse{
		Accepted: sum.AcceptedCount,
		Rejected: sum.RejectedCount,
	}
	for _, r := range sum.TopRejectionReasons {
		resp.TopRejectionReasons = append(resp.TopRejectionReasons, models.RejectionReason{
			Reason: r.Reason,
			Count:  r.Count,
		})
	}
	for _, a := range sum.TopActions {
		resp.TopActions = append(resp.TopActions, models.ActionCount{
			Action: a.Action,
			Count:  a.Count,
		})
	}
	return resp
}
