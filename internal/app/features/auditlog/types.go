// internal/app/features/auditlog/types.go
package auditlog

import (
	"github.com/mta-community/mtahub/internal/app/store/audit"
)

// listResponse is the JSON body of GET /admin/audit.
type listResponse struct {
	Events     []audit.Event `json:"events"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	HasPrev    bool          `json:"has_prev"`
	HasNext    bool          `json:"has_next"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventSponsorLogin,
		audit.EventSponsorLoginFailed,
	}
	membershipEvents := []string{
		audit.EventMemberRegistered,
		audit.EventMemberUpdated,
		audit.EventMemberStatus,
		audit.EventMemberCancelled,
		audit.EventMemberDeleted,
		audit.EventMemberActivated,
		audit.EventPaymentRecorded,
		audit.EventPaymentVerified,
		audit.EventPaymentRejected,
		audit.EventMembersExpired,
		audit.EventNotificationSent,
	}
	contentEvents := []string{
		audit.EventContentCreated,
		audit.EventContentUpdated,
		audit.EventContentDeleted,
	}
	adminEvents := []string{
		audit.EventSettingsUpdated,
		audit.EventPageUpdated,
		audit.EventSponsorCodeIssued,
		audit.EventSponsorSelfUpdate,
		audit.EventUserCreated,
		audit.EventUserUpdated,
		audit.EventUserDeleted,
		audit.EventOutboxRetried,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryMembership:
		return membershipEvents
	case audit.CategoryContent:
		return contentEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(membershipEvents)+len(contentEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, membershipEvents...)
		all = append(all, contentEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}

func knownEventType(category, eventType string) bool {
	for _, e := range eventTypesForCategory(category) {
		if e == eventType {
			return true
		}
	}
	return false
}
