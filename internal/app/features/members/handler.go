// internal/app/features/members/handler.go
package members

import (
	"context"

	"github.com/mta-community/mtahub/internal/app/lifecycle"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

// Lifecycle is the part of the lifecycle manager the member screens use.
type Lifecycle interface {
	GetMember(ctx context.Context, actor authz.Actor, id string) (models.Member, error)
	Search(ctx context.Context, actor authz.Actor, f lifecycle.Filter) ([]models.Member, error)
	UpdateMember(ctx context.Context, actor authz.Actor, id string, upd lifecycle.MemberUpdate) (models.Member, error)
	SetStatus(ctx context.Context, actor authz.Actor, id string, status models.MemberStatus) (models.Member, error)
	DeleteMember(ctx context.Context, actor authz.Actor, id string) error
	PaymentsForMember(ctx context.Context, actor authz.Actor, memberID string) ([]models.PaymentRecord, error)
	AddPayment(ctx context.Context, actor authz.Actor, in lifecycle.PaymentInput) (models.PaymentRecord, error)
	RecordAndActivate(ctx context.Context, actor authz.Actor, memberID string, in lifecycle.PaymentInput) (lifecycle.Activation, error)
}

var _ Lifecycle = (*lifecycle.Manager)(nil)

// Handler serves /admin/members.
type Handler struct {
	Members Lifecycle
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(members Lifecycle, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Members: members, Audit: audit, Log: logger}
}
