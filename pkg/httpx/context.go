package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID         ctxKey = "user_id"
	CtxKeyOrganizationID ctxKey = "organization_id"
)

// WithIdentity stores the resolved user and organization ids for downstream
// handlers. The organization id may be empty for routes that don't require one.
func WithIdentity(ctx context.Context, userID, organizationID string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	if organizationID != "" {
		ctx = context.WithValue(ctx, CtxKeyOrganizationID, organizationID)
	}
	return ctx
}

// UserID returns the authenticated user id, or "" when the request was not
// resolved through the authorization middleware.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// OrganizationID returns the organization context for the request, or "".
func OrganizationID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyOrganizationID).(string); ok {
		return v
	}
	return ""
}
