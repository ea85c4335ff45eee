package enums

// AuditAction names a privileged mutation recorded in the admin audit log.
type AuditAction string

const (
	AuditActionGiftSubscription   AuditAction = "gift_subscription"
	AuditActionRemoveGift         AuditAction = "remove_gift"
	AuditActionLinkSubscription   AuditAction = "link_subscription"
	AuditActionCancelSubscription AuditAction = "cancel_subscription"
	AuditActionResumeSubscription AuditAction = "resume_subscription"
	AuditActionSyncPricing        AuditAction = "sync_pricing"
	AuditActionInvalidatePricing  AuditAction = "invalidate_pricing"
)

// AuditActions lists every recorded action.
var AuditActions = []AuditAction{
	AuditActionGiftSubscription,
	AuditActionRemoveGift,
	AuditActionLinkSubscription,
	AuditActionCancelSubscription,
	AuditActionResumeSubscription,
	AuditActionSyncPricing,
	AuditActionInvalidatePricing,
}

func (a AuditAction) String() string { return string(a) }
