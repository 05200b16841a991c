package enums

import "slices"

// SubscriptionStatus is the company plan state set by billing callbacks or admins.
type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusPending,
	SubscriptionStatusActive,
	SubscriptionStatusInactive,
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	return slices.Contains(validSubscriptionStatuses, s)
}

func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	return parse(validSubscriptionStatuses, "subscription status", value)
}

// SubscriptionPlan is the tier a company subscribes to.
type SubscriptionPlan string

const (
	SubscriptionPlanBasic    SubscriptionPlan = "basic"
	SubscriptionPlanStandard SubscriptionPlan = "standard"
	SubscriptionPlanPremium  SubscriptionPlan = "premium"
)

var validSubscriptionPlans = []SubscriptionPlan{
	SubscriptionPlanBasic,
	SubscriptionPlanStandard,
	SubscriptionPlanPremium,
}

func (p SubscriptionPlan) IsValid() bool {
	return slices.Contains(validSubscriptionPlans, p)
}

func ParseSubscriptionPlan(value string) (SubscriptionPlan, error) {
	return parse(validSubscriptionPlans, "subscription plan", value)
}
