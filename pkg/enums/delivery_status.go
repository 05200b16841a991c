package enums

import (
	"fmt"
	"slices"
	"strings"
)

// DeliveryStatus is the coarse lifecycle stage of an order's delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending        DeliveryStatus = "pending"
	DeliveryStatusPreparing      DeliveryStatus = "preparing"
	DeliveryStatusOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryStatusDelivered      DeliveryStatus = "delivered"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusPreparing,
	DeliveryStatusOutForDelivery,
	DeliveryStatusDelivered,
}

// DeliveryTransition is one edge of the delivery state machine and the role allowed to take it.
type DeliveryTransition struct {
	From  DeliveryStatus
	To    DeliveryStatus
	Actor UserRole
}

var deliveryTransitions = []DeliveryTransition{
	{From: DeliveryStatusPending, To: DeliveryStatusPreparing, Actor: UserRoleHomeChef},
	{From: DeliveryStatusPending, To: DeliveryStatusPreparing, Actor: UserRoleAdmin},
	{From: DeliveryStatusPreparing, To: DeliveryStatusOutForDelivery, Actor: UserRoleHomeChef},
	{From: DeliveryStatusPreparing, To: DeliveryStatusOutForDelivery, Actor: UserRoleDeliveryPerson},
	{From: DeliveryStatusPreparing, To: DeliveryStatusOutForDelivery, Actor: UserRoleAdmin},
	{From: DeliveryStatusOutForDelivery, To: DeliveryStatusDelivered, Actor: UserRoleDeliveryPerson},
	{From: DeliveryStatusOutForDelivery, To: DeliveryStatusDelivered, Actor: UserRoleAdmin},
}

type deliveryTransitionKey struct {
	from  DeliveryStatus
	to    DeliveryStatus
	actor UserRole
}

var deliveryTransitionSet = func() map[deliveryTransitionKey]struct{} {
	m := make(map[deliveryTransitionKey]struct{}, len(deliveryTransitions))
	for _, t := range deliveryTransitions {
		m[deliveryTransitionKey{from: t.From, to: t.To, actor: t.Actor}] = struct{}{}
	}
	return m
}()

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	return slices.Contains(validDeliveryStatuses, d)
}

// IsTerminal reports whether no transition leaves this status.
func (d DeliveryStatus) IsTerminal() bool {
	return len(NextDeliveryStatuses(d)) == 0
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	return parse(validDeliveryStatuses, "delivery status", value)
}

// CanTransitionDelivery reports whether actor may move an order from one delivery status to another.
func CanTransitionDelivery(from, to DeliveryStatus, actor UserRole) error {
	if _, ok := deliveryTransitionSet[deliveryTransitionKey{from: from, to: to, actor: actor}]; ok {
		return nil
	}
	next := NextDeliveryStatuses(from)
	if len(next) == 0 {
		return fmt.Errorf("delivery status %s is terminal", from)
	}
	names := make([]string, 0, len(next))
	for _, s := range next {
		names = append(names, string(s))
	}
	return fmt.Errorf("transition %s -> %s not allowed for %s (allowed next: %s)", from, to, actor, strings.Join(names, ", "))
}

// NextDeliveryStatuses lists the statuses reachable in one step from status.
func NextDeliveryStatuses(status DeliveryStatus) []DeliveryStatus {
	var next []DeliveryStatus
	seen := map[DeliveryStatus]bool{}
	for _, t := range deliveryTransitions {
		if t.From == status && !seen[t.To] {
			next = append(next, t.To)
			seen[t.To] = true
		}
	}
	return next
}

// DeliveryTransitions returns a copy of the full transition table.
func DeliveryTransitions() []DeliveryTransition {
	out := make([]DeliveryTransition, len(deliveryTransitions))
	copy(out, deliveryTransitions)
	return out
}
