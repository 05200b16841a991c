package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDeliveryStatus(t *testing.T) {
	status, err := ParseDeliveryStatus("out_for_delivery")
	require.NoError(t, err)
	require.Equal(t, DeliveryStatusOutForDelivery, status)

	_, err = ParseDeliveryStatus("confirmed")
	require.Error(t, err)

	_, err = ParseDeliveryStatus("Preparing")
	require.Error(t, err, "statuses are case sensitive")
}

func TestCanTransitionDeliveryFollowsLinearOrder(t *testing.T) {
	require.NoError(t, CanTransitionDelivery(DeliveryStatusPending, DeliveryStatusPreparing, UserRoleHomeChef))
	require.NoError(t, CanTransitionDelivery(DeliveryStatusPreparing, DeliveryStatusOutForDelivery, UserRoleDeliveryPerson))
	require.NoError(t, CanTransitionDelivery(DeliveryStatusOutForDelivery, DeliveryStatusDelivered, UserRoleDeliveryPerson))
}

func TestCanTransitionDeliveryRejectsSkipsAndRegressions(t *testing.T) {
	cases := []struct {
		name  string
		from  DeliveryStatus
		to    DeliveryStatus
		actor UserRole
	}{
		{"skip preparing", DeliveryStatusPending, DeliveryStatusOutForDelivery, UserRoleAdmin},
		{"move backwards", DeliveryStatusPreparing, DeliveryStatusPending, UserRoleHomeChef},
		{"self transition", DeliveryStatusPreparing, DeliveryStatusPreparing, UserRoleHomeChef},
		{"chef cannot deliver", DeliveryStatusOutForDelivery, DeliveryStatusDelivered, UserRoleHomeChef},
		{"courier cannot start cooking", DeliveryStatusPending, DeliveryStatusPreparing, UserRoleDeliveryPerson},
		{"employee never transitions", DeliveryStatusPending, DeliveryStatusPreparing, UserRoleCorporateEmployee},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, CanTransitionDelivery(tc.from, tc.to, tc.actor))
		})
	}
}

func TestDeliveredIsTerminal(t *testing.T) {
	require.True(t, DeliveryStatusDelivered.IsTerminal())
	require.False(t, DeliveryStatusPending.IsTerminal())
	err := CanTransitionDelivery(DeliveryStatusDelivered, DeliveryStatusPending, UserRoleAdmin)
	require.ErrorContains(t, err, "terminal")
}

func TestNextDeliveryStatusesDeduplicatesActors(t *testing.T) {
	require.Equal(t, []DeliveryStatus{DeliveryStatusOutForDelivery}, NextDeliveryStatuses(DeliveryStatusPreparing))
}

func TestUserRoleConditionalFields(t *testing.T) {
	require.True(t, UserRoleCorporateEmployee.RequiresCompany())
	require.False(t, UserRoleHomeChef.RequiresCompany())
	require.True(t, UserRoleHomeChef.RequiresSpecialty())
	require.False(t, UserRoleAdmin.RequiresSpecialty())
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("Monday")
	require.NoError(t, err)
	require.Equal(t, WeekdayMonday, day)

	_, err = ParseWeekday("funday")
	require.Error(t, err)
}
