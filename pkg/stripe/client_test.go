package stripe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		SecretKey:     "sk_test_abc",
		WebhookSecret: "whsec_abc",
		Currency:      "USD",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
	assert.Equal(t, "whsec_abc", client.SigningSecret())
	assert.Equal(t, "usd", client.Currency())
}

func TestNewClientValidation(t *testing.T) {
	cases := map[string]config.StripeConfig{
		"missing key":      {WebhookSecret: "whsec"},
		"missing secret":   {SecretKey: "sk_test_1"},
		"live key in test": {SecretKey: "sk_live_1", WebhookSecret: "whsec"},
		"test key in live": {SecretKey: "sk_test_1", WebhookSecret: "whsec", Env: "live"},
		"unknown env":      {SecretKey: "sk_test_1", WebhookSecret: "whsec", Env: "staging"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewClient(context.Background(), cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestNilClientAccessors(t *testing.T) {
	var c *Client
	assert.Empty(t, c.SigningSecret())
	assert.Empty(t, c.Currency())
	assert.Nil(t, NewPaymentIntentCreator(nil))
}

func TestCreatePaymentIntentRejectsNonPositiveAmount(t *testing.T) {
	creator := NewPaymentIntentCreator(&Client{currency: "usd"})
	_, err := creator.CreatePaymentIntent(context.Background(), IntentRequest{AmountMinor: 0, OrderID: "o"})
	assert.Error(t, err)
}
