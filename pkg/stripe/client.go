package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
)

// Accepted secret-key prefixes per account mode. Restricted keys (rk_) are allowed.
var keyPrefixes = map[string][]string{
	"test": {"sk_test_", "rk_test_"},
	"live": {"sk_live_", "rk_live_"},
}

// Client carries the account mode, webhook secret and settlement currency.
// The API key itself is installed on the stripe package.
type Client struct {
	environment   string
	signingSecret string
	currency      string
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Env))
	if mode == "" {
		mode = "test"
	}
	prefixes, ok := keyPrefixes[mode]
	if !ok {
		return nil, fmt.Errorf("unknown stripe env %q", cfg.Env)
	}

	key := strings.TrimSpace(cfg.SecretKey)
	secret := strings.TrimSpace(cfg.WebhookSecret)
	switch {
	case key == "":
		return nil, errors.New("stripe: secret key missing")
	case secret == "":
		return nil, errors.New("stripe: webhook secret missing")
	case !hasAnyPrefix(key, prefixes):
		return nil, fmt.Errorf("stripe: key does not belong to %s mode", mode)
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	stripe.Key = key
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"stripe_env": mode, "currency": currency})
		logg.Info(ctx, "stripe.ready")
	}
	return &Client{environment: mode, signingSecret: secret, currency: currency}, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Environment is "test" or "live".
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// Currency is lower-cased ISO 4217.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}
