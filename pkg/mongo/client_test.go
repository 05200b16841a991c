package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
)

func TestNewRequiresURI(t *testing.T) {
	_, err := New(context.Background(), config.MongoConfig{Database: "mealbridge"}, nil)
	require.ErrorIs(t, err, errURIRequired)
}

func TestNewRequiresDatabase(t *testing.T) {
	_, err := New(context.Background(), config.MongoConfig{URI: "mongodb://localhost:27017"}, nil)
	require.ErrorIs(t, err, errDatabaseRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Collection(DeliveryLocationsCollection))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}
