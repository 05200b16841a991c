package tracking

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

type recordingPublisher struct {
	channels []string
	payloads [][]byte
}

func (r *recordingPublisher) Publish(_ context.Context, channel string, payload any) (int64, error) {
	r.channels = append(r.channels, channel)
	r.payloads = append(r.payloads, payload.([]byte))
	return 0, nil
}

func TestNewBrokerValidation(t *testing.T) {
	_, err := NewBroker(nil, nil, "x")
	require.Error(t, err)
	_, err = NewBroker(&recordingPublisher{}, nil, "  ")
	require.Error(t, err)
}

func TestBrokerPublishesToOrderChannel(t *testing.T) {
	pub := &recordingPublisher{}
	broker, err := NewBroker(pub, nil, "mealbridge:tracking:order:")
	require.NoError(t, err)

	orderID := uuid.New()
	n, err := broker.Publish(context.Background(), LocationUpdate{OrderID: orderID, Location: types.GeographyPoint{Lat: 1.5, Lng: 2.5}})
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, pub.channels, 1)
	assert.Equal(t, "mealbridge:tracking:order:"+orderID.String(), pub.channels[0])

	var decoded struct {
		Event string `json:"event"`
		Data  struct {
			OrderID  string             `json:"orderId"`
			Location map[string]float64 `json:"location"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, "location-update", decoded.Event)
	assert.Equal(t, orderID.String(), decoded.Data.OrderID)
	assert.Equal(t, map[string]float64{"lat": 1.5, "lng": 2.5}, decoded.Data.Location)
}

func TestBrokerSubscribeRequiresSubscriber(t *testing.T) {
	broker, err := NewBroker(&recordingPublisher{}, nil, "p")
	require.NoError(t, err)
	_, err = broker.Subscribe(context.Background(), uuid.New())
	require.Error(t, err)
}
