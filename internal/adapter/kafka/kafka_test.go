package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/quake-watch-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	fetchedAt := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := domain.Event{
		Place:     "8 km SW of Volcano, Hawaii",
		Magnitude: 2.5,
		Time:      time.Date(2024, 4, 26, 14, 50, 0, 0, time.UTC),
		DetailURL: "https://earthquake.usgs.gov/earthquakes/eventpage/hv74",
	}

	msg, err := serializeToMessage(fetchedAt, event)
	require.NoError(t, err)

	assert.Equal(t, []byte(event.DetailURL), msg.Key)
	assert.Contains(t, string(msg.Value), `"place":"8 km SW of Volcano, Hawaii"`)
	assert.Contains(t, string(msg.Value), `"magnitude":2.5`)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "fetched_at", msg.Headers[0].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[0].Value)
}
