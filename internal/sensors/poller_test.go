package sensors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorlog/internal/datalog"
)

// mockFetcher serves canned values keyed by URL.
type mockFetcher struct {
	values map[string]string
	calls  []string
}

var errMockFailure = errors.New("mock failure")

func (m *mockFetcher) Fetch(_ context.Context, url string) (string, error) {
	m.calls = append(m.calls, url)
	v, ok := m.values[url]
	if !ok {
		return "", errMockFailure
	}
	return v, nil
}

func TestGatherOneRecordPerSensorInOrder(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.Local)
	mf := &mockFetcher{values: map[string]string{
		"http://10.0.0.1:80/temp": "21.5",
		"http://10.0.0.1:80/hum":  "40",
		"http://10.0.0.2:80/temp": "18.0",
	}}

	records := NewPoller(mf, nil).Gather(context.Background(), []Sensor{
		{Name: "lab", Address: "10.0.0.1:80", Signals: []string{"temp", "hum"}},
		{Name: "attic", Address: "10.0.0.2:80", Signals: []string{"temp", "hum"}},
	}, at)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"2024-06-01 08:30:00", "lab", "21.5", "40"}, records[0].Values())
	assert.Equal(t, []string{"2024-06-01 08:30:00", "attic", "18.0", Sentinel}, records[1].Values())
	assert.Equal(t, []string{
		"http://10.0.0.1:80/temp",
		"http://10.0.0.1:80/hum",
		"http://10.0.0.2:80/temp",
		"http://10.0.0.2:80/hum",
	}, mf.calls)
}

func TestGatherSharesTimestamp(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 30, 59, 0, time.Local)
	mf := &mockFetcher{}

	records := NewPoller(mf, nil).Gather(context.Background(), []Sensor{
		{Name: "a", Address: "h:1", Signals: []string{"x"}},
		{Name: "b", Address: "h:2", Signals: []string{"y"}},
		{Name: "c", Address: "h:3"},
	}, at)

	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, "2024-06-01 08:30:59", r.Datetime())
	}
	assert.Equal(t, []string{"2024-06-01 08:30:59", "c"}, records[2].Values())
}

func TestGatherNoSensors(t *testing.T) {
	records := NewPoller(&mockFetcher{}, nil).Gather(context.Background(), nil, time.Now())
	assert.Empty(t, records)
}

func TestGatherUnreachableSensorWritesSentinelRow(t *testing.T) {
	// Reserve a port and close it so nothing is listening there.
	srv := httptest.NewServer(http.NotFoundHandler())
	address := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)
	fetcher := NewHTTPFetcher(ClientConfig{RequestTimeout: 2 * time.Second})
	records := NewPoller(fetcher, nil).Gather(context.Background(), []Sensor{
		{Name: "lab", Address: address, Signals: []string{"temp"}},
	}, at)

	require.Len(t, records, 1)
	assert.Equal(t, []Field{
		{Key: KeyDatetime, Value: "2024-06-01 09:00:00"},
		{Key: KeyRoom, Value: "lab"},
		{Key: "temp", Value: Sentinel},
	}, records[0].Fields())
	assert.Equal(t, "2024-06-01 09:00:00,lab,###", datalog.FormatLine(records[0].Values()))
}

func TestGatherAgainstLiveSensor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/temp":
			_, _ = w.Write([]byte("22.25"))
		case "/co2":
			_, _ = w.Write([]byte("612"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	address := strings.TrimPrefix(srv.URL, "http://")
	fetcher := NewHTTPFetcher(ClientConfig{})
	records := NewPoller(fetcher, nil).Gather(context.Background(), []Sensor{
		{Name: "office", Address: address, Signals: []string{"temp", "missing", "co2"}},
	}, time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local))

	require.Len(t, records, 1)
	assert.Equal(t, []string{"2024-06-01 09:00:00", "office", "22.25", Sentinel, "612"}, records[0].Values())
}

func TestGatherCancelledContextYieldsSentinels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	address := strings.TrimPrefix(srv.URL, "http://")
	records := NewPoller(NewHTTPFetcher(ClientConfig{}), nil).Gather(ctx, []Sensor{
		{Name: "lab", Address: address, Signals: []string{"temp"}},
	}, time.Now())

	require.Len(t, records, 1)
	v, ok := records[0].Get("temp")
	require.True(t, ok)
	assert.Equal(t, Sentinel, v)
}
