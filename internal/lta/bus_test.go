package lta

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusArrivalsNormalizesLegs(t *testing.T) {
	soon := time.Now().Add(5*time.Minute + 30*time.Second).Format(time.RFC3339)
	past := time.Now().Add(-3 * time.Minute).Format(time.RFC3339)

	body := fmt.Sprintf(`{"BusStopCode":"83139","Services":[{
		"ServiceNo":"15","Operator":"GAS",
		"NextBus":{"OriginCode":"77009","DestinationCode":"77131","EstimatedArrival":%q,"Monitored":1,"Load":"SEA","Feature":"WAB","Type":"DD","Latitude":"1.32","Longitude":"103.93","VisitNumber":"1"},
		"NextBus2":{"EstimatedArrival":%q},
		"NextBus3":{}
	}]}`, soon, past)

	svc := newTestService(t, jsonHandler(body), "key")

	res := svc.BusArrivals(context.Background(), "83139", "")
	require.True(t, res.OK)
	assert.Equal(t, "83139", res.BusStopCode)
	require.Len(t, res.Services, 1)

	s := res.Services[0]
	assert.Equal(t, "15", s.ServiceNo)
	assert.Equal(t, "GAS", s.Operator)

	require.NotNil(t, s.Next.ETAMin)
	assert.Equal(t, 5, *s.Next.ETAMin, "floor of 5m30s")
	require.NotNil(t, s.Next.OriginCode)
	assert.Equal(t, "77009", *s.Next.OriginCode)
	require.NotNil(t, s.Next.Load)
	assert.Equal(t, "SEA", *s.Next.Load)

	require.NotNil(t, s.Next2.ETAMin)
	assert.Equal(t, 0, *s.Next2.ETAMin, "past arrivals clamp to zero")

	assert.Nil(t, s.Next3.ETAMin, "missing arrival yields null eta")
	assert.Nil(t, s.Next3.EstimatedArrival)
}

func TestBusArrivalsUnparseableArrival(t *testing.T) {
	svc := newTestService(t, jsonHandler(`{"BusStopCode":"83139","Services":[{
		"ServiceNo":"15","NextBus":{"EstimatedArrival":"not-a-time"},"NextBus2":{},"NextBus3":{}
	}]}`), "key")

	res := svc.BusArrivals(context.Background(), "83139", "")
	require.True(t, res.OK)
	leg := res.Services[0].Next
	assert.Nil(t, leg.ETAMin)
	require.NotNil(t, leg.EstimatedArrival)
	assert.Equal(t, "not-a-time", *leg.EstimatedArrival)
}

func TestBusArrivalsStopCodeFallback(t *testing.T) {
	svc := newTestService(t, jsonHandler(`{"Services":[]}`), "key")

	res := svc.BusArrivals(context.Background(), "12345", "")
	require.True(t, res.OK)
	assert.Equal(t, "12345", res.BusStopCode)
	assert.Empty(t, res.Services)
}

func TestBusArrivalsMissingKey(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called without a key")
	}, "")

	res := svc.BusArrivals(context.Background(), "83139", "15")
	assert.False(t, res.OK)
	assert.Equal(t, "missing_key", res.Error)
}

func TestBusArrivalsServiceParamAndCacheKey(t *testing.T) {
	var gotService string
	calls := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotService = r.URL.Query().Get("ServiceNo")
		_, _ = w.Write([]byte(`{"BusStopCode":"83139","Services":[]}`))
	}, "key")

	svc.BusArrivals(context.Background(), "83139", "15")
	assert.Equal(t, "15", gotService)

	// Different service on the same stop is a separate cache entry.
	svc.BusArrivals(context.Background(), "83139", "155")
	assert.Equal(t, 2, calls)

	svc.BusArrivals(context.Background(), "83139", "15")
	assert.Equal(t, 2, calls, "repeat request served from cache")
}
