package hospitals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medportal/medportalbackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNearby_RelaysHospitals(t *testing.T) {
	var gotLat, gotLon string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLat = r.URL.Query().Get("lat")
		gotLon = r.URL.Query().Get("lon")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hospitals":[{"name":"City Hospital","distanceKm":1.2}],"extra":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/nearby-hospitals", srv.Client())
	got, err := c.FindNearby(context.Background(), "12.97", "77.59")
	require.NoError(t, err)

	assert.Equal(t, "12.97", gotLat)
	assert.Equal(t, "77.59", gotLon)
	assert.JSONEq(t, `[{"name":"City Hospital","distanceKm":1.2}]`, string(got))
}

func TestFindNearby_MissingFieldIsNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, nil).FindNearby(context.Background(), "1", "2")
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(got))
}

func TestFindNearby_UpstreamFailures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"not found": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
		"invalid json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewClient(srv.URL, srv.Client()).FindNearby(context.Background(), "1", "2")
			assert.ErrorIs(t, err, models.ErrUpstream)
		})
	}
}

func TestFindNearby_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, nil).FindNearby(context.Background(), "1", "2")
	assert.ErrorIs(t, err, models.ErrUpstream)
}

func TestNewClient_DefaultsToTransportDefaults(t *testing.T) {
	c := NewClient("http://directory.test", nil)
	assert.Same(t, http.DefaultClient, c.httpClient)
	assert.Zero(t, c.httpClient.Timeout)
}
