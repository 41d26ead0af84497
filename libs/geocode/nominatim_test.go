package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimClient_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "-23.5505", r.URL.Query().Get("lat"))
		assert.Equal(t, "-46.6333", r.URL.Query().Get("lon"))
		assert.Equal(t, "fleet-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"display_name": "Praça da Sé, São Paulo",
			"address": {"road": "Praça da Sé", "town": "São Paulo", "state": "SP", "postcode": "01001-000", "country": "Brasil"}
		}`))
	}))
	defer server.Close()

	client := NewNominatimClient(server.URL+"/", "fleet-test", time.Second)
	address, err := client.Reverse(context.Background(), -23.5505, -46.6333)
	require.NoError(t, err)

	assert.Equal(t, Address{
		DisplayName: "Praça da Sé, São Paulo",
		Road:        "Praça da Sé",
		City:        "São Paulo",
		State:       "SP",
		Postcode:    "01001-000",
		Country:     "Brasil",
	}, address)
}

func TestNominatimClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusServiceUnavailable, `{}`},
		{"api error", http.StatusOK, `{"error": "Unable to geocode"}`},
		{"broken body", http.StatusOK, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewNominatimClient(server.URL, "", time.Second)
			_, err := client.Reverse(context.Background(), 0, 0)
			assert.Error(t, err)
		})
	}
}
