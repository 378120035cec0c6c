package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupFallsBackWithoutBaseURL(t *testing.T) {
	t.Parallel()

	c := &LookupClient{}
	r := c.Lookup(context.Background(), "7891234567895")
	require.Equal(t, "fallback", r.Source)
	require.Equal(t, "Produto 7891234567895", r.Name)
	require.Equal(t, "7891234567895", r.EAN)
}

func TestLookupViaProductAPI(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.FormValue("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
	})
	mux.HandleFunc("GET /products/search", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.Equal(t, "7891234567895", r.URL.Query().Get("ean"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{
			"title":"Liquidificador Mondial Turbo 220V Preto LQ-1000",
			"attributes":[{"name":"Cor","value_name":"Preto"}]
		}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := &LookupClient{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"}
	ctx := context.Background()

	r := c.Lookup(ctx, "7891234567895")
	require.Equal(t, "api", r.Source)
	require.Equal(t, "Liquidificador Mondial Turbo 220V Preto LQ-1000", r.Name)
	require.Equal(t, "Preto", r.Color)
	require.Equal(t, "220V", r.Voltage) // pulled from the title
	require.NotEmpty(t, r.Model)

	// Token is cached across lookups.
	_ = c.Lookup(ctx, "7891234567895")
	require.Equal(t, int64(1), tokenCalls.Load())
}

func TestLookupFallsBackToSiteSearch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<h2 class="result"><a href="#">Cafeteira El&eacute;trica Inox 110V</a></h2>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := &LookupClient{BaseURL: srv.URL}
	r := c.Lookup(context.Background(), "12345678")
	require.Equal(t, "search", r.Source)
	require.Equal(t, "Cafeteira Elétrica Inox 110V", r.Name)
	require.Equal(t, "110V", r.Voltage)
	require.Equal(t, "inox", r.Color)
}

func TestLookupTotalFailureStillReturnsARecord(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := &LookupClient{BaseURL: srv.URL}
	r := c.Lookup(context.Background(), "12345678")
	require.Equal(t, "fallback", r.Source)
	require.Equal(t, "Produto 12345678", r.Name)
}

func TestFillFromTitle(t *testing.T) {
	t.Parallel()

	r := LookupResult{Name: "Ventilador Arno Bivolt branco VF-40"}
	fillFromTitle(&r)
	require.Equal(t, "BIVOLT", r.Voltage)
	require.Equal(t, "branco", r.Color)
	require.Equal(t, "VF-40", r.Model)

	plain := LookupResult{Name: "Produto generico"}
	fillFromTitle(&plain)
	require.Empty(t, plain.Voltage)
	require.Empty(t, plain.Color)
	require.Empty(t, plain.Model)
}
