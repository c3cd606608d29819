package countries

import (
	"chat-desk/domain"
	"chat-desk/errors"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const payload = `[
  {"name":{"common":"United States"},"cca2":"US","idd":{"root":"+1","suffixes":["201","202"]}},
  {"name":{"common":"Åland Islands"},"cca2":"AX","idd":{"root":"+3","suffixes":["5818"]}},
  {"name":{"common":"Antarctica"},"cca2":"AQ","idd":{}},
  {"name":{"common":"France"},"cca2":"FR","idd":{"root":"+3","suffixes":["3"]}},
  {"name":{"common":"Heard Island"},"cca2":"HM","idd":{"root":"","suffixes":[]}},
  {"name":{"common":"Zimbabwe"},"cca2":"ZW","idd":{"root":"+2","suffixes":["63"]}},
  {"name":{"common":"Belgium"},"cca2":"BE","idd":{"root":"+3","suffixes":["2"]}}
]`

func TestClient_List(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("name,cca2,idd", r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/v3.1/all?fields=name,cca2,idd", time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))

	countries, err := client.List(context.Background())

	req.NoError(err)
	req.Equal([]domain.Country{
		{DisplayName: "Åland Islands", DialCode: "+35818", RegionCode: "AX"},
		{DisplayName: "Belgium", DialCode: "+32", RegionCode: "BE"},
		{DisplayName: "France", DialCode: "+33", RegionCode: "FR"},
		{DisplayName: "United States", DialCode: "+1201", RegionCode: "US"},
		{DisplayName: "Zimbabwe", DialCode: "+263", RegionCode: "ZW"},
	}, countries)
}

func TestClient_List_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"not":"a list"`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			countries, err := NewClient(server.URL, time.Second, slog.Default()).List(context.Background())

			req.ErrorIs(err, errors.ErrCountriesUnavailable)
			req.NotNil(countries)
			req.Empty(countries)
		})
	}
}

func TestClient_List_Unreachable(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	countries, err := NewClient(url, 200*time.Millisecond, slog.Default()).List(context.Background())

	req.ErrorIs(err, errors.ErrCountriesUnavailable)
	req.Empty(countries)
}
