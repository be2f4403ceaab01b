package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/genricoloni/bingwall/internal/config"
	"github.com/genricoloni/bingwall/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleArchive = `{
  "images": [{
    "startdate": "20240115",
    "fullstartdate": "202401150800",
    "enddate": "20240116",
    "url": "/th?id=OHR.SeaStacks_EN-US1234567890_1920x1080.jpg&rf=LaDigue_1920x1080.jpg&pid=hp",
    "urlbase": "/th?id=OHR.SeaStacks_EN-US1234567890",
    "copyright": "Sea stacks at dawn (© Jane Doe/Getty Images)",
    "copyrightlink": "https://www.bing.com/search?q=sea+stacks",
    "title": "Standing tall",
    "hsh": "abc"
  }],
  "tooltips": {"loading": "Loading..."}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Host = server.URL
	cfg.Market = "sv-SE"

	return NewClient(zap.NewNop(), fetcher.NewHTTPFetcher(zap.NewNop()), cfg, WithLocation(time.UTC))
}

func TestClient_TodayImage(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleArchive))
	})

	desc, err := client.TodayImage(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, desc)

	assert.Equal(t, "/HPImageArchive.aspx", gotPath)
	assert.Equal(t, []string{"js"}, gotQuery["format"])
	assert.Equal(t, []string{"3"}, gotQuery["idx"])
	assert.Equal(t, []string{"1"}, gotQuery["n"])
	assert.Equal(t, []string{"sv-SE"}, gotQuery["mkt"])

	assert.Equal(t, "Standing tall", desc.Title)
	assert.Equal(t, "Sea stacks at dawn (© Jane Doe/Getty Images)", desc.Copyright)
	assert.Equal(t, "/th?id=OHR.SeaStacks_EN-US1234567890", desc.BaseName)
	assert.Contains(t, desc.RemotePath, "_1920x1080.jpg")
	assert.Equal(t, "https://www.bing.com/search?q=sea+stacks", desc.CopyrightLink.String())
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), desc.StartDate)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), desc.EndDate)
}

func TestClient_TodayImage_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images":[]}`))
	})

	desc, err := client.TodayImage(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, desc)
}

func TestClient_TodayImage_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		errContains string
	}{
		{"server error", http.StatusInternalServerError, "", "failed to fetch feed"},
		{"malformed json", http.StatusOK, `{"images": [`, "failed to decode feed"},
		{"bad date", http.StatusOK, `{"images":[{"startdate":"yesterday","enddate":"20240116"}]}`, "invalid startdate"},
		{"bad end date", http.StatusOK, `{"images":[{"startdate":"20240115","enddate":"2024-01-16"}]}`, "invalid enddate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			desc, err := client.TodayImage(context.Background(), 0)
			require.Error(t, err)
			assert.Nil(t, desc)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestClient_TodayImage_IndexOutOfRange(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	for _, idx := range []int{-1, 8} {
		_, err := client.TodayImage(context.Background(), idx)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "index %d", idx)
	}
	assert.Zero(t, calls, "no request for an invalid index")
}
