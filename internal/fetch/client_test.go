package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gameshelf/internal/metrics"
	"github.com/mesh-intelligence/gameshelf/internal/retry"
	"github.com/mesh-intelligence/gameshelf/internal/source"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

const collectionBody = `<items totalitems="1"><item objectid="13"><name>Catan</name></item></items>`

func newTestClient(t *testing.T, handler http.HandlerFunc, m *metrics.Metrics) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Options{
		BaseURL: srv.URL + "/",
		Timeout: 5 * time.Second,
		Retry: retry.Options{
			MaxAttempts:     4,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			Multiplier:      2,
		},
		Metrics: m,
	})
}

func TestFetchCollectionSendsParams(t *testing.T) {
	var got url.Values
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		fmt.Fprint(w, collectionBody)
	}, nil)

	body, err := c.FetchCollection(context.Background(), "meeple")
	require.NoError(t, err)

	assert.Equal(t, collectionBody, string(body))
	assert.Equal(t, "/collection", path)
	assert.Equal(t, "meeple", got.Get("username"))
	assert.Equal(t, "1", got.Get("own"))
}

func TestFetchRetriesTransientStatuses(t *testing.T) {
	statuses := []int{http.StatusAccepted, http.StatusTooManyRequests, http.StatusServiceUnavailable}
	var calls atomic.Int32
	m := metrics.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		fmt.Fprint(w, collectionBody)
	}, m)

	body, err := c.FetchCollection(context.Background(), "meeple")
	require.NoError(t, err)

	assert.Equal(t, collectionBody, string(body))
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FetchRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues(EndpointCollection, "202")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues(EndpointCollection, "200")))
}

func TestFetchGivesUpAfterAttemptCap(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}, nil)

	_, err := c.FetchCollection(context.Background(), "meeple")
	require.Error(t, err)

	assert.ErrorIs(t, err, types.ErrFetch)
	assert.Equal(t, int32(4), calls.Load())

	var se *types.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, types.StageFetch, se.Stage)
	assert.Equal(t, EndpointCollection, se.Source)
}

func TestFetchFailsFastOnPermanentErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }},
		{"empty body", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "  \n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}, nil)

			_, err := c.Fetch(context.Background(), EndpointCollection, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrFetch)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestFetchHonoursCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchCollection(ctx, "meeple")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, types.ErrFetch)
}

func playPage(page, total int, dates ...string) string {
	s := fmt.Sprintf(`<plays username="meeple" total="%d" page="%d">`, total, page)
	for i, d := range dates {
		s += fmt.Sprintf(`<play id="%d%d" date="%s"><item objectid="13"/></play>`, page, i, d)
	}
	return s + `</plays>`
}

func TestFetchPlaysWalksPages(t *testing.T) {
	pages := map[string]string{
		"1": playPage(1, 5, "2024-01-01", "2024-01-02"),
		"2": playPage(2, 5, "2024-01-03", "2024-01-04"),
		"3": playPage(3, 5, "2024-01-05"),
	}
	var requested []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Query().Get("page")
		requested = append(requested, p)
		fmt.Fprint(w, pages[p])
	}, nil)

	got, err := c.FetchPlays(context.Background(), "meeple")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, requested)
	require.Len(t, got, 3)
	assert.Equal(t, pages["3"], string(got[2]))
}

func TestFetchPlaysFollowsServerPageSize(t *testing.T) {
	pages := map[string]string{
		"1": playPage(1, 3, "2023-05-01", "2023-06-01"),
		"2": playPage(2, 3, "2023-07-14"),
	}
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, pages[r.URL.Query().Get("page")])
	}, nil)

	got, err := c.FetchPlays(context.Background(), "meeple")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, int32(2), calls.Load())
	var plays int
	for _, body := range got {
		p, err := source.ParsePlays(body)
		require.NoError(t, err)
		plays += len(p)
	}
	assert.Equal(t, 3, plays)
}

func TestFetchPlaysWithoutTotalWalksToEmptyPage(t *testing.T) {
	pages := map[string]string{
		"1": `<plays page="1"><play date="2024-01-01"><item objectid="13"/></play></plays>`,
		"2": `<plays page="2"><play date="2024-01-02"><item objectid="13"/></play></plays>`,
		"3": `<plays page="3"></plays>`,
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[r.URL.Query().Get("page")])
	}, nil)

	got, err := c.FetchPlays(context.Background(), "meeple")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestFetchPlaysRejectsShortHistory(t *testing.T) {
	pages := map[string]string{
		"1": playPage(1, 5, "2024-01-01", "2024-01-02"),
		"2": playPage(2, 5),
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[r.URL.Query().Get("page")])
	}, nil)

	_, err := c.FetchPlays(context.Background(), "meeple")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrParse)

	var se *types.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "plays page 2", se.Source)
}

func TestFetchPlaysStopsOnEmptyPage(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `<plays username="meeple" total="0" page="1"></plays>`)
	}, nil)

	got, err := c.FetchPlays(context.Background(), "meeple")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchPlaysRejectsMalformedPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<plays total="2" page="1"><play date="2024-01-01">`)
	}, nil)

	_, err := c.FetchPlays(context.Background(), "meeple")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrParse)
}
