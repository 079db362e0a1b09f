package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seisplot/seisplot/server/internal/config"
	"github.com/seisplot/seisplot/server/internal/query"
	"github.com/seisplot/seisplot/server/internal/store"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func anmo() query.PlotQuery {
	return query.PlotQuery{Net: "IU", Sta: "ANMO", Loc: "00", Cha: "BHZ", Start: "2020-01-01", End: "2020-01-02"}
}

func newHTTP(t *testing.T, h http.Handler, mutate func(*config.RendererConfig)) *HTTPRenderer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.RendererConfig{Endpoint: srv.URL + "/plot", Timeout: 2 * time.Second}
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := NewHTTP(cfg)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	return r
}

// --- HTTPRenderer -----------------------------------------------------------

func TestHTTP_ForwardsExactlySixFields(t *testing.T) {
	var gotQuery map[string][]string
	r := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.Query()
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes) //nolint:errcheck
	}), nil)

	img, err := r.Render(context.Background(), anmo())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(img) != string(pngBytes) {
		t.Errorf("image: got %q, want %q", img, pngBytes)
	}
	if len(gotQuery) != 6 {
		t.Errorf("forwarded params: got %d, want 6 (%v)", len(gotQuery), gotQuery)
	}
	for k, want := range map[string]string{
		"net": "IU", "sta": "ANMO", "loc": "00", "cha": "BHZ",
		"start": "2020-01-01", "end": "2020-01-02",
	} {
		if got := gotQuery[k]; len(got) != 1 || got[0] != want {
			t.Errorf("%s: got %v, want %q", k, got, want)
		}
	}
}

func TestHTTP_PreservesEndpointParams(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.Query()
		w.Write(pngBytes) //nolint:errcheck
	}))
	defer srv.Close()

	r, err := NewHTTP(config.RendererConfig{Endpoint: srv.URL + "/plot?dpi=100&net=XX", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	if _, err := r.Render(context.Background(), anmo()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if gotQuery["dpi"][0] != "100" {
		t.Errorf("dpi: got %v, want 100", gotQuery["dpi"])
	}
	if gotQuery["net"][0] != "IU" {
		t.Errorf("net: got %v, want IU (selection overrides endpoint)", gotQuery["net"])
	}
}

func TestHTTP_StatusMapping(t *testing.T) {
	cases := []struct {
		status   int
		body     string
		reason   error
		rejected bool
	}{
		{http.StatusNotFound, "No data for IU.ANMO.00.BHZ\ntraceback...", ErrNoData, true},
		{http.StatusBadRequest, "end before start", ErrInvalidQuery, true},
		{http.StatusUnprocessableEntity, "", ErrInvalidQuery, true},
		{http.StatusInternalServerError, "boom", nil, false},
		{http.StatusServiceUnavailable, "", nil, false},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			r := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body)) //nolint:errcheck
			}), nil)

			_, err := r.Render(context.Background(), anmo())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if IsRejected(err) != tc.rejected {
				t.Errorf("IsRejected: got %v, want %v (err=%v)", IsRejected(err), tc.rejected, err)
			}
			if tc.reason != nil && !errors.Is(err, tc.reason) {
				t.Errorf("errors.Is(%v, %v) = false", err, tc.reason)
			}
		})
	}
}

func TestHTTP_ErrorMessageFirstLineOnly(t *testing.T) {
	r := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("  No data for IU.ANMO  \nTraceback (most recent call last)")) //nolint:errcheck
	}), nil)

	_, err := r.Render(context.Background(), anmo())
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if re.Message != "No data for IU.ANMO" {
		t.Errorf("Message: got %q", re.Message)
	}
	if !strings.HasPrefix(re.Notice(), "No data available") {
		t.Errorf("Notice: got %q", re.Notice())
	}
}

func TestHTTP_EmptyBodyIsError(t *testing.T) {
	r := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), nil)
	if _, err := r.Render(context.Background(), anmo()); err == nil {
		t.Fatal("expected error for empty image, got nil")
	}
}

func TestHTTP_AuthModes(t *testing.T) {
	t.Setenv("TEST_PLOT_KEY", "k1")
	t.Setenv("TEST_PLOT_TOKEN", "t1")

	cases := []struct {
		name   string
		auth   config.RendererAuthConfig
		header string
		want   string
	}{
		{"apikey", config.RendererAuthConfig{Mode: "apikey", KeyEnv: "TEST_PLOT_KEY"}, "x-api-key", "k1"},
		{"apikey custom header", config.RendererAuthConfig{Mode: "apikey", Header: "x-plot", KeyEnv: "TEST_PLOT_KEY"}, "x-plot", "k1"},
		{"bearer", config.RendererAuthConfig{Mode: "bearer", TokenEnv: "TEST_PLOT_TOKEN"}, "Authorization", "Bearer t1"},
		{"none", config.RendererAuthConfig{Mode: "none"}, "Authorization", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			r := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				got = req.Header.Get(tc.header)
				w.Write(pngBytes) //nolint:errcheck
			}), func(c *config.RendererConfig) { c.Auth = tc.auth })

			if _, err := r.Render(context.Background(), anmo()); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got != tc.want {
				t.Errorf("%s: got %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestHTTP_ContextCancelled(t *testing.T) {
	r := newHTTP(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Render(ctx, anmo())
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if IsRejected(err) {
		t.Errorf("cancelled render must not be reported as a rejection: %v", err)
	}
}

// --- Cached -----------------------------------------------------------------

func TestCached_ReusesSuccessfulRender(t *testing.T) {
	var calls atomic.Int32
	next := RendererFunc(func(context.Context, query.PlotQuery) ([]byte, error) {
		calls.Add(1)
		return pngBytes, nil
	})
	r := Cached(next, store.New(time.Minute, 0))

	for i := 0; i < 3; i++ {
		img, err := r.Render(context.Background(), anmo())
		if err != nil {
			t.Fatalf("Render #%d: %v", i, err)
		}
		if string(img) != string(pngBytes) {
			t.Errorf("Render #%d: wrong image", i)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("underlying renderer calls: got %d, want 1", n)
	}
}

func TestCached_DistinctQueriesMiss(t *testing.T) {
	var calls atomic.Int32
	next := RendererFunc(func(context.Context, query.PlotQuery) ([]byte, error) {
		calls.Add(1)
		return pngBytes, nil
	})
	r := Cached(next, store.New(time.Minute, 0))

	q2 := anmo()
	q2.Cha = "BHN"
	r.Render(context.Background(), anmo()) //nolint:errcheck
	r.Render(context.Background(), q2)     //nolint:errcheck
	if n := calls.Load(); n != 2 {
		t.Errorf("underlying renderer calls: got %d, want 2", n)
	}
}

func TestCached_FailuresNotCached(t *testing.T) {
	var calls atomic.Int32
	next := RendererFunc(func(context.Context, query.PlotQuery) ([]byte, error) {
		calls.Add(1)
		return nil, &Error{Reason: ErrNoData}
	})
	st := store.New(time.Minute, 0)
	r := Cached(next, st)

	for i := 0; i < 2; i++ {
		if _, err := r.Render(context.Background(), anmo()); !errors.Is(err, ErrNoData) {
			t.Fatalf("Render: got %v, want ErrNoData", err)
		}
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("underlying renderer calls: got %d, want 2", n)
	}
	if st.Count() != 0 {
		t.Errorf("store count: got %d, want 0", st.Count())
	}
}

func TestCached_BoundedByMaxEntries(t *testing.T) {
	next := RendererFunc(func(context.Context, query.PlotQuery) ([]byte, error) {
		return pngBytes, nil
	})
	st := store.New(time.Minute, 16)
	r := Cached(next, st)

	for i := 0; i < 500; i++ {
		q := anmo()
		q.Start = fmt.Sprintf("2020-01-01T00:%02d:%02d", i/60, i%60)
		if _, err := r.Render(context.Background(), q); err != nil {
			t.Fatalf("Render #%d: %v", i, err)
		}
	}
	if n := st.Count(); n > 16 {
		t.Errorf("store count: got %d, want at most 16", n)
	}
}

func TestError_Notice(t *testing.T) {
	e := &Error{Reason: ErrInvalidQuery, Message: "end before start"}
	if e.Notice() != "The plotter rejected this selection: end before start" {
		t.Errorf("Notice: got %q", e.Notice())
	}
	if !strings.Contains(e.Error(), "invalid selection") {
		t.Errorf("Error: got %q", e.Error())
	}
	bare := &Error{Reason: ErrNoData}
	if bare.Notice() != "No data available for this selection" {
		t.Errorf("Notice: got %q", bare.Notice())
	}
}
