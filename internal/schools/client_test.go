package schools

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// neisPage builds a schoolInfo response body with the given total and rows.
func neisPage(total int, names ...string) map[string]any {
	rows := make([]map[string]string, 0, len(names))
	for _, n := range names {
		rows = append(rows, map[string]string{"SCHUL_NM": n, "LCTN_SC_NM": "서울특별시"})
	}
	return map[string]any{
		"schoolInfo": []any{
			map[string]any{"head": []any{
				map[string]any{"list_total_count": total},
				map[string]any{"RESULT": map[string]string{"CODE": "INFO-000"}},
			}},
			map[string]any{"row": rows},
		},
	}
}

type fakeNEIS struct {
	mu       sync.Mutex
	requests []string
	pages    map[string][]map[string]any
}

func (f *fakeNEIS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("SCHUL_KND_SC_NM")
	page, _ := strconv.Atoi(q.Get("pIndex"))

	f.mu.Lock()
	f.requests = append(f.requests, fmt.Sprintf("%s:%d", kind, page))
	f.mu.Unlock()

	pages := f.pages[kind]
	if page < 1 || page > len(pages) {
		_ = json.NewEncoder(w).Encode(map[string]any{"RESULT": map[string]string{"CODE": "INFO-200"}})
		return
	}
	_ = json.NewEncoder(w).Encode(pages[page-1])
}

func TestFetchKind_PaginatesUntilTotal(t *testing.T) {
	fake := &fakeNEIS{pages: map[string][]map[string]any{
		"중학교": {
			neisPage(5, "A중학교", "B중학교"),
			neisPage(5, "C중학교", "D중학교"),
			neisPage(5, "E중학교"),
		},
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "key", PageSize: 2})
	schools, err := c.FetchKind(t.Context(), "중학교")
	require.NoError(t, err)

	require.Len(t, schools, 5)
	assert.Equal(t, "A중학교", schools[0].SchoolName)
	assert.Equal(t, "서울특별시", schools[0].Location)
	assert.Equal(t, "E중학교", schools[4].SchoolName)
	assert.Equal(t, []string{"중학교:1", "중학교:2", "중학교:3"}, fake.requests)
}

func TestFetchKind_SendsQueryParameters(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"KEY":             q.Get("KEY"),
			"Type":            q.Get("Type"),
			"pIndex":          q.Get("pIndex"),
			"pSize":           q.Get("pSize"),
			"SCHUL_KND_SC_NM": q.Get("SCHUL_KND_SC_NM"),
		}
		_ = json.NewEncoder(w).Encode(neisPage(1, "가고등학교"))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "secret"})
	_, err := c.FetchKind(t.Context(), "고등학교")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"KEY":             "secret",
		"Type":            "json",
		"pIndex":          "1",
		"pSize":           "1000",
		"SCHUL_KND_SC_NM": "고등학교",
	}, got)
}

func TestFetchKind_StopsWhenSchoolInfoMissing(t *testing.T) {
	fake := &fakeNEIS{pages: map[string][]map[string]any{
		"초등학교": {neisPage(10, "가초등학교")},
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, PageSize: 1})
	schools, err := c.FetchKind(t.Context(), "초등학교")
	require.NoError(t, err)

	assert.Len(t, schools, 1)
	assert.Equal(t, []string{"초등학교:1", "초등학교:2"}, fake.requests)
}

func TestFetchKind_NonOKStatusKeepsFetchedRows(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(neisPage(3, "가중학교"))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, PageSize: 1})
	schools, err := c.FetchKind(t.Context(), "중학교")
	require.NoError(t, err)

	assert.Len(t, schools, 1)
	assert.Equal(t, 2, calls)
}

func TestFetchKind_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	schools, err := c.FetchKind(t.Context(), "중학교")
	require.NoError(t, err)
	assert.Empty(t, schools)
}

func TestFetchAll_ConcatenatesInKindOrder(t *testing.T) {
	fake := &fakeNEIS{pages: map[string][]map[string]any{
		"초등학교": {neisPage(1, "가초등학교")},
		"중학교":  {neisPage(2, "가중학교", "나중학교")},
		"고등학교": {neisPage(1, "가고등학교")},
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	schools, err := c.FetchAll(t.Context(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(schools))
	for _, s := range schools {
		names = append(names, s.SchoolName)
	}
	assert.Equal(t, []string{"가초등학교", "가중학교", "나중학교", "가고등학교"}, names)
}

func TestFetchAll_TransportErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url})
	_, err := c.FetchAll(t.Context(), []string{"중학교"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch 중학교 page 1")
}
