package helper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/ibhelper/inkbunny"
)

func TestCursorMove(t *testing.T) {
	tests := []struct {
		name    string
		page    int
		delta   int
		want    int
		wantErr bool
	}{
		{name: "next", page: 1, delta: 1, want: 2},
		{name: "previous", page: 3, delta: -1, want: 2},
		{name: "previous to first", page: 2, delta: -1, want: 1},
		{name: "before first page", page: 1, delta: -1, wantErr: true},
		{name: "no page number", page: 0, delta: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Cursor{RID: "rid", Page: tt.page}
			got, err := c.Move(tt.delta)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoPage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Page)
			assert.Equal(t, "rid", got.RID)
			assert.Equal(t, tt.page, c.Page, "receiver must not change")
		})
	}
}

func TestSearchTags(t *testing.T) {
	api := &fakeAPI{rid: "rid-1"}
	h := loggedIn(t, api, "alice")

	res, err := h.SearchTags(context.Background(), []string{"fox", " red panda ", ""}, true, 2, 10)
	require.NoError(t, err)

	require.Len(t, api.searches, 1)
	req := api.searches[0]
	assert.Equal(t, "sid-1", req.SID)
	assert.Equal(t, "fox red_panda", req.Text)
	assert.Equal(t, inkbunny.JoinAnd, req.StringJoinType)
	assert.Equal(t, inkbunny.Yes, req.Keywords)
	assert.Equal(t, inkbunny.Yes, req.GetRID)
	assert.Equal(t, inkbunny.Yes, req.SubmissionIDsOnly)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 10, req.SubmissionsPerPage)

	assert.Equal(t, "rid-1", res.Cursor.RID)
	assert.Equal(t, 2, res.Cursor.Page)
	assert.Empty(t, res.Cursor.Params.SID, "cursor must not pin a session id")
}

func TestSearchTagsWithoutTags(t *testing.T) {
	api := &fakeAPI{}
	h := loggedIn(t, api, "alice")

	for _, tags := range [][]string{nil, {}, {"", "  "}} {
		_, err := h.SearchTags(context.Background(), tags, false, 1, 5)
		assert.ErrorIs(t, err, ErrNoTags)
	}
	assert.Empty(t, api.searches)
}

func TestSearchWithoutSession(t *testing.T) {
	api := &fakeAPI{}
	h := newTestHelper(t, api)

	_, err := h.SearchTags(context.Background(), []string{"fox"}, false, 1, 5)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, api.searches)
}

func TestNextPage(t *testing.T) {
	t.Run("uses the result-set id", func(t *testing.T) {
		api := &fakeAPI{rid: "rid-1"}
		h := loggedIn(t, api, "alice")

		first, err := h.SearchTags(context.Background(), []string{"fox"}, false, 1, 5)
		require.NoError(t, err)

		next, err := first.NextPage(context.Background())
		require.NoError(t, err)

		require.Len(t, api.ridSearches, 1)
		assert.Equal(t, inkbunny.SearchRIDRequest{
			SID:                "sid-1",
			RID:                "rid-1",
			Page:               2,
			SubmissionIDsOnly:  inkbunny.No,
			SubmissionsPerPage: 5,
		}, api.ridSearches[0])
		assert.Equal(t, 2, next.Cursor.Page)
		assert.Equal(t, "rid-1", next.Cursor.RID)
		assert.Len(t, api.searches, 1)
	})

	t.Run("falls back to a fresh search on invalid rid", func(t *testing.T) {
		api := &fakeAPI{rid: "rid-1"}
		h := loggedIn(t, api, "alice")

		first, err := h.SearchTags(context.Background(), []string{"fox"}, false, 1, 5)
		require.NoError(t, err)

		api.rid = "rid-2"
		api.ridErrs = []error{apiErr(inkbunny.CodeInvalidRID)}
		next, err := first.NextPage(context.Background())
		require.NoError(t, err)

		require.Len(t, api.searches, 2)
		fresh := api.searches[1]
		assert.Equal(t, "fox", fresh.Text)
		assert.Equal(t, 2, fresh.Page)
		assert.Empty(t, fresh.RID)
		assert.Equal(t, inkbunny.Yes, fresh.GetRID)
		assert.Equal(t, 2, next.Cursor.Page)
		assert.Equal(t, "rid-2", next.Cursor.RID)
	})

	t.Run("falls back to a fresh search on expired results", func(t *testing.T) {
		api := &fakeAPI{rid: "rid-1"}
		h := loggedIn(t, api, "alice")

		first, err := h.SearchTags(context.Background(), []string{"fox"}, false, 3, 5)
		require.NoError(t, err)

		api.ridErrs = []error{apiErr(inkbunny.CodeResultsExpired)}
		prev, err := first.PreviousPage(context.Background())
		require.NoError(t, err)

		require.Len(t, api.searches, 2)
		assert.Equal(t, 2, api.searches[1].Page)
		assert.Equal(t, 2, prev.Cursor.Page)
	})

	t.Run("fallback failing the same way propagates", func(t *testing.T) {
		api := &fakeAPI{rid: "rid-1"}
		h := loggedIn(t, api, "alice")

		first, err := h.SearchTags(context.Background(), []string{"fox"}, false, 1, 5)
		require.NoError(t, err)

		api.ridErrs = []error{apiErr(inkbunny.CodeInvalidRID)}
		api.searchErrs = []error{apiErr(inkbunny.CodeInvalidRID)}
		_, err = first.NextPage(context.Background())
		requireCode(t, err, inkbunny.CodeInvalidRID)
		assert.Len(t, api.ridSearches, 1)
		assert.Len(t, api.searches, 2)
	})

	t.Run("renews an expired session", func(t *testing.T) {
		api := &fakeAPI{rid: "rid-1"}
		h := loggedIn(t, api, "alice")

		first, err := h.SearchTags(context.Background(), []string{"fox"}, false, 1, 5)
		require.NoError(t, err)

		api.ridErrs = []error{apiErr(inkbunny.CodeInvalidSession)}
		_, err = first.NextPage(context.Background())
		require.NoError(t, err)

		require.Len(t, api.ridSearches, 2)
		assert.Equal(t, "sid-1", api.ridSearches[0].SID)
		assert.Equal(t, "sid-2", api.ridSearches[1].SID)
	})

	t.Run("without result-set id", func(t *testing.T) {
		api := &fakeAPI{}
		h := loggedIn(t, api, "alice")

		first, err := h.SearchTags(context.Background(), []string{"fox"}, false, 1, 5)
		require.NoError(t, err)

		_, err = first.NextPage(context.Background())
		assert.ErrorIs(t, err, ErrInvalidRID)
		assert.Empty(t, api.ridSearches)
		assert.Len(t, api.searches, 1)
	})

	t.Run("without page number", func(t *testing.T) {
		api := &fakeAPI{rid: "rid-1"}
		h := loggedIn(t, api, "alice")

		first, err := h.Search(context.Background(), inkbunny.SearchRequest{Text: "fox"})
		require.NoError(t, err)

		_, err = first.NextPage(context.Background())
		assert.ErrorIs(t, err, ErrNoPage)
		assert.Empty(t, api.ridSearches)
	})

	t.Run("previous from the first page", func(t *testing.T) {
		api := &fakeAPI{rid: "rid-1"}
		h := loggedIn(t, api, "alice")

		first, err := h.SearchTags(context.Background(), []string{"fox"}, false, 1, 5)
		require.NoError(t, err)

		_, err = first.PreviousPage(context.Background())
		assert.ErrorIs(t, err, ErrNoPage)
		assert.Empty(t, api.ridSearches)
	})

	t.Run("after logout", func(t *testing.T) {
		api := &fakeAPI{rid: "rid-1"}
		h := loggedIn(t, api, "alice")

		first, err := h.SearchTags(context.Background(), []string{"fox"}, false, 1, 5)
		require.NoError(t, err)
		_, err = h.Logout(context.Background())
		require.NoError(t, err)

		_, err = first.NextPage(context.Background())
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestDetails(t *testing.T) {
	tests := []struct {
		name string
		opts DetailsOptions
		ids  []string
		want inkbunny.SubmissionsRequest
	}{
		{
			name: "plain",
			ids:  []string{"1"},
			want: inkbunny.SubmissionsRequest{SID: "sid-1", SubmissionIDs: "1"},
		},
		{
			name: "ids are joined",
			ids:  []string{"1", " 2,3 ", ""},
			want: inkbunny.SubmissionsRequest{SID: "sid-1", SubmissionIDs: "1,2,3"},
		},
		{
			name: "description",
			opts: DetailsOptions{Description: true},
			ids:  []string{"1"},
			want: inkbunny.SubmissionsRequest{
				SID:                         "sid-1",
				SubmissionIDs:               "1",
				ShowDescription:             inkbunny.Yes,
				ShowDescriptionBBCodeParsed: inkbunny.Yes,
			},
		},
		{
			name: "writing and pools",
			opts: DetailsOptions{Writing: true, Pools: true},
			ids:  []string{"1"},
			want: inkbunny.SubmissionsRequest{
				SID:           "sid-1",
				SubmissionIDs: "1",
				ShowWriting:   inkbunny.Yes,
				ShowPools:     inkbunny.Yes,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			h := loggedIn(t, api, "alice")

			_, err := h.Details(context.Background(), tt.opts, tt.ids...)
			require.NoError(t, err)
			require.Len(t, api.details, 1)
			assert.Equal(t, tt.want, api.details[0])
		})
	}

	t.Run("no ids", func(t *testing.T) {
		api := &fakeAPI{}
		h := loggedIn(t, api, "alice")

		_, err := h.Details(context.Background(), DetailsOptions{}, " ", "")
		assert.ErrorIs(t, err, ErrNoSubmissionIDs)
		assert.Empty(t, api.details)
	})
}

// inkbunnyServer serves a fixed result set for the tag "fox" the way the
// real API pages it.
type inkbunnyServer struct {
	mu      sync.Mutex
	total   int
	forget  bool
	rids    map[string]bool
	nextRID int
	hits    map[string]int
}

func newInkbunnyServer(t *testing.T, total int) (*inkbunnyServer, *httptest.Server) {
	s := &inkbunnyServer{total: total, rids: map[string]bool{}, hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *inkbunnyServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits[r.URL.Path]++
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api_login.php":
		_ = json.NewEncoder(w).Encode(map[string]string{"sid": "session", "user_id": "0", "ratingsmask": "10000"})
	case "/api_logout.php":
		_ = json.NewEncoder(w).Encode(map[string]string{"sid": q.Get("sid"), "logout": "success"})
	case "/api_search.php":
		if rid := q.Get("rid"); rid != "" {
			if s.forget || !s.rids[rid] {
				_ = json.NewEncoder(w).Encode(map[string]any{"error_code": 35, "error_message": "Invalid RID"})
				return
			}
			s.writePage(w, q, rid)
			return
		}
		if q.Get("text") != "fox" {
			_ = json.NewEncoder(w).Encode(map[string]any{"error_code": 9, "error_message": "unexpected search"})
			return
		}
		s.nextRID++
		rid := "rid" + strconv.Itoa(s.nextRID)
		s.rids[rid] = true
		s.writePage(w, q, rid)
	default:
		http.NotFound(w, r)
	}
}

func (s *inkbunnyServer) writePage(w http.ResponseWriter, q map[string][]string, rid string) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	page, _ := strconv.Atoi(get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(get("submissions_per_page"))
	if perPage < 1 {
		perPage = 30
	}

	var subs []map[string]string
	for id := (page-1)*perPage + 1; id <= page*perPage && id <= s.total; id++ {
		subs = append(subs, map[string]string{
			"submission_id": strconv.Itoa(id),
			"title":         "fox " + strconv.Itoa(id),
			"username":      "artist",
			"pagecount":     "1",
		})
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"sid":                    get("sid"),
		"results_count_all":      strconv.Itoa(s.total),
		"results_count_thispage": len(subs),
		"pages_count":            (s.total + perPage - 1) / perPage,
		"page":                   page,
		"rid":                    rid,
		"submissions":            subs,
	})
}

func submissionIDs(res *SearchResult) []string {
	ids := make([]string, 0, len(res.Submissions))
	for _, sub := range res.Submissions {
		ids = append(ids, sub.SubmissionID)
	}
	return ids
}

func TestPaginationAgainstServer(t *testing.T) {
	ctx := context.Background()

	newHelper := func(t *testing.T) (*inkbunnyServer, *Helper) {
		t.Helper()
		server, srv := newInkbunnyServer(t, 12)
		client, err := inkbunny.NewClient(zerolog.Nop(), inkbunny.WithBaseURL(srv.URL))
		require.NoError(t, err)
		h := New(client, zerolog.Nop())
		_, err = h.Login(ctx, "", "")
		require.NoError(t, err)
		return server, h
	}

	t.Run("next then previous", func(t *testing.T) {
		server, h := newHelper(t)

		first, err := h.SearchTags(ctx, []string{"fox"}, false, 1, 5)
		require.NoError(t, err)
		assert.Equal(t, 1, int(first.Page))
		assert.Equal(t, 3, int(first.PagesCount))
		assert.Equal(t, []string{"1", "2", "3", "4", "5"}, submissionIDs(first))

		second, err := first.NextPage(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, int(second.Page))
		assert.Equal(t, []string{"6", "7", "8", "9", "10"}, submissionIDs(second))

		back, err := second.PreviousPage(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, int(back.Page))
		assert.Equal(t, submissionIDs(first), submissionIDs(back))

		third, err := second.NextPage(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"11", "12"}, submissionIDs(third))

		assert.Equal(t, 4, server.hits["/api_search.php"])
		assert.Equal(t, 1, server.nextRID, "paging must reuse the result set")
	})

	t.Run("forgotten result set", func(t *testing.T) {
		server, h := newHelper(t)

		first, err := h.SearchTags(ctx, []string{"fox"}, false, 1, 5)
		require.NoError(t, err)

		server.mu.Lock()
		server.forget = true
		server.mu.Unlock()

		second, err := first.NextPage(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, int(second.Page))
		assert.Equal(t, []string{"6", "7", "8", "9", "10"}, submissionIDs(second))
		assert.Equal(t, "rid2", second.Cursor.RID)
		assert.Equal(t, 3, server.hits["/api_search.php"])
	})
}
