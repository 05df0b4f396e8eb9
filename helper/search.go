package helper

import (
	"context"
	"fmt"
	"strings"

	"github.com/s0up4200/ibhelper/inkbunny"
)

// SearchResult is a search response that can page through its result set
type SearchResult struct {
	*inkbunny.SearchResponse

	// Cursor describes how to request the neighbouring pages
	Cursor Cursor

	helper *Helper
}

// Cursor is the state needed to continue a search: the original parameters,
// the result-set id the server issued and the current page.
type Cursor struct {
	Params inkbunny.SearchRequest
	RID    string
	Page   int
}

// Move returns the cursor for the page delta pages away
func (c Cursor) Move(delta int) (Cursor, error) {
	if c.Page == 0 {
		return Cursor{}, ErrNoPage
	}
	page := c.Page + delta
	if page < 1 {
		return Cursor{}, fmt.Errorf("%w: page %d", ErrNoPage, page)
	}
	c.Page = page
	return c, nil
}

func (c Cursor) ridRequest(sid string) inkbunny.SearchRIDRequest {
	return inkbunny.SearchRIDRequest{
		SID:                sid,
		RID:                c.RID,
		Page:               c.Page,
		SubmissionIDsOnly:  c.Params.SubmissionIDsOnly,
		SubmissionsPerPage: c.Params.SubmissionsPerPage,
		KeywordsList:       c.Params.KeywordsList,
		NoSubmissions:      c.Params.NoSubmissions,
	}
}

// freshRequest repeats the original search at the cursor's page and asks for
// a new result-set id.
func (c Cursor) freshRequest(sid string) inkbunny.SearchRequest {
	req := c.Params
	req.SID = sid
	req.RID = ""
	req.Page = c.Page
	req.GetRID = inkbunny.Yes
	return req
}

// NextPage fetches the following page of the result set
func (r *SearchResult) NextPage(ctx context.Context) (*SearchResult, error) {
	return r.turn(ctx, 1)
}

// PreviousPage fetches the preceding page of the result set
func (r *SearchResult) PreviousPage(ctx context.Context) (*SearchResult, error) {
	return r.turn(ctx, -1)
}

func (r *SearchResult) turn(ctx context.Context, delta int) (*SearchResult, error) {
	if r == nil || r.helper == nil {
		return nil, ErrNoSession
	}
	return r.helper.page(ctx, r.Cursor, delta)
}

// Search runs a fresh search
func (h *Helper) Search(ctx context.Context, params inkbunny.SearchRequest) (*SearchResult, error) {
	release, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if h.sid == "" {
		return nil, ErrNoSession
	}

	params.SID = ""
	resp, err := withRecovery(ctx, h, "search", func(ctx context.Context) (*inkbunny.SearchResponse, error) {
		req := params
		req.SID = h.sid
		return h.api.Search(ctx, req)
	}, sessionHandlers[*inkbunny.SearchResponse](h))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	h.logger.Debug().
		Int("page", int(resp.Page)).
		Int("pages", int(resp.PagesCount)).
		Int("results", int(resp.ResultsCountAll)).
		Bool("rid", resp.RID != "").
		Msg("Search completed")

	return h.newResult(resp, params, ""), nil
}

// SearchTags searches for submissions carrying all of tags. Spaces inside a
// tag become underscores. page and perPage are left to the server when 0.
func (h *Helper) SearchTags(ctx context.Context, tags []string, idsOnly bool, page, perPage int) (*SearchResult, error) {
	words := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		words = append(words, strings.ReplaceAll(tag, " ", "_"))
	}
	if len(words) == 0 {
		return nil, ErrNoTags
	}

	return h.Search(ctx, inkbunny.SearchRequest{
		SearchRIDRequest: inkbunny.SearchRIDRequest{
			SubmissionIDsOnly:  inkbunny.YesNoOf(idsOnly),
			SubmissionsPerPage: perPage,
			Page:               page,
			GetRID:             inkbunny.Yes,
		},
		Text:           strings.Join(words, " "),
		StringJoinType: inkbunny.JoinAnd,
		Keywords:       inkbunny.Yes,
	})
}

// page requests the page delta pages away from cursor through its result-set
// id, falling back to a fresh search when the server no longer knows the id.
func (h *Helper) page(ctx context.Context, from Cursor, delta int) (*SearchResult, error) {
	cursor, err := from.Move(delta)
	if err != nil {
		return nil, err
	}
	if cursor.RID == "" {
		return nil, ErrInvalidRID
	}

	release, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if h.sid == "" {
		return nil, ErrNoSession
	}

	handlers := sessionHandlers[*inkbunny.SearchResponse](h)
	freshSearch := func(ctx context.Context) (producer[*inkbunny.SearchResponse], error) {
		h.logger.Debug().
			Str("rid", cursor.RID).
			Int("page", cursor.Page).
			Msg("Result set unavailable, repeating search")
		return func(ctx context.Context) (*inkbunny.SearchResponse, error) {
			return h.api.Search(ctx, cursor.freshRequest(h.sid))
		}, nil
	}
	handlers[inkbunny.CodeResultsExpired] = freshSearch
	handlers[inkbunny.CodeInvalidRID] = freshSearch

	resp, err := withRecovery(ctx, h, "search_page", func(ctx context.Context) (*inkbunny.SearchResponse, error) {
		return h.api.SearchRID(ctx, cursor.ridRequest(h.sid))
	}, handlers)
	if err != nil {
		return nil, fmt.Errorf("fetching page %d failed: %w", cursor.Page, err)
	}

	return h.newResult(resp, cursor.Params, cursor.RID), nil
}

func (h *Helper) newResult(resp *inkbunny.SearchResponse, params inkbunny.SearchRequest, rid string) *SearchResult {
	if resp.RID != "" {
		rid = resp.RID
	}
	return &SearchResult{
		SearchResponse: resp,
		Cursor: Cursor{
			Params: params,
			RID:    rid,
			Page:   int(resp.Page),
		},
		helper: h,
	}
}

// DetailsOptions selects the optional parts of a submission record
type DetailsOptions struct {
	Description bool
	Pools       bool
	Writing     bool
}

func (o DetailsOptions) apply(req *inkbunny.SubmissionsRequest) {
	if o.Description {
		req.ShowDescription = inkbunny.Yes
		req.ShowDescriptionBBCodeParsed = inkbunny.Yes
	}
	if o.Pools {
		req.ShowPools = inkbunny.Yes
	}
	if o.Writing {
		req.ShowWriting = inkbunny.Yes
	}
}

// Details fetches full records for one or more submissions. Each id may
// itself be a comma separated list.
func (h *Helper) Details(ctx context.Context, opts DetailsOptions, ids ...string) (*inkbunny.SubmissionsResponse, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoSubmissionIDs
	}

	release, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if h.sid == "" {
		return nil, ErrNoSession
	}

	resp, err := withRecovery(ctx, h, "details", func(ctx context.Context) (*inkbunny.SubmissionsResponse, error) {
		req := inkbunny.SubmissionsRequest{
			SID:           h.sid,
			SubmissionIDs: strings.Join(cleaned, ","),
		}
		opts.apply(&req)
		return h.api.Submissions(ctx, req)
	}, sessionHandlers[*inkbunny.SubmissionsResponse](h))
	if err != nil {
		return nil, fmt.Errorf("fetching submission details failed: %w", err)
	}
	return resp, nil
}
