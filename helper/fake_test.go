package helper

import (
	"context"
	"fmt"

	"github.com/s0up4200/ibhelper/inkbunny"
)

// fakeAPI implements inkbunny.API for testing. Each *Errs slice is consumed
// one entry per call; a nil entry or an empty slice means success.
type fakeAPI struct {
	mask string
	rid  string

	logins      []inkbunny.LoginRequest
	logouts     []inkbunny.LogoutRequest
	ratings     []inkbunny.RatingRequest
	searches    []inkbunny.SearchRequest
	ridSearches []inkbunny.SearchRIDRequest
	details     []inkbunny.SubmissionsRequest

	loginErrs  []error
	logoutErrs []error
	ratingErrs []error
	searchErrs []error
	ridErrs    []error
	detailErrs []error

	sessions int
}

func apiErr(code int) error {
	return &inkbunny.APIError{Code: code, Message: fmt.Sprintf("error %d", code)}
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakeAPI) Login(ctx context.Context, params inkbunny.LoginRequest) (*inkbunny.LoginResponse, error) {
	f.logins = append(f.logins, params)
	if err := pop(&f.loginErrs); err != nil {
		return nil, err
	}
	f.sessions++
	return &inkbunny.LoginResponse{
		SID:         fmt.Sprintf("sid-%d", f.sessions),
		UserID:      "1",
		RatingsMask: f.mask,
	}, nil
}

func (f *fakeAPI) Logout(ctx context.Context, params inkbunny.LogoutRequest) (*inkbunny.LogoutResponse, error) {
	f.logouts = append(f.logouts, params)
	if err := pop(&f.logoutErrs); err != nil {
		return nil, err
	}
	return &inkbunny.LogoutResponse{SID: params.SID, Logout: "success"}, nil
}

func (f *fakeAPI) Rating(ctx context.Context, params inkbunny.RatingRequest) (*inkbunny.RatingResponse, error) {
	f.ratings = append(f.ratings, params)
	if err := pop(&f.ratingErrs); err != nil {
		return nil, err
	}
	return &inkbunny.RatingResponse{SID: params.SID}, nil
}

func (f *fakeAPI) Search(ctx context.Context, params inkbunny.SearchRequest) (*inkbunny.SearchResponse, error) {
	f.searches = append(f.searches, params)
	if err := pop(&f.searchErrs); err != nil {
		return nil, err
	}
	resp := &inkbunny.SearchResponse{SID: params.SID, Page: inkbunny.FlexInt(params.Page)}
	if params.GetRID == inkbunny.Yes {
		resp.RID = f.rid
	}
	return resp, nil
}

func (f *fakeAPI) SearchRID(ctx context.Context, params inkbunny.SearchRIDRequest) (*inkbunny.SearchResponse, error) {
	f.ridSearches = append(f.ridSearches, params)
	if err := pop(&f.ridErrs); err != nil {
		return nil, err
	}
	return &inkbunny.SearchResponse{
		SID:  params.SID,
		Page: inkbunny.FlexInt(params.Page),
		RID:  params.RID,
	}, nil
}

func (f *fakeAPI) Submissions(ctx context.Context, params inkbunny.SubmissionsRequest) (*inkbunny.SubmissionsResponse, error) {
	f.details = append(f.details, params)
	if err := pop(&f.detailErrs); err != nil {
		return nil, err
	}
	return &inkbunny.SubmissionsResponse{SID: params.SID}, nil
}
