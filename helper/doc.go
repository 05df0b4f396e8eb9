// Package helper adds session handling on top of package inkbunny.
//
// A Helper remembers the session id and credentials from Login and sends every
// authenticated call through one recovery policy:
//
//   - an expired session (error 2) triggers a fresh login with the stored
//     credentials, after which the call is repeated; guest sessions also get
//     their last rating applied again
//   - an unusable result-set id (errors 34 and 35) while paging replaces the
//     RID-bound request with a fresh search for the same page
//
// Each error code is recovered at most once per call. Any other failure is
// returned to the caller as the *inkbunny.APIError it was.
//
// # Usage
//
//	client, _ := inkbunny.NewClient(logger)
//	h := helper.New(client, logger)
//
//	if _, err := h.Login(ctx, "", ""); err != nil { // guest
//		return err
//	}
//	defer h.Logout(ctx)
//
//	page, err := h.SearchTags(ctx, []string{"fox"}, false, 1, 20)
//	if err != nil {
//		return err
//	}
//	next, err := page.NextPage(ctx)
//
// A Helper serializes its operations; share it between goroutines only if
// that is acceptable, otherwise create one Helper per session.
package helper
