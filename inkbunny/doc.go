// Package inkbunny provides a typed client for the Inkbunny API.
//
// Every operation maps one request struct to one HTTP POST against a fixed
// endpoint, with the parameters carried in the URL query string and
// output_mode=json appended. Responses are decoded into typed structs.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := inkbunny.NewClient(logger,
//		inkbunny.WithTimeout(30*time.Second),
//		inkbunny.WithThrottle(2, 4),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	login, err := client.Login(ctx, inkbunny.LoginRequest{Username: "guest"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := client.Search(ctx, inkbunny.SearchRequest{
//		SearchRIDRequest: inkbunny.SearchRIDRequest{SID: login.SID, GetRID: inkbunny.Yes},
//		Text:             "fox",
//	})
//
// # Error Handling
//
// Failures are reported as *APIError. Codes issued by Inkbunny are passed
// through unchanged; connection problems and unreadable bodies use the
// reserved CodeTransport. This package never retries; see package helper for
// session renewal and result-set recovery.
//
//	var apiErr *inkbunny.APIError
//	if errors.As(err, &apiErr) && apiErr.IsSessionInvalid() {
//		// log in again
//	}
package inkbunny
