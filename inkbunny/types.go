package inkbunny

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// YesNo is the boolean encoding used by most request parameters.
// The zero value leaves the parameter unset.
type YesNo string

const (
	Yes YesNo = "yes"
	No  YesNo = "no"
)

// YesNoOf converts a bool into its request encoding
func YesNoOf(b bool) YesNo {
	if b {
		return Yes
	}
	return No
}

// JoinType selects how search fields or search words are combined.
type JoinType string

const (
	JoinOr  JoinType = "or"
	JoinAnd JoinType = "and"
)

// OrderBy is a search ordering accepted by api_search.php.
type OrderBy string

const (
	OrderCreated           OrderBy = "create_datetime"
	OrderLastFileUpdate    OrderBy = "last_file_update_datetime"
	OrderUnread            OrderBy = "unread_datetime"
	OrderUnreadReverse     OrderBy = "unread_datetime_reverse"
	OrderViews             OrderBy = "views"
	OrderTotalPrintSales   OrderBy = "total_print_sales"
	OrderTotalDigitalSales OrderBy = "total_digital_sales"
	OrderTotalSales        OrderBy = "total_sales"
	OrderUsername          OrderBy = "username"
	OrderFavDate           OrderBy = "fav_datetime"
	OrderFavStars          OrderBy = "fav_stars"
	OrderPool              OrderBy = "pool_order"
)

// FlexInt decodes integers that Inkbunny sends either as JSON numbers or as
// quoted strings.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", data, err)
	}
	*f = FlexInt(n)
	return nil
}

// LoginRequest is sent to api_login.php. Both fields are always sent; guest
// logins use an empty password.
type LoginRequest struct {
	Username string `url:"username"`
	Password string `url:"password"`
}

// LoginResponse is returned by api_login.php
type LoginResponse struct {
	SID         string `json:"sid"`
	UserID      string `json:"user_id"`
	RatingsMask string `json:"ratingsmask"`
}

// LogoutRequest is sent to api_logout.php
type LogoutRequest struct {
	SID string `url:"sid"`
}

// LogoutResponse is returned by api_logout.php
type LogoutResponse struct {
	SID    string `json:"sid"`
	Logout string `json:"logout"`
}

// RatingRequest is sent to api_userrating.php. The tag indices are fixed by
// the remote API: 2 nudity, 3 violence, 4 sexual themes, 5 strong violence.
type RatingRequest struct {
	SID            string `url:"sid"`
	Nudity         YesNo  `url:"tag[2],omitempty"`
	Violence       YesNo  `url:"tag[3],omitempty"`
	SexualThemes   YesNo  `url:"tag[4],omitempty"`
	StrongViolence YesNo  `url:"tag[5],omitempty"`
}

// RatingResponse is returned by api_userrating.php
type RatingResponse struct {
	SID string `json:"sid"`
}

// SearchRIDRequest continues an earlier search through its result-set id.
type SearchRIDRequest struct {
	SID                string `url:"sid"`
	RID                string `url:"rid,omitempty"`
	SubmissionIDsOnly  YesNo  `url:"submission_ids_only,omitempty"`
	SubmissionsPerPage int    `url:"submissions_per_page,omitempty"`
	Page               int    `url:"page,omitempty"`
	KeywordsList       YesNo  `url:"keywords_list,omitempty"`
	NoSubmissions      YesNo  `url:"no_submissions,omitempty"`
	GetRID             YesNo  `url:"get_rid,omitempty"`
}

// SearchRequest is a fresh search. It shares the paging parameters of
// SearchRIDRequest.
type SearchRequest struct {
	SearchRIDRequest

	FieldJoinType  JoinType `url:"field_join_type,omitempty"`
	Text           string   `url:"text,omitempty"`
	StringJoinType JoinType `url:"string_join_type,omitempty"`
	Keywords       YesNo    `url:"keywords,omitempty"`
	Title          YesNo    `url:"title,omitempty"`
	Description    YesNo    `url:"description,omitempty"`
	MD5            YesNo    `url:"md5,omitempty"`
	KeywordID      string   `url:"keyword_id,omitempty"`
	Username       string   `url:"username,omitempty"`
	UserID         string   `url:"user_id,omitempty"`
	FavsUserID     string   `url:"favs_user_id,omitempty"`
	UnreadOnly     YesNo    `url:"unread_submissions,omitempty"`
	Type           string   `url:"type,omitempty"`
	Sales          string   `url:"sales,omitempty"`
	PoolID         string   `url:"pool_id,omitempty"`
	OrderBy        OrderBy  `url:"orderby,omitempty"`
	DaysLimit      int      `url:"dayslimit,omitempty"`
	Random         YesNo    `url:"random,omitempty"`
	Scraps         YesNo    `url:"scraps,omitempty"`
	CountLimit     int      `url:"count_limit,omitempty"`
}

// SearchParam echoes one parameter the server applied to a search
type SearchParam struct {
	Name  string          `json:"param_name"`
	Value json.RawMessage `json:"param_value"`
}

// Submission is the summary record returned by searches
type Submission struct {
	SubmissionID       string  `json:"submission_id"`
	Title              string  `json:"title"`
	Username           string  `json:"username"`
	UserID             string  `json:"user_id"`
	CreateDatetime     string  `json:"create_datetime"`
	RatingID           string  `json:"rating_id"`
	RatingName         string  `json:"rating_name"`
	SubmissionTypeID   string  `json:"submission_type_id"`
	TypeName           string  `json:"type_name"`
	FileName           string  `json:"file_name"`
	MimeType           string  `json:"mimetype"`
	PageCount          FlexInt `json:"pagecount"`
	Public             string  `json:"public"`
	Scraps             string  `json:"scraps"`
	FriendsOnly        string  `json:"friends_only"`
	GuestBlock         string  `json:"guest_block"`
	Hidden             string  `json:"hidden"`
	FileURLFull        string  `json:"file_url_full"`
	FileURLScreen      string  `json:"file_url_screen"`
	ThumbnailURLMedium string  `json:"thumbnail_url_medium"`
}

// SearchResponse is returned by api_search.php
type SearchResponse struct {
	SID                  string        `json:"sid"`
	UserLocation         string        `json:"user_location"`
	ResultsCountAll      FlexInt       `json:"results_count_all"`
	ResultsCountThisPage FlexInt       `json:"results_count_thispage"`
	PagesCount           FlexInt       `json:"pages_count"`
	Page                 FlexInt       `json:"page"`
	RID                  string        `json:"rid,omitempty"`
	RIDTTL               string        `json:"rid_ttl,omitempty"`
	SearchParams         []SearchParam `json:"search_params"`
	Submissions          []Submission  `json:"submissions"`
}

// SubmissionsRequest is sent to api_submissions.php
type SubmissionsRequest struct {
	SID                         string `url:"sid"`
	SubmissionIDs               string `url:"submission_ids"`
	ShowDescription             YesNo  `url:"show_description,omitempty"`
	ShowDescriptionBBCodeParsed YesNo  `url:"show_description_bbcode_parsed,omitempty"`
	ShowWriting                 YesNo  `url:"show_writing,omitempty"`
	ShowWritingBBCodeParsed     YesNo  `url:"show_writing_bbcode_parsed,omitempty"`
	ShowPools                   YesNo  `url:"show_pools,omitempty"`
}

// Keyword is a tag attached to a submission
type Keyword struct {
	KeywordID        string  `json:"keyword_id"`
	KeywordName      string  `json:"keyword_name"`
	Contributed      string  `json:"contributed"`
	SubmissionsCount FlexInt `json:"submissions_count"`
}

// File is one file of a (possibly multi-page) submission
type File struct {
	FileID              string `json:"file_id"`
	FileName            string `json:"file_name"`
	MimeType            string `json:"mimetype"`
	FileURLFull         string `json:"file_url_full"`
	FileURLScreen       string `json:"file_url_screen"`
	SubmissionFileOrder string `json:"submission_file_order"`
	FullFileMD5         string `json:"full_file_md5"`
}

// Pool is a submission pool the submission belongs to
type Pool struct {
	PoolID            string  `json:"pool_id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Count             FlexInt `json:"count"`
	SubmissionLeftID  string  `json:"submission_left_submission_id"`
	SubmissionRightID string  `json:"submission_right_submission_id"`
}

// DetailedSubmission is the full record returned by api_submissions.php
type DetailedSubmission struct {
	Submission

	Keywords                []Keyword `json:"keywords"`
	Files                   []File    `json:"files"`
	Pools                   []Pool    `json:"pools"`
	Description             string    `json:"description"`
	DescriptionBBCodeParsed string    `json:"description_bbcode_parsed"`
	Writing                 string    `json:"writing"`
	WritingBBCodeParsed     string    `json:"writing_bbcode_parsed"`
	Views                   FlexInt   `json:"views"`
	FavoritesCount          FlexInt   `json:"favorites_count"`
	LastFileUpdateDatetime  string    `json:"last_file_update_datetime"`
}

// SubmissionsResponse is returned by api_submissions.php
type SubmissionsResponse struct {
	SID          string               `json:"sid"`
	UserLocation string               `json:"user_location"`
	ResultsCount FlexInt              `json:"results_count"`
	Submissions  []DetailedSubmission `json:"submissions"`
}
