package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/ibhelper/inkbunny"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		name string
		mask string
		want Rating
	}{
		{name: "empty mask", mask: "", want: Rating{}},
		{name: "general only", mask: "1", want: Rating{}},
		{name: "short mask is padded", mask: "11", want: Rating{Nudity: true}},
		{name: "three positions", mask: "101", want: Rating{Violence: true}},
		{name: "full mask", mask: "11111", want: Rating{Nudity: true, Violence: true, SexualThemes: true, StrongViolence: true}},
		{name: "mixed", mask: "10110", want: Rating{Violence: true, SexualThemes: true}},
		{name: "trailing positions ignored", mask: "1000011", want: Rating{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRating(tt.mask))
		})
	}
}

func TestRatingMask(t *testing.T) {
	assert.Equal(t, "10000", Rating{}.Mask())
	assert.Equal(t, "11010", Rating{Nudity: true, SexualThemes: true}.Mask())
	assert.Equal(t, "11111", Rating{Nudity: true, Violence: true, SexualThemes: true, StrongViolence: true}.Mask())

	r := Rating{Violence: true, StrongViolence: true}
	assert.Equal(t, r, ParseRating(r.Mask()))
}

func TestRatingRequest(t *testing.T) {
	req := Rating{Nudity: true, StrongViolence: true}.request("abc")

	values, err := inkbunny.EncodeQuery(req)
	assert.NoError(t, err)
	assert.Equal(t, "abc", values.Get("sid"))
	assert.Equal(t, "yes", values.Get("tag[2]"))
	assert.Equal(t, "no", values.Get("tag[3]"))
	assert.Equal(t, "no", values.Get("tag[4]"))
	assert.Equal(t, "yes", values.Get("tag[5]"))
}
