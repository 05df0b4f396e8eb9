package helper

import (
	"strings"

	"github.com/s0up4200/ibhelper/inkbunny"
)

// maskLength is the width of the ratings mask once padded. Position 0
// (general content) is always allowed and carries no preference.
const maskLength = 5

// Rating holds the content classes a session may retrieve
type Rating struct {
	Nudity         bool `json:"nudity"`
	Violence       bool `json:"violence"`
	SexualThemes   bool `json:"sexual_themes"`
	StrongViolence bool `json:"strong_violence"`
}

// ParseRating decodes the ratingsmask returned at login. Short masks are
// padded with '0'.
func ParseRating(mask string) Rating {
	if len(mask) < maskLength {
		mask += strings.Repeat("0", maskLength-len(mask))
	}
	return Rating{
		Nudity:         mask[1] == '1',
		Violence:       mask[2] == '1',
		SexualThemes:   mask[3] == '1',
		StrongViolence: mask[4] == '1',
	}
}

// Mask encodes the rating in the ratingsmask format
func (r Rating) Mask() string {
	var b strings.Builder
	b.WriteByte('1')
	for _, on := range []bool{r.Nudity, r.Violence, r.SexualThemes, r.StrongViolence} {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (r Rating) request(sid string) inkbunny.RatingRequest {
	return inkbunny.RatingRequest{
		SID:            sid,
		Nudity:         inkbunny.YesNoOf(r.Nudity),
		Violence:       inkbunny.YesNoOf(r.Violence),
		SexualThemes:   inkbunny.YesNoOf(r.SexualThemes),
		StrongViolence: inkbunny.YesNoOf(r.StrongViolence),
	}
}
