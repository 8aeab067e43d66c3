package models

import "strings"

type Age string

const (
	AgeBaby   Age = "Baby"
	AgeYoung  Age = "Young"
	AgeAdult  Age = "Adult"
	AgeSenior Age = "Senior"
)

// AgeOrder is the display and zero-fill order for ages.
var AgeOrder = []Age{AgeBaby, AgeYoung, AgeAdult, AgeSenior}

type Sex string

const (
	SexFemale Sex = "Female"
	SexMale   Sex = "Male"
)

var SexOrder = []Sex{SexFemale, SexMale}

type Size string

const (
	SizeSmall      Size = "Small"
	SizeMedium     Size = "Medium"
	SizeLarge      Size = "Large"
	SizeExtraLarge Size = "Extra Large"
)

var SizeOrder = []Size{SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge}

// Compat is a tri-state compatibility answer. The zero value is Unknown.
type Compat uint8

const (
	CompatUnknown Compat = iota
	CompatYes
	CompatNo
)

// CompatOrder is the row order of every compatibility tally.
var CompatOrder = []Compat{CompatYes, CompatNo, CompatUnknown}

func (c Compat) String() string {
	switch c {
	case CompatYes:
		return "Yes"
	case CompatNo:
		return "No"
	default:
		return "Unknown"
	}
}

func (c Compat) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Compat) UnmarshalText(b []byte) error {
	*c = ParseCompat(string(b))
	return nil
}

// Record is one adoptable dog. Empty strings mean the field was missing or
// outside its domain in the source.
type Record struct {
	ID       string
	Region   string
	Breed    string
	Age      Age
	Sex      Sex
	Size     Size
	Children Compat
	Dogs     Compat
	Cats     Compat
}

func ParseAge(s string) (Age, bool) {
	return matchDomain(s, AgeOrder)
}

func ParseSex(s string) (Sex, bool) {
	return matchDomain(s, SexOrder)
}

func ParseSize(s string) (Size, bool) {
	return matchDomain(s, SizeOrder)
}

// ParseCompat maps a raw boolean-ish cell onto the tri-state domain.
func ParseCompat(s string) Compat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y":
		return CompatYes
	case "false", "f", "0", "no", "n":
		return CompatNo
	default:
		return CompatUnknown
	}
}

// NormalizeRegion trims the free-text region code.
func NormalizeRegion(s string) string {
	return strings.TrimSpace(s)
}

func matchDomain[T ~string](s string, domain []T) (T, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, v := range domain {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	var zero T
	return zero, false
}
