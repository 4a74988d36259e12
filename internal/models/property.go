package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Backend names shared by every page.
const (
	PropertiesTable = "properties"
	ImagesBucket    = "property-images"
)

// FinanceTypes are the finance options offered by the upload form.
var FinanceTypes = []string{"Cash", "Loan", "EMI", "Lease", "Rent"}

// RecordID is the backend-assigned identifier of a row. Hosted Postgres may hand out
// integer keys, so both JSON numbers and strings decode into it.
type RecordID string

// UnmarshalJSON accepts `"abc"`, `42` and null.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RecordID(n.String())
	return nil
}

// Property is one listing row. Every field except ID and Title may be absent.
type Property struct {
	ID              RecordID `json:"id,omitempty" bson:"_id,omitempty"`
	Title           string   `json:"title" bson:"title"`
	ImageURL        *string  `json:"image_url,omitempty" bson:"image_url,omitempty"`
	YoutubeVideoURL *string  `json:"youtube_video_url,omitempty" bson:"youtube_video_url,omitempty"`
	UseEmbedPlayer  *bool    `json:"use_embed_player,omitempty" bson:"use_embed_player,omitempty"`
	Subtitle        *string  `json:"subtitle,omitempty" bson:"subtitle,omitempty"`
	Name            *string  `json:"name,omitempty" bson:"name,omitempty"`
	Location        *string  `json:"location,omitempty" bson:"location,omitempty"`
	FinanceType     *string  `json:"finance_type,omitempty" bson:"finance_type,omitempty"`
	Price           *float64 `json:"price,omitempty" bson:"price,omitempty"`
	Beds            *float64 `json:"beds,omitempty" bson:"beds,omitempty"`
	Baths           *float64 `json:"baths,omitempty" bson:"baths,omitempty"`
	Kitchens        *float64 `json:"kitchens,omitempty" bson:"kitchens,omitempty"`
	Sqft            *float64 `json:"sqft,omitempty" bson:"sqft,omitempty"`
	AgentName       *string  `json:"agent_name,omitempty" bson:"agent_name,omitempty"`
	AgentPhone      *string  `json:"agent_phone,omitempty" bson:"agent_phone,omitempty"`
	NewListing      *bool    `json:"new_listing,omitempty" bson:"new_listing,omitempty"`
	Trending        *bool    `json:"trending,omitempty" bson:"trending,omitempty"`
	CreatedAt       *string  `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// Str dereferences an optional string; absent reads as "".
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Num dereferences an optional number; absent reads as 0.
func Num(n *float64) float64 {
	if n == nil {
		return 0
	}
	return *n
}

// Flag dereferences an optional boolean; absent reads as false.
func Flag(b *bool) bool {
	return b != nil && *b
}

func (p Property) PriceOrZero() float64 { return Num(p.Price) }
func (p Property) SqftOrZero() float64  { return Num(p.Sqft) }
func (p Property) IsNewListing() bool   { return Flag(p.NewListing) }
func (p Property) IsTrending() bool     { return Flag(p.Trending) }

// HasVideo reports whether the listing carries a YouTube URL.
func (p Property) HasVideo() bool {
	return strings.TrimSpace(Str(p.YoutubeVideoURL)) != ""
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// CreatedTime parses created_at. Missing or unparseable values yield the zero time,
// which orders before every real timestamp.
func (p Property) CreatedTime() time.Time {
	raw := strings.TrimSpace(Str(p.CreatedAt))
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Ptr returns a pointer to v. Used when building optional fields.
func Ptr[T any](v T) *T {
	return &v
}
