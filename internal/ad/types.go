package ad

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Record is one scraped vehicle listing. A record is immutable once
// stored; only the crawler lifecycle timestamps change when the same
// ad is encountered again.
type Record struct {
	AdID    int64     `json:"ad_id"`
	URL     string    `json:"url"`
	Crawler Lifecycle `json:"crawler"`
	Web     WebData   `json:"web"`
	Dart    DartData  `json:"dart"`
}

// Lifecycle holds the crawl metadata for a record.
type Lifecycle struct {
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebData holds the fields scraped from the rendered markup.
type WebData struct {
	Title       string            `json:"title"`
	Price       string            `json:"price"`
	Technical   map[string]string `json:"technical"`
	Features    []string          `json:"features,omitempty"`
	Description *Description      `json:"description,omitempty"`
	Seller      Seller            `json:"seller"`
}

// Description is the optional free-text block of an ad.
type Description struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Seller identifies the seller of an ad. Phone is optional.
type Seller struct {
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
}

// DartData is the secondary structured payload embedded in an inline
// script on the ad page. Its price is authoritative: a record without
// it is invalid and must be discarded.
type DartData struct {
	Ad           DartAd     `json:"ad"`
	FirstRegYear FlexNumber `json:"adFirstRegYear"`
	Fuel         string     `json:"adSpecificsFuel"`
	Make         string     `json:"adSpecificsMake"`
	MakeModel    string     `json:"adSpecificsMakeModel"`
	Model        string     `json:"adSpecificsModel"`
}

// DartAd is the ad sub-object of the dart payload.
type DartAd struct {
	Price FlexNumber `json:"price"`
}

// Valid reports whether the record carries the authoritative price.
func (r *Record) Valid() bool {
	return r.Dart.Ad.Price.Set
}

// FlexNumber is a float that the dart payload may emit either bare or
// quoted. Set distinguishes a present zero from an absent field.
type FlexNumber struct {
	Value float64
	Set   bool
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	n.Value = v
	n.Set = true
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// PricePrediction compares a listing's asking price against the price
// the model considers fair.
type PricePrediction struct {
	AdID          int64  `json:"ad_id"`
	URL           string `json:"url"`
	PriceActual   int    `json:"price_actual"`
	PriceInferred int    `json:"price_inferred"`
	Difference    int    `json:"difference"`
	IsCheap       bool   `json:"is_cheap"`
}
