package domain

import (
	"encoding/json"
	"fmt"
)

// Location is a longitude/latitude pair as reported by Telegram.
type Location struct {
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
}

// String renders the pair as "lon,lat", the order geocoders expect.
func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Longitude, l.Latitude)
}

// UserRecord is the persisted per-chat configuration.
type UserRecord struct {
	Username      string   `json:"username" validate:"required"`
	Password      string   `json:"password" validate:"required"`
	ChatID        int64    `json:"chat_id" validate:"required"`
	CheckinHour   int      `json:"checkin_hour" validate:"oneof=16 17 18 19"`
	CheckinMinute int      `json:"checkin_minute" validate:"oneof=0 30"`
	SkipCount     int      `json:"skip_count" validate:"gte=0"`
	Province      string   `json:"province"`
	City          string   `json:"city"`
	Area          string   `json:"area"`
	Address       string   `json:"address"`
	Location      Location `json:"location"`
	InCampus      bool     `json:"in_campus"`
	// LastWindow is the WindowKey of the last window a sweep handled.
	LastWindow    string   `json:"last_window,omitempty"`
}

// Place is a resolved address for a coordinate pair.
type Place struct {
	Province string
	City     string
	Area     string
	Address  string
	Location Location
}

// Defaults applied on registration.
const (
	DefaultCheckinHour   = 17
	DefaultCheckinMinute = 30
)

// DefaultPlace is the Haidian campus.
var DefaultPlace = Place{
	Province: "北京市",
	City:     "北京市",
	Area:     "北京市 海淀区",
	Address:  "北京市海淀区北太平庄街道北京邮电大学海淀校区",
	Location: Location{Longitude: 116.358, Latitude: 39.961},
}

// PrettyRecord renders r, password masked, as indented JSON for echoing.
func PrettyRecord(r UserRecord) string {
	raw, err := json.MarshalIndent(Masked(r), "", "  ")
	if err != nil {
		// UserRecord holds only strings, numbers and bools.
		panic(err)
	}
	return string(raw)
}
