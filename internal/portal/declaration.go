package portal

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ykvlv/checkin-bot/internal/domain"
)

// Declaration is the user-specific part of the daily report.
type Declaration struct {
	Province string
	City     string
	Area     string
	Address  string
	Location domain.Location
	InCampus bool
}

func DeclarationFor(r domain.UserRecord) Declaration {
	return Declaration{
		Province: r.Province,
		City:     r.City,
		Area:     r.Area,
		Address:  r.Address,
		Location: r.Location,
		InCampus: r.InCampus,
	}
}

// staticFields answer "no symptoms, no contact, no travel".
var staticFields = map[string]string{
	"ifhxjc":     "",
	"sfjcbh":     "0",
	"mjry":       "0",
	"csmjry":     "0",
	"szgjcs":     "",
	"szcs":       "",
	"szgj":       "",
	"jcbhlx":     "",
	"jcbhrq":     "",
	"ismoved":    "0",
	"bztcyy":     "",
	"sftjwh":     "0",
	"sftjhb":     "0",
	"sfcxtz":     "0",
	"sfjcwhry":   "0",
	"sfjchbry":   "0",
	"sfjcjwry":   "0",
	"jcjg":       "",
	"sfjxhsjc":   "0",
	"sfcyglq":    "0",
	"gllx":       "",
	"glksrq":     "",
	"sfsqhzjkk":  "0",
	"sqhzjkkys":  "",
	"sfygtjzzfj": "0",
	"gtjzzfjsj":  "",
	"gwszdd":     "",
	"sfyqjzgc":   "",
	"jrsfqzys":   "",
	"jrsfqzfy":   "",
	"sfcxzysx":   "0",
	"qksm":       "",
	"remark":     "",
	"tw":         "2",
	"sfyyjc":     "0",
	"jcjgqr":     "0",
	"uid":        "",
	"id":         "",
}

// StaticFieldCount is the number of fixed fields in every submission.
func StaticFieldCount() int { return len(staticFields) }

// geoInfo mirrors the browser geolocation result the report page submits.
type geoInfo struct {
	Type             string           `json:"type"`
	Position         geoPosition      `json:"position"`
	LocationType     string           `json:"location_type"`
	Message          string           `json:"message"`
	Accuracy         int              `json:"accuracy"`
	IsConverted      bool             `json:"isConverted"`
	Status           int              `json:"status"`
	AddressComponent addressComponent `json:"addressComponent"`
	FormattedAddress string           `json:"formattedAddress"`
	Info             string           `json:"info"`
}

type geoPosition struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

type addressComponent struct {
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
}

// GeoInfo serializes the declaration's location the way the report page does.
func (d Declaration) GeoInfo() (string, error) {
	district := d.Area
	if i := strings.LastIndex(d.Area, " "); i >= 0 {
		district = d.Area[i+1:]
	}
	raw, err := json.Marshal(geoInfo{
		Type:         "complete",
		Position:     geoPosition{Lng: d.Location.Longitude, Lat: d.Location.Latitude},
		LocationType: "html5",
		Message:      "Get ipLocation failed.Get geolocation success.Convert Success.Get address success.",
		Accuracy:     40,
		IsConverted:  true,
		Status:       1,
		AddressComponent: addressComponent{
			Province: d.Province,
			City:     d.City,
			District: district,
		},
		FormattedAddress: d.Address,
		Info:             "SUCCESS",
	})
	if err != nil {
		return "", fmt.Errorf("encode geo info: %w", err)
	}
	return string(raw), nil
}

// Form builds the full submission for the day containing now (UTC+8).
func (d Declaration) Form(now time.Time) (url.Values, error) {
	geo, err := d.GeoInfo()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	for k, v := range staticFields {
		form.Set(k, v)
	}
	form.Set("date", now.In(domain.China).Format("20060102"))
	form.Set("created", strconv.FormatInt(now.Unix(), 10))

	form.Set("province", d.Province)
	form.Set("city", d.City)
	form.Set("area", d.Area)
	form.Set("address", d.Address)
	form.Set("geo_api_info", geo)
	if d.InCampus {
		form.Set("sfzx", "1")
	} else {
		form.Set("sfzx", "0")
	}
	return form, nil
}
