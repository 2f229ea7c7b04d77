package widget

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Band is a temperature color band
type Band struct {
	Name  string
	Class string
}

var (
	BandHottest = Band{Name: "hottest", Class: "bg-gradient-to-r from-orange-500 to-amber-500"}
	BandWarm    = Band{Name: "warm", Class: "bg-gradient-to-r from-yellow-500 to-amber-400"}
	BandCool    = Band{Name: "cool", Class: "bg-gradient-to-r from-blue-300 to-blue-400"}
	BandColdest = Band{Name: "coldest", Class: "bg-gradient-to-r from-blue-600 to-blue-800"}
)

// TemperatureBand maps a Celsius temperature to its band. Lower bounds are inclusive.
func TemperatureBand(tempC float64) Band {
	switch {
	case tempC >= 30:
		return BandHottest
	case tempC >= 20:
		return BandWarm
	case tempC >= 10:
		return BandCool
	default:
		return BandColdest
	}
}

// IconURL upgrades protocol-relative icon URLs to https.
func IconURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// RoundTemp rounds half up, so -2.5 becomes -2 and 2.5 becomes 3.
func RoundTemp(t float64) int {
	return int(math.Floor(t + 0.5))
}

type dateLocale struct {
	weekdays [7]string
	months   [12]string
	layout   func(weekday, month string, day int) string
}

var supportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.German,
	language.French,
	language.Spanish,
}

var dateLocales = []dateLocale{
	{
		weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		months:   [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		layout: func(w, m string, d int) string {
			return fmt.Sprintf("%s, %s %d", w, m, d)
		},
	},
	{
		weekdays: [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		months:   [12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
		layout: func(w, m string, d int) string {
			return fmt.Sprintf("%s, %d. %s", w, d, m)
		},
	},
	{
		weekdays: [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
		months:   [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
		layout: func(w, m string, d int) string {
			return fmt.Sprintf("%s %d %s", w, d, m)
		},
	},
	{
		weekdays: [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
		months:   [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
		layout: func(w, m string, d int) string {
			return fmt.Sprintf("%s, %d %s", w, d, m)
		},
	},
}

var localeMatcher = language.NewMatcher(supportedLocales)

// DateFormatter renders forecast dates as long weekday, short month and day
// in the viewer's locale.
type DateFormatter struct {
	tag    language.Tag
	locale dateLocale
}

// NewDateFormatter picks the best supported locale for the given preferences.
// Each preference may be a BCP 47 tag or an Accept-Language header value.
// Unknown or empty preferences fall back to US English.
func NewDateFormatter(prefs ...string) *DateFormatter {
	var tags []language.Tag
	for _, p := range prefs {
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}

	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		idx = 0
	}
	return &DateFormatter{tag: supportedLocales[idx], locale: dateLocales[idx]}
}

// Locale returns the matched locale.
func (f *DateFormatter) Locale() language.Tag {
	return f.tag
}

// Format renders a YYYY-MM-DD date. The calendar date is used as-is, without
// shifting through any time zone. Unparseable input is returned unchanged.
func (f *DateFormatter) Format(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return f.locale.layout(f.locale.weekdays[t.Weekday()], f.locale.months[t.Month()-1], t.Day())
}
