package provider

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var weatherTranslations = map[string]string{
	"clear sky":               "Açık",
	"few clouds":              "Az Bulutlu",
	"scattered clouds":        "Parçalı Bulutlu",
	"broken clouds":           "Çok Bulutlu",
	"overcast clouds":         "Kapalı",
	"shower rain":             "Sağanak Yağışlı",
	"rain":                    "Yağmurlu",
	"light rain":              "Hafif Yağmurlu",
	"moderate rain":           "Orta Şiddetli Yağmur",
	"heavy intensity rain":    "Şiddetli Yağmur",
	"thunderstorm":            "Gök Gürültülü Fırtına",
	"snow":                    "Karlı",
	"light snow":              "Hafif Karlı",
	"heavy snow":              "Yoğun Kar",
	"mist":                    "Sisli",
	"fog":                     "Yoğun Sis",
	"haze":                    "Puslu",
	"dust":                    "Tozlu",
	"smoke":                   "Dumanlı",
	"drizzle":                 "Çiseleyen Yağmur",
	"light intensity drizzle": "Hafif Çiseleyen",
}

var turkishDayNames = [...]string{"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi"}

var (
	trUpper = cases.Upper(language.Turkish)
	trLower = cases.Lower(language.Turkish)
)

// translateWeather maps an English description to Turkish. Unknown descriptions
// (the API already answers in Turkish with lang=tr) are capitalized instead.
func translateWeather(description string) string {
	if tr, ok := weatherTranslations[strings.ToLower(description)]; ok {
		return tr
	}
	return capitalize(description)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return trUpper.String(string(r)) + trLower.String(s[size:])
}

// weatherType buckets a description for client-side effects. Order matters:
// "thunderstorm with rain" is rainy.
func weatherType(description string) string {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "rain"), strings.Contains(d, "drizzle"), strings.Contains(d, "shower"):
		return "rainy"
	case strings.Contains(d, "snow"):
		return "snowy"
	case strings.Contains(d, "cloud"), strings.Contains(d, "overcast"):
		return "cloudy"
	case strings.Contains(d, "thunder"), strings.Contains(d, "storm"):
		return "stormy"
	case strings.Contains(d, "clear"):
		return "sunny"
	case strings.Contains(d, "mist"), strings.Contains(d, "fog"), strings.Contains(d, "haze"):
		return "foggy"
	default:
		return "default"
	}
}

func turkishDayName(t time.Time) string {
	return turkishDayNames[t.Weekday()]
}

func clampDays(days int) int {
	switch {
	case days < 1:
		return 1
	case days > 5:
		return 5
	default:
		return days
	}
}
