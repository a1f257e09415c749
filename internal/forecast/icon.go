package forecast

import "strings"

// Kind names an icon category the renderer has art for.
type Kind string

const (
	IconClearDay          Kind = "clear-day"
	IconClearNight        Kind = "clear-night"
	IconPartlyCloudyDay   Kind = "partly-cloudy-day"
	IconPartlyCloudyNight Kind = "partly-cloudy-night"
	IconMostlyCloudy      Kind = "mostly-cloudy"
	IconCloudy            Kind = "cloudy"
	IconStorm             Kind = "storm"
	IconRain              Kind = "rain"
	IconFog               Kind = "fog"
	IconSnow              Kind = "snow"
	IconWindy             Kind = "windy"
)

// iconRule maps any of its phrases to a day and a night icon. Rules are
// checked in order; the first phrase hit wins.
type iconRule struct {
	phrases []string
	day     Kind
	night   Kind
}

var iconRules = []iconRule{
	{[]string{"partly cloudy", "p cloudy"}, IconPartlyCloudyDay, IconPartlyCloudyNight},
	{[]string{"mostly cloudy", "m cloudy"}, IconMostlyCloudy, IconMostlyCloudy},
	{[]string{"tstorm", "thunderstorm", "t-storm", "storm"}, IconStorm, IconStorm},
	{[]string{"sun", "clear"}, IconClearDay, IconClearNight},
	{[]string{"cloud", "overcast"}, IconCloudy, IconCloudy},
	{[]string{"rain", "showers", "drizzle"}, IconRain, IconRain},
	{[]string{"fog", "haze", "smoke"}, IconFog, IconFog},
	{[]string{"snow", "flurries", "sleet", "blizzard"}, IconSnow, IconSnow},
	{[]string{"wind"}, IconWindy, IconWindy},
}

// IconFor selects the icon category for the raw (unshortened)
// forecast text. Day only differentiates art that has a night variant.
// When nothing matches, clear is the default.
func IconFor(text string, day bool) Kind {
	f := strings.ToLower(text)
	for _, rule := range iconRules {
		for _, p := range rule.phrases {
			if strings.Contains(f, p) {
				if day {
					return rule.day
				}
				return rule.night
			}
		}
	}
	if day {
		return IconClearDay
	}
	return IconClearNight
}
