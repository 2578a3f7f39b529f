package weather

import (
	"regexp"
	"strings"
)

// WantsWeather reports whether a message plausibly asks for a weather
// lookup. Keyword-based on purpose: a false positive costs one harmless
// extra sentence, a false negative just skips the injection.
func WantsWeather(message string) bool {
	return strings.Contains(strings.ToLower(message), "weather")
}

// typoCorrections fixes misspellings seen in real visitor messages before
// any other resolution runs.
var typoCorrections = map[string]string{
	"tahoee":        "tahoe",
	"san fransisco": "san francisco",
	"seatle":        "seattle",
	"pheonix":       "phoenix",
	"chigago":       "chicago",
}

// knownLocations maps multi-word place phrases to the canonical query the
// weather API expects. Checked before the free-text patterns so that
// "lake tahoe" never half-matches as "tahoe".
var knownLocations = map[string]string{
	"lake tahoe":    "Lake Tahoe,CA,US",
	"san francisco": "San Francisco,CA,US",
	"new york":      "New York,NY,US",
	"los angeles":   "Los Angeles,CA,US",
	"las vegas":     "Las Vegas,NV,US",
	"san diego":     "San Diego,CA,US",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)weather\s+(?:in|at|for)\s+([a-zA-Z][a-zA-Z .'-]*[a-zA-Z.])`),
	regexp.MustCompile(`(?i)(?:in|at|for)\s+([a-zA-Z][a-zA-Z .'-]*[a-zA-Z.])\s+weather`),
}

// ResolveLocation extracts a weather-API location query from free text.
// Order: typo corrections, known-location table, "weather in/at/for"
// patterns, then the supplied default.
func ResolveLocation(message, defaultLocation string) string {
	lowered := whitespaceRun.ReplaceAllString(strings.ToLower(message), " ")
	for typo, fix := range typoCorrections {
		lowered = strings.ReplaceAll(lowered, typo, fix)
	}

	for phrase, canonical := range knownLocations {
		if strings.Contains(lowered, phrase) {
			return canonical
		}
	}

	for _, pattern := range locationPatterns {
		if m := pattern.FindStringSubmatch(lowered); m != nil {
			place := strings.TrimSpace(m[1])
			// Trailing question-ish words slip into the capture group.
			place = strings.TrimSuffix(place, " today")
			place = strings.TrimSuffix(place, " right now")
			place = strings.TrimSuffix(place, " now")
			if place != "" {
				return titleCase(place)
			}
		}
	}

	return defaultLocation
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
