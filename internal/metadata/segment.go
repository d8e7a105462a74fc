package metadata

import "strings"

// Triple is the structured prompt recovered from embedded metadata.
type Triple struct {
	Positive       string `json:"positive_prompt"`
	Negative       string `json:"negative_prompt"`
	GenerationInfo string `json:"generation_info"`
}

// IsZero reports whether all three fields are empty.
func (t Triple) IsZero() bool {
	return t.Positive == "" && t.Negative == "" && t.GenerationInfo == ""
}

// NegativeMarkers start the negative prompt. The first marker in this list
// that occurs anywhere in the text is used.
var NegativeMarkers = []string{"Negative prompt:", "negative_prompt:", "neg_prompt:"}

// SettingsMarkers start the generation settings. The earliest occurrence
// of any of them is used.
var SettingsMarkers = []string{"Steps:", "Model:", "Size:", "Seed:"}

// Segment splits decoded parameter text into a Triple. Markers are matched
// literally and case-sensitively. A marker-like phrase inside the prompt
// itself is taken as a marker; the split is a heuristic, not a grammar.
//
//	positive
//	Negative prompt: negative
//	Steps: 20, Sampler: ... (generation info, marker kept)
//
// With a negative marker, the settings marker is looked for only after it.
func Segment(text string) Triple {
	negStart, negMarker := -1, ""
	for _, m := range NegativeMarkers {
		if i := strings.Index(text, m); i >= 0 {
			negStart, negMarker = i, m
			break
		}
	}

	if negStart < 0 {
		if s := earliestSettings(text); s >= 0 {
			return Triple{
				Positive:       strings.TrimSpace(text[:s]),
				GenerationInfo: strings.TrimSpace(text[s:]),
			}
		}
		return Triple{Positive: strings.TrimSpace(text)}
	}

	t := Triple{Positive: strings.TrimSpace(text[:negStart])}
	rest := text[negStart+len(negMarker):]
	if s := earliestSettings(rest); s >= 0 {
		t.Negative = strings.TrimSpace(rest[:s])
		t.GenerationInfo = strings.TrimSpace(rest[s:])
	} else {
		t.Negative = strings.TrimSpace(rest)
	}
	return t
}

func earliestSettings(text string) int {
	best := -1
	for _, m := range SettingsMarkers {
		if i := strings.Index(text, m); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}
