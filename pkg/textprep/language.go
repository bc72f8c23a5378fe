package textprep

import (
	"github.com/abadojack/whatlanggo"
)

// Undetermined is the tag assigned to text with no recognisable language
const Undetermined = "und"

// Detection is the outcome of a language identification
type Detection struct {
	Language   string
	Confidence float64
}

// LanguageDetector identifies the language of a text. Restrict limits the
// candidates to the given ISO 639-1 codes; an empty list means all
// languages.
type LanguageDetector interface {
	Detect(text string, restrict []string) Detection
}

// WhatlangDetector detects languages with whatlanggo trigram models
type WhatlangDetector struct {
	byCode map[string]whatlanggo.Lang
}

// NewWhatlangDetector creates a detector over every language whatlanggo
// knows
func NewWhatlangDetector() *WhatlangDetector {
	byCode := make(map[string]whatlanggo.Lang, len(whatlanggo.Langs))
	for lang := range whatlanggo.Langs {
		byCode[langCode(lang)] = lang
	}
	return &WhatlangDetector{byCode: byCode}
}

// Detect implements LanguageDetector. Unknown codes in restrict are ignored;
// if none is known the detection is unrestricted.
func (d *WhatlangDetector) Detect(text string, restrict []string) Detection {
	var info whatlanggo.Info
	whitelist := make(map[whatlanggo.Lang]bool, len(restrict))
	for _, code := range restrict {
		if lang, ok := d.byCode[code]; ok {
			whitelist[lang] = true
		}
	}
	if len(whitelist) > 0 {
		info = whatlanggo.DetectWithOptions(text, whatlanggo.Options{Whitelist: whitelist})
	} else {
		info = whatlanggo.Detect(text)
	}

	if _, ok := whatlanggo.Langs[info.Lang]; !ok {
		return Detection{Language: Undetermined}
	}
	return Detection{Language: langCode(info.Lang), Confidence: info.Confidence}
}

// langCode prefers the two-letter code and falls back to ISO 639-3
func langCode(lang whatlanggo.Lang) string {
	if code := lang.Iso6391(); code != "" {
		return code
	}
	return lang.Iso6393()
}

// detectLanguage runs d and, below minConfidence, re-runs it restricted to
// the correction languages. The confidence reported is the one of the kept
// detection.
func detectLanguage(d LanguageDetector, text string, minConfidence float64, correction []string) Detection {
	res := d.Detect(text, nil)
	if res.Confidence < minConfidence && len(correction) > 0 {
		res = d.Detect(text, correction)
	}
	if res.Language == "" {
		return Detection{Language: Undetermined}
	}
	return res
}
