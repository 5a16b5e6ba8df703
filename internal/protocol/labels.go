package protocol

var languageLabels = map[string]string{
	"en": "English",
	"ms": "Malay",
	"bn": "Bengali",
	"ar": "Arabic",
	"ur": "Urdu",
	"ta": "Tamil",
}

// LanguageLabel returns the display name for a language code, or the code
// itself when it has none.
func LanguageLabel(code string) string {
	if label, ok := languageLabels[code]; ok {
		return label
	}
	return code
}
