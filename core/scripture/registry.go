package scripture

// Translation describes one text edition and its provider-specific ID.
type Translation struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ProviderID string `json:"provider_id"`
}

// DefaultTranslation is used when a caller supplies no translation code.
const DefaultTranslation = "KJV"

// translations maps a short translation code to its provider identifiers.
// The registry is static; unknown codes fall back to the default edition's
// provider ID so resolution still has somewhere to go.
var translations = map[string]Translation{
	"KJV":   {Code: "KJV", Name: "King James Version", ProviderID: "de4e12af7f28f599-02"},
	"WEB":   {Code: "WEB", Name: "World English Bible", ProviderID: "9879dbb7cfe39e4d-04"},
	"ASV":   {Code: "ASV", Name: "American Standard Version", ProviderID: "06125adad2d5898a-01"},
	"BBE":   {Code: "BBE", Name: "Bible in Basic English", ProviderID: "65eec8e0b60e656b-01"},
	"DARBY": {Code: "DARBY", Name: "Darby Translation", ProviderID: "478f83ba38dbd9b2-01"},
	"YLT":   {Code: "YLT", Name: "Young's Literal Translation", ProviderID: "c315fa9f71d4af3a-01"},
}

// LookupTranslation returns the registry entry for a code, falling back to
// the default translation for unknown or empty codes.
func LookupTranslation(code string) Translation {
	if t, ok := translations[code]; ok {
		return t
	}
	return translations[DefaultTranslation]
}

// Translations returns all registered translations in stable code order.
func Translations() []Translation {
	codes := []string{"KJV", "WEB", "ASV", "BBE", "DARBY", "YLT"}
	out := make([]Translation, 0, len(codes))
	for _, c := range codes {
		out = append(out, translations[c])
	}
	return out
}
