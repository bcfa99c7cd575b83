package language

import "strings"

type entry struct {
	iso1  string
	iso2  []string
	name  string
	names []string
}

// Languages WhisperX ships alignment models for, plus a few common extras.
var table = []entry{
	{"en", []string{"eng"}, "English", []string{"english"}},
	{"es", []string{"spa"}, "Spanish", []string{"spanish", "espanol", "español"}},
	{"fr", []string{"fra", "fre"}, "French", []string{"french", "francais", "français"}},
	{"de", []string{"deu", "ger"}, "German", []string{"german", "deutsch"}},
	{"it", []string{"ita"}, "Italian", []string{"italian", "italiano"}},
	{"pt", []string{"por"}, "Portuguese", []string{"portuguese", "portugues", "português"}},
	{"nl", []string{"nld", "dut"}, "Dutch", []string{"dutch", "nederlands"}},
	{"ja", []string{"jpn"}, "Japanese", []string{"japanese"}},
	{"zh", []string{"zho", "chi"}, "Chinese", []string{"chinese", "mandarin"}},
	{"ko", []string{"kor"}, "Korean", []string{"korean"}},
	{"ru", []string{"rus"}, "Russian", []string{"russian"}},
	{"uk", []string{"ukr"}, "Ukrainian", []string{"ukrainian"}},
	{"pl", []string{"pol"}, "Polish", []string{"polish"}},
	{"cs", []string{"ces", "cze"}, "Czech", []string{"czech"}},
	{"ar", []string{"ara"}, "Arabic", []string{"arabic"}},
	{"he", []string{"heb"}, "Hebrew", []string{"hebrew"}},
	{"hi", []string{"hin"}, "Hindi", []string{"hindi"}},
	{"tr", []string{"tur"}, "Turkish", []string{"turkish"}},
	{"el", []string{"ell", "gre"}, "Greek", []string{"greek"}},
	{"hu", []string{"hun"}, "Hungarian", []string{"hungarian"}},
	{"fi", []string{"fin"}, "Finnish", []string{"finnish"}},
	{"da", []string{"dan"}, "Danish", []string{"danish"}},
	{"sv", []string{"swe"}, "Swedish", []string{"swedish"}},
	{"no", []string{"nor", "nob"}, "Norwegian", []string{"norwegian"}},
	{"vi", []string{"vie"}, "Vietnamese", []string{"vietnamese"}},
	{"fa", []string{"fas", "per"}, "Persian", []string{"persian", "farsi"}},
}

var index = buildIndex()

func buildIndex() map[string]*entry {
	out := make(map[string]*entry, len(table)*4)
	for i := range table {
		e := &table[i]
		out[e.iso1] = e
		for _, code := range e.iso2 {
			out[code] = e
		}
		for _, name := range e.names {
			out[name] = e
		}
	}
	return out
}

func clean(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	// Region subtags ("en-US", "pt_BR") do not change the spoken language.
	if i := strings.IndexAny(value, "-_"); i > 0 {
		value = value[:i]
	}
	return value
}

// Normalize returns the ISO 639-1 code for a language code or English name.
// Empty input yields "" and ok. Unknown two-letter codes pass through so
// languages missing from the table still reach WhisperX; anything else is
// rejected.
func Normalize(value string) (string, bool) {
	value = clean(value)
	if value == "" {
		return "", true
	}
	if e, ok := index[value]; ok {
		return e.iso1, true
	}
	if len(value) == 2 {
		return value, true
	}
	return "", false
}

// Name returns a display name, "auto" when no language is pinned.
func Name(value string) string {
	value = clean(value)
	if value == "" {
		return "auto"
	}
	if e, ok := index[value]; ok {
		return e.name
	}
	return strings.ToUpper(value)
}
