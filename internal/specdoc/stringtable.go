package specdoc

// StringTable holds the <strings> table's multi-locale entries and
// resolves %str:id% lookups against one active locale, falling back to
// the locale-less entry (if any) when the active locale has none.
type StringTable struct {
	locale string
	byID   map[string]map[string]string // id -> locale -> text
}

// NewStringTable builds a StringTable for the given active locale.
func NewStringTable(locale string, entries []stringXML) *StringTable {
	t := &StringTable{locale: locale, byID: make(map[string]map[string]string)}
	for _, e := range entries {
		locales, ok := t.byID[e.ID]
		if !ok {
			locales = make(map[string]string)
			t.byID[e.ID] = locales
		}
		locales[e.Locale] = e.Text
	}
	return t
}

// Lookup implements expand.StringTable.
func (t *StringTable) Lookup(id string) (string, bool) {
	locales, ok := t.byID[id]
	if !ok {
		return "", false
	}
	if text, ok := locales[t.locale]; ok {
		return text, true
	}
	if text, ok := locales[""]; ok {
		return text, true
	}
	// No exact or default-locale match: fall back to whichever entry
	// exists, for sources that declare only one locale under a name other
	// than the active one.
	for _, text := range locales {
		return text, true
	}
	return "", false
}
