package healthguard

import (
	"strconv"
)

// CategoryTable maps a finite set of user-facing labels to the integer codes a model was
// trained with. Labels are indexed by code, so Labels[i] encodes to i.
type CategoryTable struct {
	Feature string
	Labels  []string
	// Aliases are alternative spellings that resolve to a code.
	Aliases map[string]int
	// AcceptCodes lets the table resolve a label written as its numeric code ("0", "1", ...).
	AcceptCodes bool

	index map[string]int
}

// NewCategoryTable builds a table whose codes follow the order of labels.
func NewCategoryTable(feature string, labels ...string) *CategoryTable {
	t := &CategoryTable{Feature: feature, Labels: labels}
	t.build()
	return t
}

// WithAliases registers additional spellings and returns the table.
func (t *CategoryTable) WithAliases(aliases map[string]int) *CategoryTable {
	t.Aliases = aliases
	t.build()
	return t
}

// WithCodes makes the table accept numeric codes as labels.
func (t *CategoryTable) WithCodes() *CategoryTable {
	t.AcceptCodes = true
	return t
}

func (t *CategoryTable) build() {
	t.index = make(map[string]int, len(t.Labels)+len(t.Aliases))
	for code, label := range t.Labels {
		t.index[normalizeKey(label)] = code
	}
	for alias, code := range t.Aliases {
		if code < 0 || code >= len(t.Labels) {
			continue
		}
		key := normalizeKey(alias)
		if _, exists := t.index[key]; !exists {
			t.index[key] = code
		}
	}
}

// Encode returns the code for label or a *CategoryError when the label is not offered.
func (t *CategoryTable) Encode(label string) (int, error) {
	key := normalizeKey(label)
	if code, ok := t.index[key]; ok {
		return code, nil
	}
	if t.AcceptCodes {
		if code, err := strconv.Atoi(key); err == nil && code >= 0 && code < len(t.Labels) && strconv.Itoa(code) == key {
			return code, nil
		}
	}
	return 0, &CategoryError{Feature: t.Feature, Value: label}
}

// Label returns the canonical label for code.
func (t *CategoryTable) Label(code int) (string, bool) {
	if code < 0 || code >= len(t.Labels) {
		return "", false
	}
	return t.Labels[code], true
}

// Options returns the canonical labels in code order.
func (t *CategoryTable) Options() []string {
	out := make([]string, len(t.Labels))
	copy(out, t.Labels)
	return out
}
