// Package section folds per-language translation events into numbered
// sections sized by a word-count threshold.
package section

import "strings"

type Entry struct {
	Translation string `json:"translation"`
	Language    string `json:"language"`
}

type Section struct {
	Number       int     `json:"section_number"`
	Translations []Entry `json:"translations"`
}

// Output is ordered by Number, starting at 1 with no gaps. Only the last
// section is still open for growth.
type Output []Section

type Event struct {
	Text     string
	Language string
}

// Fold applies one translation event and returns the new output. Sealed
// sections are shared with out and the open section may be replaced in
// place, so a caller that hands the output to other readers passes them a
// copy. Entry slices are never written after they are built, which keeps a
// Section value read before the fold unchanged.
//
// A language missing from the last section is appended to it. A language
// already present grows in place while its running text is shorter than
// maxWords words; once it reaches maxWords the last section is sealed and
// the event opens the next section.
func Fold(out Output, ev Event, maxWords int) Output {
	if len(out) == 0 {
		return Output{newSection(1, ev)}
	}

	lastIdx := len(out) - 1
	last := out[lastIdx]
	pos := last.indexOf(ev.Language)
	if pos < 0 {
		entries := make([]Entry, len(last.Translations), len(last.Translations)+1)
		copy(entries, last.Translations)
		out[lastIdx].Translations = append(entries, Entry{Translation: ev.Text, Language: ev.Language})
		return out
	}

	if WordCount(last.Translations[pos].Translation) < maxWords {
		entries := make([]Entry, len(last.Translations))
		copy(entries, last.Translations)
		entries[pos].Translation = entries[pos].Translation + " " + ev.Text
		out[lastIdx].Translations = entries
		return out
	}

	return append(out, newSection(last.Number+1, ev))
}

// FoldAll folds events in order into out.
func FoldAll(out Output, events []Event, maxWords int) Output {
	for _, ev := range events {
		out = Fold(out, ev, maxWords)
	}
	return out
}

// Sealed reports the section closed by the fold that turned before into
// after. Only the lengths of before are read.
func Sealed(before, after Output) (Section, bool) {
	if len(before) == 0 || len(after) <= len(before) {
		return Section{}, false
	}
	return after[len(before)-1], true
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Text returns the section's entry for language, if any.
func (s Section) Text(language string) (string, bool) {
	if i := s.indexOf(language); i >= 0 {
		return s.Translations[i].Translation, true
	}
	return "", false
}

func (s Section) indexOf(language string) int {
	for i, e := range s.Translations {
		if e.Language == language {
			return i
		}
	}
	return -1
}

func newSection(number int, ev Event) Section {
	return Section{
		Number:       number,
		Translations: []Entry{{Translation: ev.Text, Language: ev.Language}},
	}
}
