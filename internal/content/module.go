package content

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is matched by every IndexError.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrSectionNotFound is returned when a section id is not part of a module.
var ErrSectionNotFound = errors.New("section not found")

// IndexError reports a page, section or question index outside its bounds.
type IndexError struct {
	Kind  string // "page", "section" or "question"
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Kind, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// TotalSections returns the number of sections across all pages.
func TotalSections(m *Module) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, p := range m.Pages {
		n += len(p.Sections)
	}
	return n
}

// SectionsOfPage returns the sections of the page at pageIndex.
func SectionsOfPage(m *Module, pageIndex int) ([]Section, error) {
	n := 0
	if m != nil {
		n = len(m.Pages)
	}
	if pageIndex < 0 || pageIndex >= n {
		return nil, &IndexError{Kind: "page", Index: pageIndex, Len: n}
	}
	return m.Pages[pageIndex].Sections, nil
}

// SectionAt returns the section at (pageIndex, sectionIndex).
func SectionAt(m *Module, pageIndex, sectionIndex int) (Section, error) {
	sections, err := SectionsOfPage(m, pageIndex)
	if err != nil {
		return Section{}, err
	}
	if sectionIndex < 0 || sectionIndex >= len(sections) {
		return Section{}, &IndexError{Kind: "section", Index: sectionIndex, Len: len(sections)}
	}
	return sections[sectionIndex], nil
}

// WithFallback returns m unchanged when it has at least one page. A module
// without pages gets a single synthesized page holding one text section
// whose body is the module description, or FallbackBody.
func WithFallback(m *Module) *Module {
	if m == nil || len(m.Pages) > 0 {
		return m
	}
	body := m.Description
	if body == "" {
		body = FallbackBody
	}
	out := *m
	out.Pages = []Page{{
		ID:   "default",
		Name: m.Title,
		Sections: []Section{{
			ID:   "default-section",
			Type: TypeText,
			Body: body,
		}},
	}}
	return &out
}

// Locate returns the page and section indices of sectionID.
func Locate(m *Module, sectionID string) (pageIndex, sectionIndex int, ok bool) {
	if m == nil {
		return 0, 0, false
	}
	for pi, p := range m.Pages {
		for si, s := range p.Sections {
			if s.ID == sectionID {
				return pi, si, true
			}
		}
	}
	return 0, 0, false
}

// SectionByID returns the section with the given id.
func SectionByID(m *Module, sectionID string) (Section, error) {
	pi, si, ok := Locate(m, sectionID)
	if !ok {
		return Section{}, fmt.Errorf("%w: %q", ErrSectionNotFound, sectionID)
	}
	return m.Pages[pi].Sections[si], nil
}

// SectionIDs returns every section id in page then section order.
func SectionIDs(m *Module) []string {
	ids := make([]string, 0, TotalSections(m))
	if m == nil {
		return ids
	}
	for _, p := range m.Pages {
		for _, s := range p.Sections {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
