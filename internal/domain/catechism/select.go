package catechism

// Query narrows an assembled chapter. Both fields are optional.
type Query struct {
	SectionID    string
	SubSectionID string
}

// Validate rejects a subsection without its section.
func (q Query) Validate() error {
	if q.SubSectionID != "" && q.SectionID == "" {
		return ErrSubSectionWithoutSection
	}
	return nil
}

// Select returns the part of ch that q asks for: the SubSection when a
// subsection is given, the Section when only a section is given, otherwise
// the whole Chapter.
func Select(ch *Chapter, q Query) (any, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	switch {
	case q.SubSectionID != "":
		return FindSubSection(ch, q.SectionID, q.SubSectionID)
	case q.SectionID != "":
		return FindSection(ch, q.SectionID)
	default:
		return ch, nil
	}
}

// FindSection returns the section with the given id.
func FindSection(ch *Chapter, sectionID string) (*Section, error) {
	for i := range ch.Sections {
		if ch.Sections[i].ID == sectionID {
			return &ch.Sections[i], nil
		}
	}
	return nil, &NotFoundError{ID: sectionID}
}

// FindSubSection returns the first subsection with subID inside sectionID.
func FindSubSection(ch *Chapter, sectionID, subID string) (*SubSection, error) {
	sec, err := FindSection(ch, sectionID)
	if err != nil {
		return nil, err
	}
	for i := range sec.SubSections {
		if sec.SubSections[i].ID == subID {
			return &sec.SubSections[i], nil
		}
	}
	return nil, &NotFoundError{ID: subID}
}
