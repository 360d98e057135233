package catechism

// Assemble folds rows, in the order given, into chapters. Chapters and
// sections keep first-seen order; subsections keep row order. Every row
// produces exactly one SubSection.
func Assemble(rows []ContentRow) []Chapter {
	chapters := make([]Chapter, 0)
	chapterIdx := make(map[string]int)
	sectionIdx := make(map[string]map[string]int)

	for i := range rows {
		row := &rows[i]
		ck := row.ChapterKey()
		sk := row.SectionKey()

		ci, ok := chapterIdx[ck]
		if !ok {
			ci = len(chapters)
			chapterIdx[ck] = ci
			sectionIdx[ck] = make(map[string]int)
			chapters = append(chapters, Chapter{ID: ck, Title: ck, Sections: []Section{}})
		}

		ch := &chapters[ci]
		si, ok := sectionIdx[ck][sk]
		if !ok {
			si = len(ch.Sections)
			sectionIdx[ck][sk] = si
			ch.Sections = append(ch.Sections, Section{ID: sk, Title: sk, SubSections: []SubSection{}})
		}

		sec := &ch.Sections[si]
		sec.SubSections = append(sec.SubSections, newSubSection(row))
	}

	return chapters
}

// AssembleChapter assembles rows expected to share one chapter and returns
// it. Rows of other chapters are ignored; ok is false when nothing matched.
func AssembleChapter(chapterID string, rows []ContentRow) (Chapter, bool) {
	for _, ch := range Assemble(rows) {
		if ch.ID == chapterID {
			return ch, true
		}
	}
	return Chapter{}, false
}

func newSubSection(row *ContentRow) SubSection {
	id := deref(row.SubSection)
	if id == "" {
		id = row.ID
	}
	content := deref(row.Content)
	if content == "" {
		content = deref(row.Description)
	}
	return SubSection{
		ID:          id,
		RowID:       row.ID,
		Title:       deref(row.Title),
		Description: deref(row.Description),
		Content:     content,
		Tags:        deref(row.Tags),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
