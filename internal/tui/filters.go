package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ButyrinIA/postboard/internal/filter"
	"github.com/ButyrinIA/postboard/internal/models"
)

type filterField int

const (
	fieldSort filterField = iota
	fieldOrder
	fieldGroup
	fieldAuthor
	fieldDateFrom
	fieldDateTo
	fieldKeyword
	filterFieldCount
)

var errDateFormat = errors.New("dates must be in YYYY-MM-DD format")

type groupOption struct {
	id    string
	label string
}

// filterForm edits a copy of the criteria. Nothing is fetched until the
// form is applied.
type filterForm struct {
	focus    filterField
	sortBy   filter.SortField
	order    filter.Order
	groups   []groupOption
	groupIdx int

	author   textinput.Model
	dateFrom textinput.Model
	dateTo   textinput.Model
	keyword  textinput.Model

	err string
}

func newFilterForm(c filter.Criteria, groups []models.Group) filterForm {
	f := filterForm{
		sortBy:   c.SortBy,
		order:    c.Order,
		author:   newInput("Filter by author...", 200),
		dateFrom: newInput("YYYY-MM-DD", 10),
		dateTo:   newInput("YYYY-MM-DD", 10),
		keyword:  newInput("Search in content...", 200),
	}
	if f.sortBy == "" {
		f.sortBy = filter.SortCreatedAt
	}
	if f.order == "" {
		f.order = filter.Desc
	}

	f.groups = append(f.groups, groupOption{label: "All Groups"})
	for _, g := range groups {
		f.groups = append(f.groups, groupOption{id: g.GroupID.String(), label: g.Label()})
	}
	if c.GroupID != "" {
		f.groupIdx = -1
		for i, g := range f.groups {
			if g.id == c.GroupID {
				f.groupIdx = i
				break
			}
		}
		// группа выбрана, но список групп еще не загружен
		if f.groupIdx < 0 {
			f.groups = append(f.groups, groupOption{id: c.GroupID, label: "Group " + c.GroupID})
			f.groupIdx = len(f.groups) - 1
		}
	}

	f.author.SetValue(c.Author)
	f.dateFrom.SetValue(c.DateFrom)
	f.dateTo.SetValue(c.DateTo)
	f.keyword.SetValue(c.Keyword)
	return f
}

func (f *filterForm) input(field filterField) *textinput.Model {
	switch field {
	case fieldAuthor:
		return &f.author
	case fieldDateFrom:
		return &f.dateFrom
	case fieldDateTo:
		return &f.dateTo
	case fieldKeyword:
		return &f.keyword
	}
	return nil
}

func (f *filterForm) setFocus(field filterField) tea.Cmd {
	f.focus = field
	inputs := []*textinput.Model{&f.author, &f.dateFrom, &f.dateTo, &f.keyword}
	return focusOnly(inputs, int(field-fieldAuthor))
}

// cycle changes the value of a choice field.
func (f *filterForm) cycle(delta int) {
	switch f.focus {
	case fieldSort:
		i := 0
		for j, s := range filter.SortFields {
			if s == f.sortBy {
				i = j
			}
		}
		f.sortBy = filter.SortFields[wrapIndex(i, delta, len(filter.SortFields))]
	case fieldOrder:
		f.order = f.order.Toggle()
	case fieldGroup:
		f.groupIdx = wrapIndex(f.groupIdx, delta, len(f.groups))
	}
}

// criteria builds the criteria from the form. Dates are checked for format
// only. A range with from after to goes to the backend as is.
func (f filterForm) criteria() (filter.Criteria, error) {
	c := filter.Criteria{
		Author:   strings.TrimSpace(f.author.Value()),
		Keyword:  strings.TrimSpace(f.keyword.Value()),
		DateFrom: strings.TrimSpace(f.dateFrom.Value()),
		DateTo:   strings.TrimSpace(f.dateTo.Value()),
		SortBy:   f.sortBy,
		Order:    f.order,
	}
	if f.groupIdx > 0 && f.groupIdx < len(f.groups) {
		c.GroupID = f.groups[f.groupIdx].id
	}
	for _, d := range []string{c.DateFrom, c.DateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return filter.Criteria{}, errDateFormat
		}
	}
	return c, nil
}

// update returns apply=true when the user confirmed the form.
func (f filterForm) update(msg tea.KeyMsg) (filterForm, tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		if _, err := f.criteria(); err != nil {
			f.err = err.Error()
			return f, nil, false
		}
		return f, nil, true
	case "tab", "down":
		return f, f.setFocus(filterField(wrapIndex(int(f.focus), 1, int(filterFieldCount)))), false
	case "shift+tab", "up":
		return f, f.setFocus(filterField(wrapIndex(int(f.focus), -1, int(filterFieldCount)))), false
	}

	if in := f.input(f.focus); in != nil {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		f.err = ""
		return f, cmd, false
	}

	switch msg.String() {
	case "left", "h":
		f.cycle(-1)
	case "right", "l", " ":
		f.cycle(1)
	}
	return f, nil, false
}

func (f filterForm) view(st Styles) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Filters") + "\n\n")

	row := func(field filterField, label, value string) {
		marker := "  "
		l := st.Label.Render(label)
		if f.focus == field {
			marker = st.Focused.Render("› ")
		}
		b.WriteString(marker + l + value + "\n")
	}
	choice := func(field filterField, value string) string {
		if f.focus == field {
			return st.Focused.Render("‹ " + value + " ›")
		}
		return value
	}

	row(fieldSort, "Sort by", choice(fieldSort, f.sortBy.Label()))
	row(fieldOrder, "Order", choice(fieldOrder, f.order.Label()))
	group := ""
	if f.groupIdx >= 0 && f.groupIdx < len(f.groups) {
		group = f.groups[f.groupIdx].label
	}
	row(fieldGroup, "Group", choice(fieldGroup, group))
	row(fieldAuthor, "Author", f.author.View())
	row(fieldDateFrom, "From date", f.dateFrom.View())
	row(fieldDateTo, "To date", f.dateTo.View())
	row(fieldKeyword, "Keyword", f.keyword.View())

	b.WriteString("\n")
	if f.err != "" {
		b.WriteString(st.Error.Render(f.err) + "\n")
	}
	b.WriteString(st.Subtle.Render("enter  apply · esc  cancel · ←/→  change choice · tab  next field"))
	return b.String()
}

// filterSummary is the one-line description of the active criteria.
func filterSummary(c filter.Criteria, groups []models.Group) string {
	arrow := "↓"
	if c.Order == filter.Asc {
		arrow = "↑"
	}
	parts := []string{"Sort: " + c.SortBy.Label() + " " + arrow}
	if c.GroupID != "" {
		label := "Group " + c.GroupID
		for _, g := range groups {
			if g.GroupID.String() == c.GroupID {
				label = g.Label()
			}
		}
		parts = append(parts, label)
	}
	if c.Author != "" {
		parts = append(parts, "Author: "+c.Author)
	}
	if c.Keyword != "" {
		parts = append(parts, "Keyword: "+c.Keyword)
	}
	if c.DateFrom != "" || c.DateTo != "" {
		parts = append(parts, "Dates: "+orDots(c.DateFrom)+" – "+orDots(c.DateTo))
	}
	return strings.Join(parts, " · ")
}

func orDots(s string) string {
	if s == "" {
		return "…"
	}
	return s
}
