package notion

import (
	"time"

	"github.com/jomei/notionapi"
)

// TitleValue builds a title property holding a single text fragment.
func TitleValue(content string) *notionapi.TitleProperty {
	return &notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}}},
	}
}

func SelectValue(name string) *notionapi.SelectProperty {
	return &notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: name},
	}
}

// DateStartValue builds a date property starting on day. day must already
// be a calendar date; it is sent without a time component.
func DateStartValue(day time.Time) *notionapi.DateProperty {
	d := calendarDate(day)
	return &notionapi.DateProperty{
		Type: notionapi.PropertyTypeDate,
		Date: &notionapi.DateObject{Start: &d},
	}
}

func DateEquals(property string, day time.Time) notionapi.PropertyFilter {
	d := calendarDate(day)
	return notionapi.PropertyFilter{
		Property: property,
		Date:     &notionapi.DateFilterCondition{Equals: &d},
	}
}

func SelectEquals(property, value string) notionapi.PropertyFilter {
	return notionapi.PropertyFilter{
		Property: property,
		Select:   &notionapi.SelectFilterCondition{Equals: value},
	}
}

// PlainTitle concatenates the fragments of the named title property. It is
// empty when the property is missing or not a title.
func PlainTitle(props notionapi.Properties, name string) string {
	var fragments []notionapi.RichText
	switch p := props[name].(type) {
	case *notionapi.TitleProperty:
		fragments = p.Title
	case notionapi.TitleProperty:
		fragments = p.Title
	default:
		return ""
	}

	var out string
	for _, rt := range fragments {
		switch {
		case rt.PlainText != "":
			out += rt.PlainText
		case rt.Text != nil:
			out += rt.Text.Content
		}
	}
	return out
}

// calendarDate drops the clock so the SDK serialises day as YYYY-MM-DD.
func calendarDate(day time.Time) notionapi.Date {
	y, m, d := day.Date()
	return notionapi.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
