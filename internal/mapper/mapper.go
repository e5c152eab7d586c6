// Package mapper transforms raw SDUI timetable records into normalized
// calendar event descriptors. It is a pure transformation: no I/O, no
// state, order-preserving.
package mapper

import (
	"strings"
	"time"

	"sduisync/internal/calendar"
	"sduisync/internal/sdui"
)

// Google Calendar color ids for the event classes.
const (
	ColorDefault   = ""   // calendar default
	ColorExam      = "11" // tomato
	ColorChange    = "5"  // banana
	ColorCancelled = "8"  // graphite
	ColorHoliday   = "2"  // sage
	ColorEvent     = "9"  // blueberry
)

// summary prefixes per modification type; unknown types get none.
var typePrefixes = map[string]string{
	sdui.TypeCancelled:    "❌ Cancelled: ",
	sdui.TypeRoomChange:   "⚠️ Room: ",
	sdui.TypeSubstitution: "🔄 Sub: ",
	sdui.TypeExam:         "📝 Exam: ",
}

// Map converts a raw timetable payload into event descriptors.
// Records missing either timestamp are dropped silently; everything else
// maps one-to-one in input order. A nil payload yields no descriptors.
func Map(tt *sdui.Timetable, loc *time.Location, timezone string) []*calendar.Event {
	if tt == nil {
		return nil
	}

	var events []*calendar.Event
	for _, lesson := range tt.Data.Lessons {
		if lesson.BeginsAt == 0 || lesson.EndsAt == 0 {
			continue
		}

		var ev *calendar.Event
		switch lesson.Kind {
		case sdui.KindHoliday, sdui.KindEvent:
			ev = mapHolidayOrEvent(lesson)
		default:
			ev = mapLesson(lesson)
		}

		ev.Start = time.Unix(lesson.BeginsAt, 0).In(loc)
		ev.End = time.Unix(lesson.EndsAt, 0).In(loc)
		ev.Timezone = timezone
		events = append(events, ev)
	}

	return events
}

// mapHolidayOrEvent builds a descriptor for HOLIDAY and EVENT records,
// which carry their label directly instead of a course object.
func mapHolidayOrEvent(lesson sdui.Lesson) *calendar.Event {
	label := ""
	if lesson.Meta != nil {
		label = lesson.Meta.DisplayName
	}
	if label == "" {
		label = lesson.Comment
	}
	if label == "" {
		label = "Event"
	}

	summary := "📅 " + label
	colorID := ColorEvent
	if lesson.Kind == sdui.KindHoliday {
		summary = "🏖️ " + label
		colorID = ColorHoliday
	}

	return &calendar.Event{
		Summary:     summary,
		Description: "Type: " + lesson.Kind + "\nComment: " + lesson.Comment,
		ColorID:     colorID,
	}
}

// mapLesson builds a descriptor for an ordinary timetable slot.
func mapLesson(lesson sdui.Lesson) *calendar.Event {
	subject := "Unknown"
	if lesson.Course != nil && lesson.Course.Meta != nil && lesson.Course.Meta.DisplayName != "" {
		subject = extractSubject(lesson.Course.Meta.DisplayName)
	}

	summary := typePrefixes[lesson.OfType] + subject

	var rooms []string
	for _, b := range lesson.Bookables {
		if b.Name != "" {
			rooms = append(rooms, b.Name)
		}
	}

	var teachers []string
	for _, t := range lesson.Teachers {
		if t.Name != "" {
			teachers = append(teachers, t.Name)
		}
	}

	kind := lesson.Kind
	if kind == "" {
		kind = lesson.OfType
	}

	return &calendar.Event{
		Summary:     summary,
		Location:    strings.Join(rooms, ", "),
		Description: "Teacher: " + strings.Join(teachers, ", ") + "\nType: " + kind,
		ColorID:     classifyColor(lesson.OfType),
	}
}

// extractSubject keeps only the segment after the last underscore.
// SDUI subject codes follow a legacy convention of underscore-prefixed
// identifiers (e.g. "10a_MATH_101"); names without an underscore pass
// through unchanged.
func extractSubject(displayName string) string {
	if idx := strings.LastIndex(displayName, "_"); idx >= 0 {
		return displayName[idx+1:]
	}
	return displayName
}

func classifyColor(oftype string) string {
	switch oftype {
	case sdui.TypeExam:
		return ColorExam
	case sdui.TypeSubstitution, sdui.TypeRoomChange:
		return ColorChange
	case sdui.TypeCancelled:
		return ColorCancelled
	default:
		return ColorDefault
	}
}
