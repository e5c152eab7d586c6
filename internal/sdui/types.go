package sdui

import "time"

// Range is an ordered pair of timezone-aware instants bounding a
// timetable query. Callers are responsible for Start <= End.
type Range struct {
	Start time.Time
	End   time.Time
}

// Lesson kinds as reported by the SDUI API.
const (
	KindHoliday = "HOLIDAY"
	KindEvent   = "EVENT"
)

// Modification types ("oftype") as reported by the SDUI API.
// CANCLED is the API's own spelling.
const (
	TypeCancelled    = "CANCLED"
	TypeRoomChange   = "BOOKABLE_CHANGE"
	TypeSubstitution = "SUBSTITUTION"
	TypeExam         = "EXAM"
)

// Timetable is the raw payload returned by the SDUI timetable endpoint.
type Timetable struct {
	Data struct {
		Lessons []Lesson `json:"lessons"`
	} `json:"data"`
}

// Lesson is one raw timetable record. BeginsAt/EndsAt are epoch seconds;
// a zero value means the timestamp is absent.
type Lesson struct {
	Kind      string     `json:"kind"`
	OfType    string     `json:"oftype"`
	BeginsAt  int64      `json:"begins_at"`
	EndsAt    int64      `json:"ends_at"`
	Comment   string     `json:"comment"`
	Meta      *Meta      `json:"meta"`
	Course    *Course    `json:"course"`
	Bookables []NamedRef `json:"bookables"`
	Teachers  []NamedRef `json:"teachers"`
}

// Course carries the subject metadata nested under a lesson.
type Course struct {
	Meta *Meta `json:"meta"`
}

// Meta holds display metadata for courses, holidays and events.
type Meta struct {
	DisplayName string `json:"displayname"`
}

// NamedRef is a named resource attached to a lesson (room, teacher).
type NamedRef struct {
	Name string `json:"name"`
}
