package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/unimeeting/unimeetbot/internal/config"
)

// Field names shared by the flows and the draft keys.
const (
	FieldCourse           = "course"
	FieldMajor            = "major"
	FieldAge              = "age"
	FieldName             = "name"
	FieldDescription      = "description"
	FieldPhoto            = "photo"
	FieldStudentCard      = "student_card"
	FieldEventName        = "event_name"
	FieldEventDescription = "event_description"
)

// Event field bounds.
const (
	EventNameMin        = 5
	EventNameMax        = 100
	EventDescriptionMin = 10
	EventDescriptionMax = 1000
)

// CourseMax is the highest course offered on the course keyboard.
const CourseMax = 5

// Kind is the input type a field expects.
type Kind int

const (
	// Text is bounded by rune length.
	Text Kind = iota
	// Integer is parsed and bounded by value.
	Integer
	// Photo requires an attached photo.
	Photo
)

// Rule bounds one field. Min and Max are lengths for Text and values for Integer.
type Rule struct {
	Kind     Kind
	Min, Max int
}

// Failure kinds.
const (
	KindRange = "range"
	KindType  = "type"
)

// ValidationError reports rejected wizard input.
type ValidationError struct {
	Field string
	// Kind is KindRange or KindType.
	Kind     string
	Min, Max int
}

func (e *ValidationError) Error() string {
	if e.Kind == KindType {
		return fmt.Sprintf("wizard: %s: wrong input type", e.Field)
	}
	return fmt.Sprintf("wizard: %s: must be between %d and %d", e.Field, e.Min, e.Max)
}

// Input is the raw value a user submitted for a step.
type Input struct {
	Text    string
	PhotoID string
}

// Policy maps field names to rules.
type Policy map[string]Rule

// DefaultPolicy builds the rules for every wizard field from profile limits.
func DefaultPolicy(l config.Limits) Policy {
	return Policy{
		FieldCourse:           {Kind: Integer, Min: 1, Max: CourseMax},
		FieldMajor:            {Kind: Text, Min: l.MajorMin, Max: l.MajorMax},
		FieldAge:              {Kind: Integer, Min: l.AgeMin, Max: l.AgeMax},
		FieldName:             {Kind: Text, Min: l.NameMin, Max: l.NameMax},
		FieldDescription:      {Kind: Text, Min: l.DescriptionMin, Max: l.DescriptionMax},
		FieldPhoto:            {Kind: Photo},
		FieldStudentCard:      {Kind: Photo},
		FieldEventName:        {Kind: Text, Min: EventNameMin, Max: EventNameMax},
		FieldEventDescription: {Kind: Text, Min: EventDescriptionMin, Max: EventDescriptionMax},
	}
}

// Validate checks in against the field's rule and returns the value to
// store in the draft. Fields without a rule accept trimmed text as is.
func (p Policy) Validate(field string, in Input) (string, error) {
	rule, ok := p[field]
	if !ok {
		return strings.TrimSpace(in.Text), nil
	}
	switch rule.Kind {
	case Photo:
		if in.PhotoID == "" {
			return "", &ValidationError{Field: field, Kind: KindType}
		}
		return in.PhotoID, nil
	case Integer:
		if in.PhotoID != "" {
			return "", &ValidationError{Field: field, Kind: KindType, Min: rule.Min, Max: rule.Max}
		}
		n, err := strconv.Atoi(strings.TrimSpace(in.Text))
		if err != nil {
			return "", &ValidationError{Field: field, Kind: KindType, Min: rule.Min, Max: rule.Max}
		}
		if n < rule.Min || n > rule.Max {
			return "", &ValidationError{Field: field, Kind: KindRange, Min: rule.Min, Max: rule.Max}
		}
		return strconv.Itoa(n), nil
	default:
		text := strings.TrimSpace(in.Text)
		if in.PhotoID != "" || in.Text == "" {
			return "", &ValidationError{Field: field, Kind: KindType, Min: rule.Min, Max: rule.Max}
		}
		if n := utf8.RuneCountInString(text); n < rule.Min || n > rule.Max {
			return "", &ValidationError{Field: field, Kind: KindRange, Min: rule.Min, Max: rule.Max}
		}
		return text, nil
	}
}
