package entities

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validator returns the shared validator, with the notblank rule registered.
func Validator() *validator.Validate {
	return validate
}

// Validate checks field limits and the time window.
func (t *Task) Validate() error {
	ve := structErrors("task", t)
	if t.Date.IsZero() {
		ve.Add("date", "is required")
	}
	checkWindow(ve, t.StartTime, t.EndTime)
	return ve.OrNil()
}

func (tt *TaskTemplate) Validate() error {
	ve := structErrors("task template", tt)
	checkWindow(ve, tt.StartTime, tt.EndTime)
	return ve.OrNil()
}

// Validate checks the template, its blueprints and the weekday pinning.
func (d *DayTemplate) Validate() error {
	ve := structErrors("day template", d)
	for i := range d.Tasks {
		tt := d.Tasks[i]
		if tt.StartTime != nil && tt.EndTime != nil && tt.EndTime.Before(*tt.StartTime) {
			ve.Add(fmt.Sprintf("tasks[%d].end_time", i), "must not be before start_time")
		}
	}
	switch {
	case d.IsWeekly && d.Weekday == nil:
		ve.Add("weekday", "is required for a weekly template")
	case !d.IsWeekly && d.Weekday != nil:
		ve.Add("weekday", "must be empty for a custom template")
	case d.Weekday != nil && (*d.Weekday < time.Sunday || *d.Weekday > time.Saturday):
		ve.Add("weekday", "must be between 0 (Sunday) and 6 (Saturday)")
	}
	return ve.OrNil()
}

func (s Settings) Validate() error {
	return structErrors("settings", s).OrNil()
}

func checkWindow(ve *ValidationError, start, end *TimeOfDay) {
	if start != nil && end != nil && end.Before(*start) {
		ve.Add("end_time", "must not be before start_time")
	}
}

func structErrors(entity string, s interface{}) *ValidationError {
	ve := &ValidationError{Entity: entity}
	err := validate.Struct(s)
	if err == nil {
		return ve
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Add("", err.Error())
		return ve
	}
	for _, fe := range fieldErrs {
		ve.Add(fieldPath(fe.Namespace()), fieldMessage(fe))
	}
	return ve
}

// fieldPath drops the leading struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be blank"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// ValidateStruct runs the struct tags of s and reports failures as a
// *ValidationError named after entity.
func ValidateStruct(entity string, s interface{}) error {
	return structErrors(entity, s).OrNil()
}
