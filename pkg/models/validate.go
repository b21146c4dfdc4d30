package models

import (
	"reflect"
	"strings"
	"sync"

	"github.com/arnavshah/walk-scheduler/internal/calendar"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

var fieldMessages = map[string]string{
	"walkdate": "must be a calendar date in YYYY-MM-DD form",
	"walktime": "must be a time in HHMM form",
	"nonblank": "is required",
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("walkdate", func(fl validator.FieldLevel) bool {
			return calendar.IsDate(fl.Field().String())
		})
		_ = v.RegisterValidation("walktime", func(fl validator.FieldLevel) bool {
			return calendar.IsTime(fl.Field().String())
		})
		_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// Validate checks an input struct against its validate tags and returns a
// *ValidationError naming every offending field, or nil.
func Validate(input any) error {
	err := validatorInstance().Struct(input)
	if err == nil {
		return nil
	}

	vErr := &ValidationError{}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		vErr.Add("input", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		vErr.Add(fe.Field(), msg)
	}
	return vErr
}
