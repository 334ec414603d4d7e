// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

// Package validation provides struct validation using go-playground/validator v10.
//
// It holds a process-wide validator instance with the custom rules the
// configuration layer needs:
//
//   - clocktime: a 24-hour "HH:MM" time of day, as used for the daily
//     maintenance and backup triggers.
//
// Field names in errors use the koanf tag, so messages read like the YAML
// keys an operator actually edits (e.g. "workers.maintenance_time").
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Error returns the human-readable message.
func (e *FieldError) Error() string {
	return e.Message
}

// Errors is the collection of field failures returned by ValidateStruct.
type Errors struct {
	Fields []FieldError
}

// Error joins every field message.
func (ve *Errors) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.Fields))
	for i := range ve.Fields {
		messages = append(messages, ve.Fields[i].Message)
	}
	return strings.Join(messages, "; ")
}

// Has reports whether field (dotted koanf path) failed validation.
func (ve *Errors) Has(field string) bool {
	for i := range ve.Fields {
		if ve.Fields[i].Field == field {
			return true
		}
	}
	return false
}

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(koanfTagName)
		//nolint:errcheck // registration only fails on an empty tag
		validate.RegisterValidation("clocktime", validateClockTime)
	})
	return validate
}

// ValidateStruct validates s and returns nil or an *Errors.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &Errors{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		name := fieldPath(fe.Namespace())
		fields[i] = FieldError{
			Field:   name,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe, name),
		}
	}
	return &Errors{Fields: fields}
}

// IsClockTime reports whether s is a valid "HH:MM" (or "H:MM") time of day.
func IsClockTime(s string) bool {
	_, _, err := ParseClockTime(s)
	return err == nil
}

// ParseClockTime splits a "HH:MM" time of day into hour and minute.
func ParseClockTime(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || parts[0] == "" || len(parts[1]) != 2 || len(parts[0]) > 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return hour, minute, nil
}

func validateClockTime(fl validator.FieldLevel) bool {
	return IsClockTime(fl.Field().String())
}

func koanfTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// fieldPath strips the root struct name from a validator namespace:
// "Config.workers.maintenance_time" becomes "workers.maintenance_time".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

var errorMessageTemplates = map[string]string{
	"required":  "%s is required",
	"url":       "%s must be a valid URL",
	"clocktime": "%s must be a time of day in HH:MM format",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

func translateError(fe validator.FieldError, field string) string {
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
