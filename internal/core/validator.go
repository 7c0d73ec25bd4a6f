package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"raceweather/internal/races"
	"raceweather/internal/types"
)

// Validator wraps go-playground/validator and registers the domain tags:
//   - series: a value races.ParseSeries accepts
//   - lap_time: a positive lap time no longer than ten minutes
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator. Field names in errors come from the
// `query` tag, then `json`, then the Go name.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	if err := v.RegisterValidation("series", func(fl validator.FieldLevel) bool {
		_, err := races.ParseSeries(fl.Field().String())
		return err == nil
	}); err != nil && logger != nil {
		logger.Error("failed to register series validation", "error", err)
	}

	if err := v.RegisterValidation("lap_time", func(fl validator.FieldLevel) bool {
		s := fl.Field().Float()
		return s > 0 && s <= 600
	}); err != nil && logger != nil {
		logger.Error("failed to register lap_time validation", "error", err)
	}

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates s and maps the first failure to an AppError whose
// code comes from fieldCodes (keyed by field name). A missing required field
// is always validation_missing_required_field and unmapped fields get
// validation_invalid_parameter. Details list every failing field.
func (v *Validator) ValidateStruct(s any, fieldCodes map[string]types.ErrorCode) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}

	first := verrs[0]
	code, ok := fieldCodes[first.Field()]
	switch {
	case first.Tag() == "required":
		code = types.ErrCodeValidationMissingField
	case !ok:
		code = types.ErrCodeValidationInvalidParameter
	}

	return types.NewAppErrorWithDetails(
		code,
		validationMessage(first),
		err,
		map[string]any{"fields": fields},
	)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	case "timezone":
		return fe.Field() + " must be an IANA time zone"
	case "series":
		return fe.Field() + " must be f1, f2 or f3"
	case "lap_time":
		return fe.Field() + " must be a positive number of seconds up to 600"
	default:
		return fe.Field() + " is invalid"
	}
}
