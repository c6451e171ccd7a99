package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("language", validateLanguage); err != nil {
		panic(fmt.Sprintf("failed to register language validator: %v", err))
	}
	if err := Validate.RegisterValidation("stats_metric", validateStatsMetric); err != nil {
		panic(fmt.Sprintf("failed to register stats_metric validator: %v", err))
	}
}

// validateLanguage accepts "en" and "cn"
func validateLanguage(fl validator.FieldLevel) bool {
	return models.Language(fl.Field().String()).Valid()
}

// validateStatsMetric accepts the metrics the stats listing can project
func validateStatsMetric(fl validator.FieldLevel) bool {
	switch models.StatsMetric(fl.Field().String()) {
	case models.MetricPercentageSum, models.MetricPercentageNonZero:
		return true
	default:
		return false
	}
}

// FormatError turns validator errors into one readable line keyed by the json/query field name
func FormatError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "language":
			msgs = append(msgs, fmt.Sprintf("%s must be 'en' or 'cn'", field))
		case "stats_metric":
			msgs = append(msgs, fmt.Sprintf("%s must be 'percentage_sum' or 'percentage_non_zero'", field))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// SanitizeText trims whitespace and removes control characters except newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
