package handlers

import (
	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
)

// parseQueryID parses an UUID query parameter value.
func parseQueryID(value string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id parameter").WithDetail("value", value)
	}
	return parsed, nil
}

// invalidQueryParam builds a validation error for one query parameter.
func invalidQueryParam(name, value string) error {
	return apperror.NewValidation("invalid " + name + " parameter").WithDetail(name, value)
}
