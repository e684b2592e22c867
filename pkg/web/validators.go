package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue > closedValue
	})
}

// ParseQueryGt reads an optional integer query parameter which must be greater than min.
// An absent parameter yields fallback. On invalid input a 400 response is written and false is returned.
func ParseQueryGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, min, fallback int64) (int, bool) {
	return parseValidate(r, w, logger, key, fallback, gt(min))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, fallback int64, pValidator ParamValidator) (int, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return int(fallback), true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int(intValue), true
}
