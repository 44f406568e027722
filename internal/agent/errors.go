package agent

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"charm.land/fantasy"

	"github.com/dotcommander/awsknow/internal/errs"
)

// describeError attaches a human reason to a model failure. The error text
// itself is left untouched.
func describeError(err error, model string) error {
	var providerErr *fantasy.ProviderError
	if !errors.As(err, &providerErr) {
		return errs.Remote(err, fmt.Sprintf("There was a problem with the %s request.", model))
	}

	switch providerErr.StatusCode {
	case http.StatusNotFound:
		return errs.Remote(err, fmt.Sprintf("Missing model %s.", model))
	case http.StatusBadRequest:
		if isContextLengthExceeded(providerErr) {
			return errs.Remote(err, "Maximum prompt size exceeded.")
		}
	}

	reason := fantasy.ErrorTitleForStatusCode(providerErr.StatusCode)
	if reason == "" {
		reason = fmt.Sprintf("%s request error.", model)
	}
	return errs.Remote(err, reason)
}

func isContextLengthExceeded(err *fantasy.ProviderError) bool {
	for _, s := range []string{err.Message, string(err.ResponseBody)} {
		s = strings.ToLower(s)
		if strings.Contains(s, "context_length_exceeded") || strings.Contains(s, "input is too long") {
			return true
		}
	}
	return false
}
