package screens

import (
	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/decisionhub/decisionhub/internal/snackbar"
)

type statusToast struct {
	text     string
	severity snackbar.Severity
}

var accountStatusToasts = map[string]statusToast{
	"verified":            {"Account verified successfully!", snackbar.SeveritySuccess},
	"verification_failed": {"Invalid account verification", snackbar.SeverityError},
	"error":               {"An error occurred during account verification.", snackbar.SeverityError},
}

var emailChangeStatusToasts = map[string]statusToast{
	"verified":            {"Email updated successfully!", snackbar.SeveritySuccess},
	"verification_failed": {"Email verification failed. Invalid token.", snackbar.SeverityError},
	"error":               {"An error occurred during email verification.", snackbar.SeverityError},
}

// FlagReader reads and deletes one-shot status cookies
type FlagReader interface {
	TakeFlag(name string) (string, bool)
}

// ConsumeStatusFlags toasts the outcome of an account or email confirmation
// link and deletes the cookies. Unknown values are deleted silently.
func ConsumeStatusFlags(flags FlagReader, snack *snackbar.Provider) {
	for _, flag := range []struct {
		name   string
		toasts map[string]statusToast
	}{
		{client.AccountStatusCookie, accountStatusToasts},
		{client.EmailChangeStatusCookie, emailChangeStatusToasts},
	} {
		value, ok := flags.TakeFlag(flag.name)
		if !ok {
			continue
		}
		if toast, known := flag.toasts[value]; known {
			snack.Show(toast.text, toast.severity)
		}
	}
}
