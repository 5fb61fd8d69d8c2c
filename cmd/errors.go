package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/model"
)

// describeError turns an engine error into one line for the terminal.
func describeError(err error) string {
	var (
		validation *model.ValidationError
		same       *model.SameAccountError
		funds      *model.InsufficientFundsError
		credit     *model.InsufficientCreditError
		notFound   *model.NotFoundError
		integrity  *model.IntegrityError
	)
	switch {
	case errors.As(err, &same):
		return "Source and destination must be different accounts."
	case errors.As(err, &validation):
		if validation.Field == "" {
			return "Invalid input: " + validation.Reason
		}
		return fmt.Sprintf("Invalid %s: %s", validation.Field, validation.Reason)
	case errors.As(err, &funds):
		return fmt.Sprintf("Insufficient funds: balance %s, needed %s.",
			cli.FormatMoney(funds.Balance), cli.FormatMoney(funds.Amount))
	case errors.As(err, &credit):
		return fmt.Sprintf("Insufficient credit: available %s, needed %s.",
			cli.FormatMoney(credit.Available), cli.FormatMoney(credit.Amount))
	case errors.As(err, &notFound):
		return fmt.Sprintf("No %s matches %s.", notFound.Entity, notFound.ID)
	case errors.As(err, &integrity):
		return "That entry already exists (" + integrity.Constraint + ")."
	}
	return err.Error()
}
