package command

import "fmt"

// TypeRestrictionError is returned when a Command requires the Aggregate payload
// to be of a specific type, and the loaded Aggregate has a different one.
type TypeRestrictionError struct {
	Command  string
	Expected string
	Actual   string
}

func (err TypeRestrictionError) Error() string {
	return fmt.Sprintf(
		"command.TypeRestriction: %s requires aggregate payload %s, found %s",
		err.Command,
		err.Expected,
		err.Actual,
	)
}
