package profile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDatabaseConfig is matched by the error returned when an environment
// that may not fall back has no usable database configuration.
var ErrNoDatabaseConfig = errors.New("no database configuration found")

// These are reported on a production failure to help locate the missing
// platform variables.
var inspectedVariables = []string{
	"MYSQLHOST",
	"MYSQLDATABASE",
	"MYSQLUSER",
	"MYSQLPASSWORD",
	"DATABASE_URL",
}

type VariableState struct {
	Name string `json:"name"`
	Set  bool   `json:"set"`
}

type MissingConfigError struct {
	Environment Environment
	Variables   []VariableState
}

func newMissingConfigError(environment Environment, env Env) *MissingConfigError {
	states := make([]VariableState, 0, len(inspectedVariables))
	for _, name := range inspectedVariables {
		states = append(states, VariableState{Name: name, Set: env.IsSet(name)})
	}
	return &MissingConfigError{Environment: environment, Variables: states}
}

func (e *MissingConfigError) Error() string {
	parts := make([]string, 0, len(e.Variables))
	for _, v := range e.Variables {
		state := "NOT SET"
		if v.Set {
			state = "SET"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", v.Name, state))
	}
	return fmt.Sprintf("database configuration is required in %s (%s)", e.Environment, strings.Join(parts, ", "))
}

func (e *MissingConfigError) Unwrap() error {
	return ErrNoDatabaseConfig
}
