// pkg/model/errors.go
package model

import (
	"fmt"
	"strings"
)

// MissingColumnError reports a required input column that could not be found
type MissingColumnError struct {
	Column string   // Expected column name
	Found  []string // Columns actually present
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("couldn't find a '%s' column (found: [%s])", e.Column, strings.Join(e.Found, ", "))
}
