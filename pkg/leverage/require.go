package leverage

import (
	"fmt"
	"leverage/core"
)

// Require returns code wrapped with reason when condition is false
func Require(condition bool, code core.ErrorCode, reason string) error {
	if condition {
		return nil
	}

	return fmt.Errorf("%s: %w", reason, code)
}
