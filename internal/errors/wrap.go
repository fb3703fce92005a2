package errors

import "fmt"

// Wrap adds context to errors at package boundaries.
// It returns nil if err is nil, allowing for safe inline usage.
//
//	if err := client.UpdateEnvironment(ctx, id, url); err != nil {
//	    return errors.Wrap(err, "failed to update environment")
//	}
//
// The wrapped error keeps the chain intact, so callers can still check
// for sentinel errors:
//
//	if errors.Is(err, errors.ErrRegistryOperation) {
//	    // downgrade to a warning
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context to errors at package boundaries.
// It returns nil if err is nil.
//
//	return errors.Wrapf(err, "failed to find workload %s", name)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}
