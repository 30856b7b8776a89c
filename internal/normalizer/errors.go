package normalizer

import (
	"fmt"

	"raid-tracker/internal/apperrors"
)

func errEmptyTarget(kind BugRuleKind) error {
	return fmt.Errorf("%w: %s rule has no target", apperrors.ErrMalformedBugRule, kind)
}

func errUnknownEncounter(id int) error {
	return fmt.Errorf("%w: unknown encounter %d", apperrors.ErrMalformedBugRule, id)
}

func errUnknownSpec(id int) error {
	return fmt.Errorf("%w: unknown spec %d", apperrors.ErrMalformedBugRule, id)
}

func errUnknownKind(kind BugRuleKind) error {
	return fmt.Errorf("%w: unknown rule kind %q", apperrors.ErrMalformedBugRule, kind)
}
