package market

import "errors"

var (
	// ErrIncompleteRevenue means a sale reported fewer than four revenue parts.
	ErrIncompleteRevenue = errors.New("incomplete revenue split")
	// ErrMissingEntity means an entity referenced by another one is absent.
	ErrMissingEntity = errors.New("referenced entity missing")
	// ErrMissingListing means a closing event found no open listing to close.
	ErrMissingListing = errors.New("no open listing")
)

func isInvariant(err error) bool {
	return errors.Is(err, ErrIncompleteRevenue) || errors.Is(err, ErrMissingEntity)
}
