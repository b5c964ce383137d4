package mapstate

import "errors"

var (
	// ErrInvalidCell is returned for cell ids outside the 9x9 grid
	ErrInvalidCell = errors.New("invalid cell")
	// ErrUnknownKind is returned when placing a kind that is not in the catalog
	ErrUnknownKind = errors.New("unknown marker kind")
	// ErrKindUnavailable is returned when a kind is restricted away from the cell's row
	ErrKindUnavailable = errors.New("marker kind not available on this row")
	// ErrHouseRequired is returned when placing a sub-choice kind without a house
	ErrHouseRequired = errors.New("house is required for this marker kind")
	// ErrUnexpectedHouse is returned when a house is given for a plain kind
	ErrUnexpectedHouse = errors.New("marker kind does not take a house")
	// ErrUnknownHouse is returned for house ids outside the catalog
	ErrUnknownHouse = errors.New("unknown house")
	// ErrHouseInUse is returned when the house is already placed in another cell
	ErrHouseInUse = errors.New("house already placed elsewhere")
	// ErrEmptyLabel is returned when adding a kind with a blank label
	ErrEmptyLabel = errors.New("label is required")
	// ErrInvalidRow is returned for row labels outside the grid
	ErrInvalidRow = errors.New("invalid row")
	// ErrResetNotConfirmed is returned when a reset is requested without confirmation
	ErrResetNotConfirmed = errors.New("grid reset requires confirmation")
	// ErrInvalidStormTarget is returned for a zero storm time
	ErrInvalidStormTarget = errors.New("invalid storm target")
)
