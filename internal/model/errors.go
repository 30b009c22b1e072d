package model

import "errors"

// Configuration errors. They are returned before any pattern is generated.
var (
	ErrUncoveredWidth    = errors.New("raw width not covered by price table")
	ErrInvalidDomain     = errors.New("invalid raw width domain")
	ErrInvalidPriceTable = errors.New("invalid price table")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidSettings   = errors.New("invalid settings")
)
