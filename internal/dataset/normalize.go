package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"variantpulse/pkg/contracts/domain"
)

// ErrMalformedRecord indicates a raw row that failed normalization. Any such
// row aborts dataset construction; the pipeline does not keep partial data.
var ErrMalformedRecord = errors.New("malformed record")

// Socrata "floating timestamp" layout, with a plain-date fallback seen in
// older exports of the dataset.
const (
	sodaTimestampLayout = "2006-01-02T15:04:05.000"
	sodaDateLayout      = "2006-01-02"
)

// Normalize converts one raw Socrata row into a typed observation. Every
// field is required: a missing or unparsable variant, date, or share yields
// an error wrapping ErrMalformedRecord that names the offending field.
func Normalize(raw domain.RawObservation) (domain.Observation, error) {
	if raw.Variant == "" {
		return domain.Observation{}, fmt.Errorf("%w: missing variant", ErrMalformedRecord)
	}

	weekEnding, err := parseDate(raw.WeekEnding)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("%w: week_ending %q: %v", ErrMalformedRecord, raw.WeekEnding, err)
	}

	creationDate, err := parseDate(raw.CreationDate)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("%w: creation_date %q: %v", ErrMalformedRecord, raw.CreationDate, err)
	}

	share, err := parseShare(raw.Share)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("%w: share %q: %v", ErrMalformedRecord, raw.Share, err)
	}

	return domain.Observation{
		Variant:      raw.Variant,
		WeekEnding:   weekEnding,
		CreationDate: creationDate,
		Share:        share,
	}, nil
}

// NormalizeAll converts a batch of raw rows, failing on the first malformed
// one so startup can abort with the row index in the error.
func NormalizeAll(raws []domain.RawObservation) ([]domain.Observation, error) {
	observations := make([]domain.Observation, 0, len(raws))
	for i, raw := range raws {
		obs, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("missing value")
	}
	if t, err := time.Parse(sodaTimestampLayout, value); err == nil {
		return t.Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse(sodaDateLayout, value)
	if err != nil {
		return time.Time{}, errors.New("unrecognized date format")
	}
	return t, nil
}

func parseShare(value string) (float64, error) {
	if value == "" {
		return 0, errors.New("missing value")
	}
	share, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(share) || math.IsInf(share, 0) {
		return 0, errors.New("not finite")
	}
	return share, nil
}
