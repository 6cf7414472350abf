package catalog

import (
	"fmt"
	"math"
	"time"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Coerce converts textual/numeric INSERT input to a column's declared
// type (spec §3: "conversions on INSERT coerce textual/numeric input to
// the column's declared type").
func Coerce(v any, t ColType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case IntType:
		switch n := v.(type) {
		case int64:
			return n, nil
		case float64:
			return int64(math.Round(n)), nil
		case string:
			var i int64
			if _, err := fmt.Sscanf(n, "%d", &i); err != nil {
				return nil, dberrors.New(dberrors.ValidationError, "cannot coerce %q to INT", n)
			}
			return i, nil
		default:
			return nil, dberrors.New(dberrors.ValidationError, "cannot coerce %T to INT", v)
		}
	case TextType:
		switch n := v.(type) {
		case string:
			return n, nil
		case int64:
			return fmt.Sprintf("%d", n), nil
		case float64:
			return fmt.Sprintf("%g", n), nil
		default:
			return nil, dberrors.New(dberrors.ValidationError, "cannot coerce %T to TEXT", v)
		}
	case DateType:
		return coerceTime(v, dateLayout)
	case DateTimeType:
		return coerceTime(v, dateTimeLayout)
	default:
		return nil, dberrors.New(dberrors.ValidationError, "unknown column type")
	}
}

func coerceTime(v any, layout string) (any, error) {
	switch n := v.(type) {
	case time.Time:
		return n, nil
	case string:
		t, err := time.Parse(layout, n)
		if err != nil {
			return nil, dberrors.New(dberrors.ValidationError, "cannot coerce %q to %s", n, layout)
		}
		return t, nil
	default:
		return nil, dberrors.New(dberrors.ValidationError, "cannot coerce %T to a date/datetime", v)
	}
}
