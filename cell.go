package analystdb

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// BlobSentinel replaces binary payloads in results.
const BlobSentinel = "<blob>"

// CellKind is the dynamic type of a Cell.
type CellKind int

const (
	// CellNull is SQL NULL
	CellNull CellKind = iota
	// CellInteger is a 64-bit signed integer
	CellInteger
	// CellReal is a 64-bit float
	CellReal
	// CellText is valid UTF-8 text
	CellText
	// CellBlob is binary data, surfaced only as BlobSentinel
	CellBlob
)

// String returns the kind name
func (k CellKind) String() string {
	switch k {
	case CellInteger:
		return "integer"
	case CellReal:
		return "real"
	case CellText:
		return "text"
	case CellBlob:
		return "blob"
	default:
		return "null"
	}
}

// Layouts for timestamps the driver decoded from DATE and DATETIME columns.
const (
	zonedTimeLayout = "2006-01-02 15:04:05.999999999-07:00"
	utcTimeLayout   = "2006-01-02 15:04:05.999999999"
	dateLayout      = "2006-01-02"
)

// Cell is one dynamically typed result value.
type Cell struct {
	Kind CellKind
	Int  int64
	Real float64
	Text string
}

// NullCell returns a NULL cell.
func NullCell() Cell { return Cell{Kind: CellNull} }

// IntCell returns an integer cell.
func IntCell(v int64) Cell { return Cell{Kind: CellInteger, Int: v} }

// RealCell returns a real cell.
func RealCell(v float64) Cell { return Cell{Kind: CellReal, Real: v} }

// TextCell returns a text cell. Invalid UTF-8 sequences become U+FFFD.
func TextCell(v string) Cell {
	return Cell{Kind: CellText, Text: strings.ToValidUTF8(v, "�")}
}

// BlobCell returns a blob cell. The payload is dropped.
func BlobCell() Cell { return Cell{Kind: CellBlob} }

// CellFromValue converts a value scanned from database/sql into a Cell.
func CellFromValue(v any) Cell {
	switch val := v.(type) {
	case nil:
		return NullCell()
	case int64:
		return IntCell(val)
	case int:
		return IntCell(int64(val))
	case int32:
		return IntCell(int64(val))
	case bool:
		if val {
			return IntCell(1)
		}
		return IntCell(0)
	case float64:
		return RealCell(val)
	case float32:
		return RealCell(float64(val))
	case string:
		return TextCell(val)
	case []byte:
		return BlobCell()
	case time.Time:
		return TextCell(formatTime(val))
	default:
		return TextCell(fmt.Sprint(val))
	}
}

func formatTime(t time.Time) string {
	if t.Location() != time.UTC {
		return t.Format(zonedTimeLayout)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(utcTimeLayout)
}

// String renders the cell as text. NULL is the empty string.
func (c Cell) String() string {
	switch c.Kind {
	case CellInteger:
		return strconv.FormatInt(c.Int, 10)
	case CellReal:
		return strconv.FormatFloat(c.Real, 'g', -1, 64)
	case CellText:
		return c.Text
	case CellBlob:
		return BlobSentinel
	default:
		return ""
	}
}

// Value returns the natural Go value of the cell.
func (c Cell) Value() any {
	switch c.Kind {
	case CellInteger:
		return c.Int
	case CellReal:
		return c.Real
	case CellText:
		return c.Text
	case CellBlob:
		return BlobSentinel
	default:
		return nil
	}
}

// MarshalJSON encodes the cell as a bare JSON value. Non-finite reals become null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellInteger:
		return strconv.AppendInt(nil, c.Int, 10), nil
	case CellReal:
		if math.IsNaN(c.Real) || math.IsInf(c.Real, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(c.Real)
	case CellText:
		return json.Marshal(c.Text)
	case CellBlob:
		return json.Marshal(BlobSentinel)
	default:
		return []byte("null"), nil
	}
}
