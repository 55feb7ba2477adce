package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strconv"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MaxTokenDecimals is the largest number of fractional digits a token may use.
const MaxTokenDecimals = 18

// ErrAmountFormat is returned when a human readable amount cannot be converted to base units.
var ErrAmountFormat = errors.New("invalid amount")

// Amount is a count of the token's smallest unit.
// It is encoded as a base-10 string in JSON, BSON and SQL so values above 2^53 survive clients.
type Amount uint64

// Add returns a+b and false if the sum overflowed.
func (a Amount) Add(b Amount) (Amount, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	return Amount(sum), carry == 0
}

// Decimal returns the amount in whole tokens.
func (a Amount) Decimal(decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -decimals)
}

// Format renders the amount in whole tokens without trailing zeros ("0.1").
func (a Amount) Format(decimals int32) string {
	return a.Decimal(decimals).String()
}

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// ParseAmount converts a whole-token decimal string to base units.
func ParseAmount(s string, decimals int32) (Amount, error) {
	if decimals < 0 || decimals > MaxTokenDecimals {
		return 0, fmt.Errorf("%w: unsupported token decimals %d", ErrAmountFormat, decimals)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrAmountFormat, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrAmountFormat, s)
	}
	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has more than %d fractional digits", ErrAmountFormat, s, decimals)
	}
	bi := units.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %q is too large", ErrAmountFormat, s)
	}
	return Amount(bi.Uint64()), nil
}

func parseBaseUnits(s string) (Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrAmountFormat, s)
	}
	return Amount(v), nil
}

// MarshalJSON encodes the amount as a quoted base-unit string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a quoted base-unit string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	v, err := parseBaseUnits(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalBSONValue stores the amount as a string; BSON has no unsigned 64-bit type.
func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(a.String())
}

// UnmarshalBSONValue reads an amount written by MarshalBSONValue.
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&s); err != nil {
		return err
	}
	v, err := parseBaseUnits(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := parseBaseUnits(v)
		if err != nil {
			return err
		}
		*a = parsed
	case []byte:
		parsed, err := parseBaseUnits(string(v))
		if err != nil {
			return err
		}
		*a = parsed
	case int64:
		if v < 0 {
			return fmt.Errorf("%w: negative amount %d", ErrAmountFormat, v)
		}
		*a = Amount(v)
	case nil:
		*a = 0
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
	return nil
}
