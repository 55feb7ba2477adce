package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Score is the unsigned 128-bit product stake*clicks.
// A product of two uint64 values always fits, so a Score never wraps.
type Score struct {
	Hi uint64
	Lo uint64
}

// MulScore multiplies a stake by a click count.
func MulScore(stake Amount, clicks uint64) Score {
	hi, lo := bits.Mul64(uint64(stake), clicks)
	return Score{Hi: hi, Lo: lo}
}

// Cmp returns -1, 0 or +1.
func (s Score) Cmp(o Score) int {
	switch {
	case s.Hi < o.Hi:
		return -1
	case s.Hi > o.Hi:
		return 1
	case s.Lo < o.Lo:
		return -1
	case s.Lo > o.Lo:
		return 1
	}
	return 0
}

func (s Score) IsZero() bool {
	return s.Hi == 0 && s.Lo == 0
}

// BigInt returns the score as a big integer.
func (s Score) BigInt() *big.Int {
	v := new(big.Int).SetUint64(s.Hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(s.Lo))
}

// Format renders the score in whole-token units, matching how stakes are displayed.
func (s Score) Format(decimals int32) string {
	return decimal.NewFromBigInt(s.BigInt(), -decimals).String()
}

func (s Score) String() string {
	return s.BigInt().String()
}

// ParseScore reads a base-10 score string.
func ParseScore(str string) (Score, error) {
	v, ok := new(big.Int).SetString(str, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 128 {
		return Score{}, fmt.Errorf("invalid score %q", str)
	}
	lo := new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(v, 64)
	return Score{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Score) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		str = string(data)
	}
	v, err := ParseScore(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Score) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.String())
}

func (s *Score) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var str string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&str); err != nil {
		return err
	}
	v, err := ParseScore(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Score) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *Score) Scan(src interface{}) error {
	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	case nil:
		*s = Score{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Score", src)
	}
	v, err := ParseScore(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
