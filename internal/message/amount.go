package message

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// Amount is a non-negative integer amount, e.g. USDC base units. It is
// encoded as a decimal string so that JavaScript wallets keep full
// precision; integral JSON numbers are accepted as well.
type Amount struct {
	*big.Int
}

// MakeAmount copies b into an Amount. nil yields zero.
func MakeAmount(b *big.Int) Amount {
	if b == nil {
		return Amount{new(big.Int)}
	}
	return Amount{new(big.Int).Set(b)}
}

// MarshalJSON encodes a as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Int == nil {
		return []byte(`"0"`), nil
	}
	return json.Marshal(a.Int.String())
}

// UnmarshalJSON decodes a decimal string or an integral number.
func (a *Amount) UnmarshalJSON(d []byte) error {
	digits := string(bytes.Trim(d, `"`))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok || v.Sign() < 0 {
		return errors.Errorf("not a valid amount: %s", d)
	}
	a.Int = v
	return nil
}
