// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/collator-staking/thor"
)

// Amount is a token amount written as a decimal or 0x-prefixed hex string. A decimal may carry an
// exponent, so "1000e18" is one thousand whole tokens.
type Amount big.Int

func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	v, err := parseAmount(value.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*a = Amount(*v)
	return nil
}

func (a *Amount) MarshalYAML() (any, error) {
	return (*big.Int)(a).String(), nil
}

// Int returns the amount, nil for an unset amount.
func (a *Amount) Int() *big.Int {
	if a == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(a))
}

func parseAmount(s string) (*big.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok || v.Sign() < 0 {
			return nil, errors.Errorf("invalid amount %q: bad hex", s)
		}
		return v, nil
	}

	mantissa, exp := s, uint64(0)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		var err error
		if exp, err = strconv.ParseUint(s[i+1:], 10, 8); err != nil {
			return nil, errors.Errorf("invalid amount %q: bad exponent", s)
		}
		mantissa = s[:i]
	}
	v, ok := new(big.Int).SetString(mantissa, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q: negative", s)
	}
	return v.Mul(v, new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(exp), nil)), nil
}

// Ratio is a perbill written either as a percentage ("12.5%") or as raw parts per billion.
type Ratio thor.Perbill

func (r *Ratio) UnmarshalYAML(value *yaml.Node) error {
	v, err := parseRatio(value.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*r = Ratio(v)
	return nil
}

func (r Ratio) Perbill() thor.Perbill {
	return thor.Perbill(r)
}

func parseRatio(s string) (thor.Perbill, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, errors.Errorf("invalid ratio %q", s)
		}
		return checkRatio(thor.Perbill(v), s)
	}

	whole, frac, _ := strings.Cut(strings.TrimSpace(strings.TrimSuffix(s, "%")), ".")
	// one percent is 10^7 parts per billion
	if len(frac) > 7 {
		return 0, errors.Errorf("ratio %q is more precise than a perbill", s)
	}
	frac += strings.Repeat("0", 7-len(frac))
	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid ratio %q", s)
	}
	f, err := strconv.ParseUint(frac, 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid ratio %q", s)
	}
	if w > 100 {
		return 0, errors.Errorf("ratio %q exceeds 100%%", s)
	}
	return checkRatio(thor.Perbill(w*10_000_000+f), s)
}

func checkRatio(p thor.Perbill, s string) (thor.Perbill, error) {
	if !p.IsValid() {
		return 0, errors.Errorf("ratio %q exceeds 100%%", s)
	}
	return p, nil
}
