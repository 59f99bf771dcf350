// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/thor"
)

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	Name               string        `yaml:"name"`
	ExistentialDeposit *Amount       `yaml:"existentialDeposit"`
	Config             *Config       `yaml:"config"`
	Accounts           []Account     `yaml:"accounts"`
	Staking            StakingParams `yaml:"staking"`
}

// Config overrides the default engine constants. Unset fields keep their defaults.
type Config struct {
	staker.Config `yaml:",inline"`

	MinCandidateStk *Amount `yaml:"minCandidateStk"`
	MinDelegatorStk *Amount `yaml:"minDelegatorStk"`
	MinDelegation   *Amount `yaml:"minDelegation"`
	Curve           string  `yaml:"curve"` // linear or stepped
}

// Account is a genesis balance.
type Account struct {
	Address thor.Address `yaml:"address"`
	Balance *Amount      `yaml:"balance"`
}

type StakingParams struct {
	BlocksPerRound     uint32         `yaml:"blocksPerRound"`
	TotalSelected      uint32         `yaml:"totalSelected"`
	CollatorCommission Ratio          `yaml:"collatorCommission"`
	ParachainBond      *ParachainBond `yaml:"parachainBond"`
	Inflation          Inflation      `yaml:"inflation"`
	Candidates         []Candidate    `yaml:"candidates"`
	Delegations        []Delegation   `yaml:"delegations"`
}

type ParachainBond struct {
	Account thor.Address `yaml:"account"`
	Percent thor.Percent `yaml:"percent"`
}

type Inflation struct {
	Expect struct {
		Min   *Amount `yaml:"min"`
		Ideal *Amount `yaml:"ideal"`
		Max   *Amount `yaml:"max"`
	} `yaml:"expect"`
	Annual struct {
		Min   Ratio `yaml:"min"`
		Ideal Ratio `yaml:"ideal"`
		Max   Ratio `yaml:"max"`
	} `yaml:"annual"`
}

type Candidate struct {
	Account thor.Address `yaml:"account"`
	Bond    *Amount      `yaml:"bond"`
}

type Delegation struct {
	Delegator thor.Address `yaml:"delegator"`
	Candidate thor.Address `yaml:"candidate"`
	Amount    *Amount      `yaml:"amount"`
}

// LoadCustomNet reads a YAML genesis file. Unknown fields are rejected.
func LoadCustomNet(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return ParseCustomNet(data)
}

// ParseCustomNet decodes a YAML genesis document.
func ParseCustomNet(data []byte) (*Genesis, error) {
	// unset constants keep their defaults
	gen := CustomGenesis{Config: NewConfig()}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return NewCustomNet(&gen)
}

// NewConfig returns a config override holding the default constants.
func NewConfig() *Config {
	return &Config{Config: *staker.DefaultConfig()}
}

func (c *Config) build() (*staker.Config, error) {
	if c == nil {
		return staker.DefaultConfig(), nil
	}
	defaults := staker.DefaultConfig()
	cfg := c.Config
	cfg.MinCandidateStk = defaults.MinCandidateStk
	cfg.MinDelegatorStk = defaults.MinDelegatorStk
	cfg.MinDelegation = defaults.MinDelegation
	if c.MinCandidateStk != nil {
		cfg.MinCandidateStk = c.MinCandidateStk.Int()
	}
	if c.MinDelegatorStk != nil {
		cfg.MinDelegatorStk = c.MinDelegatorStk.Int()
	}
	if c.MinDelegation != nil {
		cfg.MinDelegation = c.MinDelegation.Int()
	}

	switch c.Curve {
	case "", "linear":
		cfg.Curve = round.LinearCurve{}
	case "stepped":
		cfg.Curve = round.SteppedCurve{}
	default:
		return nil, errors.Errorf("unknown issuance curve %q", c.Curve)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	cfg, err := gen.Config.build()
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}

	builder := new(Builder).Config(cfg)
	if gen.ExistentialDeposit != nil {
		builder.ExistentialDeposit(gen.ExistentialDeposit.Int())
	}

	if len(gen.Accounts) == 0 {
		return nil, errors.New("at least one account")
	}
	for _, a := range gen.Accounts {
		if a.Balance == nil {
			return nil, errors.Errorf("%s: balance must be set", a.Address)
		}
		if a.Balance.Int().Sign() < 1 {
			return nil, errors.Errorf("%s: balance must be a non-zero integer", a.Address)
		}
		builder.Alloc(a.Address, a.Balance.Int())
	}

	params := gen.Staking
	expect := params.Inflation.Expect
	if expect.Min == nil || expect.Ideal == nil || expect.Max == nil {
		return nil, errors.New("inflation.expect: min, ideal and max must be set")
	}

	staking := &staker.Genesis{
		BlocksPerRound:     params.BlocksPerRound,
		TotalSelected:      params.TotalSelected,
		CollatorCommission: params.CollatorCommission.Perbill(),
		Inflation: round.InflationConfig{
			Expect: round.Range[*big.Int]{Min: expect.Min.Int(), Ideal: expect.Ideal.Int(), Max: expect.Max.Int()},
			Annual: round.Range[thor.Perbill]{
				Min:   params.Inflation.Annual.Min.Perbill(),
				Ideal: params.Inflation.Annual.Ideal.Perbill(),
				Max:   params.Inflation.Annual.Max.Perbill(),
			},
		},
	}
	if pb := params.ParachainBond; pb != nil {
		account := pb.Account
		staking.ParachainBondAccount = &account
		staking.ParachainBondPercent = pb.Percent
	}

	if len(params.Candidates) == 0 {
		return nil, errors.New("at least one candidate")
	}
	for _, c := range params.Candidates {
		if c.Bond == nil {
			return nil, errors.Errorf("candidate %s: bond must be set", c.Account)
		}
		staking.Candidates = append(staking.Candidates, staker.GenesisCandidate{Account: c.Account, Bond: c.Bond.Int()})
	}
	for _, d := range params.Delegations {
		if d.Amount == nil {
			return nil, errors.Errorf("delegation %s -> %s: amount must be set", d.Delegator, d.Candidate)
		}
		staking.Delegations = append(staking.Delegations, staker.GenesisDelegation{
			Delegator: d.Delegator,
			Candidate: d.Candidate,
			Amount:    d.Amount.Int(),
		})
	}

	name := gen.Name
	if name == "" {
		name = "customnet"
	}
	return &Genesis{builder: builder.Staking(staking), name: name}, nil
}
