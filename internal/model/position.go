package model

import "math/big"

type AmountType int

const (
	AmountDelta AmountType = iota
	AmountTarget
)

type AmountDenomination int

const (
	DenominationNative AmountDenomination = iota
	DenominationAssets
)

// Amount is a signed position change. A zero Amount is a Native delta of 0.
type Amount struct {
	Type         AmountType         `json:"amount_type"`
	Denomination AmountDenomination `json:"denomination"`
	Value        *big.Int           `json:"value"` // i257
}

type UnsignedAmount struct {
	Type         AmountType         `json:"amount_type"`
	Denomination AmountDenomination `json:"denomination"`
	Value        *big.Int           `json:"value"`
}

// ModifyPositionParams is the argument of pool.modify_position.
type ModifyPositionParams struct {
	CollateralAsset string `json:"collateral_asset"`
	DebtAsset       string `json:"debt_asset"`
	User            string `json:"user"`
	Collateral      Amount `json:"collateral"`
	Debt            Amount `json:"debt"`
}

// LiquidatePositionParams is the argument of pool.liquidate_position.
type LiquidatePositionParams struct {
	CollateralAsset        string   `json:"collateral_asset"`
	DebtAsset              string   `json:"debt_asset"`
	User                   string   `json:"user"`
	MinCollateralToReceive *big.Int `json:"min_collateral_to_receive"`
	DebtToRepay            *big.Int `json:"debt_to_repay"`
}
