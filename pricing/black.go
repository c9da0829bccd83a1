package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var standardNormal = distuv.UnitNormal

// blackResult holds the undiscounted Black price and its first derivatives.
type blackResult struct {
	price    float64
	dForward float64
	dVol     float64
}

// black prices an option on a forward with the Black formula.
// An expired option or a zero volatility returns the intrinsic value.
func black(forward, strike, expiry, vol float64, isCall bool) blackResult {
	omega := 1.0
	if !isCall {
		omega = -1
	}
	if expiry <= 0 || vol <= 0 {
		intrinsic := omega * (forward - strike)
		if intrinsic <= 0 {
			return blackResult{}
		}
		return blackResult{price: intrinsic, dForward: omega}
	}
	sigmaRootT := vol * math.Sqrt(expiry)
	d1 := (math.Log(forward/strike) + 0.5*sigmaRootT*sigmaRootT) / sigmaRootT
	d2 := d1 - sigmaRootT
	return blackResult{
		price:    omega * (forward*standardNormal.CDF(omega*d1) - strike*standardNormal.CDF(omega*d2)),
		dForward: omega * standardNormal.CDF(omega*d1),
		dVol:     forward * standardNormal.Prob(d1) * math.Sqrt(expiry),
	}
}

// blackDigital is the undiscounted probability of finishing in the money.
func blackDigital(forward, strike, expiry, vol float64, isCall bool) blackResult {
	omega := 1.0
	if !isCall {
		omega = -1
	}
	if expiry <= 0 || vol <= 0 {
		if omega*(forward-strike) > 0 {
			return blackResult{price: 1}
		}
		return blackResult{}
	}
	sigmaRootT := vol * math.Sqrt(expiry)
	d1 := (math.Log(forward/strike) + 0.5*sigmaRootT*sigmaRootT) / sigmaRootT
	d2 := d1 - sigmaRootT
	density := standardNormal.Prob(d2)
	return blackResult{
		price:    standardNormal.CDF(omega * d2),
		dForward: omega * density / (forward * sigmaRootT),
		dVol:     -omega * density * d1 / vol,
	}
}
