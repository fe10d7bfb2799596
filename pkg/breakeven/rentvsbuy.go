package breakeven

import (
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/loans"
	"github.com/iwvelando/mortgage-forecast/pkg/mathutil"
)

// RentVsBuyInput describes buying a home against renting and investing the
// difference. Rates are annual percentages.
type RentVsBuyInput struct {
	PropertyPrice    float64 `json:"propertyPrice" yaml:"propertyPrice" validate:"gt=0"`
	Deposit          float64 `json:"deposit" yaml:"deposit" validate:"gte=0"`
	MortgageRate     float64 `json:"mortgageRate" yaml:"mortgageRate" validate:"gte=0"`
	TermMonths       int     `json:"termMonths" yaml:"termMonths" validate:"gt=0"`
	PurchaseCosts    float64 `json:"purchaseCosts" yaml:"purchaseCosts" validate:"gte=0"`
	MonthlyRent      float64 `json:"monthlyRent" yaml:"monthlyRent" validate:"gte=0"`
	RentInflation    float64 `json:"rentInflation" yaml:"rentInflation"`
	HomeAppreciation float64 `json:"homeAppreciation" yaml:"homeAppreciation"`
	MaintenanceRate  float64 `json:"maintenanceRate" yaml:"maintenanceRate" validate:"gte=0"` // of purchase price, per year
	InvestmentReturn float64 `json:"investmentReturn" yaml:"investmentReturn"`
	SaleCostRate     float64 `json:"saleCostRate" yaml:"saleCostRate" validate:"gte=0,lt=100"`
}

// RentVsBuySnapshot is the state of both households at the end of a month.
type RentVsBuySnapshot struct {
	Month           int     `json:"month"`
	Year            int     `json:"year"`
	HomeValue       float64 `json:"homeValue"`
	MortgageBalance float64 `json:"mortgageBalance"`
	Equity          float64 `json:"equity"`
	NetSaleProceeds float64 `json:"netSaleProceeds"`
	BuyerNetWorth   float64 `json:"buyerNetWorth"`
	RenterNetWorth  float64 `json:"renterNetWorth"`
	MonthlyRent     float64 `json:"monthlyRent"`
	OwnerCost       float64 `json:"ownerCost"`
	CumulativeRent  float64 `json:"cumulativeRent"`
	CumulativeOwner float64 `json:"cumulativeOwnerCost"`
}

// RentVsBuyResult reports the three breakeven points and the trajectories
// that produced them.
type RentVsBuyResult struct {
	MonthlyPayment       float64             `json:"monthlyPayment"`
	UpfrontCosts         float64             `json:"upfrontCosts"`
	BreakevenMonth       *int                `json:"breakevenMonth"`
	BreakevenYears       Years               `json:"breakevenYears"`
	SaleBreakevenMonth   *int                `json:"saleBreakevenMonth"`
	SaleBreakevenYears   Years               `json:"saleBreakevenYears"`
	EquityBreakevenMonth *int                `json:"equityBreakevenMonth"`
	EquityBreakevenYears Years               `json:"equityBreakevenYears"`
	FinalBuyerNetWorth   float64             `json:"finalBuyerNetWorth"`
	FinalRenterNetWorth  float64             `json:"finalRenterNetWorth"`
	YearlySnapshots      []RentVsBuySnapshot `json:"yearlySnapshots"`
	MonthlyDetail        []RentVsBuySnapshot `json:"monthlyDetail"`
}

// CalculateRentVsBuy walks the mortgage term month by month. The buyer pays
// the mortgage and maintenance while the home appreciates; the renter pays
// rent and invests the deposit and purchase costs. Whichever side has the
// lower monthly outgoings invests the difference at the investment return.
//
// The net-worth breakeven is the first month the buyer's net worth (home
// value less sale costs and mortgage, plus investments) reaches the
// renter's. The sale-proceeds breakeven is the first month selling would
// return the upfront cash, and the equity breakeven the first month equity
// does.
func CalculateRentVsBuy(in RentVsBuyInput) RentVsBuyResult {
	upfront := in.Deposit + in.PurchaseCosts
	result := RentVsBuyResult{
		UpfrontCosts:         upfront,
		BreakevenYears:       yearsFor(nil),
		SaleBreakevenYears:   yearsFor(nil),
		EquityBreakevenYears: yearsFor(nil),
		YearlySnapshots:      []RentVsBuySnapshot{},
		MonthlyDetail:        []RentVsBuySnapshot{},
	}
	if in.PropertyPrice <= 0 || in.TermMonths <= 0 {
		return result
	}

	principal := in.PropertyPrice - in.Deposit
	if principal < 0 {
		principal = 0
	}
	payment := loans.CalculateMonthlyPayment(principal, in.MortgageRate, in.TermMonths)
	result.MonthlyPayment = mathutil.Round(payment)

	appreciation := mathutil.MonthlyCompoundRate(in.HomeAppreciation)
	growth := mathutil.MonthlyCompoundRate(in.InvestmentReturn)
	maintenance := mathutil.ApplyPercentage(in.PropertyPrice, in.MaintenanceRate) / constants.MonthsPerYear
	saleFactor := 1 - in.SaleCostRate/constants.PercentageMultiplier

	homeValue := in.PropertyPrice
	balance := principal
	rent := in.MonthlyRent
	renterInvestments := upfront
	buyerInvestments := 0.0
	var cumulativeRent, cumulativeOwner float64

	for month := 1; month <= in.TermMonths; month++ {
		if month > 1 && (month-1)%constants.MonthsPerYear == 0 {
			rent *= 1 + in.RentInflation/constants.PercentageMultiplier
		}

		ownerCost := maintenance
		if balance > 0 {
			ownerCost += payment
			balance, _ = amortize(balance, in.MortgageRate, payment)
		}
		homeValue *= 1 + appreciation

		renterInvestments *= 1 + growth
		buyerInvestments *= 1 + growth
		if ownerCost > rent {
			renterInvestments += ownerCost - rent
		} else {
			buyerInvestments += rent - ownerCost
		}
		cumulativeRent += rent
		cumulativeOwner += ownerCost

		equity := homeValue - balance
		saleProceeds := homeValue*saleFactor - balance
		buyerNetWorth := saleProceeds + buyerInvestments

		if result.BreakevenMonth == nil && buyerNetWorth >= renterInvestments {
			result.BreakevenMonth = monthPtr(month)
		}
		if result.SaleBreakevenMonth == nil && saleProceeds >= upfront {
			result.SaleBreakevenMonth = monthPtr(month)
		}
		if result.EquityBreakevenMonth == nil && equity >= upfront {
			result.EquityBreakevenMonth = monthPtr(month)
		}

		snapshot := RentVsBuySnapshot{
			Month:           month,
			Year:            (month-1)/constants.MonthsPerYear + 1,
			HomeValue:       mathutil.Round(homeValue),
			MortgageBalance: mathutil.Round(balance),
			Equity:          mathutil.Round(equity),
			NetSaleProceeds: mathutil.Round(saleProceeds),
			BuyerNetWorth:   mathutil.Round(buyerNetWorth),
			RenterNetWorth:  mathutil.Round(renterInvestments),
			MonthlyRent:     mathutil.Round(rent),
			OwnerCost:       mathutil.Round(ownerCost),
			CumulativeRent:  mathutil.Round(cumulativeRent),
			CumulativeOwner: mathutil.Round(cumulativeOwner),
		}
		if month <= constants.MonthlyDetailMonths {
			result.MonthlyDetail = append(result.MonthlyDetail, snapshot)
		}
		if isYearEnd(month, in.TermMonths) {
			result.YearlySnapshots = append(result.YearlySnapshots, snapshot)
		}
		result.FinalBuyerNetWorth = snapshot.BuyerNetWorth
		result.FinalRenterNetWorth = snapshot.RenterNetWorth
	}

	result.BreakevenYears = yearsFor(result.BreakevenMonth)
	result.SaleBreakevenYears = yearsFor(result.SaleBreakevenMonth)
	result.EquityBreakevenYears = yearsFor(result.EquityBreakevenMonth)
	return result
}
