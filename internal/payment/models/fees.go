package models

import (
	"math"

	propertymodels "landreg/internal/property/models"
	dErrors "landreg/pkg/domain-errors"
)

// Quote is a deterministic fee breakdown presented before payment.
// TotalAmount = BaseFee + ProcessingFee + TaxAmount - DiscountAmount,
// clamped at zero.
type Quote struct {
	BaseFee        float64  `json:"base_fee"`
	ProcessingFee  float64  `json:"processing_fee"`
	TaxAmount      float64  `json:"tax_amount"`
	DiscountAmount float64  `json:"discount_amount"`
	TotalAmount    float64  `json:"total_amount"`
	Currency       Currency `json:"currency"`
}

// baseFeeSchedule is the flat component by land use, in ETB.
var baseFeeSchedule = map[propertymodels.PropertyType]float64{
	propertymodels.TypeResidential:  500,
	propertymodels.TypeCommercial:   1500,
	propertymodels.TypeIndustrial:   2000,
	propertymodels.TypeAgricultural: 300,
}

// perSqmSchedule is the area component by land use, ETB per square metre.
var perSqmSchedule = map[propertymodels.PropertyType]float64{
	propertymodels.TypeResidential:  2.5,
	propertymodels.TypeCommercial:   5,
	propertymodels.TypeIndustrial:   4,
	propertymodels.TypeAgricultural: 0.5,
}

// processingRate is the channel surcharge as a fraction of the base fee.
var processingRate = map[Method]float64{
	MethodCBEBirr:      0.010,
	MethodTeleBirr:     0.012,
	MethodChapa:        0.015,
	MethodBankTransfer: 0.005,
	MethodCreditCard:   0.025,
	MethodCash:         0,
}

// vatRate is the value-added tax applied to the base fee.
const vatRate = 0.15

// agriculturalDiscount subsidizes smallholder agricultural registrations.
const agriculturalDiscount = 100

// QuoteFee computes the fee breakdown for registering a property through the
// given channel. Pure function of its inputs.
func QuoteFee(propertyType propertymodels.PropertyType, areaSqm float64,
	method Method, paymentType Type) (Quote, error) {

	if !propertyType.IsValid() {
		return Quote{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown property type %q", propertyType)
	}
	if areaSqm <= 0 {
		return Quote{}, dErrors.New(dErrors.CodeInvalidInput, "area must be positive")
	}
	if !method.IsValid() {
		return Quote{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown payment method %q", method)
	}
	if !paymentType.IsValid() {
		return Quote{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown payment type %q", paymentType)
	}

	base := baseFeeSchedule[propertyType] + perSqmSchedule[propertyType]*areaSqm
	switch paymentType {
	case TypeTransferFee:
		base *= 0.5
	case TypeTax:
		base *= 0.25
	}

	quote := Quote{
		BaseFee:       round2(base),
		ProcessingFee: round2(base * processingRate[method]),
		TaxAmount:     round2(base * vatRate),
		Currency:      CurrencyETB,
	}
	if propertyType == propertymodels.TypeAgricultural && paymentType == TypeRegistrationFee {
		quote.DiscountAmount = agriculturalDiscount
	}

	total := quote.BaseFee + quote.ProcessingFee + quote.TaxAmount - quote.DiscountAmount
	quote.TotalAmount = round2(math.Max(total, 0))
	return quote, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
