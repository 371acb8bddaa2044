package lms

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/amounts"
	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/models"
)

// legacyDateFormats lists the date shapes seen in LMS data. ODBC reads hand
// back Access DATETIME columns as RFC 3339 strings, while the CSV and Excel
// exports use whatever the office machine's regional settings produced.
// Unpadded layouts also accept padded values, so "1/2/2006" covers both
// "7/4/2024" and "07/04/2024".
var legacyDateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"2006-01-02",
	"2-Jan-06",
}

// legacyStatusCodes maps LMS single-letter reservation statuses.
var legacyStatusCodes = map[string]models.CharterStatus{
	"B":  models.StatusBooked,
	"C":  models.StatusConfirmed,
	"D":  models.StatusDispatched,
	"F":  models.StatusCompleted,
	"X":  models.StatusCancelled,
	"CL": models.StatusClosed,
}

// legacyMethodCodes maps LMS payment method codes.
var legacyMethodCodes = map[string]models.PaymentMethod{
	"CA":     models.MethodCash,
	"CASH":   models.MethodCash,
	"CK":     models.MethodCheck,
	"CHQ":    models.MethodCheck,
	"CHECK":  models.MethodCheck,
	"CHEQUE": models.MethodCheck,
	"V":      models.MethodVisa,
	"VISA":   models.MethodVisa,
	"M":      models.MethodMC,
	"MC":     models.MethodMC,
	"AX":     models.MethodAmex,
	"AMEX":   models.MethodAmex,
	"E":      models.MethodEFT,
	"EFT":    models.MethodEFT,
	"DD":     models.MethodEFT,
}

// NormalizeReserveNumber canonicalizes an LMS reserve number so rows from
// different exports join: uppercase, no surrounding or embedded whitespace.
func NormalizeReserveNumber(resNo string) string {
	return strings.Join(strings.Fields(strings.ToUpper(resNo)), "")
}

// ReferenceForTrx returns the payment reference that marks a row as migrated
// from a specific LMS transaction. Re-running the migration finds these and
// skips the rows it already imported.
func ReferenceForTrx(trxNo string) string {
	return "LMS:" + strings.TrimSpace(trxNo)
}

// parseLegacyDate tries each known LMS date shape in order.
func parseLegacyDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, format := range legacyDateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date '%s'", value)
}

// parseLegacyAmount parses an LMS money field. Empty fields mean zero.
func parseLegacyAmount(value string) (decimal.Decimal, error) {
	return amounts.ParseAmount(strings.TrimSpace(value))
}

// MapStatus converts an LMS status code. Unknown codes fall back to booked so
// one odd row doesn't block a whole import; the caller logs the fallback.
func MapStatus(code string) (models.CharterStatus, bool) {
	status, ok := legacyStatusCodes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return models.StatusBooked, false
	}
	return status, true
}

// MapMethod converts an LMS payment method code. Unknown codes map to other.
func MapMethod(code string) models.PaymentMethod {
	if method, ok := legacyMethodCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return method
	}
	return models.MethodOther
}

// MapCustomer converts an LMS customer row to a client.
func MapCustomer(lc LegacyCustomer) (models.Client, error) {
	custNo := strings.TrimSpace(lc.CustNo)
	if custNo == "" {
		return models.Client{}, &errs.ValidationError{
			Subject: "LMS customer",
			Reason:  "missing CustNo",
		}
	}

	name := strings.TrimSpace(lc.Name)
	if name == "" {
		name = strings.TrimSpace(lc.Company)
	}
	if name == "" {
		return models.Client{}, &errs.ValidationError{
			Subject: "LMS customer " + custNo,
			Reason:  "missing both CustName and Company",
		}
	}

	return models.Client{
		Name:     name,
		Company:  strings.TrimSpace(lc.Company),
		Email:    strings.TrimSpace(lc.Email),
		Phone:    strings.TrimSpace(lc.Phone),
		Address:  strings.TrimSpace(lc.Address),
		LegacyID: custNo,
	}, nil
}

// MapReservation converts an LMS reservation row to a charter. The caller
// resolves ClientID and VehicleID; mapping only handles the row's own fields.
// The second return reports whether the status code was recognized.
func MapReservation(lr LegacyReservation) (models.Charter, bool, error) {
	resNo := NormalizeReserveNumber(lr.ResNo)
	if resNo == "" {
		return models.Charter{}, false, &errs.ValidationError{
			Subject: "LMS reservation",
			Reason:  "missing ResNo",
		}
	}

	pickupAt, err := parseLegacyDate(lr.PickupDate)
	if err != nil {
		return models.Charter{}, false, &errs.ParseError{
			Parser: "lms",
			Field:  "PUDate",
			Value:  lr.PickupDate,
			Err:    err,
		}
	}

	passengers := 0
	if pax := strings.TrimSpace(lr.Pax); pax != "" {
		passengers, err = strconv.Atoi(pax)
		if err != nil {
			return models.Charter{}, false, &errs.ParseError{
				Parser: "lms",
				Field:  "Pax",
				Value:  lr.Pax,
				Err:    err,
			}
		}
	}

	totalDue, err := parseLegacyAmount(lr.TotalDue)
	if err != nil {
		return models.Charter{}, false, &errs.ParseError{
			Parser: "lms", Field: "TotalDue", Value: lr.TotalDue, Err: err,
		}
	}
	amtPaid, err := parseLegacyAmount(lr.AmtPaid)
	if err != nil {
		return models.Charter{}, false, &errs.ParseError{
			Parser: "lms", Field: "AmtPaid", Value: lr.AmtPaid, Err: err,
		}
	}
	balance, err := parseLegacyAmount(lr.Balance)
	if err != nil {
		return models.Charter{}, false, &errs.ParseError{
			Parser: "lms", Field: "Balance", Value: lr.Balance, Err: err,
		}
	}

	status, known := MapStatus(lr.Status)

	return models.Charter{
		ReserveNumber:  resNo,
		PickupAt:       pickupAt,
		PickupAddr:     strings.TrimSpace(lr.PickupAddr),
		DropoffAddr:    strings.TrimSpace(lr.DropAddr),
		Passengers:     passengers,
		Status:         status,
		TotalAmountDue: totalDue,
		PaidAmount:     amtPaid,
		Balance:        balance,
		Notes:          strings.TrimSpace(lr.Notes),
	}, known, nil
}

// IsRefund reports whether an LMS transaction row records money going back to
// the client. LMS used REF rows for most refunds but some clerks just keyed a
// negative payment.
func IsRefund(lt LegacyTrx) bool {
	switch strings.ToUpper(strings.TrimSpace(lt.TrxType)) {
	case "REF", "REFUND", "RF":
		return true
	}
	amount, err := parseLegacyAmount(lt.Amount)
	if err != nil {
		return false
	}
	return amount.IsNegative()
}

// MapPayment converts an LMS transaction row to a payment. Amounts are stored
// positive; direction lives in the row being a payment rather than a refund.
func MapPayment(lt LegacyTrx) (models.Payment, error) {
	resNo := NormalizeReserveNumber(lt.ResNo)
	if resNo == "" {
		return models.Payment{}, &errs.ValidationError{
			Subject: "LMS transaction " + strings.TrimSpace(lt.TrxNo),
			Reason:  "missing ResNo",
		}
	}

	receivedOn, err := parseLegacyDate(lt.TrxDate)
	if err != nil {
		return models.Payment{}, &errs.ParseError{
			Parser: "lms", Field: "TrxDate", Value: lt.TrxDate, Err: err,
		}
	}
	amount, err := parseLegacyAmount(lt.Amount)
	if err != nil {
		return models.Payment{}, &errs.ParseError{
			Parser: "lms", Field: "Amount", Value: lt.Amount, Err: err,
		}
	}

	return models.Payment{
		ReserveNumber: resNo,
		Method:        MapMethod(lt.PayMethod),
		Amount:        amount.Abs(),
		ReceivedOn:    receivedOn,
		CheckNumber:   strings.TrimLeft(strings.TrimSpace(lt.CheckNo), "0"),
		Reference:     ReferenceForTrx(lt.TrxNo),
		Source:        models.SourceLMS,
		Notes:         strings.TrimSpace(lt.Memo),
	}, nil
}

// MapRefund converts an LMS refund row. The reversed payment is unknown in
// LMS data, so PaymentID stays nil.
func MapRefund(lt LegacyTrx) (models.Refund, error) {
	resNo := NormalizeReserveNumber(lt.ResNo)
	if resNo == "" {
		return models.Refund{}, &errs.ValidationError{
			Subject: "LMS transaction " + strings.TrimSpace(lt.TrxNo),
			Reason:  "missing ResNo",
		}
	}

	issuedOn, err := parseLegacyDate(lt.TrxDate)
	if err != nil {
		return models.Refund{}, &errs.ParseError{
			Parser: "lms", Field: "TrxDate", Value: lt.TrxDate, Err: err,
		}
	}
	amount, err := parseLegacyAmount(lt.Amount)
	if err != nil {
		return models.Refund{}, &errs.ParseError{
			Parser: "lms", Field: "Amount", Value: lt.Amount, Err: err,
		}
	}

	reason := strings.TrimSpace(lt.Memo)
	if reason == "" {
		reason = "migrated from LMS trx " + strings.TrimSpace(lt.TrxNo)
	}

	return models.Refund{
		ReserveNumber: resNo,
		Amount:        amount.Abs(),
		IssuedOn:      issuedOn,
		Method:        MapMethod(lt.PayMethod),
		Reason:        reason,
	}, nil
}
