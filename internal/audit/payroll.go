package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coastline-livery/charterbooks/internal/models"
)

// defaultRemittanceAccount is the ledger account remittance payments post to.
const defaultRemittanceAccount = "payroll remittances payable"

// PayPeriodStore lists payroll rows ending inside a range.
type PayPeriodStore interface {
	ListPayPeriods(ctx context.Context, from, to time.Time) ([]models.PayPeriod, error)
}

// LedgerStore reads one ledger account's entries inside a range.
type LedgerStore interface {
	ListByAccount(ctx context.Context, account string, from, to time.Time) ([]models.GLEntry, error)
}

// PayrollConfig parameterizes the remittance verification. The employer
// factors express the employer-side contribution as a multiple of the
// employee deduction.
type PayrollConfig struct {
	RemittanceAccount string
	EmployerCPPFactor decimal.Decimal
	EmployerEIFactor  decimal.Decimal
	Tolerance         decimal.Decimal
	From              time.Time
	To                time.Time
}

// PayrollCheck verifies two things: each pay period's net pay agrees with
// gross minus deductions, and each month's total withholdings (employee and
// employer side) were remitted through the ledger.
type PayrollCheck struct {
	periods PayPeriodStore
	ledger  LedgerStore
	cfg     PayrollConfig
}

// NewPayrollCheck creates the check, filling zero config values with the
// usual rates: employer matches CPP at 1.0x and EI at 1.4x, and a nickel of
// rounding tolerance per month.
func NewPayrollCheck(periods PayPeriodStore, ledger LedgerStore, cfg PayrollConfig) *PayrollCheck {
	if cfg.RemittanceAccount == "" {
		cfg.RemittanceAccount = defaultRemittanceAccount
	}
	if cfg.EmployerCPPFactor.IsZero() {
		cfg.EmployerCPPFactor = decimal.NewFromInt(1)
	}
	if cfg.EmployerEIFactor.IsZero() {
		cfg.EmployerEIFactor = decimal.NewFromFloat(1.4)
	}
	if cfg.Tolerance.IsZero() {
		cfg.Tolerance = decimal.NewFromFloat(0.05)
	}
	return &PayrollCheck{periods: periods, ledger: ledger, cfg: cfg}
}

func (c *PayrollCheck) Name() string { return "payroll-remittances" }

func (c *PayrollCheck) Run(ctx context.Context) ([]Finding, error) {
	periods, err := c.periods.ListPayPeriods(ctx, c.cfg.From, c.cfg.To)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	one := decimal.NewFromInt(1)
	due := make(map[string]decimal.Decimal)

	for _, p := range periods {
		if !p.NetPay.Equal(p.ExpectedNet()) {
			findings = append(findings, Finding{
				Check:    c.Name(),
				Severity: SeverityError,
				Message: fmt.Sprintf("employee %d period ending %s: net pay %s disagrees with gross minus deductions %s",
					p.EmployeeID, p.PeriodEnd.Format("2006-01-02"),
					p.NetPay.StringFixed(2), p.ExpectedNet().StringFixed(2)),
				Details: map[string]interface{}{
					"employee_id": p.EmployeeID,
					"period_end":  p.PeriodEnd.Format("2006-01-02"),
					"net_pay":     p.NetPay.StringFixed(2),
					"expected":    p.ExpectedNet().StringFixed(2),
				},
			})
		}

		month := p.PeriodEnd.Format("2006-01")
		withheld := p.IncomeTax.
			Add(p.CPP.Mul(one.Add(c.cfg.EmployerCPPFactor))).
			Add(p.EI.Mul(one.Add(c.cfg.EmployerEIFactor)))
		due[month] = due[month].Add(withheld)
	}

	entries, err := c.ledger.ListByAccount(ctx, c.cfg.RemittanceAccount, c.cfg.From, c.cfg.To)
	if err != nil {
		return nil, err
	}

	// Remittance payments debit the liability account; the payroll run's
	// accrual credits are not payments.
	remitted := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.Debit.IsPositive() {
			month := e.PostedOn.Format("2006-01")
			remitted[month] = remitted[month].Add(e.Debit)
		}
	}

	months := make(map[string]struct{}, len(due)+len(remitted))
	for m := range due {
		months[m] = struct{}{}
	}
	for m := range remitted {
		months[m] = struct{}{}
	}
	ordered := make([]string, 0, len(months))
	for m := range months {
		ordered = append(ordered, m)
	}
	sort.Strings(ordered)

	for _, month := range ordered {
		diff := due[month].Sub(remitted[month])
		if diff.Abs().LessThanOrEqual(c.cfg.Tolerance) {
			continue
		}

		var message string
		switch {
		case remitted[month].IsZero():
			message = fmt.Sprintf("no remittance recorded for %s: %s withheld",
				month, due[month].StringFixed(2))
		case due[month].IsZero():
			message = fmt.Sprintf("remittance of %s recorded for %s with no payroll",
				remitted[month].StringFixed(2), month)
		default:
			message = fmt.Sprintf("remittance for %s off by %s: withheld %s, remitted %s",
				month, diff.StringFixed(2), due[month].StringFixed(2), remitted[month].StringFixed(2))
		}

		findings = append(findings, Finding{
			Check:    c.Name(),
			Severity: SeverityWarning,
			Message:  message,
			Details: map[string]interface{}{
				"month":    month,
				"withheld": due[month].StringFixed(2),
				"remitted": remitted[month].StringFixed(2),
				"account":  c.cfg.RemittanceAccount,
			},
		})
	}
	return findings, nil
}
