/*
Package reports builds the operational reports of the collection
back-office: overdue installments, clients blocked by delinquency, and
open debt grouped by merchant.

Every report is a pure projection over a snapshot supplied by the caller
(clients, sales, installments). Nothing here reads storage or the clock;
"today" is always an argument so reports are reproducible.
*/
package reports

import (
	"sort"

	"github.com/vicred/credit-engine/ledger"
)

// =============================================================================
// OVERDUE INSTALLMENTS
// =============================================================================

// OverdueRow is one overdue installment with its client context.
type OverdueRow struct {
	ClientID    string
	ClientName  string
	ClientDNI   string
	SaleID      string
	Nro         int
	DueDate     ledger.Date
	Balance     ledger.Money
	DaysOverdue int
}

// Overdue lists every unsettled installment past due, most delinquent
// first. Ties fall back to client name then installment nro so the
// listing is stable across runs.
func Overdue(clients []ledger.Client, installments []ledger.Installment, today ledger.Date) []OverdueRow {
	byID := clientIndex(clients)

	var rows []OverdueRow
	for _, inst := range installments {
		if !inst.IsOverdue(today) {
			continue
		}
		c := byID[inst.ClientID]
		rows = append(rows, OverdueRow{
			ClientID:    inst.ClientID,
			ClientName:  c.Name,
			ClientDNI:   c.DNI,
			SaleID:      inst.SaleID,
			Nro:         inst.Nro,
			DueDate:     inst.DueDate,
			Balance:     inst.Balance(),
			DaysOverdue: inst.DaysOverdue(today),
		})
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].DaysOverdue != rows[b].DaysOverdue {
			return rows[a].DaysOverdue > rows[b].DaysOverdue
		}
		if rows[a].ClientName != rows[b].ClientName {
			return rows[a].ClientName < rows[b].ClientName
		}
		return rows[a].Nro < rows[b].Nro
	})
	return rows
}

// =============================================================================
// BLOCKED CLIENTS
// =============================================================================

// BlockedRow summarizes one client blocked by delinquency.
type BlockedRow struct {
	ClientID       string
	ClientName     string
	ClientDNI      string
	Phone          string
	TotalPending   ledger.Money
	MaxDaysOverdue int
	PendingCount   int
}

// Blocked lists the clients whose derived credit state is blocked
// (an unsettled installment 30+ days overdue) or whose stored status
// already says BLOQUEADO. The stored flag wins on conflict, so a client
// flagged by the back office appears even with a clean installment set.
func Blocked(clients []ledger.Client, installments []ledger.Installment, today ledger.Date) ([]BlockedRow, error) {
	byClient := make(map[string][]ledger.Installment)
	for _, inst := range installments {
		byClient[inst.ClientID] = append(byClient[inst.ClientID], inst)
	}

	var rows []BlockedRow
	for _, c := range clients {
		set := byClient[c.ID]
		state, err := ledger.ComputeCreditState(c.ID, ledger.Zero(), set, today)
		if err != nil {
			return nil, err
		}
		if !state.Blocked && c.Status != ledger.CreditBloqueado {
			continue
		}

		maxDays := 0
		for _, inst := range set {
			if inst.IsOverdue(today) && inst.DaysOverdue(today) > maxDays {
				maxDays = inst.DaysOverdue(today)
			}
		}

		rows = append(rows, BlockedRow{
			ClientID:       c.ID,
			ClientName:     c.Name,
			ClientDNI:      c.DNI,
			Phone:          c.Phone,
			TotalPending:   state.TotalPending,
			MaxDaysOverdue: maxDays,
			PendingCount:   state.PendingCount,
		})
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].MaxDaysOverdue != rows[b].MaxDaysOverdue {
			return rows[a].MaxDaysOverdue > rows[b].MaxDaysOverdue
		}
		return rows[a].ClientName < rows[b].ClientName
	})
	return rows, nil
}

// =============================================================================
// DEBT BY MERCHANT
// =============================================================================

// MerchantDebtRow aggregates the open debt originated by one merchant.
type MerchantDebtRow struct {
	MerchantID  string
	OpenBalance ledger.Money
	OpenSales   int
	TotalSales  int
}

// DebtByMerchant groups open balances by the merchant that originated the
// sale, largest debt first.
func DebtByMerchant(sales []ledger.Sale, installments []ledger.Installment) []MerchantDebtRow {
	agg := make(map[string]*MerchantDebtRow)
	order := make([]string, 0)

	for _, s := range sales {
		row, ok := agg[s.MerchantID]
		if !ok {
			row = &MerchantDebtRow{MerchantID: s.MerchantID, OpenBalance: ledger.Zero()}
			agg[s.MerchantID] = row
			order = append(order, s.MerchantID)
		}
		row.TotalSales++

		open := ledger.OpenBalance(s.ID, installments)
		if open.IsPositive() {
			row.OpenSales++
			row.OpenBalance = row.OpenBalance.Add(open)
		}
	}

	rows := make([]MerchantDebtRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, *agg[id])
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if !rows[a].OpenBalance.Equal(rows[b].OpenBalance) {
			return rows[a].OpenBalance.GreaterThan(rows[b].OpenBalance)
		}
		return rows[a].MerchantID < rows[b].MerchantID
	})
	return rows
}

func clientIndex(clients []ledger.Client) map[string]ledger.Client {
	byID := make(map[string]ledger.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	return byID
}
