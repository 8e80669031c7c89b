package reports

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSV rendering for the back-office export buttons. Layout mirrors the
// on-screen tables; amounts are written with two decimals.

func WriteOverdueCSV(w io.Writer, rows []OverdueRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cliente", "dni", "venta", "cuota", "vencimiento", "saldo", "dias_mora"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ClientName,
			r.ClientDNI,
			r.SaleID,
			strconv.Itoa(r.Nro),
			r.DueDate.String(),
			r.Balance.String(),
			strconv.Itoa(r.DaysOverdue),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteBlockedCSV(w io.Writer, rows []BlockedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cliente", "dni", "telefono", "deuda_pendiente", "cuotas_pendientes", "max_dias_mora"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ClientName,
			r.ClientDNI,
			r.Phone,
			r.TotalPending.String(),
			strconv.Itoa(r.PendingCount),
			strconv.Itoa(r.MaxDaysOverdue),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteMerchantDebtCSV(w io.Writer, rows []MerchantDebtRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"comercio", "deuda_abierta", "ventas_abiertas", "ventas_totales"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.MerchantID,
			r.OpenBalance.String(),
			strconv.Itoa(r.OpenSales),
			strconv.Itoa(r.TotalSales),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
