package bill

import (
	"math"

	"github.com/billscan/billscan/internal/scanning"
)

// reconcileRows normalizes one page of raw extracted rows into finalized
// line items. Quantity, rate, and amount are parsed independently; a missing
// amount is filled from quantity×rate when both are present, otherwise
// fields stay nil.
func reconcileRows(rows []scanning.RawLineItem) []LineItem {
	items := make([]LineItem, 0, len(rows))
	for _, r := range rows {
		qty := ParseNumber(r.ItemQuantity)
		rate := ParseNumber(r.ItemRate)
		amount := ParseNumber(r.ItemAmount)

		if amount == nil && qty != nil && rate != nil {
			v := *qty * *rate
			amount = &v
		}

		items = append(items, LineItem{
			ItemName:     r.ItemName,
			ItemQuantity: qty,
			ItemRate:     rate,
			ItemAmount:   amount,
		})
	}
	return items
}

// reconciledTotal sums the effective amount of every item across all pages,
// rounded to 2 decimal places. Missing quantity defaults to 1 and missing
// rate to 0 so a numeric total is always producible from partial rows.
// A present amount always wins, even when it disagrees with quantity×rate.
func reconciledTotal(pages []PageResult) float64 {
	var total float64
	for _, page := range pages {
		for _, item := range page.BillItems {
			qty, rate := 1.0, 0.0
			if item.ItemQuantity != nil {
				qty = *item.ItemQuantity
			}
			if item.ItemRate != nil {
				rate = *item.ItemRate
			}

			amount := qty * rate
			if item.ItemAmount != nil {
				amount = *item.ItemAmount
			}
			total += amount
		}
	}
	return math.Round(total*100) / 100
}
