package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
)

// WriteText renders the dashboard view as a plain-text table.
func WriteText(w io.Writer, view Dashboard) error {
	if view.Loading {
		_, err := fmt.Fprintln(w, view.Message)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tSTOCK\tAI VELOCITY\tTIME TO ZERO\t")
	for _, c := range view.Cards {
		marker := ""
		switch {
		case c.Critical:
			marker = " !!"
		case c.Low:
			marker = " !"
		}
		ttz := c.TimeToZero
		if ttz == "" {
			ttz = "-"
		}
		fmt.Fprintf(tw, "%s\t%d%s\t%s\t%s\t\n", c.SKU, c.Stock, marker, c.Velocity, ttz)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(view.Activity) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nRecent activity"); err != nil {
		return err
	}
	for _, sale := range view.Activity {
		if _, err := fmt.Fprintf(w, "  %s  %s x%d\n", formatSaleTime(sale), sale.SKU, sale.QuantitySold); err != nil {
			return err
		}
	}
	return nil
}

func formatSaleTime(s models.SaleRecord) string {
	if s.Timestamp.IsZero() {
		return "--:--:--"
	}
	return s.Timestamp.Local().Format(models.ChartTimeLayout)
}
