package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/example/storefront/internal/events"
)

// BuildOrderConfirmationBody renders the order confirmation email as HTML.
// Amounts are in minor currency units.
func BuildOrderConfirmationBody(placed events.OrderPlaced) string {
	var b strings.Builder

	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(placed.CustomerName))
	fmt.Fprintf(&b, "<p>Thanks for your order. Your order number is <strong>%s</strong> — keep it to track your order.</p>",
		html.EscapeString(placed.OrderNumber))

	b.WriteString("<table border=\"0\" cellpadding=\"4\">")
	b.WriteString("<tr><th align=\"left\">Item</th><th align=\"right\">Qty</th><th align=\"right\">Price</th></tr>")
	for _, item := range placed.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td align=\"right\">%d</td><td align=\"right\">%s</td></tr>",
			html.EscapeString(item.ProductName), item.Quantity, formatAmount(item.UnitPrice*int64(item.Quantity)))
	}
	fmt.Fprintf(&b, "<tr><td><strong>Total</strong></td><td></td><td align=\"right\"><strong>%s</strong></td></tr>",
		formatAmount(placed.TotalAmount))
	b.WriteString("</table>")

	b.WriteString("<p>Shipping is free. Payment is collected on delivery.</p>")
	b.WriteString("</body></html>")
	return b.String()
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
