package email

import (
	"strings"
	"text/template"
)

// formatNumber renders an amount in minor units with thousand separators,
// e.g. 1250000 -> "1,250,000".
func formatNumber(n int64) string {
	digits := []byte{}
	negative := n < 0
	if negative {
		n = -n
	}
	if n == 0 {
		return "0"
	}
	for n > 0 {
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteByte(digits[i])
		if i > 0 && i%3 == 0 {
			b.WriteByte(',')
		}
	}
	return b.String()
}

var templateFuncs = template.FuncMap{
	"formatNumber": formatNumber,
}

var orderConfirmationTemplate = template.Must(template.New("order_confirmation").Funcs(templateFuncs).Parse(`Hello {{.Buyer.Name}},

Thank you for your order. Here is your order summary.

Order reference: {{.Reference}}
{{range .Items}}
  {{.Title}}  x{{.Quantity}}  {{formatNumber .Amount}}
{{- end}}

Total: {{formatNumber .Total}}
{{if .Pending}}
Your order is awaiting payment. Once your payment is confirmed we will
send you a receipt.
{{else}}
Your order is confirmed and will be available right away.
{{end}}
Thanks for shopping with us.
`))

var paymentReceivedTemplate = template.Must(template.New("payment_received").Funcs(templateFuncs).Parse(`Hello {{.Buyer.Name}},

We have received your payment for order {{.Reference}}.

Amount paid: {{formatNumber .Total}}

Your purchase is now available. Thanks for shopping with us.
`))
