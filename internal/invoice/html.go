package invoice

import (
	"html/template"
	"io"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// FormatHTML is the format name of the HTML backend.
const FormatHTML = "html"

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money":   FormatMoney,
	"nonzero": func(amount string) bool { return providers.ParseDecimal(amount) != 0 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice {{.Order.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 40px; }
.header { display: flex; justify-content: space-between; }
.company img { max-height: 64px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th, td { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
td.num, th.num { text-align: right; }
.totals td { border: none; }
</style>
</head>
<body>
<div class="header">
  <div class="company">
    {{if .Company.LogoURL}}<img src="{{.Company.LogoURL}}" alt="{{.Company.Name}}">{{end}}
    <h2>{{.Company.Name}}</h2>
    {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
    {{if .Company.Email}}<p>{{.Company.Email}}</p>{{end}}
  </div>
  <div class="meta">
    <h1>Invoice</h1>
    <p>Order #{{.Order.Number}}</p>
    <p>Order date: {{.Order.DateCreated.Format "02 Jan 2006"}}</p>
    <p>Issued: {{.IssuedAt.Format "02 Jan 2006"}}</p>
    <p>Status: {{.Order.Status}}</p>
  </div>
</div>

<h3>Bill to</h3>
<p>
  {{.Order.Billing.FullName}}<br>
  {{with .Order.Billing.Company}}{{.}}<br>{{end}}
  {{.Order.Billing.Address1}}{{with .Order.Billing.Address2}}, {{.}}{{end}}<br>
  {{.Order.Billing.Postcode}} {{.Order.Billing.City}} {{.Order.Billing.State}} {{.Order.Billing.Country}}<br>
  {{with .Order.Billing.Email}}{{.}}<br>{{end}}
  {{with .Order.Billing.Phone}}{{.}}{{end}}
</p>

<table>
  <thead>
    <tr><th>Item</th><th>SKU</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
  </thead>
  <tbody>
  {{range .Order.LineItems}}
    <tr><td>{{.Name}}</td><td>{{.SKU}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .Price $.Company}}</td><td class="num">{{money .Total $.Company}}</td></tr>
  {{end}}
  </tbody>
</table>

<table class="totals">
  <tr><td class="num">Subtotal</td><td class="num">{{money .Order.Subtotal .Company}}</td></tr>
  {{if nonzero .Order.DiscountTotal}}<tr><td class="num">Discount</td><td class="num">-{{money .Order.DiscountTotal .Company}}</td></tr>{{end}}
  <tr><td class="num">Shipping</td><td class="num">{{money .Order.ShippingTotal .Company}}</td></tr>
  <tr><td class="num">Tax</td><td class="num">{{money .Order.TaxTotal .Company}}</td></tr>
  <tr><td class="num"><strong>Total</strong></td><td class="num"><strong>{{money .Order.Total .Company}}</strong></td></tr>
</table>

{{with .PaymentName}}<p>Payment method: {{.}}</p>{{end}}
{{with .Order.CustomerNote}}<p>Note: {{.}}</p>{{end}}
</body>
</html>
`))

// HTMLRenderer renders invoices as a standalone HTML page.
type HTMLRenderer struct{}

// NewHTMLRenderer creates the HTML backend.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

func (HTMLRenderer) Format() string { return FormatHTML }

func (HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

// Render writes doc as HTML.
func (HTMLRenderer) Render(w io.Writer, doc Document) error {
	return invoiceTemplate.Execute(w, doc)
}
