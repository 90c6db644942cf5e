package pdf

import (
	"fmt"

	"github.com/tjappo/simple-books/internal/model"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

// RenderInvoice produces a printable invoice PDF. Reverse-charge lines show
// the VAT shifted notice instead of a VAT amount in the totals.
func RenderInvoice(invoice *model.Invoice, company *model.Company) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := "Factuur"
	if invoice.Type == model.InvoiceTypePurchase {
		title = "Inkoopfactuur"
	}
	m.AddRow(12,
		text.NewCol(12, title+" "+invoice.InvoiceNumber, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	companyBlock := col.New(6)
	if company != nil {
		companyBlock = col.New(6).Add(
			text.New(company.Name, props.Text{Style: fontstyle.Bold}),
			text.New(company.Address, props.Text{Top: 5}),
			text.New("KVK: "+company.KVK, props.Text{Top: 13}),
			text.New("BTW: "+company.BTW, props.Text{Top: 17}),
			text.New("IBAN: "+company.IBAN, props.Text{Top: 21}),
		)
	}
	m.AddRow(30,
		companyBlock,
		col.New(6).Add(
			text.New(invoice.Counterparty, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New("Factuurdatum: "+invoice.IssueDate.Format("02-01-2006"), props.Text{Top: 8, Align: align.Right}),
			text.New("Vervaldatum: "+invoice.DueDate.Format("02-01-2006"), props.Text{Top: 12, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(5, "Omschrijving", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Aantal", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Prijs", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "BTW %", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Bedrag", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	subtotal := decimal.Zero
	vatTotal := decimal.Zero
	total := decimal.Zero
	hasReverseCharge := false
	for _, line := range invoice.LineItems {
		subtotal = subtotal.Add(line.Subtotal)
		total = total.Add(line.Total)
		if line.ReverseCharge {
			hasReverseCharge = true
		} else {
			vatTotal = vatTotal.Add(line.VATAmount)
		}

		ratePct := line.VATRate.Mul(decimal.NewFromInt(100))
		m.AddRow(7,
			text.NewCol(5, line.Description, props.Text{Size: 9}),
			text.NewCol(1, line.Quantity.String(), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, "€ "+line.UnitPrice.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, ratePct.StringFixed(0)+"%", props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, "€ "+line.Subtotal.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotaal", props.Text{Size: 9}),
		text.NewCol(2, "€ "+subtotal.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "BTW", props.Text{Size: 9}),
		text.NewCol(2, "€ "+vatTotal.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Totaal", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "€ "+total.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if hasReverseCharge {
		m.AddRow(10,
			text.NewCol(12, "BTW verlegd / VAT reverse charged", props.Text{Size: 8, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
