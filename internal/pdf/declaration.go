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

// declarationRow is one printed line of the BTW return form.
type declarationRow struct {
	box   string
	label string
	base  *decimal.Decimal
	vat   *decimal.Decimal
}

// RenderDeclaration produces the BTW-aangifte summary as a PDF document.
// Sparse boxes absent from the declaration are left off the form entirely.
func RenderDeclaration(declaration *model.VatDeclaration, company *model.Company) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "BTW-aangifte "+declaration.Period, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	companyName := ""
	companyBTW := ""
	if company != nil {
		companyName = company.Name
		companyBTW = company.BTW
	}
	m.AddRow(20,
		col.New(6).Add(
			text.New(companyName, props.Text{Style: fontstyle.Bold}),
			text.New("BTW-nummer: "+companyBTW, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Periode: "+declaration.StartDate.Format("02-01-2006")+" t/m "+declaration.EndDate.Format("02-01-2006"), props.Text{Align: align.Right}),
			text.New("Status: "+declaration.Status, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(2, "Rubriek", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(6, "Omschrijving", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Bedrag", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "BTW", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, row := range declarationRows(declaration) {
		m.AddRow(7,
			text.NewCol(2, row.box, props.Text{Size: 9}),
			text.NewCol(6, row.label, props.Text{Size: 9}),
			text.NewCol(2, formatAmount(row.base), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(row.vat), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Te betalen/terug te vragen (5d)", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, formatAmount(&declaration.Box5d), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if declaration.Notes != "" {
		m.AddRow(15,
			text.NewCol(12, "Toelichting: "+declaration.Notes, props.Text{Size: 8, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to render declaration pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func declarationRows(d *model.VatDeclaration) []declarationRow {
	optional := d.OptionalBoxes.Data()

	rows := []declarationRow{
		{"1a", "Leveringen/diensten belast met hoog tarief", &d.Box1aBase, &d.Box1aVAT},
		{"1b", "Leveringen/diensten belast met laag tarief", &d.Box1bBase, &d.Box1bVAT},
	}
	if entry, ok := optional["1c"]; ok {
		rows = append(rows, declarationRow{"1c", "Leveringen/diensten belast met overige tarieven", entry.Base, entry.VAT})
	}
	if entry, ok := optional["1d"]; ok {
		rows = append(rows, declarationRow{"1d", "Privegebruik", entry.Base, entry.VAT})
	}
	rows = append(rows,
		declarationRow{"1e", "Leveringen/diensten belast met 0% of niet bij u belast", &d.Box1eBase, nil},
		declarationRow{"2a", "Leveringen/diensten waarbij de heffing naar u is verlegd", &d.Box2aBase, &d.Box2aVAT},
		declarationRow{"3a", "Leveringen naar landen buiten de EU (uitvoer)", &d.Box3aBase, nil},
		declarationRow{"3b", "Leveringen naar of diensten in landen binnen de EU", &d.Box3bBase, nil},
	)
	if entry, ok := optional["3c"]; ok {
		rows = append(rows, declarationRow{"3c", "Installatie/afstandsverkopen binnen de EU", entry.Base, entry.VAT})
	}
	rows = append(rows,
		declarationRow{"4a", "Leveringen/diensten uit landen buiten de EU", &d.Box4aBase, &d.Box4aVAT},
		declarationRow{"4b", "Leveringen/diensten uit landen binnen de EU", &d.Box4bBase, &d.Box4bVAT},
	)
	if entry, ok := optional["4c"]; ok {
		rows = append(rows, declarationRow{"4c", "Overige buitenlandse verwervingen", entry.Base, entry.VAT})
	}
	rows = append(rows,
		declarationRow{"5a", "Verschuldigde omzetbelasting", nil, &d.Box5a},
		declarationRow{"5b", "Voorbelasting", nil, &d.Box5b},
	)
	return rows
}

func formatAmount(v *decimal.Decimal) string {
	if v == nil {
		return ""
	}
	return "€ " + v.StringFixed(2)
}
