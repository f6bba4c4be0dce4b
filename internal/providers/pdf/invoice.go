package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type InvoiceData struct {
	CompanyName    string
	CompanyLegalID string
	CompanyAddress string
	CompanyPhone   string
	CompanyEmail   string

	InvoiceNumber string
	IssueDate     string
	Status        string
	PaymentMethod string
	SaleCondition string
	Observations  string
	Cancelled     bool
	CancelReason  string

	CustomerName    string
	CustomerID      string
	CustomerAddress string
	CustomerEmail   string

	Items []InvoiceItem

	Subtotal      string
	TotalDiscount string
	TotalTax      string
	Total         string
}

type InvoiceItem struct {
	Description string
	Qty         string
	UnitPrice   string
	Discount    string
	Tax         string
	Amount      string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, invoice InvoiceData) (io.Reader, error) {
	_ = ctx

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, invoice.CompanyName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(14, col.New(12).Add(
		text.New("Cédula jurídica: "+invoice.CompanyLegalID, props.Text{Size: 9}),
		text.New(invoice.CompanyAddress, props.Text{Size: 9, Top: 4}),
		text.New(invoice.CompanyEmail+"  "+invoice.CompanyPhone, props.Text{Size: 9, Top: 8}),
	))

	title := "Factura " + invoice.InvoiceNumber
	if invoice.Cancelled {
		title += "  (ANULADA)"
	}
	m.AddRow(10,
		text.NewCol(12, title, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Fecha de emisión: "+invoice.IssueDate, props.Text{Size: 9}),
			text.New("Condición de venta: "+invoice.SaleCondition, props.Text{Size: 9, Top: 4}),
			text.New("Medio de pago: "+invoice.PaymentMethod, props.Text{Size: 9, Top: 8}),
		),
		col.New(6).Add(
			text.New("Cliente: "+invoice.CustomerName, props.Text{Size: 9}),
			text.New("Identificación: "+invoice.CustomerID, props.Text{Size: 9, Top: 4}),
			text.New(invoice.CustomerAddress, props.Text{Size: 9, Top: 8}),
		),
	)

	if invoice.Cancelled && invoice.CancelReason != "" {
		m.AddRow(10,
			text.NewCol(12, "Motivo de anulación: "+invoice.CancelReason, props.Text{
				Size:  9,
				Style: fontstyle.Bold,
			}),
		)
	}

	// Table Header
	m.AddRow(10,
		text.NewCol(4, "Descripción", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Cant.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Precio", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Desc.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range invoice.Items {
		m.AddRow(12,
			text.NewCol(4, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Qty, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Discount, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, invoice.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Descuento", props.Text{Size: 9}),
		text.NewCol(2, invoice.TotalDiscount, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "IVA", props.Text{Size: 9}),
		text.NewCol(2, invoice.TotalTax, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, invoice.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	if invoice.Observations != "" {
		m.AddRow(15,
			text.NewCol(12, "Observaciones: "+invoice.Observations, props.Text{Size: 8, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
