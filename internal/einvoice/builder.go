package einvoice

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"time"

	customerdomain "github.com/facturacr/facturacr/internal/customer/domain"
	invoicedomain "github.com/facturacr/facturacr/internal/invoice/domain"
	"go.uber.org/zap"
)

// Issuer carries the company profile fields the documents need.
type Issuer struct {
	Name         string
	LegalID      string
	ActivityCode string
	Province     string
	Canton       string
	District     string
	Neighborhood string
	Address      string
	Phone        string
	Email        string
}

// costaRica is the fixed UTC-6 offset the documents are stamped in.
var costaRica = time.FixedZone("America/Costa_Rica", -6*60*60)

type Builder struct {
	log *zap.Logger
}

func NewBuilder(log *zap.Logger) *Builder {
	return &Builder{log: log.Named("einvoice.builder")}
}

// BuildFactura renders the FacturaElectronica document for an issued invoice.
func (b *Builder) BuildFactura(issuer Issuer, customer customerdomain.Customer, invoice invoicedomain.Invoice) ([]byte, string, error) {
	issueDate := invoiceIssueDate(invoice)

	clave, err := BuildClave(issuer.LegalID, issueDate, claveConsecutive(invoice), securityCodeFor(invoice))
	if err != nil {
		return nil, "", err
	}

	doc := FacturaElectronica{
		Xmlns:             facturaNamespace,
		Clave:             clave,
		CodigoActividad:   issuer.ActivityCode,
		NumeroConsecutivo: invoice.InvoiceNumber,
		FechaEmision:      issueDate.In(costaRica).Format("2006-01-02T15:04:05-07:00"),
		Emisor: Parte{
			Nombre: issuer.Name,
			Identificacion: Identificacion{
				Tipo:   string(customerdomain.IdentificationJuridica),
				Numero: issuer.LegalID,
			},
			NombreComercial: issuer.Name,
			Ubicacion: Ubicacion{
				Provincia:  issuer.Province,
				Canton:     issuer.Canton,
				Distrito:   issuer.District,
				Barrio:     issuer.Neighborhood,
				OtrasSenas: issuer.Address,
			},
			Telefono:          phone(issuer.Phone),
			CorreoElectronico: issuer.Email,
		},
		Receptor: Parte{
			Nombre: customer.Name,
			Identificacion: Identificacion{
				Tipo:   string(customer.IdentificationType),
				Numero: customer.IdentificationNumber,
			},
			NombreComercial: customer.Name,
			Ubicacion: Ubicacion{
				Provincia:  defaultCode(customer.Province),
				Canton:     defaultCode(customer.Canton),
				Distrito:   defaultCode(customer.District),
				OtrasSenas: customer.AddressDetail,
			},
			Telefono:          phone(customer.Phone),
			CorreoElectronico: customer.Email,
		},
		CondicionVenta: saleConditionCode(invoice.SaleCondition),
		PlazoCredito:   invoice.CreditDays,
		MedioPago:      paymentMethodCode(invoice.PaymentMethod),
		ResumenFactura: ResumenFactura{
			CodigoTipoMoneda: CodigoTipoMoneda{
				CodigoMoneda: "CRC",
				TipoCambio:   "1.00000",
			},
			TotalServGravados: invoice.Subtotal.StringFixed(2),
			TotalServExentos:  "0.00",
			TotalGravado:      invoice.Subtotal.StringFixed(2),
			TotalExento:       "0.00",
			TotalVenta:        invoice.Subtotal.StringFixed(2),
			TotalDescuentos:   invoice.TotalDiscount.StringFixed(2),
			TotalVentaNeta:    invoice.Subtotal.Sub(invoice.TotalDiscount).StringFixed(2),
			TotalImpuesto:     invoice.TotalTax.StringFixed(2),
			TotalComprobante:  invoice.Total.StringFixed(2),
		},
	}

	for i, line := range invoice.Lines {
		detalle := LineaDetalle{
			NumeroLinea:     i + 1,
			Cantidad:        line.Quantity.StringFixed(3),
			UnidadMedida:    "Unid",
			Detalle:         line.Description,
			PrecioUnitario:  line.UnitPrice.StringFixed(5),
			MontoTotal:      line.Subtotal.StringFixed(2),
			SubTotal:        line.Subtotal.StringFixed(2),
			MontoTotalLinea: line.Total.StringFixed(2),
		}
		if line.CatalogItemID != nil {
			detalle.Codigo = &CodigoCom{Tipo: "01", Codigo: line.CatalogItemID.String()}
		}
		if line.Discount.IsPositive() {
			detalle.Descuento = &Descuento{
				MontoDescuento:      line.Discount.StringFixed(2),
				NaturalezaDescuento: "Descuento por cantidad",
			}
		}
		if line.TaxRate.IsPositive() {
			detalle.Impuesto = &Impuesto{
				Codigo:       "01",
				CodigoTarifa: "08",
				Tarifa:       line.TaxRate.StringFixed(2),
				Monto:        line.TaxAmount.StringFixed(2),
			}
		}
		doc.DetalleServicio.Lineas = append(doc.DetalleServicio.Lineas, detalle)
	}

	out, err := marshalDocument(doc)
	if err != nil {
		return nil, "", err
	}
	return out, clave, nil
}

// BuildMensajeReceptor renders the acceptance response for an invoice.
func (b *Builder) BuildMensajeReceptor(issuer Issuer, customer customerdomain.Customer, invoice invoicedomain.Invoice) ([]byte, error) {
	issueDate := invoiceIssueDate(invoice)

	clave, err := BuildClave(issuer.LegalID, issueDate, claveConsecutive(invoice), securityCodeFor(invoice))
	if err != nil {
		return nil, err
	}

	doc := MensajeReceptor{
		Xmlns:                     mensajeNamespace,
		Clave:                     clave,
		NumeroCedulaEmisor:        issuer.LegalID,
		FechaEmisionDoc:           issueDate.In(costaRica).Format("2006-01-02T15:04:05-07:00"),
		Mensaje:                   "Aceptado",
		DetalleMensaje:            "Factura aceptada correctamente",
		MontoTotalImpuesto:        invoice.TotalTax.StringFixed(2),
		TotalFactura:              invoice.Total.StringFixed(2),
		NumeroCedulaReceptor:      customer.IdentificationNumber,
		NumeroConsecutivoReceptor: invoice.InvoiceNumber,
	}

	return marshalDocument(doc)
}

func marshalDocument(doc any) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func invoiceIssueDate(invoice invoicedomain.Invoice) time.Time {
	if invoice.IssueDate != nil {
		return *invoice.IssueDate
	}
	return invoice.CreatedAt
}

// claveConsecutive folds the snowflake id into the 10-digit consecutive slot.
func claveConsecutive(invoice invoicedomain.Invoice) int64 {
	if n, err := invoicedomain.ParseInvoiceNumber(invoice.InvoiceNumber); err == nil {
		return n
	}
	return int64(invoice.ID) % 10000000000
}

// securityCodeFor derives a stable 8-digit code per invoice so the factura
// and its acceptance response carry the same clave.
func securityCodeFor(invoice invoicedomain.Invoice) string {
	sum := sha256.Sum256([]byte(invoice.ID.String()))
	n := binary.BigEndian.Uint64(sum[:8]) % 100000000
	return fmt.Sprintf("%08d", n)
}

func saleConditionCode(condition invoicedomain.SaleCondition) string {
	if condition == invoicedomain.SaleConditionCredit {
		return "02"
	}
	return "01"
}

func paymentMethodCode(method invoicedomain.PaymentMethod) string {
	switch method {
	case invoicedomain.PaymentMethodTransfer:
		return "02"
	case invoicedomain.PaymentMethodCheck:
		return "03"
	default:
		return "01"
	}
}

func phone(number string) *Telefono {
	if number == "" {
		return nil
	}
	return &Telefono{CodigoPais: "506", NumTelefono: number}
}

func defaultCode(value string) string {
	if value == "" {
		return "01"
	}
	return value
}
