package einvoice

import "encoding/xml"

const (
	facturaNamespace = "https://cdn.comprobanteselectronicos.go.cr/xml-schemas/v4.3/facturaElectronica"
	mensajeNamespace = "https://cdn.comprobanteselectronicos.go.cr/xml-schemas/v4.3/mensajeReceptor"
)

// FacturaElectronica is the v4.3 electronic invoice document.
type FacturaElectronica struct {
	XMLName           xml.Name        `xml:"FacturaElectronica"`
	Xmlns             string          `xml:"xmlns,attr"`
	Clave             string          `xml:"Clave"`
	CodigoActividad   string          `xml:"CodigoActividad"`
	NumeroConsecutivo string          `xml:"NumeroConsecutivo"`
	FechaEmision      string          `xml:"FechaEmision"`
	Emisor            Parte           `xml:"Emisor"`
	Receptor          Parte           `xml:"Receptor"`
	CondicionVenta    string          `xml:"CondicionVenta"`
	PlazoCredito      int             `xml:"PlazoCredito"`
	MedioPago         string          `xml:"MedioPago"`
	DetalleServicio   DetalleServicio `xml:"DetalleServicio"`
	ResumenFactura    ResumenFactura  `xml:"ResumenFactura"`
}

// Parte is either the issuer or the receiver of a document.
type Parte struct {
	Nombre            string         `xml:"Nombre"`
	Identificacion    Identificacion `xml:"Identificacion"`
	NombreComercial   string         `xml:"NombreComercial,omitempty"`
	Ubicacion         Ubicacion      `xml:"Ubicacion"`
	Telefono          *Telefono      `xml:"Telefono,omitempty"`
	CorreoElectronico string         `xml:"CorreoElectronico,omitempty"`
}

type Identificacion struct {
	Tipo   string `xml:"Tipo"`
	Numero string `xml:"Numero"`
}

type Ubicacion struct {
	Provincia  string `xml:"Provincia"`
	Canton     string `xml:"Canton"`
	Distrito   string `xml:"Distrito"`
	Barrio     string `xml:"Barrio,omitempty"`
	OtrasSenas string `xml:"OtrasSenas,omitempty"`
}

type Telefono struct {
	CodigoPais  string `xml:"CodigoPais"`
	NumTelefono string `xml:"NumTelefono"`
}

type DetalleServicio struct {
	Lineas []LineaDetalle `xml:"LineaDetalle"`
}

type LineaDetalle struct {
	NumeroLinea    int        `xml:"NumeroLinea"`
	Codigo         *CodigoCom `xml:"Codigo,omitempty"`
	Cantidad       string     `xml:"Cantidad"`
	UnidadMedida   string     `xml:"UnidadMedida"`
	Detalle        string     `xml:"Detalle"`
	PrecioUnitario string     `xml:"PrecioUnitario"`
	MontoTotal     string     `xml:"MontoTotal"`
	SubTotal       string     `xml:"SubTotal"`
	Descuento       *Descuento `xml:"Descuento,omitempty"`
	Impuesto        *Impuesto  `xml:"Impuesto,omitempty"`
	MontoTotalLinea string     `xml:"MontoTotalLinea"`
}

type CodigoCom struct {
	Tipo   string `xml:"Tipo"`
	Codigo string `xml:"Codigo"`
}

type Descuento struct {
	MontoDescuento      string `xml:"MontoDescuento"`
	NaturalezaDescuento string `xml:"NaturalezaDescuento"`
}

type Impuesto struct {
	Codigo       string `xml:"Codigo"`
	CodigoTarifa string `xml:"CodigoTarifa"`
	Tarifa       string `xml:"Tarifa"`
	Monto        string `xml:"Monto"`
}

type ResumenFactura struct {
	CodigoTipoMoneda   CodigoTipoMoneda `xml:"CodigoTipoMoneda"`
	TotalServGravados  string           `xml:"TotalServGravados"`
	TotalServExentos   string           `xml:"TotalServExentos"`
	TotalGravado       string           `xml:"TotalGravado"`
	TotalExento        string           `xml:"TotalExento"`
	TotalVenta         string           `xml:"TotalVenta"`
	TotalDescuentos    string           `xml:"TotalDescuentos"`
	TotalVentaNeta     string           `xml:"TotalVentaNeta"`
	TotalImpuesto      string           `xml:"TotalImpuesto"`
	TotalComprobante   string           `xml:"TotalComprobante"`
}

type CodigoTipoMoneda struct {
	CodigoMoneda string `xml:"CodigoMoneda"`
	TipoCambio   string `xml:"TipoCambio"`
}

// MensajeReceptor is the v4.3 acceptance response document.
type MensajeReceptor struct {
	XMLName                   xml.Name `xml:"MensajeReceptor"`
	Xmlns                     string   `xml:"xmlns,attr"`
	Clave                     string   `xml:"Clave"`
	NumeroCedulaEmisor        string   `xml:"NumeroCedulaEmisor"`
	FechaEmisionDoc           string   `xml:"FechaEmisionDoc"`
	Mensaje                   string   `xml:"Mensaje"`
	DetalleMensaje            string   `xml:"DetalleMensaje"`
	MontoTotalImpuesto        string   `xml:"MontoTotalImpuesto"`
	TotalFactura              string   `xml:"TotalFactura"`
	NumeroCedulaReceptor      string   `xml:"NumeroCedulaReceptor"`
	NumeroConsecutivoReceptor string   `xml:"NumeroConsecutivoReceptor"`
}
