// =============================================================================
// GSTR-2B to Tally Masters - XML Writer Module
// =============================================================================
//
// This module is responsible for generating the Tally "All Masters" import
// document from the derived ledger definitions. It handles the specific
// nesting structure required by Tally's XML import.
//
// XML STRUCTURE:
//   The generated XML follows this nesting pattern:
//
//   <ENVELOPE VERSION="1.0">
//     <HEADER>
//       <TALLYREQUEST>Import Data</TALLYREQUEST>
//     </HEADER>
//     <BODY>
//       <IMPORTDATA>
//         <REQUESTDESC>
//           <REPORTNAME>All Masters</REPORTNAME>
//           <STATICVARIABLES>
//             <SVCURRENTCOMPANY>My Company</SVCURRENTCOMPANY>
//           </STATICVARIABLES>
//         </REQUESTDESC>
//         <REQUESTDATA>
//           <TALLYMESSAGE xmlns:UDF="TallyUDF">     <!-- one per ledger -->
//             <LEDGER NAME="Input IGST 18%" ACTION="Create">
//               <NAME>Input IGST 18%</NAME>
//               <PARENT>Duties &amp; Taxes</PARENT>
//               <ISBILLWISEON>No</ISBILLWISEON>
//               <ISUPDATINGTARGETID>No</ISUPDATINGTARGETID>
//               <ASORIGINAL>Yes</ASORIGINAL>
//               <TAXTYPE>GST</TAXTYPE>               <!-- tax ledgers only -->
//               <GSTDUTYHEAD>Integrated Tax</GSTDUTYHEAD>
//             </LEDGER>
//           </TALLYMESSAGE>
//         </REQUESTDATA>
//       </IMPORTDATA>
//     </BODY>
//   </ENVELOPE>
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"unicode/utf8"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/ledger"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Company is the Tally company the masters are imported into.
	// Required.
	Company string

	// Indent is the string used for indentation.
	// Default: "    " (four spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options for a company.
func DefaultGenerateOptions(company string) GenerateOptions {
	return GenerateOptions{
		Company:               company,
		Indent:                "    ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates the masters import document with default options.
//
// PARAMETERS:
//   - defs: The ledger definitions in output order.
//   - company: The target Tally company.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error wrapping types.ErrRenderFailure if generation fails.
func Generate(defs []ledger.Definition, company string) ([]byte, error) {
	return GenerateWithOptions(defs, DefaultGenerateOptions(company))
}

// GenerateWithOptions creates the masters import document with custom options.
func GenerateWithOptions(defs []ledger.Definition, options GenerateOptions) ([]byte, error) {
	if options.Company == "" {
		return nil, fmt.Errorf("%w: company name is required", types.ErrRenderFailure)
	}
	if err := checkText("company name", options.Company); err != nil {
		return nil, err
	}
	for _, def := range defs {
		if err := checkText("ledger name", def.Name); err != nil {
			return nil, err
		}
	}

	var buffer bytes.Buffer

	// Write XML declaration if requested.
	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	// Build and write the document.
	doc := buildDocument(defs, options)
	writeElement(&buffer, doc, options.Indent, 0)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// buildDocument constructs the envelope around the ledger messages.
func buildDocument(defs []ledger.Definition, options GenerateOptions) XMLElement {
	requestData := XMLElement{XMLName: xml.Name{Local: "REQUESTDATA"}}
	for _, def := range defs {
		requestData.Children = append(requestData.Children, buildMessageElement(def))
	}

	return XMLElement{
		XMLName:    xml.Name{Local: "ENVELOPE"},
		Attributes: []xml.Attr{attr("VERSION", "1.0")},
		Children: []XMLElement{
			parent("HEADER",
				createSimpleElement("TALLYREQUEST", "Import Data"),
			),
			parent("BODY",
				parent("IMPORTDATA",
					parent("REQUESTDESC",
						createSimpleElement("REPORTNAME", "All Masters"),
						parent("STATICVARIABLES",
							createSimpleElement("SVCURRENTCOMPANY", options.Company),
						),
					),
					requestData,
				),
			),
		},
	}
}

// buildMessageElement constructs the TALLYMESSAGE for one ledger.
//
// STRUCTURE:
//   <TALLYMESSAGE xmlns:UDF="TallyUDF">
//     <LEDGER NAME="..." ACTION="Create">...</LEDGER>
//   </TALLYMESSAGE>
func buildMessageElement(def ledger.Definition) XMLElement {
	return XMLElement{
		XMLName:    xml.Name{Local: "TALLYMESSAGE"},
		Attributes: []xml.Attr{attr("xmlns:UDF", "TallyUDF")},
		Children:   []XMLElement{buildLedgerElement(def)},
	}
}

// buildLedgerElement constructs the LEDGER element. Only tax input ledgers
// carry the GST classification.
func buildLedgerElement(def ledger.Definition) XMLElement {
	element := XMLElement{
		XMLName:    xml.Name{Local: "LEDGER"},
		Attributes: []xml.Attr{attr("NAME", def.Name), attr("ACTION", "Create")},
		Children: []XMLElement{
			createSimpleElement("NAME", def.Name),
			createSimpleElement("PARENT", string(def.Parent)),
			createSimpleElement("ISBILLWISEON", yesNo(def.BillWise())),
			createSimpleElement("ISUPDATINGTARGETID", "No"),
			createSimpleElement("ASORIGINAL", "Yes"),
		},
	}

	switch def.Kind {
	case ledger.KindTaxInput:
		element.Children = append(element.Children,
			createSimpleElement("TAXTYPE", "GST"),
			createSimpleElement("GSTDUTYHEAD", string(def.TaxHead)),
		)
	case ledger.KindSeed, ledger.KindParty, ledger.KindPurchase:
		// No classification.
	}

	return element
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

func parent(name string, children ...XMLElement) XMLElement {
	return XMLElement{XMLName: xml.Name{Local: name}, Children: children}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	// Write indentation.
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	// Write opening tag.
	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	// Write attributes.
	for _, a := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", a.Name.Local, escapeXML(a.Value)))
	}

	// Check if element has children or value.
	if len(element.Children) == 0 && element.Value == "" {
		// Self-closing tag.
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	// Write value or children.
	if element.Value != "" {
		// Simple element with text value.
		buffer.WriteString(escapeXML(element.Value))
	} else {
		// Element with children.
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		// Write indentation for closing tag.
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	// Write closing tag.
	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// checkText rejects text that cannot appear in an XML 1.0 document.
func checkText(what, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s %q is not valid UTF-8", types.ErrRenderFailure, what, s)
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: %s %q contains character %U not allowed in XML", types.ErrRenderFailure, what, s, r)
		}
	}
	return nil
}

// isXMLChar reports whether r is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
