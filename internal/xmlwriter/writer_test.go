package xmlwriter

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/ledger"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
)

type envelope struct {
	XMLName  xml.Name `xml:"ENVELOPE"`
	Version  string   `xml:"VERSION,attr"`
	Request  string   `xml:"HEADER>TALLYREQUEST"`
	Report   string   `xml:"BODY>IMPORTDATA>REQUESTDESC>REPORTNAME"`
	Company  string   `xml:"BODY>IMPORTDATA>REQUESTDESC>STATICVARIABLES>SVCURRENTCOMPANY"`
	Messages []struct {
		Ledger struct {
			NameAttr    string  `xml:"NAME,attr"`
			Action      string  `xml:"ACTION,attr"`
			Name        string  `xml:"NAME"`
			Parent      string  `xml:"PARENT"`
			BillWise    string  `xml:"ISBILLWISEON"`
			Updating    string  `xml:"ISUPDATINGTARGETID"`
			AsOriginal  string  `xml:"ASORIGINAL"`
			TaxType     *string `xml:"TAXTYPE"`
			GSTDutyHead *string `xml:"GSTDUTYHEAD"`
		} `xml:"LEDGER"`
	} `xml:"BODY>IMPORTDATA>REQUESTDATA>TALLYMESSAGE"`
}

func sampleDefs() []ledger.Definition {
	return []ledger.Definition{
		ledger.Seed(),
		ledger.Party("Acme & Sons <Delhi>"),
		ledger.InterstatePurchase(18),
		ledger.InputIGST(18),
		ledger.LocalPurchase(12),
		ledger.InputCGST(6),
		ledger.InputSGST(6),
	}
}

func TestGenerate_Structure(t *testing.T) {
	out, err := Generate(sampleDefs(), "Test Company")
	require.NoError(t, err)

	var env envelope
	require.NoError(t, xml.Unmarshal(out, &env))

	assert.Equal(t, "1.0", env.Version)
	assert.Equal(t, "Import Data", env.Request)
	assert.Equal(t, "All Masters", env.Report)
	assert.Equal(t, "Test Company", env.Company)
	require.Len(t, env.Messages, 7)

	seed := env.Messages[0].Ledger
	assert.Equal(t, "Round Off", seed.NameAttr)
	assert.Equal(t, "Round Off", seed.Name)
	assert.Equal(t, "Create", seed.Action)
	assert.Equal(t, "Indirect Expenses", seed.Parent)
	assert.Equal(t, "No", seed.BillWise)
	assert.Equal(t, "No", seed.Updating)
	assert.Equal(t, "Yes", seed.AsOriginal)
	assert.Nil(t, seed.TaxType)

	party := env.Messages[1].Ledger
	assert.Equal(t, "Acme & Sons <Delhi>", party.Name)
	assert.Equal(t, "Acme & Sons <Delhi>", party.NameAttr)
	assert.Equal(t, "Sundry Creditors", party.Parent)
	assert.Equal(t, "Yes", party.BillWise)
	assert.Nil(t, party.GSTDutyHead)

	purchase := env.Messages[2].Ledger
	assert.Equal(t, "Purchase Accounts", purchase.Parent)
	assert.Nil(t, purchase.TaxType)

	igst := env.Messages[3].Ledger
	assert.Equal(t, "Duties & Taxes", igst.Parent)
	require.NotNil(t, igst.TaxType)
	assert.Equal(t, "GST", *igst.TaxType)
	assert.Equal(t, "Integrated Tax", *igst.GSTDutyHead)

	assert.Equal(t, "Central Tax", *env.Messages[5].Ledger.GSTDutyHead)
	assert.Equal(t, "State Tax", *env.Messages[6].Ledger.GSTDutyHead)
}

func TestGenerate_Layout(t *testing.T) {
	out, err := Generate([]ledger.Definition{ledger.InputIGST(5)}, "Co")
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<ENVELOPE VERSION="1.0">
    <HEADER>
        <TALLYREQUEST>Import Data</TALLYREQUEST>
    </HEADER>
    <BODY>
        <IMPORTDATA>
            <REQUESTDESC>
                <REPORTNAME>All Masters</REPORTNAME>
                <STATICVARIABLES>
                    <SVCURRENTCOMPANY>Co</SVCURRENTCOMPANY>
                </STATICVARIABLES>
            </REQUESTDESC>
            <REQUESTDATA>
                <TALLYMESSAGE xmlns:UDF="TallyUDF">
                    <LEDGER NAME="Input IGST 5%" ACTION="Create">
                        <NAME>Input IGST 5%</NAME>
                        <PARENT>Duties &amp; Taxes</PARENT>
                        <ISBILLWISEON>No</ISBILLWISEON>
                        <ISUPDATINGTARGETID>No</ISUPDATINGTARGETID>
                        <ASORIGINAL>Yes</ASORIGINAL>
                        <TAXTYPE>GST</TAXTYPE>
                        <GSTDUTYHEAD>Integrated Tax</GSTDUTYHEAD>
                    </LEDGER>
                </TALLYMESSAGE>
            </REQUESTDATA>
        </IMPORTDATA>
    </BODY>
</ENVELOPE>
`
	assert.Equal(t, want, string(out))
}

func TestGenerate_NoLedgers(t *testing.T) {
	out, err := Generate(nil, "Co")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<REQUESTDATA/>")
}

func TestGenerateWithOptions_CustomIndent(t *testing.T) {
	opts := DefaultGenerateOptions("Co")
	opts.Indent = "\t"
	opts.IncludeXMLDeclaration = false

	out, err := GenerateWithOptions([]ledger.Definition{ledger.Seed()}, opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "<ENVELOPE"))
	assert.Contains(t, string(out), "\n\t<HEADER>\n")
}

func TestGenerate_RenderFailures(t *testing.T) {
	tests := []struct {
		name    string
		defs    []ledger.Definition
		company string
	}{
		{name: "empty company", defs: sampleDefs(), company: ""},
		{name: "control char in company", defs: sampleDefs(), company: "Co\x01"},
		{name: "control char in ledger", defs: []ledger.Definition{ledger.Party("Bad\x00Name")}, company: "Co"},
		{name: "invalid utf8", defs: []ledger.Definition{ledger.Party("\xff\xfe")}, company: "Co"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Generate(tt.defs, tt.company)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, types.ErrRenderFailure))
		})
	}
}
