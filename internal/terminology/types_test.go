package terminology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStandard(t *testing.T) {
	tests := []struct {
		in      string
		want    Standard
		wantErr bool
	}{
		{in: "SDTM", want: SDTM},
		{in: "ADaM", want: ADAM},
		{in: " cdash ", want: CDASH},
		{in: "define-xml", want: DefineXML},
		{in: "qs-ft", want: QSFT},
		{in: "OMOP", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStandard(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "Supported values are: SDTM, ADAM")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackagePrefix(t *testing.T) {
	assert.Equal(t, "sdtmct", SDTM.PackagePrefix())
	assert.Equal(t, "adamct", ADAM.PackagePrefix())
	assert.Equal(t, "define-xmlct", DefineXML.PackagePrefix())
}

func TestParseCodelistType(t *testing.T) {
	got, err := ParseCodelistType("")
	require.NoError(t, err)
	assert.Equal(t, ByID, got)

	got, err = ParseCodelistType("codelistcode")
	require.NoError(t, err)
	assert.Equal(t, ByCode, got)

	_, err = ParseCodelistType("NAME")
	assert.Error(t, err)
}

func TestSortTerms_CaseSensitive(t *testing.T) {
	terms := []Term{
		{SubmissionValue: "YEARS"},
		{SubmissionValue: "DAYS"},
		{SubmissionValue: "days"},
		{SubmissionValue: "HOURS"},
	}

	SortTerms(terms)

	cl := Codelist{Terms: terms}
	assert.Equal(t, []string{"DAYS", "HOURS", "YEARS", "days"}, cl.SubmissionValues())
}

func TestExtensibleYN(t *testing.T) {
	assert.Equal(t, "Yes", (&Codelist{Extensible: true}).ExtensibleYN())
	assert.Equal(t, "No", (&Codelist{}).ExtensibleYN())
}
