package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkoehler/brokerdocs/internal/entity"
)

func TestValidateFieldsAcceptsParserOutput(t *testing.T) {
	f := Parse(vehicleLetter)
	require.NoError(t, ValidateFields(&f))
}

func TestValidateFieldsAcceptsEmptyExtraction(t *testing.T) {
	f := Parse("nichts verwertbares")
	require.NoError(t, ValidateFields(&f))
}

func TestValidateFieldsRejectsBadZip(t *testing.T) {
	f := entity.ExtractedFields{ZipCode: "1234"}
	assert.Error(t, ValidateFields(&f))
}

func TestValidateFieldsRejectsBadSalutation(t *testing.T) {
	f := entity.ExtractedFields{Salutation: "Dr."}
	assert.Error(t, ValidateFields(&f))
}

func TestValidateFieldsRejectsMalformedPolicyNumber(t *testing.T) {
	f := entity.ExtractedFields{PolicyNumbers: []string{"177-332804"}}
	assert.Error(t, ValidateFields(&f))
}
