package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	in := "Beitragsrechnung\t \tKfz\r\n\r\n\r\nHauptstr.   1\r\n"
	got := Normalize(in)
	assert.Equal(t, "Beitragsrechnung Kfz\nHauptstr. 1", got)
}

func TestNormalizeRejoinsSplitSalutation(t *testing.T) {
	in := "Herr\nMax Mustermann\nHauptstr. 1"
	got := Normalize(in)
	assert.Equal(t, "Herr Max Mustermann\nHauptstr. 1", got)
}

func TestNormalizeStripsScannerNoise(t *testing.T) {
	in := "Vertrag* Nr¦: K 177-332804/1 §"
	got := Normalize(in)
	assert.Equal(t, "Vertrag Nr: K 177-332804/1", got)
}

func TestNormalizeKeepsUmlauts(t *testing.T) {
	got := Normalize("Berufsunfähigkeit für Müller-Lüdenscheid (ÄÖÜß)")
	assert.Equal(t, "Berufsunfähigkeit für Müller-Lüdenscheid (ÄÖÜß)", got)
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Herr\nMax Mustermann\nHauptstr. 1\n12345 Musterstadt\n",
		"a \t b\r\n\r\nc",
		"",
		"   ",
		"ä§ö!ü?",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
