package anonymize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"honorific M.", "M. Dupont a forcé 3 serrures", "M. [NOM] a forcé 3 serrures"},
		{"honorific Madame", "Madame Lefèvre est témoin", "Madame [NOM] est témoin"},
		{"accented name", "Mme Éloïse habite ici", "Mme [NOM] habite ici"},
		{"uppercase token", "Le suspect DURAND a fui", "Le suspect [NOM_OU_SIGLE] a fui"},
		{"acronym in legal basis", "Art. 53 du CPP", "Art. 53 du [NOM_OU_SIGLE]"},
		{"single uppercase letter kept", "Le véhicule A est stationné", "Le véhicule A est stationné"},
		{"uppercase name after honorific", "M. DUPONT", "M. [NOM_OU_SIGLE]"},
		{"no capital after honorific", "M. le maire", "M. le maire"},
		{"mixed", "Mlle Martin et la BAC", "Mlle [NOM] et la [NOM_OU_SIGLE]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestText_NeverLeaksName(t *testing.T) {
	names := []string{"Dupont", "Bernard", "Moreau", "Lefèvre"}
	honorifics := []string{"M.", "Mme", "Mlle", "Monsieur", "Madame"}

	for _, h := range honorifics {
		for _, n := range names {
			out := Text("Audition de " + h + " " + n + " ce jour")
			assert.NotContains(t, out, n)
			assert.Contains(t, out, h+" "+NamePlaceholder)
		}
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"M. Dupont a forcé 3 serrures",
		"Le suspect DURAND, signalé par la BAC, art. 706-73 du CPP",
		"Madame Roux et M. [NOM] ont vu un [NOM_OU_SIGLE]",
		"rien à signaler",
	}

	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
		assert.False(t, strings.Contains(once, "[["), "placeholder re-redacted in %q", once)
	}
}

func TestFields(t *testing.T) {
	got := Fields("M. Dupont", "", "OPJ")
	assert.Equal(t, []string{"M. [NOM]", "", "[NOM_OU_SIGLE]"}, got)
}
