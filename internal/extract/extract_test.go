package extract

import "testing"

func fptr(v float64) *float64 { return &v }

func TestParseEuro(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"850 €", fptr(850)},
		{"1 200 €/mês", fptr(1200)},
		{"1.250€", fptr(1250)},
		{"850,50 €", fptr(850.50)},
		{"Apartamento T2 em Leiria 725 € 68 m²", fptr(725)},
		{"sem preço", nil},
		{"", nil},
	}
	for _, c := range cases {
		got := ParseEuro(c.in)
		if (got == nil) != (c.want == nil) {
			t.Fatalf("ParseEuro(%q) = %v, want %v", c.in, got, c.want)
		}
		if got != nil && *got != *c.want {
			t.Errorf("ParseEuro(%q) = %v, want %v", c.in, *got, *c.want)
		}
	}
}

func TestParseArea(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"Área bruta 105 m²", fptr(105)},
		{"area util: 68,5 m2", fptr(68.5)},
		{"T2 de 70 m² com varanda", fptr(70)},
		{"Área bruta 105 m² mais anexo de 20 m²", fptr(105)},
		{"sem área", nil},
	}
	for _, c := range cases {
		got := ParseArea(c.in)
		if (got == nil) != (c.want == nil) {
			t.Fatalf("ParseArea(%q) = %v, want %v", c.in, got, c.want)
		}
		if got != nil && *got != *c.want {
			t.Errorf("ParseArea(%q) = %v, want %v", c.in, *got, *c.want)
		}
	}
}

func TestParseEuroPerM2(t *testing.T) {
	if got := ParseEuroPerM2("12,4 € / m²"); got == nil || *got != 12.4 {
		t.Errorf("ParseEuroPerM2 spaced form = %v, want 12.4", got)
	}
	if got := ParseEuroPerM2("9€/m²"); got == nil || *got != 9 {
		t.Errorf("ParseEuroPerM2 compact form = %v, want 9", got)
	}
	if got := ParseEuroPerM2("850 €"); got != nil {
		t.Errorf("ParseEuroPerM2 on plain price = %v, want nil", got)
	}
}

func TestPricePerArea(t *testing.T) {
	got := PricePerArea(fptr(725), fptr(68))
	if got == nil || *got != 10.66 {
		t.Fatalf("PricePerArea(725, 68) = %v, want 10.66", got)
	}
	if PricePerArea(fptr(725), nil) != nil {
		t.Error("PricePerArea with nil area should be nil")
	}
	if PricePerArea(fptr(725), fptr(0)) != nil {
		t.Error("PricePerArea with zero area should be nil")
	}
}

func TestNormalizeTypology(t *testing.T) {
	cases := map[string]string{
		"t2":    "T2",
		"T2":    "T2",
		" t 2 ": "T2",
		"2":     "T2",
		"3":     "T3",
		"t1+1":  "T1+1",
		"*":     "T*",
		"all":   "T*",
		"T*":    "T*",
		"":      "T2",
	}
	for in, want := range cases {
		got := NormalizeTypology(in)
		if got != want {
			t.Errorf("NormalizeTypology(%q) = %q, want %q", in, got, want)
		}
		if again := NormalizeTypology(got); again != got {
			t.Errorf("NormalizeTypology not idempotent: %q -> %q -> %q", in, got, again)
		}
	}
}

func TestMatchesTypology(t *testing.T) {
	cases := []struct {
		text, typ string
		want      bool
	}{
		{"Apartamento T2", "T2", true},
		{"Apartamento T2+1", "T2", false},
		{"Apartamento T2+1", "T2+1", true},
		{"Apartamento T 2 + 1", "t2+1", true},
		{"Moradia T3 renovada", "T2", false},
		{"qualquer coisa", "T*", true},
		{"Apartamento t2 centro", "T2", true},
	}
	for _, c := range cases {
		if got := MatchesTypology(c.text, c.typ); got != c.want {
			t.Errorf("MatchesTypology(%q, %q) = %v, want %v", c.text, c.typ, got, c.want)
		}
	}
}

func TestExtractTypology(t *testing.T) {
	if got := ExtractTypology("Excelente t2+1 em Leiria"); got != "T2+1" {
		t.Errorf("ExtractTypology = %q, want T2+1", got)
	}
	if got := ExtractTypology("Moradia no campo"); got != "" {
		t.Errorf("ExtractTypology on plain text = %q, want empty", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Leiria":           "leiria",
		"Viana do Castelo": "viana-do-castelo",
		"Évora":            "evora",
		"Santarém":         "santarem",
		"Setúbal":          "setubal",
		"  Castelo  Branco ": "castelo-branco",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
