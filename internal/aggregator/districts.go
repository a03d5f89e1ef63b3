package aggregator

// Districts lists the mainland and island districts the site adapters
// understand. Order matters to consumers rendering pickers, keep it stable.
var Districts = []string{
	"Aveiro",
	"Beja",
	"Braga",
	"Bragança",
	"Castelo Branco",
	"Coimbra",
	"Évora",
	"Faro",
	"Guarda",
	"Leiria",
	"Lisboa",
	"Portalegre",
	"Porto",
	"Santarém",
	"Setúbal",
	"Viana do Castelo",
	"Vila Real",
	"Viseu",
}

// ResolveDistrict maps a requested district onto the supported set, falling
// back when the request names an unknown one.
func ResolveDistrict(name, fallback string) string {
	for _, d := range Districts {
		if d == name {
			return d
		}
	}
	return fallback
}
