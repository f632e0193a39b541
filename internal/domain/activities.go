package domain

type Category string

const (
	CategoryFabrication  Category = "fabricacion"
	CategoryInstallation Category = "instalacion"
	CategorySupervision  Category = "supervision"
)

var (
	FabricationActivities = []string{
		"Habilitado",
		"Corte",
		"Armado",
		"Ensamble",
		"Limpieza de piezas",
	}
	InstallationActivities = []string{
		"Colocación de aluminio",
		"Colocación de vidrio",
		"Ajuste de postes",
		"Sellos interior",
		"Sellos exterior",
		"Accesorios",
		"Limpieza",
	}
	SupervisionActivities = []string{
		"Revisión de calidad",
		"Validación de metrado",
		"Coordinación con contratista",
		"Revisión de avances",
	}

	DowntimeOptions = []string{
		"Falta de material",
		"Contratista no llegó",
		"Obstrucción / interfaz",
		"Espera de instrucción",
		"Clima",
		NoneValue,
		"Otro",
	}
	PendingOptions = []string{
		"Ajustar sellos",
		"Falta vidrio",
		"Revisar alineación",
		"Remate pendiente",
		"Limpieza pendiente",
		NoneValue,
		"Otro",
	}
)

var categoryByActivity = func() map[string]Category {
	m := make(map[string]Category)
	for _, a := range FabricationActivities {
		m[a] = CategoryFabrication
	}
	for _, a := range InstallationActivities {
		m[a] = CategoryInstallation
	}
	for _, a := range SupervisionActivities {
		m[a] = CategorySupervision
	}
	return m
}()

// CategoryOf returns the roster an activity belongs to.
func CategoryOf(activity string) (Category, bool) {
	c, ok := categoryByActivity[activity]
	return c, ok
}

type Partition struct {
	Fabrication  []string
	Installation []string
	Supervision  []string
}

func (p Partition) Len() int {
	return len(p.Fabrication) + len(p.Installation) + len(p.Supervision)
}

// PartitionActivities splits a flat selection into the three rosters, keeping
// selection order. Unknown values and repeats are dropped.
func PartitionActivities(selected []string) Partition {
	p := Partition{
		Fabrication:  []string{},
		Installation: []string{},
		Supervision:  []string{},
	}
	seen := make(map[string]bool, len(selected))
	for _, a := range selected {
		if seen[a] {
			continue
		}
		c, ok := CategoryOf(a)
		if !ok {
			continue
		}
		seen[a] = true
		switch c {
		case CategoryFabrication:
			p.Fabrication = append(p.Fabrication, a)
		case CategoryInstallation:
			p.Installation = append(p.Installation, a)
		case CategorySupervision:
			p.Supervision = append(p.Supervision, a)
		}
	}
	return p
}
