package airtable

// Field names in the Reportes Diarios table.
const (
	fieldDate          = "Fecha"
	fieldSupervisor    = "Supervisores"
	fieldProject       = "Proyecto"
	fieldProjectLookup = "Nombre del proyecto (from Proyecto)"
	fieldConfirmed     = "Confirmado por supervisor"

	fieldFabrication  = "Fabricación – actividades"
	fieldInstallation = "Instalación – actividades"
	fieldSupervision  = "Supervisión – actividades"

	fieldAreaInstalled      = "m² instalados"
	fieldPiecesPlaced       = "Piezas colocadas"
	fieldSealsExecuted      = "Sellos ejecutados"
	fieldPostsAdjusted      = "Postes ajustados"
	fieldGlassArea          = "m² vidrio"
	fieldAluminumArea       = "m² aluminio"
	fieldInteriorSealLength = "ml sello interior"
	fieldExteriorSealLength = "ml sello exterior"
	fieldDoorsPlaced        = "Puertas colocadas"

	fieldDowntime      = "Tiempo muerto"
	fieldDowntimeOther = "Tiempo muerto – otro"
	fieldPending       = "Pendiente"
	fieldPendingOther  = "Pendiente – otro"

	fieldPhotos = "Evidencia fotográfica"
)

// Field names in the Supervisores table.
const (
	fieldSupervisorName     = "Nombre"
	fieldSupervisorActive   = "Activo"
	fieldSupervisorProjects = "Proyectos asignados"
)

// Field names in the Proyectos table.
const (
	fieldProjectName = "Nombre del proyecto"
)
