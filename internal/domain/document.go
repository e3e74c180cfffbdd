package domain

// DocumentType es el código numérico del tipo de documento de identidad.
type DocumentType int

const (
	DocumentCC DocumentType = 1 // Cédula de ciudadanía
	DocumentTI DocumentType = 2 // Tarjeta de identidad
	DocumentCE DocumentType = 3 // Cédula de extranjería
	DocumentPA DocumentType = 4 // Pasaporte
)

var documentTypeNames = map[DocumentType]string{
	DocumentCC: "CC",
	DocumentTI: "TI",
	DocumentCE: "CE",
	DocumentPA: "PA",
}

// Name devuelve la sigla del documento; códigos desconocidos se muestran como CC.
func (d DocumentType) Name() string {
	if name, ok := documentTypeNames[d]; ok {
		return name
	}
	return "CC"
}

// Valid indica si el código pertenece al enum conocido.
func (d DocumentType) Valid() bool {
	_, ok := documentTypeNames[d]
	return ok
}
