package pipeline

// The accounting system's bulk exports have drifted across versions:
// the same logical column appears under different headers depending on
// which report produced the file. Each logical field therefore carries
// an ordered list of accepted header aliases; resolution takes the
// first match. A field with no matching header is absent for every row
// and the consumer-level default applies.

type fieldAliases struct {
	field   string
	aliases []string
}

var aliasGroups = []fieldAliases{
	{fieldNIC, []string{"ocnic", "cnic", "u_ocnic"}},
	{fieldOwnerName, []string{"oname", "ownername", "name"}},
	{fieldPhone, []string{"ocell", "cellno"}},
	{fieldFileNo, []string{"itemcode", "item_code", "u_itemcode"}},
	{fieldFaceValue, []string{"doctotal"}},
	{fieldPaid, []string{"reconsum", "paid"}},
	{fieldOutstanding, []string{"balduedeb", "balance"}},
	{fieldPlot, []string{"plot", "plotno", "u_plotno"}},
	{fieldBlock, []string{"block", "u_block"}},
	{fieldPark, []string{"park", "u_park"}},
	{fieldCorner, []string{"corner", "u_corner"}},
	{fieldBoulevard, []string{"mb", "mainboulevard", "u_mainbu"}},
	{fieldDueDate, []string{"docduedate", "duedate", "date"}},
	{fieldSurcharge, []string{"surcharge", "u_surcharge"}},
	{fieldDescription, []string{"remarks", "docremarks", "description"}},
	{fieldTypeCode, []string{"doctype", "etype", "type"}},
}

const (
	fieldNIC         = "nic"
	fieldOwnerName   = "ownerName"
	fieldPhone       = "phone"
	fieldFileNo      = "fileNo"
	fieldFaceValue   = "faceValue"
	fieldPaid        = "paid"
	fieldOutstanding = "outstanding"
	fieldPlot        = "plot"
	fieldBlock       = "block"
	fieldPark        = "park"
	fieldCorner      = "corner"
	fieldBoulevard   = "boulevard"
	fieldDueDate     = "dueDate"
	fieldSurcharge   = "surcharge"
	fieldDescription = "description"
	fieldTypeCode    = "typeCode"
)

// LogicalFields lists the logical column names the parser understands,
// in resolution order. Used by the alias-suggestion tool.
func LogicalFields() []string {
	fields := make([]string, 0, len(aliasGroups))
	for _, g := range aliasGroups {
		fields = append(fields, g.field)
	}
	return fields
}
