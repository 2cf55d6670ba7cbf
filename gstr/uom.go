package gstr

import "strings"

// uomNames maps the government UQC code to its description. The
// expanded "CODE-DESCRIPTION" form is the internal UOM representation
// so that HSN keys built from books data and gov data collide.
var uomNames = map[string]string{
	"BAG": "BAGS",
	"BAL": "BALE",
	"BDL": "BUNDLES",
	"BKL": "BUCKLES",
	"BOU": "BILLION OF UNITS",
	"BOX": "BOX",
	"BTL": "BOTTLES",
	"BUN": "BUNCHES",
	"CAN": "CANS",
	"CBM": "CUBIC METERS",
	"CCM": "CUBIC CENTIMETERS",
	"CMS": "CENTIMETERS",
	"CTN": "CARTONS",
	"DOZ": "DOZENS",
	"DRM": "DRUMS",
	"GGK": "GREAT GROSS",
	"GMS": "GRAMMES",
	"GRS": "GROSS",
	"GYD": "GROSS YARDS",
	"KGS": "KILOGRAMS",
	"KLR": "KILOLITRE",
	"KME": "KILOMETRE",
	"LTR": "LITRES",
	"MLT": "MILILITRE",
	"MTR": "METERS",
	"MTS": "METRIC TON",
	"NOS": "NUMBERS",
	"OTH": "OTHERS",
	"PAC": "PACKS",
	"PCS": "PIECES",
	"PRS": "PAIRS",
	"QTL": "QUINTAL",
	"ROL": "ROLLS",
	"SET": "SETS",
	"SQF": "SQUARE FEET",
	"SQM": "SQUARE METERS",
	"SQY": "SQUARE YARDS",
	"TBS": "TABLETS",
	"TGM": "TEN GROSS",
	"THD": "THOUSANDS",
	"TON": "TONNES",
	"TUB": "TUBES",
	"UGS": "US GALLONS",
	"UNT": "UNITS",
	"YDS": "YARDS",
}

// ExpandUom upper-cases and expands a wire UQC code ("pcs" ->
// "PCS-PIECES"). Two wire entries differing only in casing collapse to
// one internal key and aggregate.
func ExpandUom(uqc string) string {
	code := strings.ToUpper(strings.TrimSpace(uqc))
	name, ok := uomNames[code]
	if !ok {
		return code
	}
	return code + "-" + name
}

// ContractUom is the inverse of ExpandUom.
func ContractUom(uom string) string {
	if idx := strings.Index(uom, "-"); idx >= 0 {
		return uom[:idx]
	}
	return uom
}
