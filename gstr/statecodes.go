package gstr

import "strings"

// stateNames maps the two-digit GST state code to the state name used
// in the expanded internal place-of-supply form ("29-Karnataka").
// Source: GSTN state code master, including union territories and the
// 97/96 special codes.
var stateNames = map[string]string{
	"01": "Jammu and Kashmir",
	"02": "Himachal Pradesh",
	"03": "Punjab",
	"04": "Chandigarh",
	"05": "Uttarakhand",
	"06": "Haryana",
	"07": "Delhi",
	"08": "Rajasthan",
	"09": "Uttar Pradesh",
	"10": "Bihar",
	"11": "Sikkim",
	"12": "Arunachal Pradesh",
	"13": "Nagaland",
	"14": "Manipur",
	"15": "Mizoram",
	"16": "Tripura",
	"17": "Meghalaya",
	"18": "Assam",
	"19": "West Bengal",
	"20": "Jharkhand",
	"21": "Odisha",
	"22": "Chhattisgarh",
	"23": "Madhya Pradesh",
	"24": "Gujarat",
	"26": "Dadra and Nagar Haveli and Daman and Diu",
	"27": "Maharashtra",
	"29": "Karnataka",
	"30": "Goa",
	"31": "Lakshadweep",
	"32": "Kerala",
	"33": "Tamil Nadu",
	"34": "Puducherry",
	"35": "Andaman and Nicobar Islands",
	"36": "Telangana",
	"37": "Andhra Pradesh",
	"38": "Ladakh",
	"96": "Other Country",
	"97": "Other Territory",
}

// ExpandPlaceOfSupply converts a wire state code to "NN-StateName".
// Unknown codes pass through unexpanded: decode must not fail when a
// new union territory code appears before this table is updated.
func ExpandPlaceOfSupply(code string) string {
	code = strings.TrimSpace(code)
	name, ok := stateNames[code]
	if !ok {
		return code
	}
	return code + "-" + name
}

// ContractPlaceOfSupply is the inverse of ExpandPlaceOfSupply.
func ContractPlaceOfSupply(pos string) string {
	if idx := strings.Index(pos, "-"); idx >= 0 {
		return pos[:idx]
	}
	return pos
}
