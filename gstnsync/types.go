package gstnsync

import "encoding/json"

// returnEnvelope is the portal download response. Data carries the
// category-keyed return payload; Checksum is the SHA-256 hex digest of
// the Data bytes and must verify before any decoding proceeds.
type returnEnvelope struct {
	Gstin        string          `json:"gstin"`
	ReturnPeriod string          `json:"ret_period"`
	Checksum     string          `json:"chksum"`
	Data         json.RawMessage `json:"data"`
}

type apiError struct {
	ErrorCode string `json:"error_cd"`
	Message   string `json:"message"`
}

// inward2AData is the subset of a GSTR-2A payload the sync consumes:
// supplier-reported B2B invoices and credit/debit notes.
type inward2AData struct {
	B2B  []inwardWireParty     `json:"b2b"`
	CDN  []inwardWireNoteParty `json:"cdn"`
}

type inwardWireParty struct {
	Ctin string              `json:"ctin"`
	Inv  []inwardWireInvoice `json:"inv"`
}

type inwardWireInvoice struct {
	Inum  string            `json:"inum"`
	Idt   string            `json:"idt"`
	Val   json.Number       `json:"val"`
	Pos   string            `json:"pos"`
	Rchrg string            `json:"rchrg"`
	Itms  []inwardWireItem  `json:"itms"`
}

type inwardWireNoteParty struct {
	Ctin string           `json:"ctin"`
	Nt   []inwardWireNote `json:"nt"`
}

type inwardWireNote struct {
	Ntty  string           `json:"ntty"`
	NtNum string           `json:"nt_num"`
	NtDt  string           `json:"nt_dt"`
	Pos   string           `json:"pos"`
	Val   json.Number      `json:"val"`
	Itms  []inwardWireItem `json:"itms"`
}

type inwardWireItem struct {
	Num    int                  `json:"num"`
	Detail inwardWireItemDetail `json:"itm_det"`
}

type inwardWireItemDetail struct {
	Rate  json.Number `json:"rt"`
	Txval json.Number `json:"txval"`
	Iamt  json.Number `json:"iamt"`
	Camt  json.Number `json:"camt"`
	Samt  json.Number `json:"samt"`
	Csamt json.Number `json:"csamt"`
}
