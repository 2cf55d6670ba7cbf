package gstnsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/models"
)

func TestParseInwardSupplies_InvoiceTotalsAndCreditNoteSign(t *testing.T) {
	payload := `{
		"b2b": [{
			"ctin": "29AABCT1332L1ZT",
			"inv": [{
				"inum": "INV-01",
				"idt": "05-06-2024",
				"val": 1180,
				"pos": "29",
				"rchrg": "N",
				"itms": [
					{"num": 1, "itm_det": {"rt": 18, "txval": 600, "iamt": 108, "camt": 0, "samt": 0, "csamt": 0}},
					{"num": 2, "itm_det": {"rt": 18, "txval": 400, "iamt": 72, "camt": 0, "samt": 0, "csamt": 0}}
				]
			}]
		}],
		"cdn": [{
			"ctin": "29AABCT1332L1ZT",
			"nt": [{
				"ntty": "C",
				"nt_num": "CN-01",
				"nt_dt": "10-06-2024",
				"pos": "29",
				"val": 118,
				"itms": [{"num": 1, "itm_det": {"rt": 18, "txval": 100, "iamt": 18, "camt": 0, "samt": 0, "csamt": 0}}]
			}]
		}]
	}`
	var data inward2AData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	supplies, err := parseInwardSupplies("biz-1", "062024", data)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(supplies) != 2 {
		t.Fatalf("supplies = %d", len(supplies))
	}

	inv := supplies[0]
	if inv.BillNumber != "INV-01" || len(inv.Items) != 2 {
		t.Fatalf("invoice = %+v", inv)
	}
	if !inv.TaxableValue.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("taxable = %s, want 1000", inv.TaxableValue)
	}
	if !inv.IgstAmount.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("igst = %s, want 180", inv.IgstAmount)
	}
	if inv.BillDate.Format("2006-01-02") != "2024-06-05" {
		t.Fatalf("bill date = %s", inv.BillDate)
	}
	if inv.MatchStatus != models.InwardMatchUnmatched {
		t.Fatalf("match status = %s", inv.MatchStatus)
	}

	note := supplies[1]
	if note.DocumentType != "Credit Note" {
		t.Fatalf("document type = %s", note.DocumentType)
	}
	if !note.TaxableValue.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("note taxable = %s, want -100", note.TaxableValue)
	}
	if !note.DocumentValue.Equal(decimal.NewFromInt(-118)) {
		t.Fatalf("note value = %s, want -118", note.DocumentValue)
	}
}

func TestParseInwardSupplies_UnknownNoteTypeFails(t *testing.T) {
	data := inward2AData{
		CDN: []inwardWireNoteParty{{
			Ctin: "29AABCT1332L1ZT",
			Nt:   []inwardWireNote{{Ntty: "X", NtNum: "N-1", NtDt: "01-06-2024", Val: "0"}},
		}},
	}
	if _, err := parseInwardSupplies("biz-1", "062024", data); err == nil {
		t.Fatal("expected error for unknown note type")
	}
}

func serveEnvelope(t *testing.T, handler http.HandlerFunc) *gstnClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	os.Setenv("GSTN_API_BASE_URL", srv.URL)
	t.Cleanup(func() { os.Unsetenv("GSTN_API_BASE_URL") })
	client, err := newGstnClient("test-token")
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestDownloadReturn_VerifiesChecksum(t *testing.T) {
	data := json.RawMessage(`{"b2b":[]}`)
	digest := sha256.Sum256(data)

	client := serveEnvelope(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"gstin":"27AAPFU0939F1ZV","ret_period":"062024","chksum":"%s","data":%s}`,
			hex.EncodeToString(digest[:]), data)
	})
	got, err := client.DownloadReturn(context.Background(), "27AAPFU0939F1ZV", "062024", "GSTR2A")
	if err != nil {
		t.Fatalf("valid envelope rejected: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("payload = %s", got)
	}

	client = serveEnvelope(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"gstin":"27AAPFU0939F1ZV","ret_period":"062024","chksum":"deadbeef","data":%s}`, data)
	})
	if _, err := client.DownloadReturn(context.Background(), "27AAPFU0939F1ZV", "062024", "GSTR2A"); err == nil {
		t.Fatal("checksum mismatch accepted")
	}
}

func TestDownloadReturn_GstinPeriodMismatchFailsFast(t *testing.T) {
	data := json.RawMessage(`{"b2b":[]}`)
	digest := sha256.Sum256(data)
	client := serveEnvelope(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"gstin":"29AABCT1332L1ZT","ret_period":"062024","chksum":"%s","data":%s}`,
			hex.EncodeToString(digest[:]), data)
	})
	if _, err := client.DownloadReturn(context.Background(), "27AAPFU0939F1ZV", "062024", "GSTR2A"); err == nil {
		t.Fatal("gstin mismatch accepted")
	}
}

func TestDownloadReturn_OTPSoftFail(t *testing.T) {
	client := serveEnvelope(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error_cd":"RETOTPREQUEST","message":"otp expired"}`)
	})
	_, err := client.DownloadReturn(context.Background(), "27AAPFU0939F1ZV", "062024", "GSTR2A")
	if !errors.Is(err, ErrOTPRequired) {
		t.Fatalf("err = %v, want ErrOTPRequired", err)
	}
}
