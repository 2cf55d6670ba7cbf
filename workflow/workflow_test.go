package workflow

import (
	"testing"

	"github.com/mmdatafocus/gst_backend/matcher"
	"github.com/mmdatafocus/gst_backend/models"
)

// NOTE: these tests are DB-free. They pin down the pure decision
// helpers; the blob invalidation contract is covered by the models
// integration test (INTEGRATION_TESTS=1).

func TestGovBlobKind_PrefersFiledSide(t *testing.T) {
	log := &models.GSTReturnLog{FilingStatus: models.FilingStatusNotFiled}
	if got := govBlobKind(log); got != models.BlobUnfiled {
		t.Fatalf("unfiled period = %s", got)
	}
	log.FilingStatus = models.FilingStatusFiled
	if got := govBlobKind(log); got != models.BlobFiled {
		t.Fatalf("filed period = %s", got)
	}
}

func TestInwardStatusFor(t *testing.T) {
	cases := []struct {
		in       matcher.MatchStatus
		expected models.InwardMatchStatus
	}{
		{matcher.MatchExact, models.InwardMatchExact},
		{matcher.MatchSuggested, models.InwardMatchSuggested},
		{matcher.MatchMismatch, models.InwardMatchMismatch},
		{matcher.MatchResidual, models.InwardMatchResidual},
	}
	for _, tc := range cases {
		if got := inwardStatusFor(tc.in); got != tc.expected {
			t.Fatalf("inwardStatusFor(%s) = %s, want %s", tc.in, got, tc.expected)
		}
	}
}
