package models_test

import (
	"testing"

	"github.com/mmdatafocus/gst_backend/models"
)

func TestValidateGstin(t *testing.T) {
	if err := models.ValidateGstin("27AAPFU0939F1ZV"); err != nil {
		t.Fatalf("valid gstin rejected: %v", err)
	}
	if err := models.ValidateGstin("27aapfu0939f1zv"); err != nil {
		t.Fatalf("case must be normalized before validation: %v", err)
	}
	if err := models.ValidateGstin("27AAPFU0939F1ZX"); err == nil {
		t.Fatal("wrong check digit accepted")
	}
	if err := models.ValidateGstin("27AAPFU0939F1V"); err == nil {
		t.Fatal("short gstin accepted")
	}
	if err := models.ValidateGstin("XXAAPFU0939F1ZV"); err == nil {
		t.Fatal("non-numeric state code accepted")
	}
}

func TestPanFromGstin(t *testing.T) {
	if got := models.PanFromGstin("27AAPFU0939F1ZV"); got != "27AAPFU093" {
		t.Fatalf("PanFromGstin = %q", got)
	}
	if got := models.PanFromGstin("SHORT"); got != "SHORT" {
		t.Fatalf("short input = %q", got)
	}
}
