package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/models"
	"github.com/mmdatafocus/gst_backend/utils"
	"github.com/mmdatafocus/gst_backend/workflow"
)

// Ops tool: drop the cached reconcile blobs for one return (or every
// GSTR-1 log of a business) and recompute them from the stored sides.
// Useful after a manual blob edit or a differ behavior change.
func main() {
	businessID := flag.String("business-id", "", "Required: business id (uuid)")
	gstin := flag.String("gstin", "", "Optional: restrict to one gstin")
	returnPeriod := flag.String("period", "", "Optional: restrict to one period (MMYYYY)")
	invalidateOnly := flag.Bool("invalidate-only", false, "Drop cached reconcile blobs without recomputing")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing returns and continue")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}
	if *gstin != "" {
		if err := models.ValidateGstin(*gstin); err != nil {
			fmt.Fprintf(os.Stderr, "invalid gstin: %v\n", err)
			os.Exit(1)
		}
	}
	if *returnPeriod != "" {
		if _, err := utils.ParseReturnPeriod(*returnPeriod); err != nil {
			fmt.Fprintf(os.Stderr, "invalid period: %v\n", err)
			os.Exit(1)
		}
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	ctx := context.Background()

	query := db.WithContext(ctx).
		Where("business_id = ? AND return_type = ?", *businessID, models.ReturnTypeGSTR1)
	if *gstin != "" {
		query = query.Where("gstin = ?", *gstin)
	}
	if *returnPeriod != "" {
		query = query.Where("return_period = ?", *returnPeriod)
	}

	var logs []*models.GSTReturnLog
	if err := query.Find(&logs).Error; err != nil {
		fmt.Fprintf(os.Stderr, "fetch return logs: %v\n", err)
		os.Exit(1)
	}
	if len(logs) == 0 {
		fmt.Println("no matching return logs")
		return
	}

	failed := 0
	for _, log := range logs {
		if err := log.InvalidateReconcile(ctx); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s %s: invalidate: %v\n", log.Gstin, log.ReturnPeriod, err)
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}
		if *invalidateOnly {
			fmt.Printf("%s %s: invalidated\n", log.Gstin, log.ReturnPeriod)
			continue
		}
		result, err := workflow.ReconcileReturn(ctx, *businessID, log.Gstin, log.ReturnPeriod)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s %s: reconcile: %v\n", log.Gstin, log.ReturnPeriod, err)
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}
		fmt.Printf("%s %s: rebuilt (%d subcategories)\n", log.Gstin, log.ReturnPeriod, len(result.Reconciled))
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d returns failed\n", failed, len(logs))
		os.Exit(1)
	}
}
