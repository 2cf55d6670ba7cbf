package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/models"
	"github.com/mmdatafocus/gst_backend/utils"
)

// Regression: every books/filed/unfiled write must drop the cached
// reconcile blobs in the same transaction, and the memoization check
// must refuse the cache once they are gone. A summary-kind write must
// not invalidate.
func TestReturnBlob_InputWriteInvalidatesReconcile(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "gst_test")
	t.Setenv("REDIS_ADDRESS", "")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	log, err := models.GetOrCreateReturnLog(ctx, "biz-blob-inval", "27AAPFU0939F1ZV", "012026", models.ReturnTypeGSTR1)
	if err != nil {
		t.Fatalf("GetOrCreateReturnLog: %v", err)
	}

	seedReconcile := func() {
		if err := log.SaveBlob(ctx, models.BlobReconcile, map[string]string{"INV-1": "Mismatch"}); err != nil {
			t.Fatalf("save reconcile blob: %v", err)
		}
		if err := log.SaveBlob(ctx, models.BlobReconcileSummary, map[string]string{"total": "1"}); err != nil {
			t.Fatalf("save reconcile summary blob: %v", err)
		}
	}

	seedReconcile()
	if err := log.SetLatest(ctx, true); err != nil {
		t.Fatalf("SetLatest: %v", err)
	}
	// Writing the reconcile outputs themselves must not have
	// invalidated anything.
	if ok, err := log.CanUseCachedReconcile(ctx); err != nil || !ok {
		t.Fatalf("cache not usable after seeding: ok=%v err=%v", ok, err)
	}

	for _, kind := range []models.BlobKind{models.BlobBooks, models.BlobFiled, models.BlobUnfiled} {
		seedReconcile()
		if ok, err := log.CanUseCachedReconcile(ctx); err != nil || !ok {
			t.Fatalf("%s: cache not usable before write: ok=%v err=%v", kind, ok, err)
		}

		if err := log.SaveBlob(ctx, kind, map[string]string{"doc": "x"}); err != nil {
			t.Fatalf("save %s blob: %v", kind, err)
		}

		if has, err := log.HasBlob(ctx, models.BlobReconcile); err != nil || has {
			t.Fatalf("%s write kept reconcile blob: has=%v err=%v", kind, has, err)
		}
		if has, err := log.HasBlob(ctx, models.BlobReconcileSummary); err != nil || has {
			t.Fatalf("%s write kept reconcile summary blob: has=%v err=%v", kind, has, err)
		}
		// Latest flag alone must not authorize the cache.
		if ok, err := log.CanUseCachedReconcile(ctx); err != nil || ok {
			t.Fatalf("%s: cache still usable after invalidation: ok=%v err=%v", kind, ok, err)
		}
		var dest map[string]string
		if err := log.LoadBlob(ctx, models.BlobReconcile, &dest); !errors.Is(err, utils.ErrorRecordNotFound) {
			t.Fatalf("%s: invalidated reconcile blob still loads: %v", kind, err)
		}
	}

	// A non-input kind leaves the cached reconciliation alone.
	seedReconcile()
	if err := log.SaveBlob(ctx, models.BlobBooksSummary, map[string]string{"total": "2"}); err != nil {
		t.Fatalf("save books summary blob: %v", err)
	}
	if has, err := log.HasBlob(ctx, models.BlobReconcile); err != nil || !has {
		t.Fatalf("summary write dropped reconcile blob: has=%v err=%v", has, err)
	}
	if ok, err := log.CanUseCachedReconcile(ctx); err != nil || !ok {
		t.Fatalf("cache not usable after summary write: ok=%v err=%v", ok, err)
	}

	// Explicit invalidation (gov re-download, CLI rebuild) behaves like
	// an input write.
	if err := log.InvalidateReconcile(ctx); err != nil {
		t.Fatalf("InvalidateReconcile: %v", err)
	}
	if ok, err := log.CanUseCachedReconcile(ctx); err != nil || ok {
		t.Fatalf("cache still usable after explicit invalidation: ok=%v err=%v", ok, err)
	}

	// Flipping latest off refuses the cache even with a reconcile blob
	// present.
	seedReconcile()
	if err := log.SetLatest(ctx, false); err != nil {
		t.Fatalf("SetLatest(false): %v", err)
	}
	if ok, err := log.CanUseCachedReconcile(ctx); err != nil || ok {
		t.Fatalf("stale gov data still authorized the cache: ok=%v err=%v", ok, err)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("gst-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=gst_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
