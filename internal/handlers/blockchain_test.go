package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bhavya-jpg/proofora-backend/internal/middleware"
	"github.com/bhavya-jpg/proofora-backend/internal/services"
)

type blockchainTestEnv struct {
	router    *gin.Engine
	ledger    services.LedgerService
	uploadDir string
}

func newBlockchainTestEnv(t *testing.T) *blockchainTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testLogger(t)

	ledger := services.NewLocalLedger(log)
	handler := NewBlockchainHandler(log, ledger, nil)

	uploadDir := t.TempDir()
	upload, err := middleware.NewUploadMiddleware(log, uploadDir)
	if err != nil {
		t.Fatalf("upload middleware: %v", err)
	}

	router := gin.New()
	router.POST("/api/blockchain/upload", upload.Single("design", middleware.LedgerMaxBytes), handler.Upload)
	router.POST("/api/blockchain/compare", upload.Single("design", middleware.LedgerMaxBytes), handler.Compare)
	router.GET("/api/blockchain/stats", handler.Stats)

	return &blockchainTestEnv{router: router, ledger: ledger, uploadDir: uploadDir}
}

func TestBlockchainUploadRegisters(t *testing.T) {
	env := newBlockchainTestEnv(t)
	imageBytes := []byte("bytes of logo.png")
	body, ct := multipartUpload(t, "design", "logo.png", "image/png", imageBytes, map[string]string{"title": "Logo v1"})

	rec, parsed := doRequest(t, env.router, http.MethodPost, "/api/blockchain/upload", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	data, ok := parsed["data"].(map[string]any)
	if !ok {
		t.Fatalf("response missing data object: %v", parsed)
	}
	if data["title"] != "Logo v1" {
		t.Fatalf("title: want=Logo v1 got=%v", data["title"])
	}
	blockchain, ok := data["blockchain"].(map[string]any)
	if !ok {
		t.Fatalf("response missing blockchain receipt: %v", data)
	}
	if blockchain["designHash"] != env.ledger.HashBytes(imageBytes) {
		t.Fatalf("designHash: want=%s got=%v", env.ledger.HashBytes(imageBytes), blockchain["designHash"])
	}
	if txHash, _ := blockchain["transactionHash"].(string); txHash == "" {
		t.Fatalf("receipt must carry a transaction hash")
	}
}

func TestBlockchainUploadRequiresTitle(t *testing.T) {
	env := newBlockchainTestEnv(t)
	body, ct := multipartUpload(t, "design", "logo.png", "image/png", []byte("pngbytes"), nil)

	rec, parsed := doRequest(t, env.router, http.MethodPost, "/api/blockchain/upload", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	if parsed["error"] != "NoTitle" {
		t.Fatalf("error kind: want=NoTitle got=%v", parsed["error"])
	}
	if got := uploadedFiles(t, env.uploadDir); len(got) != 0 {
		t.Fatalf("upload must be deleted on the no-title path, found %v", got)
	}
}

func TestCompareFlipsAfterRegistration(t *testing.T) {
	env := newBlockchainTestEnv(t)
	imageBytes := []byte("bytes of logo.png")

	body, ct := multipartUpload(t, "design", "logo.png", "image/png", imageBytes, nil)
	rec, parsed := doRequest(t, env.router, http.MethodPost, "/api/blockchain/compare", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("compare status: want=200 got=%d", rec.Code)
	}
	if parsed["plagiarismDetected"] != false {
		t.Fatalf("plagiarismDetected before register: want=false got=%v", parsed["plagiarismDetected"])
	}

	body, ct = multipartUpload(t, "design", "logo.png", "image/png", imageBytes, map[string]string{"title": "Logo v1"})
	if rec, _ := doRequest(t, env.router, http.MethodPost, "/api/blockchain/upload", body, ct); rec.Code != http.StatusOK {
		t.Fatalf("register failed: %d", rec.Code)
	}

	body, ct = multipartUpload(t, "design", "logo.png", "image/png", imageBytes, nil)
	_, parsed = doRequest(t, env.router, http.MethodPost, "/api/blockchain/compare", body, ct)
	if parsed["plagiarismDetected"] != true {
		t.Fatalf("plagiarismDetected after register: want=true got=%v", parsed["plagiarismDetected"])
	}
	if rec, _ := parsed["recommendation"].(string); rec == "" {
		t.Fatalf("compare must carry a recommendation string")
	}

	// a different byte sequence stays clean
	body, ct = multipartUpload(t, "design", "other.png", "image/png", []byte("different bytes"), nil)
	_, parsed = doRequest(t, env.router, http.MethodPost, "/api/blockchain/compare", body, ct)
	if parsed["plagiarismDetected"] != false {
		t.Fatalf("plagiarismDetected for different bytes: want=false got=%v", parsed["plagiarismDetected"])
	}
}

func TestCompareRemovesProbeFile(t *testing.T) {
	env := newBlockchainTestEnv(t)
	body, ct := multipartUpload(t, "design", "probe.png", "image/png", []byte("probe bytes"), nil)

	if rec, _ := doRequest(t, env.router, http.MethodPost, "/api/blockchain/compare", body, ct); rec.Code != http.StatusOK {
		t.Fatalf("compare failed: %d", rec.Code)
	}
	if got := uploadedFiles(t, env.uploadDir); len(got) != 0 {
		t.Fatalf("probe file must be removed after compare, found %v", got)
	}
}

func TestStatsCountsRegistrations(t *testing.T) {
	env := newBlockchainTestEnv(t)

	for i, name := range []string{"a.png", "b.png"} {
		body, ct := multipartUpload(t, "design", name, "image/png", []byte(name), map[string]string{"title": name})
		if rec, _ := doRequest(t, env.router, http.MethodPost, "/api/blockchain/upload", body, ct); rec.Code != http.StatusOK {
			t.Fatalf("register %d failed: %d", i, rec.Code)
		}
	}

	rec, parsed := doRequest(t, env.router, http.MethodGet, "/api/blockchain/stats", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status: want=200 got=%d", rec.Code)
	}
	if parsed["totalDesigns"] != float64(2) {
		t.Fatalf("totalDesigns: want=2 got=%v", parsed["totalDesigns"])
	}
	if parsed["network"] != "local" {
		t.Fatalf("network: want=local got=%v", parsed["network"])
	}
}

func TestBlockchainUploadRejectsOversize(t *testing.T) {
	env := newBlockchainTestEnv(t)
	big := make([]byte, middleware.LedgerMaxBytes+1)
	body, ct := multipartUpload(t, "design", "big.png", "image/png", big, map[string]string{"title": "Big"})

	rec, parsed := doRequest(t, env.router, http.MethodPost, "/api/blockchain/upload", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	if parsed["error"] != "FileTooLarge" {
		t.Fatalf("error kind: want=FileTooLarge got=%v", parsed["error"])
	}
}
