package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bhavya-jpg/proofora-backend/internal/logger"
	"github.com/bhavya-jpg/proofora-backend/internal/types"
)

type ScanErrorKind string

const (
	ScanErrFileNotFound      ScanErrorKind = "FileNotFound"
	ScanErrEmptyFile         ScanErrorKind = "EmptyFile"
	ScanErrConnectionRefused ScanErrorKind = "ConnectionRefused"
	ScanErrTimeout           ScanErrorKind = "Timeout"
	ScanErrNetwork           ScanErrorKind = "NetworkError"
	ScanErrMLAPI             ScanErrorKind = "MLAPIError"
	ScanErrInvalidResponse   ScanErrorKind = "InvalidResponse"
	ScanErrUnexpected        ScanErrorKind = "UnexpectedError"
)

// ScanError carries the typed failure of a scan attempt. Handlers pass Kind
// and Message through to the caller unchanged so "service down" stays
// distinguishable from "bad response" and "timeout".
type ScanError struct {
	Kind    ScanErrorKind
	Message string
	Trace   []string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type ScanResult struct {
	DesignID     string
	Metadata     json.RawMessage
	View         types.MetadataView
	ScanDuration float64
	Message      string
}

type ScanClient interface {
	Scan(ctx context.Context, path string) (*ScanResult, error)
	Health(ctx context.Context) error
}

type scanClient struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

// NewScanClient builds the adapter for the external ML scan service.
// Configuration is explicit: the base URL and request budget are fixed at
// construction for the process lifetime.
func NewScanClient(log *logger.Logger, baseURL string, timeout time.Duration) ScanClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &scanClient{
		log:        log.With("service", "ScanClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func contentTypeForExt(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// Scan streams the file at path to the scan endpoint and normalizes the
// reply. One shot: any failure at any stage is terminal for this attempt.
func (c *scanClient) Scan(ctx context.Context, path string) (*ScanResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScanError{Kind: ScanErrFileNotFound, Message: fmt.Sprintf("file not found: %s", path)}
		}
		return nil, &ScanError{Kind: ScanErrUnexpected, Message: err.Error()}
	}
	if info.Size() == 0 {
		return nil, &ScanError{Kind: ScanErrEmptyFile, Message: "empty file: nothing to scan"}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &ScanError{Kind: ScanErrUnexpected, Message: err.Error()}
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="design"; filename="%s"`, filepath.Base(path)))
		header.Set("Content-Type", contentTypeForExt(path))
		part, err := mw.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scan", pr)
	if err != nil {
		return nil, &ScanError{Kind: ScanErrUnexpected, Message: err.Error()}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportErr(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ScanError{Kind: ScanErrNetwork, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.decodeFailure(resp.StatusCode, raw)
	}

	result, scanErr := c.decodeSuccess(raw)
	if scanErr != nil {
		return nil, scanErr
	}
	c.log.Info("Scan completed",
		"design_id", result.DesignID,
		"scan_duration", result.ScanDuration,
		"elapsed", time.Since(started).String(),
	)
	return result, nil
}

func (c *scanClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scan service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *scanClient) classifyTransportErr(err error) *ScanError {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return &ScanError{Kind: ScanErrConnectionRefused, Message: "scan service unreachable: " + err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &ScanError{Kind: ScanErrTimeout, Message: "scan request timed out: " + err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ScanError{Kind: ScanErrTimeout, Message: "scan request timed out: " + err.Error()}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ScanError{Kind: ScanErrNetwork, Message: err.Error()}
	}
	return &ScanError{Kind: ScanErrUnexpected, Message: err.Error()}
}

// decodeFailure maps a non-2xx body. A structured ML error passes through
// with its own kind; anything unparseable becomes MLAPIError. The service
// emits traceback as an array on scan failures but as a single string on its
// unexpected-error path, so both shapes must decode.
func (c *scanClient) decodeFailure(status int, raw []byte) *ScanError {
	var body struct {
		Success   bool            `json:"success"`
		Error     string          `json:"error"`
		Message   string          `json:"message"`
		Traceback json.RawMessage `json:"traceback"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return &ScanError{
			Kind:    ScanErrorKind(body.Error),
			Message: body.Message,
			Trace:   traceLines(body.Traceback),
		}
	}
	return &ScanError{
		Kind:    ScanErrMLAPI,
		Message: fmt.Sprintf("scan service returned status %d: %s", status, strings.TrimSpace(string(raw))),
	}
}

func traceLines(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return lines
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// decodeSuccess accepts both field-naming conventions the service emits
// (design_id/designId, scan_duration/scanDuration/scan_duration_seconds)
// and collapses them into one canonical shape.
func (c *scanClient) decodeSuccess(raw []byte) (*ScanResult, *ScanError) {
	var body struct {
		Success           bool            `json:"success"`
		DesignIDSnake     string          `json:"design_id"`
		DesignIDCamel     string          `json:"designId"`
		Metadata          json.RawMessage `json:"metadata"`
		ScanDurationSnake float64         `json:"scan_duration"`
		ScanDurationLong  float64         `json:"scan_duration_seconds"`
		ScanDurationCamel float64         `json:"scanDuration"`
		Message           string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &ScanError{Kind: ScanErrInvalidResponse, Message: "scan response is not valid JSON: " + err.Error()}
	}

	designID := body.DesignIDSnake
	if designID == "" {
		designID = body.DesignIDCamel
	}
	if designID == "" {
		return nil, &ScanError{Kind: ScanErrInvalidResponse, Message: "scan response is missing the design identifier"}
	}
	if len(body.Metadata) == 0 || string(body.Metadata) == "null" {
		return nil, &ScanError{Kind: ScanErrInvalidResponse, Message: "scan response is missing the metadata block"}
	}

	duration := body.ScanDurationSnake
	if duration == 0 {
		duration = body.ScanDurationLong
	}
	if duration == 0 {
		duration = body.ScanDurationCamel
	}

	view, err := types.ParseMetadataView(body.Metadata)
	if err != nil {
		return nil, &ScanError{Kind: ScanErrInvalidResponse, Message: "scan metadata is not an object: " + err.Error()}
	}

	return &ScanResult{
		DesignID:     designID,
		Metadata:     body.Metadata,
		View:         view,
		ScanDuration: duration,
		Message:      body.Message,
	}, nil
}
