package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

const maxPhotoSize = 10 << 20 // 10 MB

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

func (s *Server) scanStoolPhoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data []byte
	var mimeType string
	if strings.HasPrefix(rawURL, "data:") {
		data, mimeType, err = decodeDataURI(rawURL)
	} else {
		data, mimeType, err = fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(data) > maxPhotoSize {
		return mcp.NewToolResultError(fmt.Sprintf("photo too large: %d bytes (max %d)", len(data), maxPhotoSize)), nil
	}
	if err := validateMagicBytes(data, mimeType); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.ScanStool(ctx, data, mimeType)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

// decodeDataURI parses a data:<mediatype>;base64,<data> URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mimeType := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if !allowedImageTypes[mimeType] {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mimeType)
	}
	return data, mimeType, nil
}

// fetchHTTP downloads a photo from an HTTP/HTTPS URL with security checks.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, "", err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxPhotoSize {
		return nil, "", fmt.Errorf("photo too large: exceeds %d bytes", maxPhotoSize)
	}

	mimeType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !allowedImageTypes[mimeType] {
		mimeType = strings.Split(http.DetectContentType(data), ";")[0]
	}
	return data, mimeType, nil
}

// checkBlockedHost rejects metadata, loopback, private, link-local and unspecified addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("blocked host: loopback address %s", host)
	case ip.IsPrivate():
		return fmt.Errorf("blocked host: private address %s", host)
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("blocked host: link-local address %s", host)
	case ip.IsUnspecified():
		return fmt.Errorf("blocked host: unspecified address %s", host)
	}
	return nil
}

// validateMagicBytes verifies the content is the image type it claims to be.
func validateMagicBytes(data []byte, mimeType string) error {
	if !allowedImageTypes[mimeType] {
		return fmt.Errorf("unsupported image type: %s (allowed: png, jpeg, gif, webp)", mimeType)
	}
	detected := strings.Split(http.DetectContentType(data), ";")[0]
	if detected != mimeType {
		return fmt.Errorf("content does not match %s (detected: %s)", mimeType, detected)
	}
	return nil
}
