package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"ontarioseed/internal"
	"ontarioseed/internal/config"
)

var (
	ErrPackageQueryFailed = errors.New("failed to query Ontario open data package metadata")
	ErrMalformedMetadata  = errors.New("unexpected package metadata format: resources is not a list")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Client talks to a CKAN action API and downloads the resources it lists.
type Client struct {
	cfg            config.Config
	metadataClient *http.Client
	downloadClient *http.Client
}

type apiResponse struct {
	Success bool            `json:"success"`
	Error   json.RawMessage `json:"error"`
	Result  json.RawMessage `json:"result"`
}

type packagePayload struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Resources json.RawMessage `json:"resources"`
}

type Package struct {
	ID        string
	Name      string
	Title     string
	Resources []internal.ResourceDescriptor
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:            cfg,
		metadataClient: &http.Client{Timeout: time.Duration(cfg.OpenDataMetadataTimeoutSec) * time.Second},
		downloadClient: &http.Client{Timeout: time.Duration(cfg.OpenDataDownloadTimeoutSec) * time.Second},
	}
}

// PackageShow calls package_show for packageID. A response without success or
// with a non-list resources field is an error.
func (c *Client) PackageShow(ctx context.Context, packageID string) (Package, error) {
	baseURL := strings.TrimRight(c.cfg.OpenDataBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + "api/3/action/package_show")
	if err != nil {
		return Package{}, err
	}
	q := u.Query()
	q.Set("id", packageID)
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, c.metadataClient, u.String(), "application/json")
	if err != nil {
		return Package{}, fmt.Errorf("%w: %v", ErrPackageQueryFailed, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Package{}, fmt.Errorf("%w: %v", ErrPackageQueryFailed, err)
	}
	if !apiResp.Success {
		return Package{}, fmt.Errorf("%w: %s", ErrPackageQueryFailed, string(apiResp.Error))
	}

	var payload packagePayload
	if len(apiResp.Result) > 0 && string(apiResp.Result) != "null" {
		if err := json.Unmarshal(apiResp.Result, &payload); err != nil {
			return Package{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
		}
	}

	resources, err := decodeResources(payload.Resources)
	if err != nil {
		return Package{}, err
	}

	return Package{ID: payload.ID, Name: payload.Name, Title: payload.Title, Resources: resources}, nil
}

// FetchText downloads a resource and decodes it with DecodeText.
func (c *Client) FetchText(ctx context.Context, resourceURL string) (string, error) {
	body, err := c.get(ctx, c.downloadClient, resourceURL, "text/plain")
	if err != nil {
		return "", err
	}
	return DecodeText(body), nil
}

// DecodeText drops a leading byte order mark and replaces invalid UTF-8 with
// U+FFFD, one per maximal invalid subsequence.
func DecodeText(body []byte) string {
	body = bytes.TrimPrefix(body, utf8BOM)

	var sb strings.Builder
	sb.Grow(len(body))
	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			body = body[invalidSequenceLen(body):]
			continue
		}
		sb.Write(body[:size])
		body = body[size:]
	}
	return sb.String()
}

// invalidSequenceLen is the length of the ill-formed prefix of b: its lead
// byte plus the continuation bytes that were still acceptable after it.
func invalidSequenceLen(b []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	need := 0
	switch lead := b[0]; {
	case lead >= 0xC2 && lead <= 0xDF:
		need = 1
	case lead == 0xE0:
		need, lo = 2, 0xA0
	case lead == 0xED:
		need, hi = 2, 0x9F
	case lead >= 0xE1 && lead <= 0xEF:
		need = 2
	case lead == 0xF0:
		need, lo = 3, 0x90
	case lead >= 0xF1 && lead <= 0xF3:
		need = 3
	case lead == 0xF4:
		need, hi = 3, 0x8F
	default:
		return 1
	}

	n := 1
	for ; n <= need && n < len(b); n++ {
		if b[n] < lo || b[n] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return n
}

func (c *Client) get(ctx context.Context, httpClient *http.Client, target, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.OpenDataUserAgent)
	req.Header.Set("Accept", accept)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opendata status=%d url=%s", resp.StatusCode, target)
	}
	return body, nil
}

func decodeResources(raw json.RawMessage) ([]internal.ResourceDescriptor, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, ErrMalformedMetadata
	}

	var items []map[string]any
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	out := make([]internal.ResourceDescriptor, 0, len(items))
	for _, item := range items {
		out = append(out, internal.ResourceDescriptor{
			ID:           toString(item["id"]),
			Name:         toString(item["name"]),
			Format:       toString(item["format"]),
			URL:          toString(item["url"]),
			LastModified: toString(item["last_modified"]),
			Created:      toString(item["created"]),
		})
	}
	return out, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
