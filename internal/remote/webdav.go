package remote

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/imroc/req/v3"
)

// DefaultWebDAVURL is where the internxt CLI serves WebDAV on this host.
const DefaultWebDAVURL = "https://127.0.0.1:3005"

// WebDAVTransport talks to the local WebDAV endpoint started by the
// internxt CLI. The endpoint is natively path-addressed, so no identifier
// resolution is ever needed. The server presents a self-signed certificate,
// hence InsecureSkipVerify.
type WebDAVTransport struct {
	client  *req.Client
	baseURL string
}

func NewWebDAVTransport(baseURL string) *WebDAVTransport {
	if baseURL == "" {
		baseURL = DefaultWebDAVURL
	}
	client := req.C().
		EnableInsecureSkipVerify()

	return &WebDAVTransport{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (t *WebDAVTransport) PathAddressed() bool { return true }

// multistatus is the DAV:multistatus PROPFIND response body.
type multistatus struct {
	XMLName   xml.Name      `xml:"DAV: multistatus"`
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href     string        `xml:"href"`
	Propstat []davPropstat `xml:"propstat"`
}

type davPropstat struct {
	Prop davProp `xml:"prop"`
}

type davProp struct {
	ResourceType  davResourceType `xml:"resourcetype"`
	ContentLength string          `xml:"getcontentlength"`
}

type davResourceType struct {
	Collection *struct{} `xml:"collection"`
}

func (t *WebDAVTransport) List(ctx context.Context, dir Ref) ([]Entry, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Depth", "1").
		Send("PROPFIND", t.url(dir.Path))
	if err != nil {
		return nil, &TransportError{Op: "list", Target: dir.Path, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("list %s: %w", dir.Path, ErrNotFound)
	}
	if !resp.IsSuccessState() {
		return nil, &TransportError{Op: "list", Target: dir.Path, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return parseMultistatus(resp.Bytes(), dir.Path)
}

// parseMultistatus turns a Depth:1 PROPFIND body into child entries,
// excluding the listed directory itself.
func parseMultistatus(body []byte, dirPath string) ([]Entry, error) {
	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, &TransportError{Op: "list", Target: dirPath, Err: fmt.Errorf("parse multistatus: %w", err)}
	}

	self := strings.TrimRight(dirPath, "/")

	entries := make([]Entry, 0, len(ms.Responses))
	for _, r := range ms.Responses {
		href, err := cleanHref(r.Href)
		if err != nil {
			return nil, &TransportError{Op: "list", Target: dirPath, Err: err}
		}
		if href == self {
			continue
		}
		if len(r.Propstat) == 0 {
			continue
		}

		prop := r.Propstat[0].Prop
		isDir := prop.ResourceType.Collection != nil

		var size int64
		if !isDir && prop.ContentLength != "" {
			size, _ = strconv.ParseInt(prop.ContentLength, 10, 64)
		}

		if !strings.HasPrefix(href, "/") {
			href = "/" + href
		}
		entries = append(entries, Entry{
			Name:  path.Base(href),
			IsDir: isDir,
			Size:  size,
			Path:  href,
		})
	}
	return entries, nil
}

// cleanHref decodes a DAV href and reduces it to an absolute path without
// a trailing slash. Servers may return full URLs instead of bare paths.
func cleanHref(href string) (string, error) {
	if strings.Contains(href, "://") {
		u, err := url.Parse(href)
		if err != nil {
			return "", fmt.Errorf("parse href %q: %w", href, err)
		}
		href = u.Path
	}
	decoded, err := url.PathUnescape(href)
	if err != nil {
		return "", fmt.Errorf("decode href %q: %w", href, err)
	}
	return strings.TrimRight(decoded, "/"), nil
}

func (t *WebDAVTransport) Mkdir(ctx context.Context, parent Ref, name string) (*Entry, error) {
	created := path.Join(parent.Path, name)

	resp, err := t.client.R().
		SetContext(ctx).
		Send("MKCOL", t.url(created))
	if err != nil {
		return nil, &TransportError{Op: "mkdir", Target: created, Err: err}
	}
	if resp.StatusCode == http.StatusConflict {
		return nil, fmt.Errorf("mkdir %s: %w", created, ErrParentNotFound)
	}
	if !resp.IsSuccessState() {
		return nil, &TransportError{Op: "mkdir", Target: created, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return &Entry{Name: name, IsDir: true, Path: created}, nil
}

func (t *WebDAVTransport) Upload(ctx context.Context, localPath string, parent Ref, name string) (*Entry, error) {
	uploaded := path.Join(parent.Path, name)

	file, err := os.Open(localPath)
	if err != nil {
		return nil, &TransportError{Op: "upload", Target: uploaded, Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &TransportError{Op: "upload", Target: uploaded, Err: err}
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetContentType("application/octet-stream").
		SetBody(file).
		Put(t.url(uploaded))
	if err != nil {
		return nil, &TransportError{Op: "upload", Target: uploaded, Err: err}
	}
	if resp.StatusCode == http.StatusConflict {
		return nil, fmt.Errorf("upload %s: %w", uploaded, ErrParentNotFound)
	}
	if !resp.IsSuccessState() {
		return nil, &TransportError{Op: "upload", Target: uploaded, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return &Entry{Name: name, Size: info.Size(), Path: uploaded}, nil
}

func (t *WebDAVTransport) Delete(ctx context.Context, target Ref) error {
	resp, err := t.client.R().
		SetContext(ctx).
		Delete(t.url(target.Path))
	if err != nil {
		return &TransportError{Op: "delete", Target: target.Path, Err: err}
	}
	// Deleting something already gone is best-effort, not a failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if !resp.IsSuccessState() {
		return &TransportError{Op: "delete", Target: target.Path, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return nil
}

func (t *WebDAVTransport) Download(ctx context.Context, target Ref, destPath string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetOutputFile(destPath).
		Get(t.url(target.Path))
	if err != nil {
		return &TransportError{Op: "download", Target: target.Path, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("download %s: %w", target.Path, ErrNotFound)
	}
	if !resp.IsSuccessState() {
		return &TransportError{Op: "download", Target: target.Path, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return nil
}

// url joins the endpoint with an escaped remote path.
func (t *WebDAVTransport) url(remotePath string) string {
	if !strings.HasPrefix(remotePath, "/") {
		remotePath = "/" + remotePath
	}
	escaped := (&url.URL{Path: remotePath}).EscapedPath()
	return t.baseURL + escaped
}
