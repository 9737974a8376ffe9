package proxy

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Proxy Handler
// ============================================================

// forwardedHeaders are copied from the client request to the upstream one.
var forwardedHeaders = []string{"Authorization", "Accept", "X-Request-Id"}

type Proxy struct {
	client *http.Client
	log    *zap.Logger
}

// New creates a proxy. A nil client gets a 30s timeout client.
func New(client *http.Client, log *zap.Logger) *Proxy {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Proxy{client: client, log: log}
}

// To forwards every request to the fixed targetURL.
func (p *Proxy) To(targetURL string) fiber.Handler {
	return func(c fiber.Ctx) error {
		return p.Forward(c, targetURL)
	}
}

// Mount forwards prefix and everything below it to upstream. The part of the
// path after strip is appended to upstream, and the query string is kept.
func (p *Proxy) Mount(r fiber.Router, prefix, strip, upstream string) {
	h := func(c fiber.Ctx) error {
		return p.Forward(c, Target(upstream, strings.TrimPrefix(c.Path(), strip), string(c.Request().URI().QueryString())))
	}
	r.All(prefix, h)
	r.All(prefix+"/*", h)
}

// Target joins an upstream base URL, a path and a raw query.
func Target(upstream, path, query string) string {
	target := strings.TrimRight(upstream, "/") + "/" + strings.TrimLeft(path, "/")
	if query != "" {
		target += "?" + query
	}
	return target
}

// Forward sends the request to targetURL, as multipart when the client sent
// multipart and raw otherwise, and copies the upstream response back.
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	contentType := c.Get("Content-Type")
	p.log.Debug("forward",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("content_type", contentType),
		zap.Int("content_length", len(c.Body())),
		zap.String("target", targetURL))

	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return p.sendRaw(c, targetURL, contentType)
	}
	return p.sendMultipart(c, targetURL)
}

func (p *Proxy) sendRaw(c fiber.Ctx, targetURL, contentType string) error {
	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		p.log.Error("build request", zap.String("target", targetURL), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return p.do(c, req)
}

func (p *Proxy) sendMultipart(c fiber.Ctx, targetURL string) error {
	form, err := c.MultipartForm()
	if err != nil {
		p.log.Warn("parse multipart", zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart data"})
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, files := range form.File {
		for _, fileHeader := range files {
			if err := copyFilePart(writer, key, fileHeader); err != nil {
				p.log.Error("copy multipart file", zap.String("file", fileHeader.Filename), zap.Error(err))
				return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
			}
		}
	}
	for key, values := range form.Value {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
			}
		}
	}
	if err := writer.Close(); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, body)
	if err != nil {
		p.log.Error("build multipart request", zap.String("target", targetURL), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return p.do(c, req)
}

func copyFilePart(w *multipart.Writer, field string, fh *multipart.FileHeader) error {
	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, fh.Filename))
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		h.Set("Content-Type", ct)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func (p *Proxy) do(c fiber.Ctx, req *http.Request) error {
	for _, name := range forwardedHeaders {
		if v := c.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("upstream unreachable", zap.String("target", req.URL.String()), zap.Error(err))
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
