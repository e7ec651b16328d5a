// Package qr превращает текст конфига в ссылку на картинку QR.
package qr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"wgnst/internal/logs"
)

const (
	MinSize          = 300
	DefaultTimeout   = 5 * time.Second
	DefaultRemoteURL = "https://api.qrserver.com/v1/create-qr-code/"
)

// Encoder кодирует содержимое в ссылку на изображение (data URL или http URL).
type Encoder interface {
	Encode(ctx context.Context, content string) (string, error)
}

// Image: результат рендера. Placeholder=true, если кодировщик не справился.
type Image struct {
	Ref         string `json:"ref"`
	Placeholder bool   `json:"placeholder"`
}

// Producer никогда не возвращает ошибку: при сбое отдаёт заглушку.
type Producer struct {
	Encoder Encoder
	Timeout time.Duration
}

func NewProducer(enc Encoder, timeout time.Duration) *Producer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Producer{Encoder: enc, Timeout: timeout}
}

func (p *Producer) Render(ctx context.Context, content string) Image {
	if p == nil || p.Encoder == nil {
		return Image{Ref: PlaceholderRef, Placeholder: true}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ref, err := p.Encoder.Encode(ctx, content)
	if err == nil && ref == "" {
		err = errors.New("empty image reference")
	}
	if err != nil {
		logs.Logger.WithFields(logrus.Fields{"err": err}).Warn("qr: encoder failed, using placeholder")
		return Image{Ref: PlaceholderRef, Placeholder: true}
	}
	return Image{Ref: ref}
}

// LocalEncoder рисует PNG на месте, приватный ключ никуда не уходит.
type LocalEncoder struct {
	Size int
}

func (e LocalEncoder) Encode(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	png, err := qrcode.Encode(content, qrcode.Medium, sizeOrMin(e.Size))
	if err != nil {
		return "", fmt.Errorf("qr encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// RemoteEncoder ходит в сервис в стиле QR Server; URL проверяется GET-запросом
// и отдаётся как ссылка на изображение.
type RemoteEncoder struct {
	BaseURL string
	Size    int
	Client  *http.Client
}

func (e RemoteEncoder) URL(content string) (string, error) {
	base := e.BaseURL
	if base == "" {
		base = DefaultRemoteURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("qr remote url: %w", err)
	}
	size := strconv.Itoa(sizeOrMin(e.Size))
	q := u.Query()
	q.Set("size", size+"x"+size)
	q.Set("format", "png")
	q.Set("data", content)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (e RemoteEncoder) Encode(ctx context.Context, content string) (string, error) {
	ref, err := e.URL(content)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", err
	}
	cl := e.Client
	if cl == nil {
		cl = http.DefaultClient
	}
	resp, err := cl.Do(req)
	if err != nil {
		return "", fmt.Errorf("qr remote: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("qr remote: status %d", resp.StatusCode)
	}
	return ref, nil
}

func sizeOrMin(n int) int {
	if n < MinSize {
		return MinSize
	}
	return n
}

// New собирает Producer по режиму из конфига: local | remote | off.
func New(mode, remoteURL string, size int, timeout time.Duration) (*Producer, error) {
	switch mode {
	case "", "local":
		return NewProducer(LocalEncoder{Size: size}, timeout), nil
	case "remote":
		return NewProducer(RemoteEncoder{BaseURL: remoteURL, Size: size}, timeout), nil
	case "off":
		return NewProducer(nil, timeout), nil
	default:
		return nil, fmt.Errorf("unknown qr mode %q", mode)
	}
}
