// internal/service/promotion/infrastructure/adapter/upload_http_adapter.go
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"

	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/service/promotion/domain"
)

// UploadHTTPAdapter 是 domain.Uploader 接口的 HTTP 实现。
// 上传服务是外部协作方，核心只关心它返回的 {url, publicId} 引用。
type UploadHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewUploadHTTPAdapter 创建上传服务适配器。
func NewUploadHTTPAdapter(client *httpclient.Client, baseURL string) *UploadHTTPAdapter {
	return &UploadHTTPAdapter{client: client, baseURL: baseURL}
}

type uploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Upload 以 multipart 形式上传一个文件并返回不透明引用。
func (a *UploadHTTPAdapter) Upload(ctx context.Context, filename string, content []byte) (domain.Image, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return domain.Image{}, err
	}
	if _, err := part.Write(content); err != nil {
		return domain.Image{}, err
	}
	if err := writer.Close(); err != nil {
		return domain.Image{}, err
	}

	respBody, err := a.client.Post(ctx, a.baseURL+"/upload", nil, writer.FormDataContentType(), buf.Bytes())
	if err != nil {
		return domain.Image{}, fmt.Errorf("upload service call failed: %w", err)
	}

	var resp uploadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return domain.Image{}, fmt.Errorf("unexpected upload service response: %w", err)
	}
	return domain.Image{URL: resp.URL, PublicID: resp.PublicID}, nil
}

// Remove 删除一个已上传的资源。
func (a *UploadHTTPAdapter) Remove(ctx context.Context, publicID string) error {
	params := url.Values{"publicId": {publicID}}
	_, err := a.client.Post(ctx, a.baseURL+"/remove", params, "", nil)
	if err != nil {
		return fmt.Errorf("upload service removal failed: %w", err)
	}
	return nil
}
