package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"SanctionsSync/internal/config"
	"SanctionsSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Fetcher 清单下载器：成功则更新本地缓存，失败回退读取上次缓存文件
type Fetcher struct {
	cacheDir string
	logger   *logrus.Logger
}

func NewFetcher(cacheDir string, logger *logrus.Logger) *Fetcher {
	return &Fetcher{cacheDir: cacheDir, logger: logger}
}

// Fetch 获取指定来源的清单原文
// 下载链路失败不致命：有缓存用缓存（告警），无缓存才返回错误（调用方跳过该来源）
func (f *Fetcher) Fetch(ctx context.Context, sourceName string, cfg *config.SourceConfig) ([]byte, error) {
	cachePath := filepath.Join(f.cacheDir, cfg.LocalFilename)

	data, err := f.download(ctx, sourceName, cfg)
	if err == nil {
		if writeErr := f.writeCache(cachePath, data); writeErr != nil {
			f.logger.Warnf("%s: 缓存写入失败: %v", sourceName, writeErr)
		}
		return data, nil
	}
	f.logger.Warnf("%s: 下载失败: %v，尝试回退缓存%s", sourceName, err, cachePath)

	cached, cacheErr := os.ReadFile(cachePath)
	if cacheErr != nil {
		return nil, fmt.Errorf("%s: 下载失败且无可用缓存: %w", sourceName, err)
	}
	f.logger.Warnf("%s: 使用缓存文件（%d字节），数据可能过期", sourceName, len(cached))
	return cached, nil
}

func (f *Fetcher) download(ctx context.Context, sourceName string, cfg *config.SourceConfig) ([]byte, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("未配置下载地址")
	}
	client := httpclient.NewHTTPClient(cfg, f.logger)

	attempts := cfg.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			f.logger.Infof("%s: 第%d次重试下载", sourceName, i)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * 2 * time.Second):
			}
		}
		data, err := f.doRequest(ctx, client, cfg.URL)
		if err == nil {
			f.logger.Infof("%s: 下载完成，共%d字节", sourceName, len(data))
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (f *Fetcher) doRequest(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("响应状态码%d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("响应体为空")
	}
	return data, nil
}

func (f *Fetcher) writeCache(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
