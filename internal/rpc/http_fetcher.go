package rpc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pyth-serum-client/internal/types"

	"github.com/zeromicro/go-zero/rest/httpc"
)

// maxDownloadSize markets.json 约 100KB，留足余量
var maxDownloadSize int64 = 32 << 20

type HTTPFetcher struct {
	timeout time.Duration
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := httpc.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", types.ErrTransportFailure, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status %d", types.ErrTransportFailure, url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", types.ErrTransportFailure, url, err)
	}
	if int64(len(body)) > maxDownloadSize {
		return nil, fmt.Errorf("%w: GET %s: body exceeds %d bytes", types.ErrTransportFailure, url, maxDownloadSize)
	}
	return body, nil
}
