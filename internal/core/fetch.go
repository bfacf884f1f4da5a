package core

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-getter/v2"
)

// fetchFile downloads a single file from src to dst. go-getter resolves the
// scheme, so https and file:// sources work the same way. Copy is forced so
// local sources yield a real file we can chmod, not a symlink.
func fetchFile(ctx context.Context, src, dst string) error {
	client := getter.Client{}
	if _, err := client.Get(ctx, &getter.Request{
		Src:     src,
		Dst:     dst,
		Copy:    true,
		GetMode: getter.ModeFile,
	}); err != nil {
		return fmt.Errorf("downloading %s: %w", src, err)
	}
	return nil
}
