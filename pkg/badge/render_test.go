package badge

import (
	"image/color"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererWritesFile(t *testing.T) {
	renderer, err := NewRenderer(t.TempDir())
	require.NoError(t, err)

	url, err := renderer.Render(1, "encrypted-payload", "VIP001", RenderOptions{Size: 128})
	require.NoError(t, err)
	assert.Equal(t, "/assets/qr-codes/1/VIP001.png", url)

	info, err := os.Stat(renderer.FilePath(1, "VIP001"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRendererIsolatesTenants(t *testing.T) {
	renderer, err := NewRenderer(t.TempDir())
	require.NoError(t, err)

	// 两个租户各自发行相同注册码，互不覆盖
	urlA, err := renderer.Render(1, "tenant-a-payload", "VIP001", RenderOptions{Size: 128})
	require.NoError(t, err)
	before, err := os.ReadFile(renderer.FilePath(1, "VIP001"))
	require.NoError(t, err)

	urlB, err := renderer.Render(2, "tenant-b-payload", "VIP001", RenderOptions{Size: 128})
	require.NoError(t, err)

	assert.NotEqual(t, urlA, urlB)
	assert.Equal(t, "/assets/qr-codes/2/VIP001.png", urlB)

	after, err := os.ReadFile(renderer.FilePath(1, "VIP001"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	other, err := os.ReadFile(renderer.FilePath(2, "VIP001"))
	require.NoError(t, err)
	assert.NotEqual(t, before, other)
}

func TestRendererTenantColors(t *testing.T) {
	renderer, err := NewRenderer(t.TempDir())
	require.NoError(t, err)

	_, err = renderer.Render(1, "encrypted-payload", "SPK001", RenderOptions{
		Size:       128,
		DarkColor:  "#FF6B35",
		LightColor: "#FFFFFF",
	})
	assert.NoError(t, err)
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0x6B, B: 0x35, A: 255}, parseHexColor("#FF6B35", color.Black))
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 0, A: 255}, parseHexColor("#000000", color.White))

	// 非法输入回退兜底色
	assert.Equal(t, color.Black, parseHexColor("", color.Black))
	assert.Equal(t, color.Black, parseHexColor("FF6B35", color.Black))
	assert.Equal(t, color.Black, parseHexColor("#ZZZZZZ", color.Black))
}
