package badge

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

// RenderOptions 二维码渲染参数，按租户配置传入
type RenderOptions struct {
	Size       int    // 像素尺寸
	DarkColor  string // 前景色，如 #000000
	LightColor string // 背景色，如 #FFFFFF
	NoMargin   bool   // 去掉静区边框
}

// Renderer 将加密载荷渲染为二维码图片并落盘
type Renderer struct {
	assetDir string
}

// NewRenderer 创建渲染器，目录不存在时自动创建
func NewRenderer(assetDir string) (*Renderer, error) {
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return nil, fmt.Errorf("创建二维码目录失败: %v", err)
	}
	return &Renderer{assetDir: assetDir}, nil
}

// Render 生成二维码PNG文件并返回对外下载路径
// 注册码只在租户内唯一，文件按租户子目录隔离，避免跨租户同码互相覆盖
func (r *Renderer) Render(tenantID uint, data, registrationCode string, opts RenderOptions) (string, error) {
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("生成二维码失败: %v", err)
	}

	qr.ForegroundColor = parseHexColor(opts.DarkColor, color.Black)
	qr.BackgroundColor = parseHexColor(opts.LightColor, color.White)
	qr.DisableBorder = opts.NoMargin

	size := opts.Size
	if size <= 0 {
		size = 300
	}

	tenantDir := filepath.Join(r.assetDir, tenantKey(tenantID))
	if err := os.MkdirAll(tenantDir, 0755); err != nil {
		return "", fmt.Errorf("创建租户二维码目录失败: %v", err)
	}

	filename := registrationCode + ".png"
	if err := qr.WriteFile(size, filepath.Join(tenantDir, filename)); err != nil {
		return "", fmt.Errorf("写入二维码文件失败: %v", err)
	}

	return "/assets/qr-codes/" + tenantKey(tenantID) + "/" + filename, nil
}

// FilePath 按租户与注册码定位已生成的二维码文件
func (r *Renderer) FilePath(tenantID uint, registrationCode string) string {
	return filepath.Join(r.assetDir, tenantKey(tenantID), registrationCode+".png")
}

func tenantKey(tenantID uint) string {
	return strconv.FormatUint(uint64(tenantID), 10)
}

// parseHexColor 解析 #RRGGBB，失败时返回兜底色
func parseHexColor(s string, fallback color.Color) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	var rv, gv, bv uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return fallback
	}
	return color.RGBA{R: rv, G: gv, B: bv, A: 255}
}
