package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSlug(t *testing.T) {
	s := NewTenantService(nil)

	valid := []string{"demo", "acme-corp", "tenant-01", "ab"}
	for _, slug := range valid {
		assert.True(t, s.ValidateSlug(slug), slug)
	}

	invalid := []string{
		"a",                          // 过短
		strings.Repeat("a", 51),      // 过长
		"Demo",                       // 大写
		"acme_corp",                  // 下划线
		"acme corp",                  // 空格
		"-acme",                      // 连字符开头
		"acme-",                      // 连字符结尾
		"大会",                         // 非ASCII
	}
	for _, slug := range invalid {
		assert.False(t, s.ValidateSlug(slug), slug)
	}
}

func TestValidateCreateParams(t *testing.T) {
	s := NewTenantService(nil)

	assert.NoError(t, s.ValidateCreateParams("演示主办方", "demo", "demo"))
	assert.Error(t, s.ValidateCreateParams("x", "demo", "demo"))
	assert.Error(t, s.ValidateCreateParams("演示主办方", "Demo!", "demo"))
	assert.Error(t, s.ValidateCreateParams("演示主办方", "demo", "demo_"))
}
