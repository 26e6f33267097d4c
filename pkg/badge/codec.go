package badge

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrIntegrity 解码后校验和不匹配，按胸牌被篡改或损坏处理
var ErrIntegrity = errors.New("badge checksum mismatch")

// Payload 二维码载荷，加密序列化后印在胸牌上
type Payload struct {
	VisitorID        string `json:"id"`
	RegistrationCode string `json:"registration_code"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Category         string `json:"category"`
	EventID          uint   `json:"event_id"`
	Timestamp        int64  `json:"timestamp"`
	Checksum         string `json:"checksum"`
}

// Codec 胸牌载荷编解码器（AES-256-GCM，随机nonce前置）
type Codec struct {
	key []byte
}

// NewCodec 创建编解码器，密钥不足32字节时补齐、超出时截断
func NewCodec(key string) *Codec {
	keyBytes := []byte(key)
	if len(keyBytes) < 32 {
		tmp := make([]byte, 32)
		copy(tmp, keyBytes)
		keyBytes = tmp
	} else if len(keyBytes) > 32 {
		keyBytes = keyBytes[:32]
	}
	return &Codec{key: keyBytes}
}

// Checksum 对身份字段计算校验和：sha256前8位十六进制
// 独立于加密层，密钥轮换后仍可二次校验身份字段未被替换
func Checksum(visitorID, registrationCode, email string) string {
	sum := sha256.Sum256([]byte(visitorID + registrationCode + email))
	return hex.EncodeToString(sum[:])[:8]
}

// Encode 填充校验和与签发时间，序列化并加密载荷
func (c *Codec) Encode(p *Payload) (string, error) {
	if p.Timestamp == 0 {
		p.Timestamp = time.Now().UnixMilli()
	}
	p.Checksum = Checksum(p.VisitorID, p.RegistrationCode, p.Email)

	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decode 解密并反序列化载荷，重新计算校验和
func (c *Codec) Decode(encrypted string) (*Payload, error) {
	ciphertextBytes, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("载荷格式无效: %v", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertextBytes) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertextBytes := ciphertextBytes[:nonceSize], ciphertextBytes[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		// GCM认证失败同样视为篡改
		return nil, ErrIntegrity
	}

	var p Payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, fmt.Errorf("载荷解析失败: %v", err)
	}

	if Checksum(p.VisitorID, p.RegistrationCode, p.Email) != p.Checksum {
		return nil, ErrIntegrity
	}

	return &p, nil
}
