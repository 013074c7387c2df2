package cryptopackage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params Argon2id 参数
type Params struct {
	// Memory 以 KiB 为单位的内存消耗
	Memory uint32
	// Iterations 迭代次数（时间成本）
	Iterations uint32
	// Parallelism 并行度
	Parallelism uint8
	// SaltLength 盐值字节长度，至少 16
	SaltLength uint32
	// KeyLength 摘要字节长度，至少 32
	KeyLength uint32
}

// DefaultParams 交互式登录使用的参数：64MB 内存、2 次迭代
var DefaultParams = Params{
	Memory:      65536,
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher 密码哈希器
// 参数编码在哈希串里，调整参数不影响已有密码的校验
type Hasher struct {
	params Params
}

// NewHasher 创建密码哈希器
func NewHasher(params Params) *Hasher {
	return &Hasher{params: params}
}

// Hash 使用 Argon2id 哈希密码
// 格式: $argon2id$v={version}$m={memory},t={iterations},p={parallelism}${salt}${hash}
func (h *Hasher) Hash(password string) (string, error) {
	p := h.params

	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// Compare 比较明文密码和 Argon2id 哈希值
func (h *Hasher) Compare(password, encodedHash string) (bool, error) {
	return ComparePasswordAndHash(password, encodedHash)
}

// GenerateFromPassword 使用默认参数哈希密码
func GenerateFromPassword(password string) (string, error) {
	return NewHasher(DefaultParams).Hash(password)
}

// ComparePasswordAndHash 比较明文密码和 Argon2id 哈希值
func ComparePasswordAndHash(password, encodedHash string) (bool, error) {
	// 期望格式: "", "argon2id", "v=...", "m=...,t=...,p=...", "salt", "hash"
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, errors.New("invalid Argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid Argon2id version format: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported Argon2id version %d", version)
	}

	var memory, iterations, parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("invalid Argon2id cost parameters format: %w", err)
	}
	if parallelism == 0 || parallelism > 255 {
		return false, fmt.Errorf("invalid Argon2id parallelism %d", parallelism)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, uint8(parallelism), uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}
