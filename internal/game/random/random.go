// Package random 提供引擎内所有抽取使用的随机数生成器。
//
// 生成器的熵来源通过 RandomSource 注入：DeterministicRandomSource 给定种子可复现，
// SecureRandomSource 每次调用都读取一个新的安全随机数。
package random

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"sync"
)

// SplitMix64 常量
const (
	golden = 0x9E3779B97F4A7C15
	mix1   = 0xBF58476D1CE4E5B9
	mix2   = 0x94D049BB133111EB
)

// RandomSource 64位随机数来源
type RandomSource interface {
	NextSeed() uint64
}

// DeterministicRandomSource SplitMix64 + 内部 nonce，相同种子产生相同序列
type DeterministicRandomSource struct {
	state uint64
	nonce uint64
}

// NewDeterministicSource 创建确定性随机源
func NewDeterministicSource(seed uint64) *DeterministicRandomSource {
	return &DeterministicRandomSource{state: seed}
}

// NextSeed 推进内部状态并返回下一个值
func (s *DeterministicRandomSource) NextSeed() uint64 {
	s.nonce++
	z := s.state + s.nonce*golden
	z = (z ^ (z >> 30)) * mix1
	z = (z ^ (z >> 27)) * mix2
	z ^= z >> 31
	s.state = z
	return z
}

// SecureRandomSource 每次调用读取 crypto/rand；宿主无法提供熵时退回确定性序列
type SecureRandomSource struct {
	mu       sync.Mutex
	fallback *DeterministicRandomSource
}

// NewSecureSource 创建安全随机源，fallbackSeed 仅在 crypto/rand 不可用时使用
func NewSecureSource(fallbackSeed uint64) *SecureRandomSource {
	return &SecureRandomSource{fallback: NewDeterministicSource(fallbackSeed)}
}

// NextSeed 返回一个新的安全随机数
func (s *SecureRandomSource) NextSeed() uint64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err == nil {
		return binary.LittleEndian.Uint64(buf[:])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback.NextSeed()
}

// Random 随机数生成器
type Random struct {
	source RandomSource
}

// New 基于种子创建确定性生成器
func New(seed uint64) *Random {
	return &Random{source: NewDeterministicSource(seed)}
}

// NewSecure 创建安全生成器，每次 NextSeed 都是新的安全随机数
func NewSecure() *Random {
	return &Random{source: NewSecureSource(0)}
}

// NewWithSource 使用自定义随机源
func NewWithSource(source RandomSource) *Random {
	return &Random{source: source}
}

// NextSeed 返回下一个64位随机数
func (r *Random) NextSeed() uint64 {
	return r.source.NextSeed()
}

// NextInt 返回 [0, maxExclusive) 内的整数，maxExclusive <= 0 时返回 0
func (r *Random) NextInt(maxExclusive int) int {
	if maxExclusive <= 0 {
		return 0
	}
	return int(r.NextSeed() % uint64(maxExclusive))
}

// Between 返回 [min, max] 内的整数
func (r *Random) Between(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + r.NextInt(max-min+1)
}

// Shuffle Fisher–Yates 洗牌，返回新切片，不修改输入
func Shuffle[T any](items []T, r *Random) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := r.NextInt(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
