// Base58 编码/解码实现
//
// Base58 是 Bitcoin 风格的编码，避免了易混淆字符（0OIl）。
// 本实现不依赖外部库。
package types

import (
	"errors"
	"math/big"
)

// Base58 字母表（Bitcoin 风格）
const b58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ErrInvalidBase58Char 无效的 Base58 字符
var ErrInvalidBase58Char = errors.New("invalid base58 character")

var (
	b58Index = func() [256]int8 {
		var m [256]int8
		for i := range m {
			m[i] = -1
		}
		for i := 0; i < len(b58Alphabet); i++ {
			m[b58Alphabet[i]] = int8(i)
		}
		return m
	}()

	b58Radix = big.NewInt(58)
	b58Zero  = big.NewInt(0)
)

// Base58Encode 将字节切片编码为 Base58 字符串
func Base58Encode(input []byte) string {
	if len(input) == 0 {
		return ""
	}

	// 前导零字节编码为前导 '1'
	zeros := 0
	for zeros < len(input) && input[zeros] == 0 {
		zeros++
	}

	x := new(big.Int).SetBytes(input)
	mod := new(big.Int)

	out := make([]byte, 0, len(input)*136/100+1)
	for x.Cmp(b58Zero) > 0 {
		x.DivMod(x, b58Radix, mod)
		out = append(out, b58Alphabet[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		out = append(out, '1')
	}

	// 反转
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// Base58Decode 将 Base58 字符串解码为字节切片
func Base58Decode(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}

	zeros := 0
	for zeros < len(input) && input[zeros] == '1' {
		zeros++
	}

	x := new(big.Int)
	for i := 0; i < len(input); i++ {
		v := b58Index[input[i]]
		if v < 0 {
			return nil, ErrInvalidBase58Char
		}
		x.Mul(x, b58Radix)
		x.Add(x, big.NewInt(int64(v)))
	}

	decoded := x.Bytes()
	out := make([]byte, zeros+len(decoded))
	copy(out[zeros:], decoded)
	return out, nil
}
