package wireguard

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// Keypair: пара ключей пира в формате конфигов WireGuard (std base64, 44 символа).
type Keypair struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// KeyGenerator выдаёт ключи Curve25519. Rand можно подменить в тестах.
type KeyGenerator struct {
	Rand io.Reader
}

// NewKeyGenerator: генератор на crypto/rand.
func NewKeyGenerator() *KeyGenerator { return &KeyGenerator{Rand: rand.Reader} }

// Generate: 32 случайных байта → clamp → X25519(priv, basepoint).
func (g *KeyGenerator) Generate() (Keypair, error) {
	r := g.Rand
	if r == nil {
		r = rand.Reader
	}
	var priv wgtypes.Key
	if _, err := io.ReadFull(r, priv[:]); err != nil {
		return Keypair{}, fmt.Errorf("read random: %w", err)
	}
	Clamp(&priv)

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return Keypair{}, fmt.Errorf("derive public key: %w", err)
	}
	pk, err := wgtypes.NewKey(pub)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{PrivateKey: priv.String(), PublicKey: pk.String()}, nil
}

// GenerateKeypair: удобная обёртка над генератором по умолчанию.
func GenerateKeypair() (Keypair, error) { return NewKeyGenerator().Generate() }

// Clamp приводит 32 байта к допустимому скаляру Curve25519.
func Clamp(k *wgtypes.Key) {
	k[0] &= 0xF8
	k[31] = (k[31] & 0x7F) | 0x40
}

// PublicKeyFromPrivate выводит публичный ключ из base64 приватного.
func PublicKeyFromPrivate(privateKey string) (string, error) {
	k, err := wgtypes.ParseKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return k.PublicKey().String(), nil
}

// ParseKey проверяет, что строка: корректный 32-байтный ключ WireGuard.
func ParseKey(s string) error {
	if _, err := wgtypes.ParseKey(s); err != nil {
		return fmt.Errorf("invalid wireguard key: %w", err)
	}
	return nil
}

// MustCheckRandom падает, если системный источник случайности недоступен.
// Вызывается один раз при старте.
func MustCheckRandom() {
	var b [32]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(fmt.Sprintf("secure random source unavailable: %v", err))
	}
}
