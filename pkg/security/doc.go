// Package security provides the engine's authentication and outbound
// network safety primitives.
//
// # Contents
//
//   - Passwords: HashPassword and CheckPassword wrap bcrypt.
//   - Bearer tokens: TokenSigner issues and verifies HMAC-SHA256 signed
//     tokens of the form payload.signature (both base64url) carrying a
//     subject and an expiry TokenTTL (24h) after issue. Verify returns
//     ErrTokenMalformed, ErrTokenSignature or ErrTokenExpired on failure.
//   - Gateway key storage: GatewayKeyCipher encrypts and decrypts the
//     brokerage API key with AES-256-GCM, prepending a random nonce to the
//     ciphertext. GenerateKey returns a fresh 32-byte key.
//   - SSRF protection: SSRFProtection validates outbound URLs for the
//     httpRequest node.
//
// # SSRF Protection
//
// NewSSRFProtection allows the http and https schemes only and blocks
// localhost, private, link-local and cloud metadata addresses.
// NewSSRFProtectionWithConfig takes an SSRFConfig, which can also name
// allowed and blocked domains. ValidateURL checks the scheme, the domain
// lists, the host name itself and every address the host name resolves
// to; a host name that does not resolve passes once its name checks pass.
//
//	ssrf := security.NewSSRFProtection()
//	if err := ssrf.ValidateURL(url); err != nil {
//	    return fmt.Errorf("httpRequest: %w", err)
//	}
//
// # Tokens
//
//	signer := security.NewTokenSigner(secret)
//	token, err := signer.Issue("admin")
//	subject, err := signer.Verify(token)
//
// # Scope
//
// The package has no general input validator, output sanitizer, rate
// limiter, access-control or policy engine. Request rate limiting lives in
// pkg/middleware.
//
// # Thread Safety
//
// TokenSigner, GatewayKeyCipher and SSRFProtection hold no mutable state
// after construction and can be used concurrently from multiple
// goroutines.
package security
