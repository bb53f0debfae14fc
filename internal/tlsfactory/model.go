/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package tlsfactory loads a server certificate and private key once per
// worker and yields a reusable TLS context (spec.md §4.3 "TLS context
// factory"). It is a thin adapter over the teacher's certificates package,
// which already owns certificate/cipher/curve management.
package tlsfactory

import (
	"crypto/tls"

	libtls "github.com/nabbar/origin-server/certificates"
	"github.com/nabbar/origin-server/errors"
)

// Factory holds the worker-wide, read-only-after-init TLS configuration
// (spec.md §3: "The TLS context is created once per worker, shared
// read-only among all TLS connections, destroyed at worker exit").
type Factory struct {
	cfg libtls.TLSConfig
}

// Load reads certFile/keyFile once and builds the Factory. Key/cert
// mismatch aborts the worker (spec.md §6).
func Load(certFile, keyFile string) (*Factory, errors.Error) {
	cfg := libtls.New()

	if err := cfg.AddCertificatePairFile(keyFile, certFile); err != nil {
		return nil, ErrorCertificatePairLoad.Error(errors.New(0, err.Error()))
	}

	return &Factory{cfg: cfg}, nil
}

// ServerConfig returns a *tls.Config usable by a TLS listener/session for
// the given server name (SNI). Safe for concurrent use: the underlying
// certificates.TLSConfig clones its certificate/cipher/curve lists per
// call (certificates/model.go's TlsConfig).
func (f *Factory) ServerConfig(serverName string) *tls.Config {
	return f.cfg.TlsConfig(serverName)
}
